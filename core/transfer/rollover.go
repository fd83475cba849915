package transfer

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/network"
	"github.com/trezcool/formnet/core/user"
)

var errSameYear = errors.New("source and target academic years must differ")

// Rollover copies year-scoped entities into another academic year.
// Copies get fresh ids and timestamps; originals are left untouched. Responses are never copied.
// Records the target year already holds are skipped, so rolling over twice adds nothing.
type Rollover struct {
	forms   form.Repository
	users   user.Repository
	network network.Repository
	logger  core.Logger
}

func NewRollover(forms form.Repository, users user.Repository, network network.Repository, logger core.Logger) *Rollover {
	return &Rollover{forms: forms, users: users, network: network, logger: logger}
}

func checkYears(fromYear, toYear string) error {
	var fldErrs []core.FieldError
	if fromYear == "" {
		fldErrs = append(fldErrs, core.FieldError{Field: "from", Error: "this field is required"})
	}
	if toYear == "" {
		fldErrs = append(fldErrs, core.FieldError{Field: "to", Error: "this field is required"})
	}
	if len(fldErrs) > 0 {
		return core.NewValidationError(nil, fldErrs...)
	}
	if fromYear == toYear {
		return core.NewValidationError(errSameYear, core.FieldError{Field: "to", Error: errSameYear.Error()})
	}
	return nil
}

func rolloverKey(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "\x00")
}

// CopyFormsAcrossYear duplicates the forms of `fromYear` into `toYear`, status & schema included.
func (ro *Rollover) CopyFormsAcrossYear(ctx context.Context, fromYear, toYear string) (ImportResult, error) {
	if err := checkYears(fromYear, toYear); err != nil {
		return ImportResult{}, err
	}
	forms, err := ro.forms.QueryForms(ctx, form.QueryFilter{AcademicYearID: fromYear})
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "querying forms")
	}
	existing, err := ro.forms.QueryForms(ctx, form.QueryFilter{AcademicYearID: toYear})
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "querying target forms")
	}
	seen := make(map[string]bool, len(existing))
	for _, f := range existing {
		seen[rolloverKey(f.Title)] = true
	}

	now := core.NowFunc()
	copies := make([]form.Form, 0, len(forms))
	for _, f := range forms {
		key := rolloverKey(f.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		f.ID = uuid.New().String()
		f.AcademicYearID = toYear
		f.CreatedAt = now
		f.UpdatedAt = now
		copies = append(copies, f)
	}
	if len(copies) > 0 {
		if err = ro.forms.CreateForms(ctx, copies...); err != nil {
			return ImportResult{}, errors.Wrap(err, "creating forms")
		}
	}

	ro.logger.Info("forms rolled over", map[string]interface{}{
		"from": fromYear, "to": toYear, "count": len(copies), "skipped": len(forms) - len(copies),
	})
	return newResult("forms", len(forms), len(copies), nil), nil
}

// CopyUsersAcrossYear duplicates the users of `fromYear` into `toYear`.
func (ro *Rollover) CopyUsersAcrossYear(ctx context.Context, fromYear, toYear string) (ImportResult, error) {
	if err := checkYears(fromYear, toYear); err != nil {
		return ImportResult{}, err
	}
	users, err := ro.users.QueryUsers(ctx, user.QueryFilter{AcademicYearID: fromYear})
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "querying users")
	}
	existing, err := ro.users.QueryUsers(ctx, user.QueryFilter{AcademicYearID: toYear})
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "querying target users")
	}
	seen := make(map[string]bool, len(existing))
	for _, usr := range existing {
		seen[rolloverKey(usr.Email)] = true
	}

	now := core.NowFunc()
	copies := make([]user.User, 0, len(users))
	for _, usr := range users {
		key := rolloverKey(usr.Email)
		if seen[key] {
			continue
		}
		seen[key] = true
		usr.ID = ""
		usr.AcademicYearID = toYear
		usr.CreatedAt = now
		usr.UpdatedAt = now
		copies = append(copies, usr)
	}
	if len(copies) > 0 {
		if _, err = ro.users.CreateUsers(ctx, copies...); err != nil {
			return ImportResult{}, errors.Wrap(err, "creating users")
		}
	}

	ro.logger.Info("users rolled over", map[string]interface{}{
		"from": fromYear, "to": toYear, "count": len(copies), "skipped": len(users) - len(copies),
	})
	return newResult("users", len(users), len(copies), nil), nil
}

// CopyNetworkAcrossYear duplicates the subnets, centers and professional families of `fromYear` into `toYear`.
// Centers are re-attached to the copies of their subnets. Subnets match by name & island,
// centers and families by code.
func (ro *Rollover) CopyNetworkAcrossYear(ctx context.Context, fromYear, toYear string) (ImportResult, error) {
	if err := checkYears(fromYear, toYear); err != nil {
		return ImportResult{}, err
	}
	now := core.NowFunc()

	subnets, err := ro.network.QuerySubnets(ctx, fromYear)
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "querying subnets")
	}
	targetSubnets, err := ro.network.QuerySubnets(ctx, toYear)
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "querying target subnets")
	}
	byKey := make(map[string]string, len(targetSubnets)) // name & island -> target id
	for _, s := range targetSubnets {
		byKey[rolloverKey(s.Name, s.Island)] = s.ID
	}

	subnetIDs := make(map[string]string, len(subnets)) // source id -> target id
	var newSubnets, sources []network.Subnet
	for _, s := range subnets {
		key := rolloverKey(s.Name, s.Island)
		if id, ok := byKey[key]; ok {
			if id != "" {
				subnetIDs[s.ID] = id
			}
			continue
		}
		byKey[key] = ""
		sources = append(sources, s)
		s.ID = ""
		s.AcademicYearID = toYear
		s.CreatedAt, s.UpdatedAt = now, now
		newSubnets = append(newSubnets, s)
	}
	if len(newSubnets) > 0 {
		created, err := ro.network.CreateSubnets(ctx, newSubnets...)
		if err != nil {
			return ImportResult{}, errors.Wrap(err, "creating subnets")
		}
		for i, s := range created {
			subnetIDs[sources[i].ID] = s.ID
			byKey[rolloverKey(s.Name, s.Island)] = s.ID
		}
	}
	// duplicated names within the source year share the first copy
	for _, s := range subnets {
		if _, ok := subnetIDs[s.ID]; !ok {
			subnetIDs[s.ID] = byKey[rolloverKey(s.Name, s.Island)]
		}
	}

	centers, err := ro.network.QueryCenters(ctx, fromYear)
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "querying centers")
	}
	targetCenters, err := ro.network.QueryCenters(ctx, toYear)
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "querying target centers")
	}
	seen := make(map[string]bool, len(targetCenters))
	for _, c := range targetCenters {
		seen[rolloverKey(c.Code)] = true
	}
	var newCenters []network.Center
	for _, c := range centers {
		key := rolloverKey(c.Code)
		if seen[key] {
			continue
		}
		seen[key] = true
		c.ID = ""
		if newID, ok := subnetIDs[c.SubnetID]; ok && newID != "" {
			c.SubnetID = newID
		}
		c.AcademicYearID = toYear
		c.CreatedAt, c.UpdatedAt = now, now
		newCenters = append(newCenters, c)
	}
	if len(newCenters) > 0 {
		if _, err = ro.network.CreateCenters(ctx, newCenters...); err != nil {
			return ImportResult{}, errors.Wrap(err, "creating centers")
		}
	}

	families, err := ro.network.QueryFamilies(ctx, fromYear)
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "querying families")
	}
	targetFamilies, err := ro.network.QueryFamilies(ctx, toYear)
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "querying target families")
	}
	seen = make(map[string]bool, len(targetFamilies))
	for _, f := range targetFamilies {
		seen[rolloverKey(f.Code)] = true
	}
	var newFamilies []network.Family
	for _, f := range families {
		key := rolloverKey(f.Code)
		if seen[key] {
			continue
		}
		seen[key] = true
		f.ID = ""
		f.AcademicYearID = toYear
		f.CreatedAt, f.UpdatedAt = now, now
		newFamilies = append(newFamilies, f)
	}
	if len(newFamilies) > 0 {
		if _, err = ro.network.CreateFamilies(ctx, newFamilies...); err != nil {
			return ImportResult{}, errors.Wrap(err, "creating families")
		}
	}

	total := len(subnets) + len(centers) + len(families)
	copied := len(newSubnets) + len(newCenters) + len(newFamilies)
	ro.logger.Info("network rolled over", map[string]interface{}{
		"from": fromYear, "to": toYear,
		"subnets": len(newSubnets), "centers": len(newCenters), "families": len(newFamilies),
		"skipped": total - copied,
	})
	return newResult("network records", total, copied, nil), nil
}
