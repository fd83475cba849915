package transfer

import (
	"context"
	"fmt"
	"io"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/network"
	"github.com/trezcool/formnet/core/user"
)

// Importable entities
const (
	EntityUsers    = "users"
	EntitySubnets  = "subnets"
	EntityCenters  = "centers"
	EntityFamilies = "families"
)

var Entities = []string{EntityUsers, EntitySubnets, EntityCenters, EntityFamilies}

// Column layouts, in order. Cells are positional: the header row is skipped, never interpreted.
var (
	UserColumns   = []string{"email", "name", "surname", "role", "academic_year_id", "phone", "professional_family", "center", "subnet", "active"}
	SubnetColumns = []string{"name", "island", "cifp_id"}
	CenterColumns = []string{"code", "name", "type", "island", "subnet_id"}
	FamilyColumns = []string{"code", "name"}
)

const delimiter = ","

var (
	ErrUnknownEntity = errors.New("unknown entity")
	errYearRequired  = errors.New("academic year is required")
)

// Importer bulk-loads users and network entities from delimited text.
// Rows are validated one by one; all the valid rows of an import are stored together.
type Importer struct {
	users      user.Repository
	network    network.Repository
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
}

func NewImporter(
	users user.Repository,
	network network.Repository,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *Importer {
	return &Importer{
		users:      users,
		network:    network,
		validate:   validate,
		translator: translator,
		logger:     logger,
	}
}

// Import dispatches to the importer of `entity`.
func (im *Importer) Import(ctx context.Context, entity string, r io.Reader, yearID string) ImportResult {
	switch entity {
	case EntityUsers:
		return im.ImportUsers(ctx, r, yearID)
	case EntitySubnets:
		return im.ImportSubnets(ctx, r, yearID)
	case EntityCenters:
		return im.ImportCenters(ctx, r, yearID)
	case EntityFamilies:
		return im.ImportFamilies(ctx, r, yearID)
	default:
		return failure("import failed", errors.Wrap(ErrUnknownEntity, entity))
	}
}

// row is one non-blank data line, split into trimmed cells.
type row struct {
	num   int // 1-based, header and blank lines excluded
	cells []string
}

// cell returns the i-th cell, or "" when the row is short.
func (r row) cell(i int) string {
	if i < len(r.cells) {
		return r.cells[i]
	}
	return ""
}

// readRows reads all of r and splits it into data rows.
func readRows(r io.Reader) ([]row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading input")
	}

	var (
		rows   []row
		header = true
	)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		cells := strings.Split(line, delimiter)
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		rows = append(rows, row{num: len(rows) + 1, cells: cells})
	}
	return rows, nil
}

// rowError formats the validation failure of one row.
func (im *Importer) rowError(r row, err error) string {
	fldErrs := core.TranslateErrors(err, im.translator, "row")
	msgs := make([]string, 0, len(fldErrs))
	for _, fe := range fldErrs {
		msgs = append(msgs, fe.Field+": "+fe.Error)
	}
	return fmt.Sprintf("row %d: %s", r.num, strings.Join(msgs, "; "))
}

func checkWidth(r row, columns []string) error {
	if len(r.cells) > len(columns) {
		return errors.Errorf("expected at most %d columns, got %d", len(columns), len(r.cells))
	}
	return nil
}

// run parses every row with `parse`, then stores the valid ones with `commit`.
func (im *Importer) run(
	ctx context.Context,
	noun string,
	r io.Reader,
	columns []string,
	parse func(row) error,
	commit func(context.Context) (int, error),
) ImportResult {
	rows, err := readRows(r)
	if err != nil {
		im.logger.Error("unreadable "+noun+" import", err)
		return failure("error processing the file", err)
	}

	var rowErrs []string
	for _, rw := range rows {
		if err := checkWidth(rw, columns); err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("row %d: %s", rw.num, err))
			continue
		}
		if err := parse(rw); err != nil {
			rowErrs = append(rowErrs, im.rowError(rw, err))
		}
	}

	stored, err := commit(ctx)
	if err != nil {
		err = errors.Wrapf(err, "storing %s", noun)
		im.logger.Error(noun+" import failed", err)
		res := failure("import failed", err)
		res.TotalProcessed = len(rows)
		return res
	}

	res := newResult(noun, len(rows), stored, rowErrs)
	im.logger.Info(noun+" imported", map[string]interface{}{
		"total": res.TotalProcessed, "successful": res.Successful, "failed": res.Failed,
	})
	return res
}

// ImportUsers loads users laid out as UserColumns.
// An empty academic_year_id cell falls back to `yearID`; `active` is false only when the cell says "false".
func (im *Importer) ImportUsers(ctx context.Context, r io.Reader, yearID string) ImportResult {
	now := core.NowFunc()
	var users []user.User

	parse := func(rw row) error {
		nu := user.NewUser{
			Email:              rw.cell(0),
			Name:               rw.cell(1),
			Surname:            rw.cell(2),
			Role:               rw.cell(3),
			AcademicYearID:     rw.cell(4),
			Phone:              rw.cell(5),
			ProfessionalFamily: rw.cell(6),
			Center:             rw.cell(7),
			Subnet:             rw.cell(8),
			IsActive:           !strings.EqualFold(rw.cell(9), "false"),
		}
		if nu.AcademicYearID == "" {
			nu.AcademicYearID = yearID
		}
		if err := nu.Validate(im.validate); err != nil {
			return err
		}
		users = append(users, nu.User(now))
		return nil
	}
	commit := func(ctx context.Context) (int, error) {
		if len(users) == 0 {
			return 0, nil
		}
		created, err := im.users.CreateUsers(ctx, users...)
		return len(created), err
	}

	return im.run(ctx, "users", r, UserColumns, parse, commit)
}

// ImportSubnets loads subnets laid out as SubnetColumns into academic year `yearID`.
func (im *Importer) ImportSubnets(ctx context.Context, r io.Reader, yearID string) ImportResult {
	if yearID == "" {
		return failure("import failed", errYearRequired)
	}
	now := core.NowFunc()
	var subnets []network.Subnet

	parse := func(rw row) error {
		ns := network.NewSubnet{Name: rw.cell(0), Island: rw.cell(1), CIFPID: rw.cell(2)}
		if err := ns.Validate(im.validate); err != nil {
			return err
		}
		subnets = append(subnets, ns.Subnet(yearID, now))
		return nil
	}
	commit := func(ctx context.Context) (int, error) {
		if len(subnets) == 0 {
			return 0, nil
		}
		created, err := im.network.CreateSubnets(ctx, subnets...)
		return len(created), err
	}

	return im.run(ctx, "subnets", r, SubnetColumns, parse, commit)
}

// ImportCenters loads centers laid out as CenterColumns into academic year `yearID`.
func (im *Importer) ImportCenters(ctx context.Context, r io.Reader, yearID string) ImportResult {
	if yearID == "" {
		return failure("import failed", errYearRequired)
	}
	now := core.NowFunc()
	var centers []network.Center

	parse := func(rw row) error {
		nc := network.NewCenter{
			Code:     rw.cell(0),
			Name:     rw.cell(1),
			Type:     strings.ToUpper(rw.cell(2)),
			Island:   rw.cell(3),
			SubnetID: rw.cell(4),
		}
		if err := nc.Validate(im.validate); err != nil {
			return err
		}
		centers = append(centers, nc.Center(yearID, now))
		return nil
	}
	commit := func(ctx context.Context) (int, error) {
		if len(centers) == 0 {
			return 0, nil
		}
		created, err := im.network.CreateCenters(ctx, centers...)
		return len(created), err
	}

	return im.run(ctx, "centers", r, CenterColumns, parse, commit)
}

// ImportFamilies loads professional families laid out as FamilyColumns into academic year `yearID`.
func (im *Importer) ImportFamilies(ctx context.Context, r io.Reader, yearID string) ImportResult {
	if yearID == "" {
		return failure("import failed", errYearRequired)
	}
	now := core.NowFunc()
	var families []network.Family

	parse := func(rw row) error {
		nf := network.NewFamily{Code: rw.cell(0), Name: rw.cell(1)}
		if err := nf.Validate(im.validate); err != nil {
			return err
		}
		families = append(families, nf.Family(yearID, now))
		return nil
	}
	commit := func(ctx context.Context) (int, error) {
		if len(families) == 0 {
			return 0, nil
		}
		created, err := im.network.CreateFamilies(ctx, families...)
		return len(created), err
	}

	return im.run(ctx, "families", r, FamilyColumns, parse, commit)
}
