package response

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
)

var (
	// errors
	ErrNotFound = errors.New("response not found")
	ErrExists   = errors.New("a response already exists for this user and form")
)

type (
	Repository interface {
		// CreateResponse inserts r, or fails with ErrExists when the (UserID, FormID) pair is taken.
		CreateResponse(ctx context.Context, r Response) error
		// UpdateResponse replaces the stored record (full-record update).
		UpdateResponse(ctx context.Context, r Response) error
		GetResponse(ctx context.Context, userID, formID string) (Response, error)
		// QueryResponses returns the responses of a form, in insertion order unless `ordering` is given.
		QueryResponses(ctx context.Context, formID string, ordering []core.DBOrdering) ([]Response, error)
	}

	// Service manages the draft/submitted lifecycle of responses. It performs no access check:
	// callers must make sure the user may respond to the form (see form.CanSee).
	Service struct {
		repo  Repository
		forms form.Repository
	}
)

func NewService(repo Repository, forms form.Repository) *Service {
	return &Service{repo: repo, forms: forms}
}

// Save creates or replaces the response of a user to a form.
// values must hold the complete current state: the stored mapping is replaced, never merged.
func (svc *Service) Save(ctx context.Context, userID, formID string, values map[string]form.Value, asDraft bool) (Response, error) {
	f, err := svc.forms.GetForm(ctx, formID)
	if err != nil {
		return Response{}, err
	}
	if values == nil {
		values = make(map[string]form.Value)
	}
	if err = form.CheckValues(f, values); err != nil {
		return Response{}, err
	}

	status := StatusSubmitted
	if asDraft {
		status = StatusDraft
	}

	existing, err := svc.repo.GetResponse(ctx, userID, formID)
	switch {
	case errors.Cause(err) == ErrNotFound:
		now := core.NowFunc()
		r := Response{
			ID:                    uuid.New().String(),
			FormID:                formID,
			UserID:                userID,
			AcademicYearID:        f.AcademicYearID,
			Values:                values,
			Status:                status,
			CreatedAt:             now,
			UpdatedAt:             now,
			ResponseTimestamp:     now,
			LastModifiedTimestamp: now,
		}
		if !asDraft {
			r.SubmissionTimestamp = &now
		}
		err = svc.repo.CreateResponse(ctx, r)
		if err == nil {
			return r, nil
		}
		if errors.Cause(err) != ErrExists {
			return Response{}, errors.Wrap(err, "creating response")
		}
		// lost a race against another save of the same pair: update theirs
		if existing, err = svc.repo.GetResponse(ctx, userID, formID); err != nil {
			return Response{}, errors.Wrap(err, "getting response")
		}
	case err != nil:
		return Response{}, errors.Wrap(err, "getting response")
	}

	now := core.NowFunc()
	existing.Values = values
	existing.Status = status
	existing.UpdatedAt = now
	existing.LastModifiedTimestamp = now
	if !asDraft {
		existing.SubmissionTimestamp = &now
	}
	if err = svc.repo.UpdateResponse(ctx, existing); err != nil {
		return Response{}, errors.Wrap(err, "updating response")
	}
	return existing, nil
}

// GetByUserAndForm looks the response of a user to a form up. A miss is reported with ok=false, not an error.
func (svc *Service) GetByUserAndForm(ctx context.Context, userID, formID string) (r Response, ok bool, err error) {
	r, err = svc.repo.GetResponse(ctx, userID, formID)
	switch {
	case errors.Cause(err) == ErrNotFound:
		return Response{}, false, nil
	case err != nil:
		return Response{}, false, errors.Wrap(err, "getting response")
	}
	return r, true, nil
}

// ListByForm returns every response to a form, in insertion order unless an ordering is given.
func (svc *Service) ListByForm(ctx context.Context, formID string, ordering ...core.DBOrdering) ([]Response, error) {
	for _, ord := range ordering {
		if !isOrderable(ord.Field) {
			return nil, core.NewValidationError(nil, core.FieldError{
				Field: "ordering",
				Error: fmt.Sprintf("cannot order by %q", ord.Field),
			})
		}
	}
	rs, err := svc.repo.QueryResponses(ctx, formID, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying responses")
	}
	return rs, nil
}

func isOrderable(field string) bool {
	for _, f := range OrderableFields {
		if f == field {
			return true
		}
	}
	return false
}
