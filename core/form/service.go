package form

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("form not found")
	ErrInvalidTransition = errors.New("invalid form status transition")
	ErrArchived          = errors.New("archived forms cannot be modified")
)

type (
	// QueryFilter applies AND operation on its set fields.
	QueryFilter struct {
		AcademicYearID string `query:"academic_year_id"`
		Status         Status `query:"status" validate:"omitempty,formstatus"`
	}

	Repository interface {
		// CreateForms inserts all forms at once; their ids are set by New.
		CreateForms(ctx context.Context, forms ...Form) error
		GetForm(ctx context.Context, id string) (Form, error)
		// QueryForms returns the matching forms in insertion order.
		QueryForms(ctx context.Context, filter QueryFilter) ([]Form, error)
		// UpdateForm replaces the stored record (full-record update).
		UpdateForm(ctx context.Context, f Form) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

// Matches reports whether f passes the filter.
func (qf QueryFilter) Matches(f Form) bool {
	if qf.AcademicYearID != "" && f.AcademicYearID != qf.AcademicYearID {
		return false
	}
	if qf.Status != "" && f.Status != qf.Status {
		return false
	}
	return true
}

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, nf NewForm) (Form, error) {
	if err := nf.Validate(svc.validate); err != nil {
		return Form{}, err
	}
	f := New(nf, core.NowFunc())
	if err := svc.repo.CreateForms(ctx, f); err != nil {
		return Form{}, errors.Wrap(err, "creating form")
	}
	return f, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Form, error) {
	return svc.repo.GetForm(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Form, error) {
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	return svc.repo.QueryForms(ctx, filter)
}

// Update replaces the authored part of a form. Status & creation time are kept.
func (svc *Service) Update(ctx context.Context, id string, nf NewForm) (Form, error) {
	f, err := svc.repo.GetForm(ctx, id)
	if err != nil {
		return Form{}, err
	}
	if f.Status == StatusArchived {
		return Form{}, ErrArchived
	}
	if err = nf.Validate(svc.validate); err != nil {
		return Form{}, err
	}

	f.Title = nf.Title
	f.Description = nf.Description
	f.Fields = nf.Fields
	f.AssignedRoles = nf.AssignedRoles
	f.AcademicYearID = nf.AcademicYearID
	f.StartDate = nf.StartDate
	f.EndDate = nf.EndDate
	f.UpdatedAt = core.NowFunc()
	if err = svc.repo.UpdateForm(ctx, f); err != nil {
		return Form{}, errors.Wrap(err, "updating form")
	}
	return f, nil
}

func (svc *Service) Publish(ctx context.Context, id string) (Form, error) {
	return svc.transition(ctx, id, StatusPublished)
}

func (svc *Service) Archive(ctx context.Context, id string) (Form, error) {
	return svc.transition(ctx, id, StatusArchived)
}

func (svc *Service) transition(ctx context.Context, id string, to Status) (Form, error) {
	f, err := svc.repo.GetForm(ctx, id)
	if err != nil {
		return Form{}, err
	}
	if !f.Status.CanTransitionTo(to) {
		return Form{}, ErrInvalidTransition
	}
	f.Status = to
	f.UpdatedAt = core.NowFunc()
	if err = svc.repo.UpdateForm(ctx, f); err != nil {
		return Form{}, errors.Wrapf(err, "setting form status to %s", to)
	}
	return f, nil
}

// Visible returns the forms of the caller's academic year (every year when unset) that the caller may see.
func (svc *Service) Visible(ctx context.Context, caller user.Caller) ([]Form, error) {
	forms, err := svc.repo.QueryForms(ctx, QueryFilter{AcademicYearID: caller.AcademicYearID})
	if err != nil {
		return nil, errors.Wrap(err, "querying forms")
	}
	return VisibleForms(forms, caller), nil
}
