package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
)

const formColumns = `id, title, description, fields, assigned_roles, academic_year_id, start_date, end_date, status, created_at, updated_at`

type formRow struct {
	ID             string    `db:"id"`
	Title          string    `db:"title"`
	Description    string    `db:"description"`
	Fields         []byte    `db:"fields"`
	AssignedRoles  []byte    `db:"assigned_roles"`
	AcademicYearID string    `db:"academic_year_id"`
	StartDate      null.Time `db:"start_date"`
	EndDate        null.Time `db:"end_date"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type formRepository struct {
	db core.DB
}

var _ form.Repository = (*formRepository)(nil) // interface compliance check

func NewFormRepository(db core.DB) form.Repository {
	return &formRepository{db: db}
}

// args returns the named arguments of f's columns.
func (repo formRepository) args(f form.Form) (map[string]interface{}, error) {
	fields, err := toJSON(f.Fields)
	if err != nil {
		return nil, err
	}
	roles := f.AssignedRoles
	if roles == nil {
		roles = []string{}
	}
	assignedRoles, err := toJSON(roles)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":               f.ID,
		"title":            f.Title,
		"description":      f.Description,
		"fields":           fields,
		"assigned_roles":   assignedRoles,
		"academic_year_id": f.AcademicYearID,
		"start_date":       nullTime(f.StartDate),
		"end_date":         nullTime(f.EndDate),
		"status":           string(f.Status),
		"created_at":       f.CreatedAt.UTC(),
		"updated_at":       f.UpdatedAt.UTC(),
	}, nil
}

func (repo formRepository) unmarshal(row formRow) (form.Form, error) {
	f := form.Form{
		ID:             row.ID,
		Title:          row.Title,
		Description:    row.Description,
		AcademicYearID: row.AcademicYearID,
		StartDate:      timePtr(row.StartDate),
		EndDate:        timePtr(row.EndDate),
		Status:         form.Status(row.Status),
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
	if err := fromJSON(row.Fields, &f.Fields); err != nil {
		return form.Form{}, err
	}
	if err := fromJSON(row.AssignedRoles, &f.AssignedRoles); err != nil {
		return form.Form{}, err
	}
	return f, nil
}

func (repo formRepository) CreateForms(ctx context.Context, forms ...form.Form) error {
	return inTx(ctx, repo.db, func(exec core.DBExecutor) error {
		for _, f := range forms {
			args, err := repo.args(f)
			if err != nil {
				return err
			}
			_, err = sqlx.NamedExecContext(ctx, exec, `
				INSERT INTO forms (`+formColumns+`)
				VALUES (:id, :title, :description, :fields, :assigned_roles, :academic_year_id,
				        :start_date, :end_date, :status, :created_at, :updated_at)`, args)
			if err != nil {
				return errors.Wrap(err, "inserting form")
			}
		}
		return nil
	})
}

func (repo formRepository) GetForm(ctx context.Context, id string) (form.Form, error) {
	var row formRow
	q := repo.db.Rebind(`SELECT ` + formColumns + ` FROM forms WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return form.Form{}, form.ErrNotFound
		}
		return form.Form{}, errors.Wrap(err, "selecting form")
	}
	return repo.unmarshal(row)
}

func (repo formRepository) QueryForms(ctx context.Context, filter form.QueryFilter) ([]form.Form, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.AcademicYearID != "" {
		conds = append(conds, "academic_year_id = ?")
		args = append(args, filter.AcademicYearID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	var rows []formRow
	q := repo.db.Rebind(`SELECT ` + formColumns + ` FROM forms` + where(conds) + ` ORDER BY seq`)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting forms")
	}

	forms := make([]form.Form, 0, len(rows))
	for _, row := range rows {
		f, err := repo.unmarshal(row)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, nil
}

func (repo formRepository) UpdateForm(ctx context.Context, f form.Form) error {
	args, err := repo.args(f)
	if err != nil {
		return err
	}
	res, err := sqlx.NamedExecContext(ctx, repo.db, `
		UPDATE forms SET
			title = :title, description = :description, fields = :fields, assigned_roles = :assigned_roles,
			academic_year_id = :academic_year_id, start_date = :start_date, end_date = :end_date,
			status = :status, updated_at = :updated_at
		WHERE id = :id`, args)
	if err != nil {
		return errors.Wrap(err, "updating form")
	}
	return mustAffect(res, form.ErrNotFound)
}
