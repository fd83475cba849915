package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/response"
)

const responseColumns = `id, form_id, user_id, academic_year_id, "values", status, created_at, updated_at,
	response_timestamp, last_modified_timestamp, submission_timestamp`

type responseRow struct {
	ID                    string    `db:"id"`
	FormID                string    `db:"form_id"`
	UserID                string    `db:"user_id"`
	AcademicYearID        string    `db:"academic_year_id"`
	Values                []byte    `db:"values"`
	Status                string    `db:"status"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
	ResponseTimestamp     time.Time `db:"response_timestamp"`
	LastModifiedTimestamp time.Time `db:"last_modified_timestamp"`
	SubmissionTimestamp   null.Time `db:"submission_timestamp"`
}

type responseRepository struct {
	db core.DB
}

var _ response.Repository = (*responseRepository)(nil) // interface compliance check

func NewResponseRepository(db core.DB) response.Repository {
	return &responseRepository{db: db}
}

func (repo responseRepository) args(r response.Response) (map[string]interface{}, error) {
	values := r.Values
	if values == nil {
		values = map[string]form.Value{}
	}
	data, err := toJSON(values)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":                      r.ID,
		"form_id":                 r.FormID,
		"user_id":                 r.UserID,
		"academic_year_id":        r.AcademicYearID,
		"values":                  data,
		"status":                  string(r.Status),
		"created_at":              r.CreatedAt.UTC(),
		"updated_at":              r.UpdatedAt.UTC(),
		"response_timestamp":      r.ResponseTimestamp.UTC(),
		"last_modified_timestamp": r.LastModifiedTimestamp.UTC(),
		"submission_timestamp":    nullTime(r.SubmissionTimestamp),
	}, nil
}

func (repo responseRepository) unmarshal(row responseRow) (response.Response, error) {
	r := response.Response{
		ID:                    row.ID,
		FormID:                row.FormID,
		UserID:                row.UserID,
		AcademicYearID:        row.AcademicYearID,
		Values:                map[string]form.Value{},
		Status:                response.Status(row.Status),
		CreatedAt:             row.CreatedAt.UTC(),
		UpdatedAt:             row.UpdatedAt.UTC(),
		ResponseTimestamp:     row.ResponseTimestamp.UTC(),
		LastModifiedTimestamp: row.LastModifiedTimestamp.UTC(),
		SubmissionTimestamp:   timePtr(row.SubmissionTimestamp),
	}
	if err := fromJSON(row.Values, &r.Values); err != nil {
		return response.Response{}, err
	}
	return r, nil
}

func (repo responseRepository) CreateResponse(ctx context.Context, r response.Response) error {
	args, err := repo.args(r)
	if err != nil {
		return err
	}
	_, err = sqlx.NamedExecContext(ctx, repo.db, `
		INSERT INTO responses (`+responseColumns+`)
		VALUES (:id, :form_id, :user_id, :academic_year_id, :values, :status, :created_at, :updated_at,
		        :response_timestamp, :last_modified_timestamp, :submission_timestamp)`, args)
	if err != nil {
		if isUniqueViolation(err) {
			return response.ErrExists
		}
		return errors.Wrap(err, "inserting response")
	}
	return nil
}

func (repo responseRepository) UpdateResponse(ctx context.Context, r response.Response) error {
	args, err := repo.args(r)
	if err != nil {
		return err
	}
	res, err := sqlx.NamedExecContext(ctx, repo.db, `
		UPDATE responses SET
			"values" = :values, status = :status, updated_at = :updated_at,
			last_modified_timestamp = :last_modified_timestamp, submission_timestamp = :submission_timestamp
		WHERE id = :id`, args)
	if err != nil {
		return errors.Wrap(err, "updating response")
	}
	return mustAffect(res, response.ErrNotFound)
}

func (repo responseRepository) GetResponse(ctx context.Context, userID, formID string) (response.Response, error) {
	var row responseRow
	q := repo.db.Rebind(`SELECT ` + responseColumns + ` FROM responses WHERE user_id = ? AND form_id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, userID, formID); err != nil {
		if err == sql.ErrNoRows {
			return response.Response{}, response.ErrNotFound
		}
		return response.Response{}, errors.Wrap(err, "selecting response")
	}
	return repo.unmarshal(row)
}

// orderBy translates ordering into an ORDER BY clause; unknown fields are dropped.
// Unset submission timestamps sort as the earliest ones.
func orderBy(ordering []core.DBOrdering) string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		known := false
		for _, fld := range response.OrderableFields {
			if ord.Field == fld {
				known = true
				break
			}
		}
		if !known {
			continue
		}
		clause := ord.String()
		if ord.Field == response.OrderBySubmissionTimestamp {
			if ord.Ascending {
				clause += " NULLS FIRST"
			} else {
				clause += " NULLS LAST"
			}
		}
		clauses = append(clauses, clause)
	}
	clauses = append(clauses, "seq ASC")
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func (repo responseRepository) QueryResponses(ctx context.Context, formID string, ordering []core.DBOrdering) ([]response.Response, error) {
	var rows []responseRow
	q := repo.db.Rebind(`SELECT ` + responseColumns + ` FROM responses WHERE form_id = ?` + orderBy(ordering))
	if err := repo.db.SelectContext(ctx, &rows, q, formID); err != nil {
		return nil, errors.Wrap(err, "selecting responses")
	}

	rs := make([]response.Response, 0, len(rows))
	for _, row := range rows {
		r, err := repo.unmarshal(row)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}
