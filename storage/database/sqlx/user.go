package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/user"
)

const userColumns = `id, email, name, surname, phone, professional_family, role, center, subnet,
	academic_year_id, is_active, created_at, updated_at`

type userRow struct {
	ID                 string    `db:"id"`
	Email              string    `db:"email"`
	Name               string    `db:"name"`
	Surname            string    `db:"surname"`
	Phone              string    `db:"phone"`
	ProfessionalFamily string    `db:"professional_family"`
	Role               string    `db:"role"`
	Center             string    `db:"center"`
	Subnet             string    `db:"subnet"`
	AcademicYearID     string    `db:"academic_year_id"`
	IsActive           bool      `db:"is_active"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (row userRow) user() user.User {
	return user.User{
		ID:                 row.ID,
		Email:              row.Email,
		Name:               row.Name,
		Surname:            row.Surname,
		Phone:              row.Phone,
		ProfessionalFamily: row.ProfessionalFamily,
		Role:               row.Role,
		Center:             row.Center,
		Subnet:             row.Subnet,
		AcademicYearID:     row.AcademicYearID,
		IsActive:           row.IsActive,
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
	}
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:                 usr.ID,
		Email:              usr.Email,
		Name:               usr.Name,
		Surname:            usr.Surname,
		Phone:              usr.Phone,
		ProfessionalFamily: usr.ProfessionalFamily,
		Role:               usr.Role,
		Center:             usr.Center,
		Subnet:             usr.Subnet,
		AcademicYearID:     usr.AcademicYearID,
		IsActive:           usr.IsActive,
		CreatedAt:          usr.CreatedAt.UTC(),
		UpdatedAt:          usr.UpdatedAt.UTC(),
	}
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo userRepository) CreateUsers(ctx context.Context, users ...user.User) ([]user.User, error) {
	created := make([]user.User, 0, len(users))
	err := inTx(ctx, repo.db, func(exec core.DBExecutor) error {
		for _, usr := range users {
			usr.ID = uuid.New().String()
			_, err := sqlx.NamedExecContext(ctx, exec, `
				INSERT INTO users (`+userColumns+`)
				VALUES (:id, :email, :name, :surname, :phone, :professional_family, :role, :center, :subnet,
				        :academic_year_id, :is_active, :created_at, :updated_at)`, newUserRow(usr))
			if err != nil {
				return errors.Wrap(err, "inserting user")
			}
			created = append(created, usr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo userRepository) GetUser(ctx context.Context, id string) (user.User, error) {
	var row userRow
	q := repo.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.user(), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.AcademicYearID != "" {
		conds = append(conds, "academic_year_id = ?")
		args = append(args, filter.AcademicYearID)
	}
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, *filter.IsActive)
	}

	var rows []userRow
	q := repo.db.Rebind(`SELECT ` + userColumns + ` FROM users` + where(conds) + ` ORDER BY seq`)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}
