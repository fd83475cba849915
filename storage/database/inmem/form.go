package inmemdb

import (
	"context"

	"github.com/trezcool/formnet/core/form"
)

type formRepository struct {
	db *table[form.Form]
}

var _ form.Repository = (*formRepository)(nil) // interface compliance check

func NewFormRepository(db *DB) form.Repository {
	return &formRepository{db: db.form}
}

func (repo *formRepository) CreateForms(_ context.Context, forms ...form.Form) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, f := range forms {
		repo.db.insert(f.ID, f)
	}
	return nil
}

func (repo *formRepository) GetForm(_ context.Context, id string) (form.Form, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if f, ok := repo.db.rows[id]; ok {
		return f, nil
	}
	return form.Form{}, form.ErrNotFound
}

func (repo *formRepository) QueryForms(_ context.Context, filter form.QueryFilter) ([]form.Form, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.filter(filter.Matches), nil
}

func (repo *formRepository) UpdateForm(_ context.Context, f form.Form) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[f.ID]; !ok {
		return form.ErrNotFound
	}
	repo.db.rows[f.ID] = f
	return nil
}
