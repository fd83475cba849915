package boltdb

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/trezcool/formnet/core/form"
)

type formRepository struct {
	db *bbolt.DB
}

var _ form.Repository = (*formRepository)(nil) // interface compliance check

func NewFormRepository(db *bbolt.DB) form.Repository {
	return &formRepository{db: db}
}

func (repo *formRepository) CreateForms(_ context.Context, forms ...form.Form) error {
	return repo.db.Update(func(tx *bbolt.Tx) error {
		for _, f := range forms {
			if err := insertIndexed(tx, formsBucket, formIDs, f.ID, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo *formRepository) GetForm(_ context.Context, id string) (form.Form, error) {
	var f form.Form
	err := repo.db.View(func(tx *bbolt.Tx) error {
		found, err := lookup(tx, formsBucket, formIDs, id, &f)
		if err == nil && !found {
			err = form.ErrNotFound
		}
		return err
	})
	return f, err
}

func (repo *formRepository) QueryForms(_ context.Context, filter form.QueryFilter) ([]form.Form, error) {
	return scan(repo.db, formsBucket, filter.Matches)
}

func (repo *formRepository) UpdateForm(_ context.Context, f form.Form) error {
	return repo.db.Update(func(tx *bbolt.Tx) error {
		found, err := replace(tx, formsBucket, formIDs, f.ID, f)
		if err == nil && !found {
			err = form.ErrNotFound
		}
		return err
	})
}
