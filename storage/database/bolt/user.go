package boltdb

import (
	"context"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/trezcool/formnet/core/user"
)

type userRepository struct {
	db *bbolt.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *bbolt.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUsers(_ context.Context, users ...user.User) ([]user.User, error) {
	created := make([]user.User, 0, len(users))
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		for _, usr := range users {
			usr.ID = uuid.New().String()
			if err := insertIndexed(tx, usersBucket, userIDs, usr.ID, usr); err != nil {
				return err
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

func (repo *userRepository) GetUser(_ context.Context, id string) (user.User, error) {
	var usr user.User
	err := repo.db.View(func(tx *bbolt.Tx) error {
		found, err := lookup(tx, usersBucket, userIDs, id, &usr)
		if err == nil && !found {
			err = user.ErrNotFound
		}
		return err
	})
	return usr, err
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	return scan(repo.db, usersBucket, filter.Matches)
}
