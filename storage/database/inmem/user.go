package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/formnet/core/user"
)

type userRepository struct {
	db *table[user.User]
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) CreateUsers(_ context.Context, users ...user.User) ([]user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	created := make([]user.User, 0, len(users))
	for _, usr := range users {
		usr.ID = uuid.New().String()
		repo.db.insert(usr.ID, usr)
		created = append(created, usr)
	}
	return created, nil
}

func (repo *userRepository) GetUser(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.rows[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.filter(filter.Matches), nil
}
