package user

import (
	"context"
	"errors"
)

var (
	// errors
	ErrNotFound = errors.New("user not found")
)

type (
	Repository interface {
		// CreateUsers inserts all users at once, assigning fresh IDs.
		CreateUsers(ctx context.Context, users ...User) ([]User, error)
		GetUser(ctx context.Context, id string) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields; users come in insertion order.
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
	}
)
