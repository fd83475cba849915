package boltdb

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/response"
)

type responseRepository struct {
	db *bbolt.DB
}

var _ response.Repository = (*responseRepository)(nil) // interface compliance check

func NewResponseRepository(db *bbolt.DB) response.Repository {
	return &responseRepository{db: db}
}

func ownerKey(userID, formID string) []byte {
	return []byte(userID + "\x00" + formID)
}

func (repo *responseRepository) CreateResponse(_ context.Context, r response.Response) error {
	return repo.db.Update(func(tx *bbolt.Tx) error {
		owners := tx.Bucket(responseOwners)
		if owners.Get(ownerKey(r.UserID, r.FormID)) != nil {
			return response.ErrExists
		}
		if err := insertIndexed(tx, responsesBucket, responseIDs, r.ID, r); err != nil {
			return err
		}
		return owners.Put(ownerKey(r.UserID, r.FormID), []byte(r.ID))
	})
}

func (repo *responseRepository) UpdateResponse(_ context.Context, r response.Response) error {
	return repo.db.Update(func(tx *bbolt.Tx) error {
		found, err := replace(tx, responsesBucket, responseIDs, r.ID, r)
		if err == nil && !found {
			err = response.ErrNotFound
		}
		return err
	})
}

func (repo *responseRepository) GetResponse(_ context.Context, userID, formID string) (response.Response, error) {
	var r response.Response
	err := repo.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(responseOwners).Get(ownerKey(userID, formID))
		if id == nil {
			return response.ErrNotFound
		}
		found, err := lookup(tx, responsesBucket, responseIDs, string(id), &r)
		if err == nil && !found {
			err = response.ErrNotFound
		}
		return err
	})
	return r, err
}

func (repo *responseRepository) QueryResponses(_ context.Context, formID string, ordering []core.DBOrdering) ([]response.Response, error) {
	rs, err := scan(repo.db, responsesBucket, func(r response.Response) bool { return r.FormID == formID })
	if err != nil {
		return nil, err
	}
	response.Sort(rs, ordering)
	return rs, nil
}
