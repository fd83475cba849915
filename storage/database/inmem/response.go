package inmemdb

import (
	"context"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/response"
)

type responseRepository struct {
	db *table[response.Response]
}

var _ response.Repository = (*responseRepository)(nil) // interface compliance check

func NewResponseRepository(db *DB) response.Repository {
	return &responseRepository{db: db.response}
}

// clone copies the values mapping so that stored records never alias the caller's.
func clone(r response.Response) response.Response {
	values := make(map[string]form.Value, len(r.Values))
	for id, v := range r.Values {
		values[id] = v
	}
	r.Values = values
	return r
}

// find must be called with a lock held.
func (repo *responseRepository) find(userID, formID string) (response.Response, bool) {
	for _, r := range repo.db.rows {
		if r.UserID == userID && r.FormID == formID {
			return r, true
		}
	}
	return response.Response{}, false
}

func (repo *responseRepository) CreateResponse(_ context.Context, r response.Response) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.find(r.UserID, r.FormID); ok {
		return response.ErrExists
	}
	repo.db.insert(r.ID, clone(r))
	return nil
}

func (repo *responseRepository) UpdateResponse(_ context.Context, r response.Response) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[r.ID]; !ok {
		return response.ErrNotFound
	}
	repo.db.rows[r.ID] = clone(r)
	return nil
}

func (repo *responseRepository) GetResponse(_ context.Context, userID, formID string) (response.Response, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.find(userID, formID); ok {
		return clone(r), nil
	}
	return response.Response{}, response.ErrNotFound
}

func (repo *responseRepository) QueryResponses(_ context.Context, formID string, ordering []core.DBOrdering) ([]response.Response, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rs := repo.db.filter(func(r response.Response) bool { return r.FormID == formID })
	for i := range rs {
		rs[i] = clone(rs[i])
	}
	response.Sort(rs, ordering)
	return rs, nil
}
