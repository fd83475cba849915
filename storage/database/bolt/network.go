package boltdb

import (
	"context"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/trezcool/formnet/core/network"
)

type networkRepository struct {
	db *bbolt.DB
}

var _ network.Repository = (*networkRepository)(nil) // interface compliance check

func NewNetworkRepository(db *bbolt.DB) network.Repository {
	return &networkRepository{db: db}
}

// insertAll appends rows to bucket `name` in one transaction.
func insertAll[T any](db *bbolt.DB, name []byte, rows []T) error {
	return db.Update(func(tx *bbolt.Tx) error {
		for _, row := range rows {
			if _, err := insert(tx, name, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func inYear(yearID string) func(string) bool {
	return func(rowYear string) bool { return yearID == "" || rowYear == yearID }
}

func (repo *networkRepository) CreateSubnets(_ context.Context, subnets ...network.Subnet) ([]network.Subnet, error) {
	created := make([]network.Subnet, 0, len(subnets))
	for _, s := range subnets {
		s.ID = uuid.New().String()
		created = append(created, s)
	}
	if err := insertAll(repo.db, subnetsBucket, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (repo *networkRepository) QuerySubnets(_ context.Context, yearID string) ([]network.Subnet, error) {
	keep := inYear(yearID)
	return scan(repo.db, subnetsBucket, func(s network.Subnet) bool { return keep(s.AcademicYearID) })
}

func (repo *networkRepository) CreateCenters(_ context.Context, centers ...network.Center) ([]network.Center, error) {
	created := make([]network.Center, 0, len(centers))
	for _, c := range centers {
		c.ID = uuid.New().String()
		created = append(created, c)
	}
	if err := insertAll(repo.db, centersBucket, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (repo *networkRepository) QueryCenters(_ context.Context, yearID string) ([]network.Center, error) {
	keep := inYear(yearID)
	return scan(repo.db, centersBucket, func(c network.Center) bool { return keep(c.AcademicYearID) })
}

func (repo *networkRepository) CreateFamilies(_ context.Context, families ...network.Family) ([]network.Family, error) {
	created := make([]network.Family, 0, len(families))
	for _, f := range families {
		f.ID = uuid.New().String()
		created = append(created, f)
	}
	if err := insertAll(repo.db, familiesBucket, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (repo *networkRepository) QueryFamilies(_ context.Context, yearID string) ([]network.Family, error) {
	keep := inYear(yearID)
	return scan(repo.db, familiesBucket, func(f network.Family) bool { return keep(f.AcademicYearID) })
}
