package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/formnet/core/network"
)

type networkRepository struct {
	subnet *table[network.Subnet]
	center *table[network.Center]
	family *table[network.Family]
}

var _ network.Repository = (*networkRepository)(nil) // interface compliance check

func NewNetworkRepository(db *DB) network.Repository {
	return &networkRepository{subnet: db.subnet, center: db.center, family: db.family}
}

func (repo *networkRepository) CreateSubnets(_ context.Context, subnets ...network.Subnet) ([]network.Subnet, error) {
	repo.subnet.Lock()
	defer repo.subnet.Unlock()

	created := make([]network.Subnet, 0, len(subnets))
	for _, s := range subnets {
		s.ID = uuid.New().String()
		repo.subnet.insert(s.ID, s)
		created = append(created, s)
	}
	return created, nil
}

func (repo *networkRepository) QuerySubnets(_ context.Context, yearID string) ([]network.Subnet, error) {
	repo.subnet.RLock()
	defer repo.subnet.RUnlock()
	return repo.subnet.filter(func(s network.Subnet) bool { return yearID == "" || s.AcademicYearID == yearID }), nil
}

func (repo *networkRepository) CreateCenters(_ context.Context, centers ...network.Center) ([]network.Center, error) {
	repo.center.Lock()
	defer repo.center.Unlock()

	created := make([]network.Center, 0, len(centers))
	for _, c := range centers {
		c.ID = uuid.New().String()
		repo.center.insert(c.ID, c)
		created = append(created, c)
	}
	return created, nil
}

func (repo *networkRepository) QueryCenters(_ context.Context, yearID string) ([]network.Center, error) {
	repo.center.RLock()
	defer repo.center.RUnlock()
	return repo.center.filter(func(c network.Center) bool { return yearID == "" || c.AcademicYearID == yearID }), nil
}

func (repo *networkRepository) CreateFamilies(_ context.Context, families ...network.Family) ([]network.Family, error) {
	repo.family.Lock()
	defer repo.family.Unlock()

	created := make([]network.Family, 0, len(families))
	for _, f := range families {
		f.ID = uuid.New().String()
		repo.family.insert(f.ID, f)
		created = append(created, f)
	}
	return created, nil
}

func (repo *networkRepository) QueryFamilies(_ context.Context, yearID string) ([]network.Family, error) {
	repo.family.RLock()
	defer repo.family.RUnlock()
	return repo.family.filter(func(f network.Family) bool { return yearID == "" || f.AcademicYearID == yearID }), nil
}
