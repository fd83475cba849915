package network

import "context"

// Repository stores the network entities. Create* calls insert all records at once, assigning fresh IDs.
// Query* calls return the records of one academic year (all years when yearID is empty) in insertion order.
type Repository interface {
	CreateSubnets(ctx context.Context, subnets ...Subnet) ([]Subnet, error)
	QuerySubnets(ctx context.Context, yearID string) ([]Subnet, error)

	CreateCenters(ctx context.Context, centers ...Center) ([]Center, error)
	QueryCenters(ctx context.Context, yearID string) ([]Center, error)

	CreateFamilies(ctx context.Context, families ...Family) ([]Family, error)
	QueryFamilies(ctx context.Context, yearID string) ([]Family, error)
}
