package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/network"
)

const (
	subnetColumns = `id, name, island, cifp_id, academic_year_id, is_active, created_at, updated_at`
	centerColumns = `id, code, name, type, island, subnet_id, academic_year_id, is_active, created_at, updated_at`
	familyColumns = `id, code, name, academic_year_id, is_active, created_at, updated_at`
)

type (
	subnetRow struct {
		ID             string    `db:"id"`
		Name           string    `db:"name"`
		Island         string    `db:"island"`
		CIFPID         string    `db:"cifp_id"`
		AcademicYearID string    `db:"academic_year_id"`
		IsActive       bool      `db:"is_active"`
		CreatedAt      time.Time `db:"created_at"`
		UpdatedAt      time.Time `db:"updated_at"`
	}

	centerRow struct {
		ID             string    `db:"id"`
		Code           string    `db:"code"`
		Name           string    `db:"name"`
		Type           string    `db:"type"`
		Island         string    `db:"island"`
		SubnetID       string    `db:"subnet_id"`
		AcademicYearID string    `db:"academic_year_id"`
		IsActive       bool      `db:"is_active"`
		CreatedAt      time.Time `db:"created_at"`
		UpdatedAt      time.Time `db:"updated_at"`
	}

	familyRow struct {
		ID             string    `db:"id"`
		Code           string    `db:"code"`
		Name           string    `db:"name"`
		AcademicYearID string    `db:"academic_year_id"`
		IsActive       bool      `db:"is_active"`
		CreatedAt      time.Time `db:"created_at"`
		UpdatedAt      time.Time `db:"updated_at"`
	}
)

type networkRepository struct {
	db core.DB
}

var _ network.Repository = (*networkRepository)(nil) // interface compliance check

func NewNetworkRepository(db core.DB) network.Repository {
	return &networkRepository{db: db}
}

// insertAll inserts every row with the named `query`, inside one transaction.
func (repo networkRepository) insertAll(ctx context.Context, query string, rows []map[string]interface{}) error {
	return inTx(ctx, repo.db, func(exec core.DBExecutor) error {
		for _, row := range rows {
			if _, err := sqlx.NamedExecContext(ctx, exec, query, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo networkRepository) selectByYear(ctx context.Context, dest interface{}, table, columns, yearID string) error {
	var (
		conds []string
		args  []interface{}
	)
	if yearID != "" {
		conds = append(conds, "academic_year_id = ?")
		args = append(args, yearID)
	}
	q := repo.db.Rebind(`SELECT ` + columns + ` FROM ` + table + where(conds) + ` ORDER BY seq`)
	return repo.db.SelectContext(ctx, dest, q, args...)
}

func (repo networkRepository) CreateSubnets(ctx context.Context, subnets ...network.Subnet) ([]network.Subnet, error) {
	rows := make([]map[string]interface{}, 0, len(subnets))
	created := make([]network.Subnet, 0, len(subnets))
	for _, s := range subnets {
		s.ID = uuid.New().String()
		created = append(created, s)
		rows = append(rows, map[string]interface{}{
			"id": s.ID, "name": s.Name, "island": s.Island, "cifp_id": s.CIFPID,
			"academic_year_id": s.AcademicYearID, "is_active": s.IsActive,
			"created_at": s.CreatedAt.UTC(), "updated_at": s.UpdatedAt.UTC(),
		})
	}
	err := repo.insertAll(ctx, `
		INSERT INTO subnets (`+subnetColumns+`)
		VALUES (:id, :name, :island, :cifp_id, :academic_year_id, :is_active, :created_at, :updated_at)`, rows)
	if err != nil {
		return nil, errors.Wrap(err, "inserting subnets")
	}
	return created, nil
}

func (repo networkRepository) QuerySubnets(ctx context.Context, yearID string) ([]network.Subnet, error) {
	var rows []subnetRow
	if err := repo.selectByYear(ctx, &rows, "subnets", subnetColumns, yearID); err != nil {
		return nil, errors.Wrap(err, "selecting subnets")
	}
	subnets := make([]network.Subnet, 0, len(rows))
	for _, row := range rows {
		subnets = append(subnets, network.Subnet{
			ID: row.ID, Name: row.Name, Island: row.Island, CIFPID: row.CIFPID,
			AcademicYearID: row.AcademicYearID, IsActive: row.IsActive,
			CreatedAt: row.CreatedAt.UTC(), UpdatedAt: row.UpdatedAt.UTC(),
		})
	}
	return subnets, nil
}

func (repo networkRepository) CreateCenters(ctx context.Context, centers ...network.Center) ([]network.Center, error) {
	rows := make([]map[string]interface{}, 0, len(centers))
	created := make([]network.Center, 0, len(centers))
	for _, c := range centers {
		c.ID = uuid.New().String()
		created = append(created, c)
		rows = append(rows, map[string]interface{}{
			"id": c.ID, "code": c.Code, "name": c.Name, "type": c.Type, "island": c.Island, "subnet_id": c.SubnetID,
			"academic_year_id": c.AcademicYearID, "is_active": c.IsActive,
			"created_at": c.CreatedAt.UTC(), "updated_at": c.UpdatedAt.UTC(),
		})
	}
	err := repo.insertAll(ctx, `
		INSERT INTO centers (`+centerColumns+`)
		VALUES (:id, :code, :name, :type, :island, :subnet_id, :academic_year_id, :is_active, :created_at, :updated_at)`, rows)
	if err != nil {
		return nil, errors.Wrap(err, "inserting centers")
	}
	return created, nil
}

func (repo networkRepository) QueryCenters(ctx context.Context, yearID string) ([]network.Center, error) {
	var rows []centerRow
	if err := repo.selectByYear(ctx, &rows, "centers", centerColumns, yearID); err != nil {
		return nil, errors.Wrap(err, "selecting centers")
	}
	centers := make([]network.Center, 0, len(rows))
	for _, row := range rows {
		centers = append(centers, network.Center{
			ID: row.ID, Code: row.Code, Name: row.Name, Type: row.Type, Island: row.Island, SubnetID: row.SubnetID,
			AcademicYearID: row.AcademicYearID, IsActive: row.IsActive,
			CreatedAt: row.CreatedAt.UTC(), UpdatedAt: row.UpdatedAt.UTC(),
		})
	}
	return centers, nil
}

func (repo networkRepository) CreateFamilies(ctx context.Context, families ...network.Family) ([]network.Family, error) {
	rows := make([]map[string]interface{}, 0, len(families))
	created := make([]network.Family, 0, len(families))
	for _, f := range families {
		f.ID = uuid.New().String()
		created = append(created, f)
		rows = append(rows, map[string]interface{}{
			"id": f.ID, "code": f.Code, "name": f.Name,
			"academic_year_id": f.AcademicYearID, "is_active": f.IsActive,
			"created_at": f.CreatedAt.UTC(), "updated_at": f.UpdatedAt.UTC(),
		})
	}
	err := repo.insertAll(ctx, `
		INSERT INTO families (`+familyColumns+`)
		VALUES (:id, :code, :name, :academic_year_id, :is_active, :created_at, :updated_at)`, rows)
	if err != nil {
		return nil, errors.Wrap(err, "inserting families")
	}
	return created, nil
}

func (repo networkRepository) QueryFamilies(ctx context.Context, yearID string) ([]network.Family, error) {
	var rows []familyRow
	if err := repo.selectByYear(ctx, &rows, "families", familyColumns, yearID); err != nil {
		return nil, errors.Wrap(err, "selecting families")
	}
	families := make([]network.Family, 0, len(rows))
	for _, row := range rows {
		families = append(families, network.Family{
			ID: row.ID, Code: row.Code, Name: row.Name,
			AcademicYearID: row.AcademicYearID, IsActive: row.IsActive,
			CreatedAt: row.CreatedAt.UTC(), UpdatedAt: row.UpdatedAt.UTC(),
		})
	}
	return families, nil
}
