package boltdb_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/network"
	"github.com/trezcool/formnet/core/response"
	"github.com/trezcool/formnet/core/user"
	. "github.com/trezcool/formnet/storage/database/bolt"
)

const year = "2024-2025"

var t0 = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

func openDB(t *testing.T) *bbolt.DB {
	db, err := Open(filepath.Join(t.TempDir(), "formnet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testForm(yearID string) form.Form {
	return form.New(form.NewForm{
		Title:          "Memoria",
		AcademicYearID: yearID,
		AssignedRoles:  []string{user.RoleGestor},
		Fields: []form.Field{
			{ID: "s1", Type: form.TypeSection, Label: "Datos", Fields: []form.Field{
				{ID: "q1", Type: form.TypeRadio, Options: []string{"Sí", "No"}, Rules: []form.ConditionalRule{
					{Operator: form.OpEquals, Value: form.Scalar("No"), JumpToFieldID: "q3"},
				}},
				{ID: "q2", Type: form.TypeText, Required: true},
			}},
			{ID: "q3", Type: form.TypeFile, FileConstraints: &form.FileConstraints{Accept: []string{".pdf"}, MaxSize: 1024}},
		},
	}, t0)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formnet.db")
	db, err := Open(path)
	require.NoError(t, err)
	f := testForm(year)
	require.NoError(t, NewFormRepository(db).CreateForms(context.Background(), f))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	got, err := NewFormRepository(db).GetForm(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestFormRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewFormRepository(openDB(t))

	f1, f2 := testForm(year), testForm("2023-2024")
	require.NoError(t, repo.CreateForms(ctx, f1, f2))

	got, err := repo.GetForm(ctx, f1.ID)
	require.NoError(t, err)
	assert.Equal(t, f1, got)

	_, err = repo.GetForm(ctx, "lol")
	assert.Equal(t, form.ErrNotFound, err)

	forms, err := repo.QueryForms(ctx, form.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, f1.ID, forms[0].ID)
	assert.Equal(t, f2.ID, forms[1].ID)

	f1.Status = form.StatusPublished
	f1.Title = "Memoria final"
	require.NoError(t, repo.UpdateForm(ctx, f1))

	forms, err = repo.QueryForms(ctx, form.QueryFilter{AcademicYearID: year, Status: form.StatusPublished})
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, "Memoria final", forms[0].Title)

	assert.Equal(t, form.ErrNotFound, repo.UpdateForm(ctx, testForm(year)))
}

func TestResponseRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewResponseRepository(openDB(t))

	newResponse := func(id, userID string, status response.Status, at time.Time) response.Response {
		r := response.Response{
			ID:                    id,
			FormID:                "f1",
			UserID:                userID,
			AcademicYearID:        year,
			Values:                map[string]form.Value{"q1": form.Choice("No")},
			Status:                status,
			CreatedAt:             at,
			UpdatedAt:             at,
			ResponseTimestamp:     at,
			LastModifiedTimestamp: at,
		}
		if status == response.StatusSubmitted {
			r.SubmissionTimestamp = &at
		}
		return r
	}

	r1 := newResponse("r1", "u2", response.StatusSubmitted, t0)
	require.NoError(t, repo.CreateResponse(ctx, r1))
	require.NoError(t, repo.CreateResponse(ctx, newResponse("r2", "u1", response.StatusDraft, t0.Add(time.Minute))))
	assert.Equal(t, response.ErrExists, repo.CreateResponse(ctx, newResponse("r3", "u2", response.StatusDraft, t0)))

	got, err := repo.GetResponse(ctx, "u2", "f1")
	require.NoError(t, err)
	assert.Equal(t, r1, got)

	_, err = repo.GetResponse(ctx, "u3", "f1")
	assert.Equal(t, response.ErrNotFound, err)

	r1.Values = map[string]form.Value{"q2": form.Text("hola")}
	require.NoError(t, repo.UpdateResponse(ctx, r1))
	got, err = repo.GetResponse(ctx, "u2", "f1")
	require.NoError(t, err)
	assert.Equal(t, r1, got)

	assert.Equal(t, response.ErrNotFound, repo.UpdateResponse(ctx, newResponse("lol", "u9", response.StatusDraft, t0)))

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "insertion order", want: []string{"r1", "r2"}},
		{name: "user_id", ordering: []core.DBOrdering{{Field: response.OrderByUserID, Ascending: true}}, want: []string{"r2", "r1"}},
		{
			name:     "unset submission timestamps first",
			ordering: []core.DBOrdering{{Field: response.OrderBySubmissionTimestamp, Ascending: true}},
			want:     []string{"r2", "r1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := repo.QueryResponses(ctx, "f1", tt.ordering)
			require.NoError(t, err)
			ids := make([]string, 0, len(rs))
			for _, r := range rs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	rs, err := repo.QueryResponses(ctx, "f2", nil)
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openDB(t))

	created, err := repo.CreateUsers(ctx,
		user.User{Email: "ana@mail.es", Name: "Ana", Role: user.RoleGestor, AcademicYearID: year, IsActive: true, CreatedAt: t0, UpdatedAt: t0},
		user.User{Email: "luis@mail.es", Name: "Luis", Role: user.RoleCoordinadorGeneral, AcademicYearID: year, CreatedAt: t0, UpdatedAt: t0},
	)
	require.NoError(t, err)
	require.Len(t, created, 2)

	got, err := repo.GetUser(ctx, created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, created[1], got)

	_, err = repo.GetUser(ctx, "lol")
	assert.Equal(t, user.ErrNotFound, err)

	active := true
	users, err := repo.QueryUsers(ctx, user.QueryFilter{IsActive: &active})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana", users[0].Name)
}

func TestNetworkRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewNetworkRepository(openDB(t))

	subnets, err := repo.CreateSubnets(ctx, network.NewSubnet{Name: "Norte", Island: network.IslandTenerife}.Subnet(year, t0))
	require.NoError(t, err)
	centers, err := repo.CreateCenters(ctx, network.NewCenter{
		Code: "38001", Name: "IES Uno", Type: network.CenterIES, Island: network.IslandTenerife, SubnetID: subnets[0].ID,
	}.Center(year, t0))
	require.NoError(t, err)
	families, err := repo.CreateFamilies(ctx, network.NewFamily{Code: "IFC", Name: "Informática"}.Family("2023-2024", t0))
	require.NoError(t, err)

	gotSubnets, err := repo.QuerySubnets(ctx, year)
	require.NoError(t, err)
	assert.Equal(t, subnets, gotSubnets)

	gotCenters, err := repo.QueryCenters(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, centers, gotCenters)

	gotFamilies, err := repo.QueryFamilies(ctx, year)
	require.NoError(t, err)
	assert.Empty(t, gotFamilies)

	gotFamilies, err = repo.QueryFamilies(ctx, "2023-2024")
	require.NoError(t, err)
	assert.Equal(t, families, gotFamilies)
}
