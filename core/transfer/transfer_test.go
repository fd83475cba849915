package transfer_test

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/network"
	"github.com/trezcool/formnet/core/response"
	. "github.com/trezcool/formnet/core/transfer"
	"github.com/trezcool/formnet/core/user"
	"github.com/trezcool/formnet/storage/database/inmem"
)

const year = "2024-2025"

type env struct {
	db       *inmemdb.DB
	forms    form.Repository
	users    user.Repository
	network  network.Repository
	importer *Importer
	rollover *Rollover
}

func setup(t *testing.T) env {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	network.InitValidators(validate, translator)

	db := inmemdb.Open()
	e := env{
		db:      db,
		forms:   inmemdb.NewFormRepository(db),
		users:   inmemdb.NewUserRepository(db),
		network: inmemdb.NewNetworkRepository(db),
	}
	e.importer = NewImporter(e.users, e.network, validate, translator, core.NopLogger{})
	e.rollover = NewRollover(e.forms, e.users, e.network, core.NopLogger{})
	return e
}

func TestImporter_ImportUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("valid rows are stored, invalid rows reported", func(t *testing.T) {
		e := setup(t)
		input := strings.Join([]string{
			"email,name,surname,role,academic_year_id,phone,professional_family,center,subnet,active",
			"ana@mail.es, Ana ,Pérez,gestor,,600000000,Informática,IES Uno,Subred Norte,",
			"",
			"bad-email,Luis,Gómez,gestor,,,,,,",
			"eva@mail.es,Eva,Ruiz,Coordinador_Subred,2023-2024,,,,,false",
			"max@mail.es,Max,Díaz,jefe,,,,,,",
			"a@mail.es,A,B,gestor,,,,,,true,extra",
		}, "\r\n")

		res := e.importer.ImportUsers(ctx, strings.NewReader(input), year)
		assert.False(t, res.Success)
		assert.Equal(t, "import completed with errors", res.Message)
		assert.Equal(t, 5, res.TotalProcessed)
		assert.Equal(t, 2, res.Successful)
		assert.Equal(t, 3, res.Failed)
		require.Len(t, res.Errors, 3)
		assert.True(t, strings.HasPrefix(res.Errors[0], "row 2: email: "), res.Errors[0])
		assert.Equal(t, "row 4: role: invalid role", res.Errors[1])
		assert.Equal(t, "row 5: expected at most 10 columns, got 11", res.Errors[2])

		users, err := e.users.QueryUsers(ctx, user.QueryFilter{})
		require.NoError(t, err)
		require.Len(t, users, 2)

		ana, eva := users[0], users[1]
		assert.NotEmpty(t, ana.ID)
		assert.Equal(t, "Ana", ana.Name)
		assert.Equal(t, year, ana.AcademicYearID)
		assert.Equal(t, "IES Uno", ana.Center)
		assert.True(t, ana.IsActive)
		assert.Equal(t, user.RoleCoordinadorSubred, eva.Role)
		assert.Equal(t, "2023-2024", eva.AcademicYearID)
		assert.False(t, eva.IsActive)
	})

	t.Run("all rows valid", func(t *testing.T) {
		e := setup(t)
		input := "email,name,surname,role\nana@mail.es,Ana,Pérez,gestor\nluis@mail.es,Luis,Gómez,coordinador_general\n"

		res := e.importer.ImportUsers(ctx, strings.NewReader(input), year)
		assert.Equal(t, ImportResult{
			Success:        true,
			Message:        "2 users imported successfully",
			TotalProcessed: 2,
			Successful:     2,
			Errors:         []string{},
		}, res)
	})

	t.Run("missing academic year", func(t *testing.T) {
		e := setup(t)
		res := e.importer.ImportUsers(ctx, strings.NewReader("header\nana@mail.es,Ana,Pérez,gestor"), "")
		assert.False(t, res.Success)
		assert.Equal(t, []string{"row 1: academic_year_id: this field is required"}, res.Errors)
	})

	t.Run("unreadable input", func(t *testing.T) {
		e := setup(t)
		res := e.importer.ImportUsers(ctx, iotest.ErrReader(errors.New("boom")), year)
		assert.False(t, res.Success)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, 0, res.TotalProcessed)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0], "boom")
	})
}

func TestImporter_ImportNetwork(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	res := e.importer.Import(ctx, EntitySubnets, strings.NewReader("name,island,cifp_id\nSubred Norte,Tenerife,\nSubred Sur,Mallorca,\n"), year)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, []string{"row 2: island: invalid island"}, res.Errors)

	res = e.importer.Import(ctx, EntityCenters, strings.NewReader("code,name,type,island,subnet_id\n38001,IES Uno,ies,Tenerife,\n38002,CEIP Dos,CEIP,Tenerife,\n"), year)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, []string{"row 2: type: invalid center type"}, res.Errors)

	res = e.importer.Import(ctx, EntityFamilies, strings.NewReader("code,name\nIFC,Informática y Comunicaciones\n"), year)
	assert.True(t, res.Success)

	centers, err := e.network.QueryCenters(ctx, year)
	require.NoError(t, err)
	require.Len(t, centers, 1)
	assert.Equal(t, network.CenterIES, centers[0].Type)
	assert.True(t, centers[0].IsActive)

	res = e.importer.Import(ctx, EntityFamilies, strings.NewReader("code,name\nIFC,Informática\n"), "")
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Failed)

	res = e.importer.Import(ctx, "lol", strings.NewReader(""), year)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"lol: unknown entity"}, res.Errors)
}

func TestRollover(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	const next = "2025-2026"

	subnets, err := e.network.CreateSubnets(ctx, network.Subnet{Name: "Norte", Island: network.IslandTenerife, AcademicYearID: year})
	require.NoError(t, err)
	_, err = e.network.CreateCenters(ctx, network.Center{Code: "38001", Name: "IES Uno", SubnetID: subnets[0].ID, AcademicYearID: year})
	require.NoError(t, err)
	_, err = e.network.CreateFamilies(ctx, network.Family{Code: "IFC", Name: "Informática", AcademicYearID: year})
	require.NoError(t, err)
	usrs, err := e.users.CreateUsers(ctx, user.User{Email: "ana@mail.es", Role: user.RoleGestor, AcademicYearID: year})
	require.NoError(t, err)
	f := form.New(form.NewForm{Title: "Memoria", AcademicYearID: year}, core.NowFunc())
	require.NoError(t, e.forms.CreateForms(ctx, f))

	t.Run("network", func(t *testing.T) {
		res, err := e.rollover.CopyNetworkAcrossYear(ctx, year, next)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, 3, res.TotalProcessed)

		newSubnets, err := e.network.QuerySubnets(ctx, next)
		require.NoError(t, err)
		require.Len(t, newSubnets, 1)
		assert.NotEqual(t, subnets[0].ID, newSubnets[0].ID)

		newCenters, err := e.network.QueryCenters(ctx, next)
		require.NoError(t, err)
		require.Len(t, newCenters, 1)
		assert.Equal(t, newSubnets[0].ID, newCenters[0].SubnetID)

		oldCenters, err := e.network.QueryCenters(ctx, year)
		require.NoError(t, err)
		assert.Equal(t, subnets[0].ID, oldCenters[0].SubnetID)
	})

	t.Run("users", func(t *testing.T) {
		res, err := e.rollover.CopyUsersAcrossYear(ctx, year, next)
		require.NoError(t, err)
		assert.Equal(t, 1, res.TotalProcessed)

		copies, err := e.users.QueryUsers(ctx, user.QueryFilter{AcademicYearID: next})
		require.NoError(t, err)
		require.Len(t, copies, 1)
		assert.NotEqual(t, usrs[0].ID, copies[0].ID)
		assert.Equal(t, usrs[0].Email, copies[0].Email)
	})

	t.Run("forms", func(t *testing.T) {
		res, err := e.rollover.CopyFormsAcrossYear(ctx, year, next)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Successful)

		copies, err := e.forms.QueryForms(ctx, form.QueryFilter{AcademicYearID: next})
		require.NoError(t, err)
		require.Len(t, copies, 1)
		assert.NotEqual(t, f.ID, copies[0].ID)
		assert.Equal(t, f.Title, copies[0].Title)
	})

	t.Run("twice adds nothing", func(t *testing.T) {
		res, err := e.rollover.CopyNetworkAcrossYear(ctx, year, next)
		require.NoError(t, err)
		assert.Equal(t, 3, res.TotalProcessed)
		assert.Equal(t, 0, res.Successful)
		res, err = e.rollover.CopyUsersAcrossYear(ctx, year, next)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Successful)
		res, err = e.rollover.CopyFormsAcrossYear(ctx, year, next)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Successful)

		subnets, err := e.network.QuerySubnets(ctx, next)
		require.NoError(t, err)
		assert.Len(t, subnets, 1)
		centers, err := e.network.QueryCenters(ctx, next)
		require.NoError(t, err)
		assert.Len(t, centers, 1)
		families, err := e.network.QueryFamilies(ctx, next)
		require.NoError(t, err)
		assert.Len(t, families, 1)
		users, err := e.users.QueryUsers(ctx, user.QueryFilter{AcademicYearID: next})
		require.NoError(t, err)
		assert.Len(t, users, 1)
		forms, err := e.forms.QueryForms(ctx, form.QueryFilter{AcademicYearID: next})
		require.NoError(t, err)
		assert.Len(t, forms, 1)
	})

	t.Run("new records join existing subnets", func(t *testing.T) {
		_, err := e.network.CreateCenters(ctx, network.Center{Code: "38002", Name: "IES Dos", SubnetID: subnets[0].ID, AcademicYearID: year})
		require.NoError(t, err)
		_, err = e.users.CreateUsers(ctx, user.User{Email: "luis@mail.es", Role: user.RoleGestor, AcademicYearID: year})
		require.NoError(t, err)

		res, err := e.rollover.CopyNetworkAcrossYear(ctx, year, next)
		require.NoError(t, err)
		assert.Equal(t, 4, res.TotalProcessed)
		assert.Equal(t, 1, res.Successful)
		res, err = e.rollover.CopyUsersAcrossYear(ctx, year, next)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Successful)

		newSubnets, err := e.network.QuerySubnets(ctx, next)
		require.NoError(t, err)
		require.Len(t, newSubnets, 1)
		centers, err := e.network.QueryCenters(ctx, next)
		require.NoError(t, err)
		require.Len(t, centers, 2)
		for _, c := range centers {
			assert.Equal(t, newSubnets[0].ID, c.SubnetID, c.Code)
		}
	})

	t.Run("bad years", func(t *testing.T) {
		_, err := e.rollover.CopyFormsAcrossYear(ctx, year, year)
		assert.True(t, core.IsValidationError(err))
		_, err = e.rollover.CopyUsersAcrossYear(ctx, "", next)
		assert.True(t, core.IsValidationError(err))
	})
}

func TestImportThenExport(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	res := e.importer.ImportUsers(ctx, strings.NewReader("email,name,surname,role\nana@mail.es,Ana,Pérez,gestor\n"), year)
	require.True(t, res.Success)
	users, err := e.users.QueryUsers(ctx, user.QueryFilter{AcademicYearID: year})
	require.NoError(t, err)
	require.Len(t, users, 1)
	ana := users[0]

	f := form.New(form.NewForm{
		Title:          "Memoria",
		AcademicYearID: year,
		Fields: []form.Field{
			{ID: "s1", Type: form.TypeSection, Label: "Datos", Fields: []form.Field{
				{ID: "q1", Type: form.TypeText, Label: "Nombre"},
				{ID: "q2", Type: form.TypeCheckbox, Options: []string{"a", "b"}},
			}},
			{ID: "q3", Type: form.TypeNumber, Label: "Alumnos"},
		},
	}, core.NowFunc())
	require.NoError(t, e.forms.CreateForms(ctx, f))

	responses := response.NewService(inmemdb.NewResponseRepository(e.db), e.forms)
	_, err = responses.Save(ctx, ana.ID, f.ID, map[string]form.Value{
		"q1": form.Text("Ana"),
		"q2": form.MultiChoice("a", "b"),
	}, false)
	require.NoError(t, err)
	rs, err := responses.ListByForm(ctx, f.ID)
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, ExportResponses(&buf, f, rs))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"id", "user_id", "status", "submission_timestamp", "last_modified_timestamp", "Nombre", "q2", "Alumnos"}, records[0])

	rec := records[1]
	assert.Equal(t, rs[0].ID, rec[0])
	assert.Equal(t, ana.ID, rec[1])
	assert.Equal(t, string(response.StatusSubmitted), rec[2])
	assert.NotEmpty(t, rec[3])
	assert.Equal(t, []string{"Ana", "a,b", ""}, rec[5:])
}
