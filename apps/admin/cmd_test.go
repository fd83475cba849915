package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	echoapi "github.com/trezcool/formnet/apps/api/echo"
	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/network"
	"github.com/trezcool/formnet/core/response"
	"github.com/trezcool/formnet/core/transfer"
	"github.com/trezcool/formnet/core/user"
	"github.com/trezcool/formnet/storage/database"
	sqlxrepos "github.com/trezcool/formnet/storage/database/sqlx"
	"github.com/trezcool/formnet/tests"
)

const year = "2024-2025"

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	conf := &core.Config{
		AppName:   "Formnet",
		SecretKey: "secret",
		TestMode:  true,
		Storage:   core.StorageSQL,
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
		Database: core.DatabaseConfig{
			Engine: database.EngineSQLite,
			Path:   filepath.Join(t.TempDir(), "formnet.sqlite"),
		},
	}

	// set up DB & repos
	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	network.InitValidators(validate, translator)
	form.InitValidators(validate, translator)

	formRepo := sqlxrepos.NewFormRepository(db)
	userRepo := sqlxrepos.NewUserRepository(db)
	networkRepo := sqlxrepos.NewNetworkRepository(db)

	// start CLI
	var out bytes.Buffer
	return &commandLine{
		conf:      conf,
		db:        db,
		out:       &out,
		validate:  validate,
		users:     userRepo,
		forms:     form.NewService(formRepo, validate),
		responses: response.NewService(sqlxrepos.NewResponseRepository(db), formRepo),
		importer:  transfer.NewImporter(userRepo, networkRepo, validate, translator, core.NopLogger{}),
		rollover:  transfer.NewRollover(formRepo, userRepo, networkRepo, core.NopLogger{}),
	}, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string // contained in the error
	wantOut    string
}

func runCLITests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrStr)
				}
			default:
				assert.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_commandLine_run(t *testing.T) {
	cli, out := setup(t)

	runCLITests(t, cli, out, []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: "Usage:"},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "adduser: no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "token: no args", args: []string{"token"}, wantErr: errHelp},
		{name: "loadform: no args", args: []string{"loadform"}, wantErr: errHelp},
		{name: "import: no file", args: []string{"import", "-entity", "users"}, wantErr: errHelp},
		{name: "rollover: no target", args: []string{"rollover", "-from", year}, wantErr: errHelp},
		{name: "export: no form", args: []string{"export"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"token", "-lol", "x"}, wantErrStr: "flag provided but not defined: -lol"},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)

	runCLITests(t, cli, out, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "down: non-int arg", args: []string{"migrate", "down", "lol"}, wantErrStr: "steps must be a positive number (got 'lol')"},
		{name: "version", args: []string{"migrate", "version"}, wantOut: "version: 1 (dirty: false)"},
		{name: "down", args: []string{"migrate", "down", "1"}, wantOut: "version: 0 (dirty: false)"},
		{name: "up", args: []string{"migrate", "up"}, wantOut: "version: 1 (dirty: false)"},
		{name: "up again", args: []string{"migrate", "up"}, wantOut: "version: 1 (dirty: false)"},
	})

	t.Run("bolt storage", func(t *testing.T) {
		db := cli.db
		cli.db = nil
		defer func() { cli.db = db }()
		assert.Equal(t, errNoMigrations, cli.run([]string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_addUserAndToken(t *testing.T) {
	cli, out := setup(t)

	runCLITests(t, cli, out, []cliTest{
		{name: "invalid role", args: []string{"adduser", "-email", "ana@mail.es", "-year", year, "-role", "lol"}, wantErrStr: "failed on the 'role' tag"},
		{name: "add", args: []string{"adduser", "-email", "Ana@Mail.es ", "-year", year}, wantOut: "(ana@mail.es)"},
		{name: "token: user not found", args: []string{"token", "-user", "lol"}, wantErr: user.ErrNotFound},
	})

	users, err := cli.users.QueryUsers(context.Background(), user.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, user.RoleCoordinadorGeneral, users[0].Role)
	assert.True(t, users[0].IsActive)

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "token", "-user", users[0].ID}))

	var claims echoapi.Claims
	token, err := jwt.ParseWithClaims(strings.TrimSpace(out.String()), &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cli.conf.SecretKey), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, users[0].Caller(), claims.Caller())
}

const formYAML = `
title: F1
academic_year_id: "2024-2025"
assigned_roles: [gestor]
fields:
  - id: S1
    type: section
    label: Datos
    fields:
      - id: Q1
        type: radio
        label: Participa
        required: true
        options: ["Sí", "No"]
        rules:
          - operator: equals
            value: "No"
            jump_to_field_id: Q3
      - id: Q2
        type: text
        required: true
  - id: Q3
    type: text
`

func Test_commandLine_loadForm(t *testing.T) {
	cli, out := setup(t)

	jsonForm, err := json.Marshal(testutil.JumpForm(year))
	require.NoError(t, err)

	runCLITests(t, cli, out, []cliTest{
		{name: "yaml", args: []string{"loadform", "-file", writeFile(t, "f1.yaml", formYAML), "-publish"}, wantOut: "(F1, published)"},
		{name: "json", args: []string{"loadform", "-file", writeFile(t, "f1.json", string(jsonForm))}, wantOut: "(F1, draft)"},
		{name: "unsupported format", args: []string{"loadform", "-file", writeFile(t, "f1.txt", "")}, wantErrStr: "\".txt\": unsupported form definition format"},
	})

	forms, err := cli.forms.Query(context.Background(), form.QueryFilter{Status: form.StatusPublished})
	require.NoError(t, err)
	require.Len(t, forms, 1)
	f := forms[0]
	q1, ok := f.Field("Q1")
	require.True(t, ok)
	require.Len(t, q1.Rules, 1)
	assert.Equal(t, "Q3", q1.Rules[0].JumpToFieldID)
	assert.Equal(t, []string{"Q2"}, form.MissingRequired(f, map[string]form.Value{"Q1": form.Choice("Sí")}))
	assert.Empty(t, form.MissingRequired(f, map[string]form.Value{"Q1": form.Choice("No")}))
}

func Test_commandLine_import(t *testing.T) {
	cli, out := setup(t)

	subnets := writeFile(t, "subnets.csv", "name,island,cifp_id\nNorte,Tenerife,\nSur,Tenerife,\n")
	users := writeFile(t, "users.csv", "email,name,surname,role\nana@mail.es,Ana,Pérez,gestor\nlol,Luis,Gómez,gestor\n")

	runCLITests(t, cli, out, []cliTest{
		{name: "missing file", args: []string{"import", "-entity", "users", "-file", "lol.csv", "-year", year}, wantErrStr: "opening CSV file: open lol.csv: no such file or directory"},
		{name: "subnets", args: []string{"import", "-entity", "subnets", "-file", subnets, "-year", year}, wantOut: "2 subnets imported successfully"},
		{name: "users with errors", args: []string{"import", "-entity", "users", "-file", users, "-year", year}, wantErr: errImportFailed},
	})

	var res transfer.ImportResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 2, res.TotalProcessed)
	assert.Equal(t, 1, res.Successful)
	require.Len(t, res.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Errors[0], "row 2: email"), res.Errors[0])

	t.Run("terminal report", func(t *testing.T) {
		isTerminalFunc = func(int) bool { return true }
		defer func() { isTerminalFunc = term.IsTerminal }()

		f, err := os.Create(filepath.Join(t.TempDir(), "report.txt"))
		require.NoError(t, err)
		defer func() { _ = f.Close() }()

		cli.out = f
		defer func() { cli.out = out }()
		require.NoError(t, cli.printResult("users", res))

		report, err := os.ReadFile(f.Name())
		require.NoError(t, err)
		assert.Contains(t, string(report), "processed: 2, imported: 1, failed: 1")
		assert.Contains(t, string(report), "  - row 2: email")
	})
}

func Test_commandLine_rolloverAndExport(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	gestor := testutil.CreateUser(t, cli.users, "ana@mail.es", user.RoleGestor, year, true)
	f := testutil.CreateForm(t, cli.forms, testutil.JumpForm(year), true)
	_, err := cli.responses.Save(ctx, gestor.ID, f.ID, map[string]form.Value{"Q1": form.Choice("No"), "Q3": form.Text("todo bien")}, false)
	require.NoError(t, err)

	exportPath := filepath.Join(t.TempDir(), "export.csv")
	runCLITests(t, cli, out, []cliTest{
		{name: "same year", args: []string{"rollover", "-from", year, "-to", year}, wantErrStr: "source and target academic years must differ"},
		{name: "unknown scope", args: []string{"rollover", "-from", year, "-to", "2025-2026", "-scopes", "lol"}, wantErrStr: "\"lol\": no such scope"},
		{name: "rollover", args: []string{"rollover", "-from", year, "-to", "2025-2026", "-scopes", "users,forms"}, wantOut: `"success": true`},
		{name: "export: form not found", args: []string{"export", "-form", "lol"}, wantErr: form.ErrNotFound},
		{name: "export", args: []string{"export", "-form", f.ID, "-out", exportPath}},
	})

	copied, err := cli.users.QueryUsers(ctx, user.QueryFilter{AcademicYearID: "2025-2026"})
	require.NoError(t, err)
	require.Len(t, copied, 1)
	assert.Equal(t, gestor.Email, copied[0].Email)

	file, err := os.Open(exportPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, gestor.ID, records[1][1])
	assert.Equal(t, []string{"No", "", "todo bien"}, records[1][len(transfer.ExportColumns):])
}
