package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/formnet/apps/api/echo"
	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/network"
	"github.com/trezcool/formnet/core/response"
	"github.com/trezcool/formnet/core/transfer"
	"github.com/trezcool/formnet/core/user"
	"github.com/trezcool/formnet/storage/database/inmem"
	"github.com/trezcool/formnet/tests"
)

const year = "2024-2025"

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

type env struct {
	app   Server
	conf  *core.Config
	db    *inmemdb.DB
	forms *form.Service
	users user.Repository
}

func setup(t *testing.T) env {
	conf := &core.Config{
		AppName:   "Formnet",
		SecretKey: "secret",
		TestMode:  true,
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
	}

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	network.InitValidators(validate, translator)
	form.InitValidators(validate, translator)

	db := inmemdb.Open()
	formRepo := inmemdb.NewFormRepository(db)
	userRepo := inmemdb.NewUserRepository(db)
	networkRepo := inmemdb.NewNetworkRepository(db)
	formSvc := form.NewService(formRepo, validate)

	app := NewServer(&Options{
		Conf:           conf,
		Logger:         core.NopLogger{},
		Validate:       validate,
		Translator:     translator,
		FormSvc:        formSvc,
		ResponseSvc:    response.NewService(inmemdb.NewResponseRepository(db), formRepo),
		Importer:       transfer.NewImporter(userRepo, networkRepo, validate, translator, core.NopLogger{}),
		Rollover:       transfer.NewRollover(formRepo, userRepo, networkRepo, core.NopLogger{}),
		DisableReqLogs: true,
	})
	return env{app: app, conf: conf, db: db, forms: formSvc, users: userRepo}
}

func (e env) createUser(t *testing.T, email, role string) user.User {
	return testutil.CreateUser(t, e.users, email, role, year, true)
}

func (e env) token(t *testing.T, usr user.User) string {
	token, err := GenerateToken(NewClaims(usr, e.conf), e.conf.SecretKey)
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func (e env) do(t *testing.T, method, path, token string, obj interface{}) *httptest.ResponseRecorder {
	var data []byte
	if obj != nil {
		data = marshallObj(t, obj)
	}
	req, rec := newAuthRequest(method, path, token, data)
	e.app.ServeHTTP(rec, req)
	return rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app Server, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
