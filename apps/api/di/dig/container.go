package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/formnet/apps/api/echo"
	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/network"
	"github.com/trezcool/formnet/core/response"
	"github.com/trezcool/formnet/core/transfer"
	"github.com/trezcool/formnet/core/user"
	logsvc "github.com/trezcool/formnet/services/logger"
	"github.com/trezcool/formnet/storage/database"
	"github.com/trezcool/formnet/storage/database/bolt"
	"github.com/trezcool/formnet/storage/database/inmem"
	sqlxrepos "github.com/trezcool/formnet/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Repositories are the storage backends selected by Config.Storage.
	Repositories struct {
		dig.Out
		Forms     form.Repository
		Responses response.Repository
		Users     user.Repository
		Network   network.Repository
		Closer    DBCloser
	}

	// DBCloser releases the storage backend.
	DBCloser func() error

	ServerParams struct {
		dig.In
		Conf        *core.Config
		Logger      core.Logger
		Validate    *validator.Validate
		Translator  ut.Translator
		FormSvc     *form.Service
		ResponseSvc *response.Service
		Importer    *transfer.Importer
		Rollover    *transfer.Rollover
	}
)

func newLogrus(conf *core.Config) *logrus.Logger {
	return logsvc.NewLogrus(os.Stdout, conf.Debug)
}

func newLogger(lg *logrus.Logger, conf *core.Config) core.Logger {
	return logsvc.New(lg, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	lg := logsvc.NewLogrus(os.Stdout, conf.Debug)
	lg.SetReportCaller(true)
	return logsvc.New(lg, conf)
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	switch conf.Storage {
	case core.StorageSQL:
		return newSQLRepositories(conf, loggerParam.Logger)
	case core.StorageBolt:
		db, err := boltdb.Open(conf.Database.BoltPath)
		if err != nil {
			loggerParam.Logger.Fatal(fmt.Sprintf("opening bolt database: %v", err), err)
		}
		return Repositories{
			Forms:     boltdb.NewFormRepository(db),
			Responses: boltdb.NewResponseRepository(db),
			Users:     boltdb.NewUserRepository(db),
			Network:   boltdb.NewNetworkRepository(db),
			Closer:    db.Close,
		}
	default:
		db := inmemdb.Open()
		return Repositories{
			Forms:     inmemdb.NewFormRepository(db),
			Responses: inmemdb.NewResponseRepository(db),
			Users:     inmemdb.NewUserRepository(db),
			Network:   inmemdb.NewNetworkRepository(db),
			Closer:    func() error { return nil },
		}
	}
}

func newSQLRepositories(conf *core.Config, logger core.Logger) Repositories {
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = database.Migrate(db); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}
	return Repositories{
		Forms:     sqlxrepos.NewFormRepository(db),
		Responses: sqlxrepos.NewResponseRepository(db),
		Users:     sqlxrepos.NewUserRepository(db),
		Network:   sqlxrepos.NewNetworkRepository(db),
		Closer:    db.Close,
	}
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	network.InitValidators(validate, translator)
	form.InitValidators(validate, translator)
	return validate
}

func newServer(p ServerParams) echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Validate:    p.Validate,
		Translator:  p.Translator,
		FormSvc:     p.FormSvc,
		ResponseSvc: p.ResponseSvc,
		Importer:    p.Importer,
		Rollover:    p.Rollover,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogrus))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(form.NewService))
	must(c.Provide(response.NewService))
	must(c.Provide(transfer.NewImporter))
	must(c.Provide(transfer.NewRollover))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
