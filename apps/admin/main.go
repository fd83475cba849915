package main

import (
	"os"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/network"
	"github.com/trezcool/formnet/core/response"
	"github.com/trezcool/formnet/core/transfer"
	"github.com/trezcool/formnet/core/user"
	logsvc "github.com/trezcool/formnet/services/logger"
	"github.com/trezcool/formnet/storage/database"
	"github.com/trezcool/formnet/storage/database/bolt"
	sqlxrepos "github.com/trezcool/formnet/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	lg := logsvc.NewLogrus(os.Stderr, conf.Debug)
	logger := logsvc.New(lg, conf)

	var (
		cli     = commandLine{conf: conf, out: os.Stdout}
		closeDB func() error
	)

	// set up storage; the in-memory store does not outlive a command, so it falls back to SQL
	var (
		formRepo     form.Repository
		responseRepo response.Repository
		userRepo     user.Repository
		networkRepo  network.Repository
	)
	if conf.Storage == core.StorageBolt {
		db, err := boltdb.Open(conf.Database.BoltPath)
		if err != nil {
			logger.Fatal("opening bolt database", err)
		}
		closeDB = db.Close
		formRepo, responseRepo = boltdb.NewFormRepository(db), boltdb.NewResponseRepository(db)
		userRepo, networkRepo = boltdb.NewUserRepository(db), boltdb.NewNetworkRepository(db)
	} else {
		if err := database.CreateIfNotExist(conf); err != nil {
			logger.Fatal("creating database", err)
		}
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal("opening database", err)
		}
		cli.db, closeDB = db, db.Close
		formRepo, responseRepo = sqlxrepos.NewFormRepository(db), sqlxrepos.NewResponseRepository(db)
		userRepo, networkRepo = sqlxrepos.NewUserRepository(db), sqlxrepos.NewNetworkRepository(db)
	}

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	network.InitValidators(validate, translator)
	form.InitValidators(validate, translator)

	cli.validate = validate
	cli.users = userRepo
	cli.forms = form.NewService(formRepo, validate)
	cli.responses = response.NewService(responseRepo, formRepo)
	cli.importer = transfer.NewImporter(userRepo, networkRepo, validate, translator, logger)
	cli.rollover = transfer.NewRollover(formRepo, userRepo, networkRepo, logger)

	// start CLI
	err := cli.run(os.Args)
	_ = closeDB()
	if err != nil {
		if err != errHelp {
			lg.Errorf("error: %s", err)
		}
		os.Exit(1)
	}
}
