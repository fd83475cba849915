package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/response"
	"github.com/trezcool/formnet/core/transfer"
	"github.com/trezcool/formnet/core/user"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf      *core.Config
	db        *sqlx.DB
	out       io.Writer
	validate  *validator.Validate
	users     user.Repository
	forms     *form.Service
	responses *response.Service
	importer  *transfer.Importer
	rollover  *transfer.Rollover
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate up|down [STEPS]|version - apply, roll back or show the database migrations")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -year YEAR [-role ROLE] [-name NAME] [-surname SURNAME] - create a user")
	fmt.Fprintln(cli.out, "  token -user ID - issue an API token for a user")
	fmt.Fprintln(cli.out, "  loadform -file FILE [-publish] - create a form from a YAML or JSON definition")
	fmt.Fprintln(cli.out, "  import -entity "+strings.Join(transfer.Entities, "|")+" -file FILE -year YEAR - import a CSV file")
	fmt.Fprintln(cli.out, "  rollover -from YEAR -to YEAR [-scopes forms,users,network] - copy a year's data into another")
	fmt.Fprintln(cli.out, "  export -form ID [-out FILE] - export the responses of a form as CSV")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRole := addUserCmd.String("role", user.RoleCoordinadorGeneral, "The user's role.")
	addUserYear := addUserCmd.String("year", "", "The user's academic year.")
	addUserName := addUserCmd.String("name", "Admin", "The user's name.")
	addUserSurname := addUserCmd.String("surname", "Formnet", "The user's surname.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenUser := tokenCmd.String("user", "", "The user's ID.")

	loadFormCmd := flag.NewFlagSet("loadform", flag.ContinueOnError)
	loadFormFile := loadFormCmd.String("file", "", "The form definition (.yaml, .yml or .json).")
	loadFormPublish := loadFormCmd.Bool("publish", false, "Publish the form once created.")

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importEntity := importCmd.String("entity", "", "One of "+strings.Join(transfer.Entities, ", ")+".")
	importFile := importCmd.String("file", "", "The CSV file, header row included.")
	importYear := importCmd.String("year", "", "The academic year the records belong to.")

	rolloverCmd := flag.NewFlagSet("rollover", flag.ContinueOnError)
	rolloverFrom := rolloverCmd.String("from", "", "The source academic year.")
	rolloverTo := rolloverCmd.String("to", "", "The target academic year.")
	rolloverScopes := rolloverCmd.String("scopes", "network,users,forms", "What to copy.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportForm := exportCmd.String("form", "", "The form's ID.")
	exportOut := exportCmd.String("out", "", "The output file (stdout when empty).")

	for _, fs := range []*flag.FlagSet{addUserCmd, tokenCmd, loadFormCmd, importCmd, rolloverCmd, exportCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" || *addUserYear == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(user.NewUser{
			Email:          *addUserEmail,
			Name:           *addUserName,
			Surname:        *addUserSurname,
			Role:           *addUserRole,
			AcademicYearID: *addUserYear,
			IsActive:       true,
		})
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenUser == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenUser)
	case "loadform":
		if err := loadFormCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loadFormFile == "" {
			loadFormCmd.Usage()
			return errHelp
		}
		return cli.loadForm(*loadFormFile, *loadFormPublish)
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importEntity == "" || *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importFile(*importEntity, *importFile, *importYear)
	case "rollover":
		if err := rolloverCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *rolloverFrom == "" || *rolloverTo == "" {
			rolloverCmd.Usage()
			return errHelp
		}
		return cli.rollOver(*rolloverFrom, *rolloverTo, strings.Split(*rolloverScopes, ","))
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportForm == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(*exportForm, *exportOut)
	default:
		cli.printUsage()
		return errHelp
	}
}
