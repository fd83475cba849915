package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/trezcool/formnet/storage/database"
)

var errNoMigrations = errors.New("migrations only apply to the sql storage")

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoMigrations
	}
	if len(args) == 0 {
		fmt.Fprintln(cli.out, "Usage: migrate up|down [STEPS]|version")
		return errHelp
	}

	switch args[0] {
	case "up":
		if err := database.Migrate(cli.db); err != nil {
			return err
		}
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("steps must be a positive number (got '%s')", args[1])
			}
			steps = n
		}
		if err := database.Rollback(cli.db, steps); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("%q: no such command", args[0])
	}

	version, dirty, err := database.Version(cli.db)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "version: %d (dirty: %t)\n", version, dirty)
	return nil
}
