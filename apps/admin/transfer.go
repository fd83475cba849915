package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/formnet/core/transfer"
)

var isTerminalFunc = term.IsTerminal // mockable

// errImportFailed is returned once the report of an unsuccessful import was printed.
var errImportFailed = errors.New("import completed with errors")

// printResult writes res as a human readable report on terminals, as JSON otherwise.
func (cli *commandLine) printResult(title string, res transfer.ImportResult) error {
	if f, ok := cli.out.(*os.File); !ok || !isTerminalFunc(int(f.Fd())) {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(cli.out, "%s: %s\n", title, res.Message)
	fmt.Fprintf(cli.out, "  processed: %d, imported: %d, failed: %d\n", res.TotalProcessed, res.Successful, res.Failed)
	for _, e := range res.Errors {
		fmt.Fprintf(cli.out, "  - %s\n", e)
	}
	return nil
}

func (cli *commandLine) importFile(entity, path, yearID string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening CSV file")
	}
	defer func() { _ = file.Close() }()

	res := cli.importer.Import(context.Background(), entity, file, yearID)
	if err = cli.printResult(entity, res); err != nil {
		return err
	}
	if !res.Success {
		return errImportFailed
	}
	return nil
}

func (cli *commandLine) rollOver(fromYear, toYear string, scopes []string) error {
	ctx := context.Background()
	for _, scope := range scopes {
		var (
			res transfer.ImportResult
			err error
		)
		switch strings.TrimSpace(scope) {
		case "forms":
			res, err = cli.rollover.CopyFormsAcrossYear(ctx, fromYear, toYear)
		case "users":
			res, err = cli.rollover.CopyUsersAcrossYear(ctx, fromYear, toYear)
		case "network":
			res, err = cli.rollover.CopyNetworkAcrossYear(ctx, fromYear, toYear)
		default:
			return fmt.Errorf("%q: no such scope", scope)
		}
		if err != nil {
			return err
		}
		if err = cli.printResult(scope, res); err != nil {
			return err
		}
	}
	return nil
}

func (cli *commandLine) export(formID, path string) error {
	ctx := context.Background()
	f, err := cli.forms.Get(ctx, formID)
	if err != nil {
		return err
	}
	rs, err := cli.responses.ListByForm(ctx, f.ID)
	if err != nil {
		return err
	}

	var w io.Writer = cli.out
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "creating export file")
		}
		defer func() { _ = file.Close() }()
		w = file
	}
	return transfer.ExportResponses(w, f, rs)
}
