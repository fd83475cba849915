package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/formnet/core/form"
)

// readForm decodes a form definition. YAML documents go through their JSON rendition,
// so that field values and rule operands decode the same way they do over the API.
func readForm(path string) (form.NewForm, error) {
	var nf form.NewForm

	data, err := os.ReadFile(path)
	if err != nil {
		return nf, errors.Wrap(err, "reading form definition")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc interface{}
		if err = yaml.Unmarshal(data, &doc); err != nil {
			return nf, errors.Wrap(err, "decoding YAML")
		}
		if data, err = json.Marshal(doc); err != nil {
			return nf, errors.Wrap(err, "converting YAML")
		}
	case ".json":
	default:
		return nf, fmt.Errorf("%q: unsupported form definition format", filepath.Ext(path))
	}

	if err = json.Unmarshal(data, &nf); err != nil {
		return nf, errors.Wrap(err, "decoding form definition")
	}
	return nf, nil
}

func (cli *commandLine) loadForm(path string, publish bool) error {
	nf, err := readForm(path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	f, err := cli.forms.Create(ctx, nf)
	if err != nil {
		return err
	}
	if publish {
		if f, err = cli.forms.Publish(ctx, f.ID); err != nil {
			return err
		}
	}
	fmt.Fprintf(cli.out, "created form %s (%s, %s)\n", f.ID, f.Title, f.Status)
	return nil
}
