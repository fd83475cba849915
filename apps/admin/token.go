package main

import (
	"context"
	"fmt"

	echoapi "github.com/trezcool/formnet/apps/api/echo"
)

// token prints a signed API token for the user `userID`.
// Authentication lives outside formnet; this is how trusted operators get hold of a bearer token.
func (cli *commandLine) token(userID string) error {
	usr, err := cli.users.GetUser(context.Background(), userID)
	if err != nil {
		return err
	}
	token, err := echoapi.GenerateToken(echoapi.NewClaims(usr, cli.conf), cli.conf.SecretKey)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
