package main

import (
	"context"
	"fmt"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/user"
)

// addUser creates a single user.User, typically the first coordinador general.
func (cli *commandLine) addUser(nu user.NewUser) error {
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}
	users, err := cli.users.CreateUsers(context.Background(), nu.User(core.NowFunc()))
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created user %s (%s)\n", users[0].ID, users[0].Email)
	return nil
}
