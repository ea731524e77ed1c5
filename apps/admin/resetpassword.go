package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core/user"
)

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	uu := user.UpdateUser{Password: pwd}
	if err = uu.Validate(cli.validate, usr); err != nil {
		return cli.validationError(err)
	}
	if _, err = cli.usrSvc.Update(ctx, usr, uu); err != nil {
		return errors.Wrap(err, "updating password")
	}
	fmt.Fprintf(cli.out, "Password of %s reset\n", usr.Email)
	return nil
}
