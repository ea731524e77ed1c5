package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/organization"
	"github.com/edusphere/edusphere/core/user"
)

// platformSlug is the organization super admins are created in by default.
const platformSlug = "platform"

// createUser updates or creates an active user in the organization `orgSlug`,
// creating the organization first when it does not exist.
func (cli *commandLine) createUser(ctx context.Context, nu user.NewUser, orgSlug string) error {
	if err := nu.Validate(cli.validate); err != nil {
		return cli.validationError(err)
	}

	org, err := cli.orgSvc.GetBySlug(ctx, orgSlug)
	if err != nil {
		if !core.IsNotFound(err) {
			return errors.Wrap(err, "finding organization")
		}
		no := organization.NewOrganization{Name: orgSlug, Slug: orgSlug, Type: organization.TypeTrainingCenter}
		if err = no.Validate(cli.validate); err != nil {
			return cli.validationError(err)
		}
		if org, err = cli.orgSvc.Create(ctx, no); err != nil {
			return cli.validationError(err)
		}
		fmt.Fprintf(cli.out, "Organization %q created\n", org.Slug)
	}

	usr, err := cli.usrSvc.GetByEmail(ctx, nu.Email)
	if err != nil {
		if !core.IsNotFound(err) {
			return errors.Wrap(err, "finding user")
		}
		if usr, err = cli.usrSvc.Create(ctx, nu, org.ID); err != nil {
			return cli.validationError(err)
		}
		fmt.Fprintf(cli.out, "User %s created\n", usr.Email)
		return nil
	}

	if usr.OrganizationID != org.ID {
		return errors.Errorf("%s belongs to another organization", usr.Email)
	}
	active := user.StatusActive
	uu := user.UpdateUser{
		FirstName: &nu.FirstName,
		LastName:  &nu.LastName,
		Role:      &nu.Role,
		Status:    &active,
		Password:  nu.Password,
	}
	if _, err = cli.usrSvc.Update(ctx, usr, uu); err != nil {
		return errors.Wrap(err, "updating user")
	}
	fmt.Fprintf(cli.out, "User %s updated\n", usr.Email)
	return nil
}
