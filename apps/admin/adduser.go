package main

import (
	"context"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
	"github.com/iepapp/iep/core/user"
)

// tenantContext returns a context scoped to the tenant with `subdomain`.
func (cli *commandLine) tenantContext(subdomain string) (context.Context, error) {
	ctx := context.Background()
	t, err := cli.tenants.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	return tenant.NewContext(ctx, t.ID), nil
}

// addUser updates or creates an active user with `role`.
func (cli *commandLine) addUser(tenantKey, uname, email, pwd, role string) error {
	ctx, err := cli.tenantContext(tenantKey)
	if err != nil {
		return err
	}
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.users.GetByUsernameOrEmail(ctx, uname)
	if core.IsNotFound(err) {
		usr, err = cli.users.GetByEmail(ctx, email)
	}
	if err != nil {
		if !core.IsNotFound(err) {
			return err
		}
		_, err = cli.users.Create(ctx, user.NewUser{Name: uname, Username: uname, Email: email, Password: pwd, Role: role})
		return err
	}

	active := true
	usr, err = cli.users.Update(ctx, usr.ID, user.UpdateUser{Name: usr.Name, Username: uname, Email: email, Role: role, IsActive: &active})
	if err != nil {
		return err
	}
	_, err = cli.users.SetPassword(ctx, usr, pwd)
	return err
}
