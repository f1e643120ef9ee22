package main

import (
	"context"
	"fmt"

	"github.com/iepapp/iep/core/tenant"
)

func (cli *commandLine) addTenant(name, subdomain string) error {
	nt := tenant.NewTenant{Name: name, Subdomain: subdomain}
	if err := nt.Validate(cli.validate); err != nil {
		return cli.translated(err)
	}
	t, err := cli.tenants.Create(context.Background(), nt)
	if err != nil {
		return err
	}
	fmt.Printf("tenant %q created: %s\n", t.Subdomain, t.ID)
	return nil
}
