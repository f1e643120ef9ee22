package main

func (cli *commandLine) resetPassword(tenantKey, uname, pwd string) error {
	ctx, err := cli.tenantContext(tenantKey)
	if err != nil {
		return err
	}
	usr, err := cli.users.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	_, err = cli.users.SetPassword(ctx, usr, pwd)
	return err
}
