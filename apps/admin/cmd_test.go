package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
	"github.com/iepapp/iep/core/user"
	"github.com/iepapp/iep/testutil"
)

func setup(t *testing.T) (*commandLine, *testutil.App) {
	app := testutil.NewApp(t)
	return &commandLine{
		validate:   app.Deps.Validate,
		translator: app.Deps.Translator,
		tenants:    app.Deps.TenantSvc,
		users:      app.Deps.UserSvc,
	}, app
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func runCLI(t *testing.T, cli *commandLine, tt cliTest) error {
	t.Helper()
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }
	t.Cleanup(func() { readPasswordFunc = nil })
	return cli.run(append([]string{"admin"}, tt.args...))
}

func checkErr(t *testing.T, err error, tt cliTest) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		require.Error(t, err)
		assert.Contains(t, err.Error(), tt.wantErrStr)
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	orig := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = orig })
	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "timetable", "sql"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, runCLI(t, cli, tt), tt)
		})
	}
}

func Test_commandLine_addTenant(t *testing.T) {
	cli, app := setup(t)
	app.CreateTenant(t, "Taken", "taken")

	tests := []cliTest{
		{name: "no args", args: []string{"addtenant"}, wantErr: errHelp},
		{name: "no subdomain", args: []string{"addtenant", "-name", "Lycée"}, wantErr: errHelp},
		{name: "invalid subdomain", args: []string{"addtenant", "-name", "Lycée", "-subdomain", "Not A Subdomain"}, wantErrStr: "subdomain: must be 3-63 lowercase letters, digits or hyphens"},
		{name: "taken subdomain", args: []string{"addtenant", "-name", "Lycée", "-subdomain", "taken"}, wantErrStr: tenant.ErrSubdomainExists.Error()},
		{name: "create", args: []string{"addtenant", "-name", "Lycée Kapata", "-subdomain", "kapata"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, runCLI(t, cli, tt), tt)
		})
	}

	tnt, err := app.Deps.TenantSvc.GetBySubdomain(context.Background(), "kapata")
	require.NoError(t, err)
	assert.Equal(t, "Lycée Kapata", tnt.Name)
}

func Test_commandLine_translated(t *testing.T) {
	cli, _ := setup(t)

	err := cli.addTenant("Lycée", "-bad-")
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, core.FieldError{Field: "subdomain", Error: "must be 3-63 lowercase letters, digits or hyphens"}, vErr.Fields[0])

	other := errors.New("boom")
	assert.Equal(t, other, cli.translated(other))
}

func Test_commandLine_addUser(t *testing.T) {
	cli, app := setup(t)
	tnt := app.CreateTenant(t, "School", "school")
	existing := app.CreateUser(t, tnt.ID, "awe", user.RoleTeacher, "old-password")

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no tenant", args: []string{"adduser", "-username", "lol", "-email", "lol@test.cd"}, pwd: "pwd", wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-tenant", "school", "-username", "lol"}, pwd: "pwd", wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-tenant", "school", "-username", "lol", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "unknown tenant", args: []string{"adduser", "-tenant", "nope", "-username", "lol", "-email", "lol@test.cd"}, pwd: "pwd", wantErr: tenant.ErrNotFound},
		{name: "create", args: []string{"adduser", "-tenant", "school", "-username", "Joe", "-email", "Joe@Test.cd"}, pwd: "pwd"},
		{name: "create admin", args: []string{"adduser", "-tenant", "school", "-username", "boss", "-email", "boss@test.cd", "-admin"}, pwd: "pwd"},
		{name: "promote existing", args: []string{"adduser", "-tenant", "school", "-username", "awe", "-email", "awe@example.com", "-admin"}, pwd: "new-password"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, runCLI(t, cli, tt), tt)
		})
	}

	ctx := testutil.Ctx(tnt.ID)
	joe, err := app.Deps.UserSvc.GetByUsernameOrEmail(ctx, "joe")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, joe.Role)
	assert.Equal(t, "joe@test.cd", joe.Email)
	assert.NoError(t, joe.CheckPassword("pwd"))

	boss, err := app.Deps.UserSvc.GetByUsernameOrEmail(ctx, "boss")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, boss.Role)

	awe, err := app.Deps.UserSvc.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, awe.Role)
	assert.Equal(t, existing.Email, awe.Email)
	assert.NoError(t, awe.CheckPassword("new-password"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, app := setup(t)
	tnt := app.CreateTenant(t, "School", "school")
	other := app.CreateTenant(t, "Other", "other")
	usr := app.CreateUser(t, tnt.ID, "awe", user.RoleTeacher, "mdr")

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-tenant", "school", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-tenant", "school", "-username", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "user of another tenant", args: []string{"resetpassword", "-tenant", other.Subdomain, "-username", usr.Username}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-tenant", "school", "-username", usr.Username}, pwd: "lol"},
		{name: "reset with email", args: []string{"resetpassword", "-tenant", "school", "-username", usr.Email}, pwd: "lmao"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := runCLI(t, cli, tt)
			checkErr(t, err, tt)
			if err != nil {
				return
			}
			refreshed, err := app.Deps.UserSvc.Get(testutil.Ctx(tnt.ID), usr.ID)
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "password was not updated")
			assert.NoError(t, refreshed.CheckPassword(tt.pwd))
		})
	}
}
