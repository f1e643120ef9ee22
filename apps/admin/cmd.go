package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
	"github.com/iepapp/iep/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB
	validate   *validator.Validate
	translator ut.Translator
	tenants    *tenant.Service
	users      *user.Service
}

// translated turns validator errors into a ValidationError worded in the configured locale.
func (cli *commandLine) translated(err error) error {
	var vErrs validator.ValidationErrors
	if cli.translator == nil || !errors.As(err, &vErrs) {
		return err
	}
	msgs := core.TranslateErrors(vErrs, cli.translator)
	fields := make([]core.FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		fields = append(fields, core.FieldError{Field: vErr.Field(), Error: msgs[vErr.Field()]})
	}
	return core.NewValidationError(nil, fields...)
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                                          - run a goose command (up, down, status, ...)")
	fmt.Println("  addtenant -name NAME -subdomain SUBDOMAIN                       - create a school")
	fmt.Println("  adduser -tenant SUBDOMAIN -username USERNAME -email EMAIL [-role ROLE] [-admin] - create or update a user")
	fmt.Println("  resetpassword -tenant SUBDOMAIN -username USERNAME|EMAIL        - reset user's password")
}

// promptPassword reads a password from the terminal. An empty password prints the usage.
func promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addTenantCmd := flag.NewFlagSet("addtenant", flag.ContinueOnError)
	addTenantName := addTenantCmd.String("name", "", "The name of the school.")
	addTenantSubdomain := addTenantCmd.String("subdomain", "", "The subdomain identifying the school.")

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserTenant := addUserCmd.String("tenant", "", "The subdomain of the user's school.")
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRole := addUserCmd.String("role", user.RoleTeacher, "The user's role.")
	addUserIsAdmin := addUserCmd.Bool("admin", false, "Grant the admin role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordTenant := resetPasswordCmd.String("tenant", "", "The subdomain of the user's school.")
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addtenant":
		if err := addTenantCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addTenantName == "" || *addTenantSubdomain == "" {
			addTenantCmd.Usage()
			return errHelp
		}
		return cli.addTenant(*addTenantName, *addTenantSubdomain)

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserTenant == "" || *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		role := *addUserRole
		if *addUserIsAdmin {
			role = user.RoleAdmin
		}
		return cli.addUser(*addUserTenant, *addUserUname, *addUserEmail, pwd, role)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordTenant == "" || *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordTenant, *resetPasswordUname, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}
