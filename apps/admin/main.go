package main

import (
	"context"
	"log"
	"os"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
	"github.com/iepapp/iep/core/user"
	emailsvc "github.com/iepapp/iep/services/email"
	logsvc "github.com/iepapp/iep/services/logger"
	"github.com/iepapp/iep/storage/database"
	sqlxrepos "github.com/iepapp/iep/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	// set up DB
	ctx := context.Background()
	errAndDie(logger, database.CreateIfNotExist(ctx, conf))
	db, err := database.Open(conf)
	errAndDie(logger, err)
	defer func() { _ = db.Close() }()
	errAndDie(logger, database.Ping(ctx, db.DB))

	validate, translator := core.NewValidator(conf.Locale)
	tenant.InitValidators(validate, translator)

	// start CLI
	store := sqlxrepos.NewStore(db)
	cli := commandLine{
		db:         db.DB,
		validate:   validate,
		translator: translator,
		tenants:    tenant.NewService(sqlxrepos.NewTenantRepository(store)),
		users:      user.NewService(conf, sqlxrepos.NewUserRepository(store), emailsvc.NewConsoleService(conf, logger)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
