package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/edusphere/edusphere/apps/shared"
	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/organization"
	"github.com/edusphere/edusphere/core/ratelimit"
	"github.com/edusphere/edusphere/core/user"
	appfs "github.com/edusphere/edusphere/fs"
	emailsvc "github.com/edusphere/edusphere/services/email"
	logsvc "github.com/edusphere/edusphere/services/logger"
	redisstore "github.com/edusphere/edusphere/storage/redis"
)

func main() {
	conf := core.NewConfig()
	ctx := context.Background()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false)

	// set up DB
	store, err := shared.OpenStore(ctx, conf, false /* migrate */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	if store.DB == nil {
		logger.Warn("Using the in-memory database: changes are lost on exit")
	}

	// the memory limiter lives in the API process: only a shared store can be reset from here
	var limiter ratelimit.Limiter
	if conf.RateLimit.Store == "redis" {
		rl, err := redisstore.NewLimiter(ctx, conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up rate limiter: %v", err), err)
		}
		defer func() { _ = rl.Close() }()
		limiter = rl
	}

	user.LoadCommonPasswords(appfs.FS, logger)
	validate, translator := shared.NewValidator()
	usrSvc := user.NewService(store.UserRepo, emailsvc.NewConsoleService(conf), conf)

	// start CLI
	cli := commandLine{
		db:         store.DB,
		usrSvc:     usrSvc,
		orgSvc:     organization.NewService(store.OrgRepo, usrSvc, store.Txr),
		limiter:    limiter,
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	err = cli.run(ctx, os.Args)
	_ = store.Close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
