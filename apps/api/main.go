package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/edusphere/edusphere/apps/api/echo"
	"github.com/edusphere/edusphere/apps/shared"
	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/class"
	"github.com/edusphere/edusphere/core/course"
	"github.com/edusphere/edusphere/core/organization"
	"github.com/edusphere/edusphere/core/ratelimit"
	"github.com/edusphere/edusphere/core/user"
	appfs "github.com/edusphere/edusphere/fs"
	emailsvc "github.com/edusphere/edusphere/services/email"
	logsvc "github.com/edusphere/edusphere/services/logger"
	metricsvc "github.com/edusphere/edusphere/services/metrics"
	redisstore "github.com/edusphere/edusphere/storage/redis"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	store, err := shared.OpenStore(ctx, conf, true /* migrate */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	if store.DB == nil {
		dbLogger.Warn("Using the in-memory database: data is lost on restart")
	}
	defer func() {
		if err = store.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up guard & rate limiter
	guard, err := auth.NewGuardFromConfig(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up guard: %v", err), err)
	}

	limiter, err := newLimiter(ctx, conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up rate limiter: %v", err), err)
	}

	// set up metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := metricsvc.New(reg)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(store.UserRepo, mailSvc, conf)
	courseSvc := course.NewService(store.CourseRepo, usrSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := shared.NewValidator()

	core.ParseEmailTemplates(conf, appfs.FS, logger)

	user.LoadCommonPasswords(appfs.FS, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Guard and rate limiter counters.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Guard:      guard,
			Limiter:    limiter,
			Metrics:    metrics,
			UserSvc:    usrSvc,
			OrgSvc:     organization.NewService(store.OrgRepo, usrSvc, store.Txr),
			CourseSvc:  courseSvc,
			ClassSvc:   class.NewService(store.ClassRepo, courseSvc),
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancelShutdown()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(shutdownCtx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// newLimiter builds the configured rate limit store. The memory store is swept by a janitor
// goroutine living as long as ctx.
func newLimiter(ctx context.Context, conf *core.Config, logger core.Logger) (ratelimit.Limiter, error) {
	switch conf.RateLimit.Store {
	case "redis":
		store, err := redisstore.NewLimiter(ctx, conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "", "memory":
		store := ratelimit.NewMemoryStore()
		go store.Run(ctx, conf.RateLimit.CleanupInterval, func(dropped int) {
			if dropped > 0 {
				logger.Debug(fmt.Sprintf("rate limiter: %d expired entries dropped", dropped))
			}
		})
		return store, nil
	default:
		return nil, errors.Errorf("unknown rate limit store %q", conf.RateLimit.Store)
	}
}
