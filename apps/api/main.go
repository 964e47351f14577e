package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	echoapi "github.com/trezcool/bunkguard/apps/api/echo"
	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/preference"
	"github.com/trezcool/bunkguard/core/semester"
	"github.com/trezcool/bunkguard/core/subject"
	"github.com/trezcool/bunkguard/core/user"
	"github.com/trezcool/bunkguard/services/email"
	"github.com/trezcool/bunkguard/services/logger"
	"github.com/trezcool/bunkguard/services/metrics"
	"github.com/trezcool/bunkguard/storage/cache/memory"
	"github.com/trezcool/bunkguard/storage/cache/redis"
	"github.com/trezcool/bunkguard/storage/database"
	"github.com/trezcool/bunkguard/storage/database/dummy"
	"github.com/trezcool/bunkguard/storage/database/sqlx"
)

type repositories struct {
	users       user.Repository
	subjects    subject.Repository
	semesters   semester.Repository
	preferences preference.Repository
	close       func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Flush()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	ctx := context.Background()

	// set up DB
	repos, err := setUpRepositories(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up cache
	var cache core.Cache
	switch conf.Cache.Backend {
	case "redis":
		rc, err := rediscache.New(ctx, conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up cache: %v", err), err)
		}
		defer func() { _ = rc.Close() }()
		cache = rc
	default:
		cache = memcache.New(conf)
	}

	// set up metrics
	registry := prometheus.NewRegistry()
	metrics, err := metricsvc.NewPrometheusMetrics(registry)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up metrics: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(logger, conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}
	usrSvc := user.NewService(repos.users, mailSvc, logger, conf)
	prefSvc := preference.NewService(repos.preferences, cache, logger, conf)
	subjSvc := subject.NewService(subject.Deps{
		Repo:     repos.subjects,
		PrefSvc:  prefSvc,
		Users:    usrSvc,
		Cache:    cache,
		MailSvc:  mailSvc,
		Logger:   logger,
		Metrics:  metrics,
		CacheTTL: conf.Cache.TTL,
	})
	semSvc := semester.NewService(repos.semesters)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	subject.InitValidators(validate, translator)
	semester.InitValidators(validate, translator)
	preference.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("db").Set(conf.Database.Engine)
	expvar.NewString("cache").Set(conf.Cache.Backend)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			SubjectSvc:     subjSvc,
			SemesterSvc:    semSvc,
			PrefSvc:        prefSvc,
			Validate:       validate,
			Translator:     translator,
			MetricsHandler: metrics.Handler(),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpRepositories opens the configured database engine. `memory` keeps everything in process.
func setUpRepositories(ctx context.Context, conf *core.Config) (*repositories, error) {
	switch conf.Database.Engine {
	case "memory":
		db := dummydb.Open()
		return &repositories{
			users:       dummydb.NewUserRepository(db),
			subjects:    dummydb.NewSubjectRepository(db),
			semesters:   dummydb.NewSemesterRepository(db),
			preferences: dummydb.NewPreferenceRepository(db),
			close:       func() error { return nil },
		}, nil

	case "postgres":
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Ping(ctx, db); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "pinging database")
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &repositories{
			users:       sqlxrepos.NewUserRepository(db),
			subjects:    sqlxrepos.NewSubjectRepository(db),
			semesters:   sqlxrepos.NewSemesterRepository(db),
			preferences: sqlxrepos.NewPreferenceRepository(db),
			close:       db.Close,
		}, nil
	}
	return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
