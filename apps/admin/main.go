package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/preference"
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

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	ctx := context.Background()
	cli := commandLine{out: os.Stdout}

	var subjRepo subject.Repository
	var prefRepo preference.Repository
	switch conf.Database.Engine {
	case "memory":
		db := dummydb.Open()
		cli.usrRepo = dummydb.NewUserRepository(db)
		subjRepo = dummydb.NewSubjectRepository(db)
		prefRepo = dummydb.NewPreferenceRepository(db)
	default:
		db, err := database.Open(conf)
		errAndDie(logger, err)
		defer func() { _ = db.Close() }()
		errAndDie(logger, database.Ping(ctx, db))

		cli.db = db.DB
		cli.usrRepo = sqlxrepos.NewUserRepository(db)
		subjRepo = sqlxrepos.NewSubjectRepository(db)
		prefRepo = sqlxrepos.NewPreferenceRepository(db)
	}

	// recounts invalidate cached dashboards, which live in redis when the API shares one
	var cache core.Cache = memcache.New(conf)
	if conf.Cache.Backend == "redis" {
		rc, err := rediscache.New(ctx, conf)
		errAndDie(logger, err)
		defer func() { _ = rc.Close() }()
		cache = rc
	}
	metrics, err := metricsvc.NewPrometheusMetrics(prometheus.NewRegistry())
	errAndDie(logger, err)

	cli.subjSvc = subject.NewService(subject.Deps{
		Repo:     subjRepo,
		PrefSvc:  preference.NewService(prefRepo, cache, logger, conf),
		Users:    userGetter{cli.usrRepo},
		Cache:    cache,
		MailSvc:  emailsvc.NewConsoleService(logger, conf),
		Logger:   logger,
		Metrics:  metrics,
		CacheTTL: conf.Cache.TTL,
	})

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		exit(cli.db, 1)
	}
}

// userGetter finds subject owners straight from the repository.
type userGetter struct {
	repo user.Repository
}

func (g userGetter) GetByID(ctx context.Context, id string) (user.User, error) {
	return g.repo.GetUser(ctx, user.GetFilter{ID: id})
}

// exit closes db before leaving since os.Exit skips deferred calls.
func exit(db *sql.DB, code int) {
	if db != nil {
		_ = db.Close()
	}
	os.Exit(code)
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
