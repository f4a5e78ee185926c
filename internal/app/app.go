// Package app wires configuration, storage, services, and transport into a
// runnable auction engine instance.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/leaguehq/auction-engine/internal/config"
	"github.com/leaguehq/auction-engine/internal/domain/event"
	"github.com/leaguehq/auction-engine/internal/infrastructure/account"
	"github.com/leaguehq/auction-engine/internal/infrastructure/notifier"
	"github.com/leaguehq/auction-engine/internal/infrastructure/repository/postgres"
	"github.com/leaguehq/auction-engine/internal/interfaces/httpapi"
	idgen "github.com/leaguehq/auction-engine/internal/platform/id"
	"github.com/leaguehq/auction-engine/internal/platform/resilience"
	"github.com/leaguehq/auction-engine/internal/scheduler"
	"github.com/leaguehq/auction-engine/internal/usecase"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// Application owns the long-lived pieces of the process: the HTTP server,
// the sweep scheduler, the database pool, and the async event dispatcher.
type Application struct {
	Server    *http.Server
	Scheduler *scheduler.Scheduler

	db         *sqlx.DB
	dispatcher *notifier.AsyncDispatcher
	logger     *slog.Logger
}

func New(cfg config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	db, err := otelsqlx.Connect("postgres",
		normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	roundRepo := postgres.NewRoundRepository(db)
	bidRepo := postgres.NewBidRepository(db)
	tiebreakerRepo := postgres.NewTiebreakerRepository(db)
	budgetRepo := postgres.NewBudgetRepository(db)
	ownershipRepo := postgres.NewOwnershipRepository(db)

	var sink event.Publisher
	var dispatcher *notifier.AsyncDispatcher
	if cfg.WebhookEnabled {
		webhook, err := notifier.NewWebhookNotifier(notifier.WebhookConfig{
			EndpointURL: cfg.WebhookEndpointURL,
			Token:       cfg.WebhookToken,
			Timeout:     cfg.WebhookTimeout,
		}, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("build webhook notifier: %w", err)
		}
		dispatcher, err = notifier.NewAsyncDispatcher(webhook, cfg.NotifierWorkers, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("build notifier dispatcher: %w", err)
		}
		sink = dispatcher
	} else {
		sink = notifier.NewLogPublisher(logger)
	}

	ids := idgen.NewRandomGenerator()

	finalizeSvc := usecase.NewFinalizeService(roundRepo, tiebreakerRepo, ownershipRepo, sink, ids, logger)
	bidSvc := usecase.NewBidService(roundRepo, bidRepo, budgetRepo, sink, ids, logger)
	roundSvc := usecase.NewRoundService(
		roundRepo,
		bidRepo,
		tiebreakerRepo,
		finalizeSvc,
		sink,
		ids,
		cfg.TiebreakerStallTimeout,
		logger,
	)
	tiebreakerSvc := usecase.NewTiebreakerService(
		tiebreakerRepo,
		bidRepo,
		budgetRepo,
		finalizeSvc,
		sink,
		resilience.DefaultRetryConfig(),
		logger,
	)

	verifier := account.NewClient(
		&http.Client{Timeout: cfg.AccountTimeout},
		cfg.AccountBaseURL,
		cfg.AccountIntrospectPath,
		resilience.CircuitBreakerConfig{
			Enabled:          cfg.AccountCircuitEnabled,
			FailureThreshold: cfg.AccountCircuitFailureCount,
			OpenTimeout:      cfg.AccountCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AccountCircuitHalfOpenMaxReq,
		},
		logger,
	)

	handler := httpapi.NewHandler(bidSvc, roundSvc, tiebreakerSvc, finalizeSvc, logger)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	sched, err := scheduler.New(scheduler.Config{
		CloseExpiredInterval: cfg.CloseExpiredInterval,
		SweepStalledInterval: cfg.SweepStalledInterval,
	}, roundSvc, tiebreakerSvc, logger)
	if err != nil {
		if dispatcher != nil {
			dispatcher.Close()
		}
		_ = db.Close()
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Application{
		Server:     server,
		Scheduler:  sched,
		db:         db,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Close releases background resources. The HTTP server is shut down by the
// caller before Close so in-flight requests drain first.
func (a *Application) Close() {
	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(); err != nil {
			a.logger.Error("stop scheduler", "error", err)
		}
	}
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("close database", "error", err)
		}
	}
}
