package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"custos/internal/admin"
	"custos/internal/compliance"
	compliancemetrics "custos/internal/compliance/metrics"
	"custos/internal/ledger"
	ledgerhandler "custos/internal/ledger/handler"
	ledgerstore "custos/internal/ledger/store"
	"custos/internal/permission"
	"custos/internal/platform/config"
	"custos/internal/platform/httpserver"
	"custos/internal/platform/logger"
	"custos/internal/platform/middleware"
	platformredis "custos/internal/platform/redis"
	"custos/internal/settings"
	httptransport "custos/internal/transport/http"
	"custos/internal/whitelist"
	whiteliststore "custos/internal/whitelist/store"
	audit "custos/pkg/platform/audit"
	auditkafka "custos/pkg/platform/audit/kafka"
	auditpublisher "custos/pkg/platform/audit/publisher"
	auditmemory "custos/pkg/platform/audit/store/memory"
	auditpostgres "custos/pkg/platform/audit/store/postgres"
	auditworker "custos/pkg/platform/audit/worker"
)

// main wires the registries, engine, ledger, and HTTP surface, then runs
// until interrupted. Business logic lives in the internal packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional Postgres for balances, whitelists, and the audit trail.
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
	}

	// Optional Redis for secure whitelists shared between deployments.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var auditStore audit.Store
	if db != nil {
		auditStore = auditpostgres.New(db)
	} else {
		auditStore = auditmemory.New()
	}

	var whitelistStore whitelist.Store
	switch {
	case redisClient != nil:
		whitelistStore = whiteliststore.NewRedis(redisClient.Client)
	case db != nil:
		whitelistStore = whiteliststore.NewPostgres(db)
	default:
		whitelistStore = whiteliststore.NewInMemory()
	}

	var balances ledger.BalanceStore
	if db != nil {
		balances = ledgerstore.NewPostgres(db)
	} else {
		balances = ledgerstore.NewInMemory()
	}

	group, ctx := errgroup.WithContext(ctx)

	// Audit publisher: synchronous store writes, optional Kafka fan-out.
	publisherOpts := []auditpublisher.Option{
		auditpublisher.WithLogger(log),
		auditpublisher.WithMetrics(auditpublisher.NewMetrics()),
	}
	if cfg.Kafka.Enabled() {
		writer, err := auditkafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer writer.Close()

		inbox := make(chan audit.Event, 1024)
		publisherOpts = append(publisherOpts, auditpublisher.WithInbox(inbox))
		worker := auditworker.New(writer, inbox, log)
		group.Go(func() error {
			err := worker.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	auditor := auditpublisher.New(auditStore, publisherOpts...)

	permissions, err := permission.NewRegistry(cfg.Owner, permission.WithLogger(log))
	if err != nil {
		return err
	}
	whitelists, err := whitelist.New(whitelistStore, permissions, whitelist.WithLogger(log))
	if err != nil {
		return err
	}
	settingsService, err := settings.New(permissions, whitelists, settings.WithLogger(log))
	if err != nil {
		return err
	}

	engine := compliance.NewEngine()
	ledgerService, err := ledger.New(
		cfg.LedgerID,
		engine,
		settingsService,
		whitelists,
		balances,
		auditor,
		ledger.WithLogger(log),
		ledger.WithMetrics(compliancemetrics.New()),
	)
	if err != nil {
		return err
	}

	adminService := admin.New(cfg.LedgerID, permissions, settingsService, whitelists, auditor, admin.WithLogger(log))

	auth := middleware.NewAuthenticator(cfg.JWTSigningKey, log)
	router := httptransport.NewRouter(
		auth,
		ledgerhandler.New(ledgerService, auditStore, log),
		admin.NewHandler(adminService, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting custos",
		"addr", cfg.Addr,
		"ledger_id", cfg.LedgerID,
		"owner", cfg.Owner,
	)

	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
