// Command server wires the marina backend: stores (in-memory or Postgres,
// with an optional Redis read cache), the account, profile, and approval
// services, the audit pipeline, and the HTTP surface. Business logic lives in
// the internal packages; this file only connects them.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	accounthandler "marina/internal/account/handler"
	accountmetrics "marina/internal/account/metrics"
	accountmodels "marina/internal/account/models"
	accountservice "marina/internal/account/service"
	accountstore "marina/internal/account/store"
	approvalhandler "marina/internal/approval/handler"
	approvalmetrics "marina/internal/approval/metrics"
	"marina/internal/approval/resolver"
	approvalservice "marina/internal/approval/service"
	approvalstore "marina/internal/approval/store"
	"marina/internal/audit"
	auditkafka "marina/internal/audit/kafka"
	"marina/internal/platform/config"
	"marina/internal/platform/httpserver"
	"marina/internal/platform/logger"
	platformredis "marina/internal/platform/redis"
	"marina/internal/platform/token"
	profilehandler "marina/internal/profile/handler"
	profilemodels "marina/internal/profile/models"
	profileservice "marina/internal/profile/service"
	profilestore "marina/internal/profile/store"
	httptransport "marina/internal/transport/http"
	id "marina/pkg/domain"
)

// accountStore is the full surface every account store implementation
// (memory, Postgres, cached) provides.
type accountStore interface {
	CreateIfEmailAvailable(ctx context.Context, account *accountmodels.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*accountmodels.Account, error)
	FindByEmail(ctx context.Context, email string) (*accountmodels.Account, error)
	ExistsByID(ctx context.Context, accountID id.AccountID) (bool, error)
	Update(ctx context.Context, account *accountmodels.Account) error
	Execute(ctx context.Context, accountID id.AccountID, validate func(*accountmodels.Account) error, mutate func(*accountmodels.Account)) (*accountmodels.Account, error)
	List(ctx context.Context) ([]*accountmodels.Account, error)
}

type boatmanStore interface {
	CreateIfAccountFree(ctx context.Context, profile *profilemodels.Boatman) error
	FindByID(ctx context.Context, boatmanID id.BoatmanID) (*profilemodels.Boatman, error)
	FindByAccount(ctx context.Context, accountID id.AccountID) (*profilemodels.Boatman, error)
	Update(ctx context.Context, profile *profilemodels.Boatman) error
}

type agencyStore interface {
	CreateIfAccountFree(ctx context.Context, profile *profilemodels.Agency) error
	FindByID(ctx context.Context, agencyID id.AgencyID) (*profilemodels.Agency, error)
	FindByAccount(ctx context.Context, accountID id.AccountID) (*profilemodels.Agency, error)
	Update(ctx context.Context, profile *profilemodels.Agency) error
}

type dbHealth struct{ db *sql.DB }

func (h dbHealth) Health(ctx context.Context) error { return h.db.PingContext(ctx) }

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		accounts    accountStore
		boatmen     boatmanStore
		agencies    agencyStore
		requests    approvalservice.RequestStore
		auditStore  audit.Store
		storeTx     approvalservice.StoreTx
		healthCheck = map[string]httptransport.HealthChecker{}
	)

	if cfg.Database.DSN != "" {
		db, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		accounts = accountstore.NewPostgres(db)
		boatmen = profilestore.NewPostgresBoatman(db)
		agencies = profilestore.NewPostgresAgency(db)
		requests = approvalstore.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		storeTx = approvalservice.NewSQLStoreTx(db)
		healthCheck["postgres"] = dbHealth{db: db}
		log.Info("using postgres stores")
	} else {
		accounts = accountstore.NewInMemory()
		boatmen = profilestore.NewInMemoryBoatman()
		agencies = profilestore.NewInMemoryAgency()
		requests = approvalstore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		accounts = accountstore.NewCached(accounts, redisClient.Client, cfg.Redis.CacheTTL, log)
		healthCheck["redis"] = redisClient
		log.Info("account read cache enabled")
	}

	// Audit pipeline: services emit into a channel, the worker drains it into
	// the store and, when configured, Kafka.
	auditSink := audit.Appender(auditStore)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := auditkafka.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("failed to connect audit kafka sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		auditSink = audit.Tee(auditStore, kafkaSink)
		log.Info("audit kafka sink enabled", "topic", cfg.Kafka.AuditTopic)
	}
	channelAppender, inbox := audit.NewChannel(256)
	auditPublisher := audit.NewPublisher(channelAppender)
	auditWorker := audit.NewWorker(auditSink, inbox)

	jwtService := token.NewJWTService(cfg.Server.JWTSigningKey, "marina")

	accountSvc := accountservice.New(accounts,
		accountservice.WithLogger(log),
		accountservice.WithAuditPublisher(auditPublisher),
		accountservice.WithMetrics(accountmetrics.New()),
	)
	profileSvc := profileservice.New(boatmen, agencies, accounts,
		profileservice.WithLogger(log),
		profileservice.WithAuditPublisher(auditPublisher),
	)

	targetResolver := resolver.New(accounts, boatmen, agencies)
	approvalOpts := []approvalservice.Option{
		approvalservice.WithLogger(log),
		approvalservice.WithAuditPublisher(auditPublisher),
		approvalservice.WithMetrics(approvalmetrics.New()),
	}
	if storeTx != nil {
		approvalOpts = append(approvalOpts, approvalservice.WithStoreTx(storeTx))
	}
	approvalSvc := approvalservice.New(requests, accounts, boatmen, agencies, targetResolver, approvalOpts...)

	router := httptransport.NewRouter(log, healthCheck,
		accounthandler.New(accountSvc, cfg.Server.AdminToken, jwtService, log),
		profilehandler.New(profileSvc, jwtService, log),
		approvalhandler.New(approvalSvc, cfg.Server.AdminToken, log),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting marina server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
