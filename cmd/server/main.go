// Command server wires the gating pipeline and serves it over HTTP. Every
// store has an in-memory fallback so the binary runs without Redis,
// Postgres or Kafka; configure their URLs to go distributed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	adminhandler "bastion/internal/admin/handler"
	"bastion/internal/audit"
	"bastion/internal/captcha"
	"bastion/internal/challenge"
	challengehandler "bastion/internal/challenge/handler"
	challengeservice "bastion/internal/challenge/service"
	challengestore "bastion/internal/challenge/store"
	fraudservice "bastion/internal/fraud/service"
	fraudstore "bastion/internal/fraud/store"
	"bastion/internal/gate"
	gatehandler "bastion/internal/gate/handler"
	guardhandler "bastion/internal/guard/handler"
	guardservice "bastion/internal/guard/service"
	guardstore "bastion/internal/guard/store"
	"bastion/internal/platform/config"
	"bastion/internal/platform/httpserver"
	"bastion/internal/platform/logger"
	"bastion/internal/platform/metrics"
	"bastion/internal/platform/postgres"
	platformredis "bastion/internal/platform/redis"
	rlmodels "bastion/internal/ratelimit/models"
	rlservice "bastion/internal/ratelimit/service"
	"bastion/internal/ratelimit/store/bucket"
	httptransport "bastion/internal/transport/http"
	"bastion/pkg/platform/circuit"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info("redis connected")
	}

	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if pool != nil {
		defer pool.Close()
		log.Info("postgres connected")
	}

	// Audit trail: the in-memory ring always comes first so the admin API
	// reads locally; Postgres and Kafka fan out behind it.
	trailStores := []audit.Store{audit.NewInMemoryStore()}
	if pool != nil {
		trailStores = append(trailStores, audit.NewPostgresStore(pool))
	}
	if len(cfg.Audit.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic, log)
		if err != nil {
			return fmt.Errorf("connect kafka audit sink: %w", err)
		}
		defer sink.Close(context.Background())
		trailStores = append(trailStores, sink)
		log.Info("kafka audit sink connected", "topic", cfg.Audit.KafkaTopic)
	}
	trail, err := audit.NewFanoutStore(trailStores...)
	if err != nil {
		return fmt.Errorf("build audit trail: %w", err)
	}
	publisher := audit.NewPublisher(trail,
		audit.WithLogger(log),
		audit.WithMetrics(m),
		audit.WithBuffer(cfg.Audit.BufferSize),
	)
	auditWorker := audit.NewWorker(trail, publisher, log)

	breakers := circuit.NewRegistry(circuit.WithSuccessThreshold(cfg.Breakers.SuccessThreshold))
	breakers.Configure(gate.PaymentBreakerName,
		circuit.WithFailureThreshold(cfg.Breakers.PaymentFailureThreshold),
		circuit.WithResetTimeout(cfg.Breakers.PaymentResetTimeout),
	)
	breakers.Configure(gate.EmailBreakerName,
		circuit.WithFailureThreshold(cfg.Breakers.EmailFailureThreshold),
		circuit.WithResetTimeout(cfg.Breakers.EmailResetTimeout),
	)
	breakers.Configure("database",
		circuit.WithFailureThreshold(cfg.Breakers.DatabaseFailureThreshold),
		circuit.WithResetTimeout(cfg.Breakers.DatabaseResetTimeout),
	)
	breakers.Configure(captcha.BreakerName,
		circuit.WithFailureThreshold(cfg.Breakers.CaptchaFailureThreshold),
		circuit.WithResetTimeout(cfg.Breakers.CaptchaResetTimeout),
	)

	issuer, err := challenge.NewTokenIssuer(cfg.Challenge.TokenSigningKey, cfg.Challenge.TokenIssuer, cfg.Challenge.TokenTTL)
	if err != nil {
		return fmt.Errorf("build token issuer: %w", err)
	}

	var chalStore challengestore.Store = challengestore.NewInMemoryStore()
	if rdb != nil {
		chalStore = challengestore.NewRedisStore(rdb.Client)
	}
	chalSvc, err := challengeservice.New(chalStore, issuer,
		challengeservice.WithDifficulty(cfg.Challenge.DefaultDifficulty, cfg.Challenge.MaxDifficulty),
		challengeservice.WithTTL(cfg.Challenge.TTL),
		challengeservice.WithLogger(log),
		challengeservice.WithMetrics(m),
		challengeservice.WithAudit(publisher),
	)
	if err != nil {
		return fmt.Errorf("build challenge service: %w", err)
	}

	var buckets rlservice.BucketStore = bucket.NewInMemoryStore()
	if rdb != nil {
		buckets = bucket.NewRedisStore(rdb.Client)
	}
	limiter, err := rlservice.New(buckets,
		rlservice.WithLogger(log),
		rlservice.WithMetrics(m),
		rlservice.WithFailOpen(cfg.RateLimit.FailOpen),
	)
	if err != nil {
		return fmt.Errorf("build rate limiter: %w", err)
	}

	var guardTokens guardstore.TokenStore = guardstore.NewInMemoryStore()
	if rdb != nil {
		guardTokens = guardstore.NewRedisStore(rdb.Client)
	}
	guardSvc, err := guardservice.New(guardTokens, limiter,
		rlmodels.Config{
			Key:         "form",
			MaxRequests: cfg.RateLimit.FormMaxRequests,
			Window:      cfg.RateLimit.FormWindow,
		},
		guardservice.WithTokenTTL(cfg.Guard.TokenTTL),
		guardservice.WithMinSubmissionTime(cfg.Guard.MinSubmissionTime),
		guardservice.WithLogger(log),
		guardservice.WithMetrics(m),
		guardservice.WithAudit(publisher),
	)
	if err != nil {
		return fmt.Errorf("build guard service: %w", err)
	}

	attempts := buildAttemptStore(cfg, rdb, pool, log)
	var state fraudstore.StateStore = fraudstore.NewInMemoryStateStore()
	if rdb != nil {
		state = fraudstore.NewRedisStateStore(rdb.Client)
	}
	fraudSvc, err := fraudservice.New(attempts, state, cfg.Fraud,
		fraudservice.WithLogger(log),
		fraudservice.WithMetrics(m),
		fraudservice.WithAudit(publisher),
	)
	if err != nil {
		return fmt.Errorf("build fraud service: %w", err)
	}

	gateOpts := []gate.Option{
		gate.WithProcessor(newAcceptingProcessor(log)),
		gate.WithLogger(log),
		gate.WithMetrics(m),
		gate.WithAudit(publisher),
	}
	if cfg.Captcha.Secret != "" {
		verifier, err := captcha.New(cfg.Captcha, breakers,
			captcha.WithLogger(log),
			captcha.WithMetrics(m),
		)
		if err != nil {
			return fmt.Errorf("build captcha verifier: %w", err)
		}
		gateOpts = append(gateOpts, gate.WithCaptcha(verifier))
	}
	gateSvc, err := gate.New(guardSvc, fraudSvc, chalSvc, breakers, gateOpts...)
	if err != nil {
		return fmt.Errorf("build gate: %w", err)
	}

	router := httptransport.NewRouter(registry,
		challengehandler.New(chalSvc, log),
		guardhandler.New(guardSvc, gateSvc, log),
		gatehandler.New(gateSvc, log),
		adminhandler.New(breakers, trail, publisher, log),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("audit worker: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildAttemptStore picks the richest velocity store the configuration
// allows: Postgres for durability, Redis for hot counting, tiered when
// both are up.
func buildAttemptStore(cfg config.Config, rdb *platformredis.Client, pool *pgxpool.Pool, log *slog.Logger) fraudstore.AttemptStore {
	var cache fraudstore.AttemptStore
	if rdb != nil {
		cache = fraudstore.NewRedisAttemptStore(rdb.Client, cfg.Fraud.VelocityWindow)
	}
	var durable fraudstore.AttemptStore
	if pool != nil {
		durable = fraudstore.NewPostgresAttemptStore(pool)
	}

	switch {
	case durable != nil && cache != nil:
		tiered, err := fraudstore.NewTieredAttemptStore(durable, cache, log)
		if err == nil {
			return tiered
		}
		log.Warn("tiered attempt store unavailable, using durable only", "error", err)
		return durable
	case durable != nil:
		return durable
	case cache != nil:
		return cache
	default:
		return fraudstore.NewInMemoryAttemptStore(cfg.Fraud.VelocityWindow)
	}
}
