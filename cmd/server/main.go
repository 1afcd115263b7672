// Command server runs the gatehouse authorization service: the HTTP API,
// the audit outbox relay, and the audit materializing consumer in one
// process.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatehouse/internal/audit"
	auditconsumer "gatehouse/internal/audit/consumer"
	auditmetrics "gatehouse/internal/audit/metrics"
	"gatehouse/internal/audit/relay"
	auditpg "gatehouse/internal/audit/store/postgres"
	"gatehouse/internal/authz"
	authzmetrics "gatehouse/internal/authz/metrics"
	"gatehouse/internal/platform/config"
	"gatehouse/internal/platform/httpserver"
	"gatehouse/internal/platform/kafka/consumer"
	"gatehouse/internal/platform/kafka/producer"
	"gatehouse/internal/platform/logger"
	"gatehouse/internal/platform/postgres"
	"gatehouse/internal/platform/redis"
	"gatehouse/internal/rbac/cache"
	rbacmetrics "gatehouse/internal/rbac/metrics"
	rbacservice "gatehouse/internal/rbac/service"
	rbacpg "gatehouse/internal/rbac/store/postgres"
	"gatehouse/internal/tenant"
	tenantmetrics "gatehouse/internal/tenant/metrics"
	tenantservice "gatehouse/internal/tenant/service"
	tenantstore "gatehouse/internal/tenant/store/tenant"
	"gatehouse/internal/token"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	pool, err := postgres.OpenPool(ctx, cfg.Postgres)
	if err != nil {
		log.Error("failed to open pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	// Audit pipeline: recorder -> outbox -> relay -> kafka -> materializer.
	auditM := auditmetrics.New()
	policies := audit.NewPolicyRegistry()
	for _, p := range []audit.Policy{
		audit.NewPolicy(rbacservice.ResourceTypeRole, []string{"name", "description", "permissions"}),
		audit.NewPolicy(tenantservice.ResourceTypeTenant, []string{"name", "status"}),
	} {
		if err := policies.Register(p); err != nil {
			log.Error("failed to register audit policy", "error", err)
			os.Exit(1)
		}
	}
	auditStore := auditpg.New(db)
	recorder := audit.NewRecorder(auditStore, policies, auditM, log)

	// Tenant lifecycle.
	tenantStore := tenantstore.NewPostgres(pool)
	tenantSvc := tenant.NewService(tenantStore, log,
		tenantservice.WithAuditRecorder(recorder),
		tenantservice.WithMetrics(tenantmetrics.New()),
	)

	// Role management with the Redis permission cache in front of postgres.
	// Without Redis configured the cache constructor yields nil, and a nil
	// *Cache must never reach the service as a non-nil interface value.
	rbacStore := rbacpg.New(pool)
	rbacOpts := []rbacservice.Option{
		rbacservice.WithAuditRecorder(recorder),
		rbacservice.WithMetrics(rbacmetrics.New()),
	}
	if permCache := cache.New(redisClient, cfg.Redis.CacheTTL); permCache != nil {
		rbacOpts = append(rbacOpts, rbacservice.WithCache(permCache))
	}
	rbacSvc := rbacservice.New(rbacStore, rbacStore, log, rbacOpts...)

	// Authorization decisions resolve permissions through the rbac service.
	authzSvc := authz.NewService(rbacSvc, recorder, authzmetrics.New(), log)

	validator := token.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.TokenTTL)

	router := newRouter(routerDeps{
		authz:      authzSvc,
		rbac:       rbacSvc,
		audit:      recorder,
		tenants:    tenantSvc,
		validator:  validator,
		checker:    tenantSvc,
		verifier:   tenantSvc,
		adminToken: cfg.Auth.AdminToken,
		health:     healthHandler(db),
	}, log)

	// The relay and consumer only run when a broker is configured. Without
	// one, events accumulate in the outbox and the trail catches up once a
	// broker appears.
	var kafkaProducer *producer.Producer
	var kafkaConsumer *consumer.Consumer
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err = producer.New(cfg.Kafka.Brokers, log)
		if err != nil {
			log.Error("failed to create kafka producer", "error", err)
			os.Exit(1)
		}
		defer kafkaProducer.Close()

		if err := kafkaProducer.EnsureTopic(ctx, cfg.Kafka.Topic, 3, 1); err != nil {
			log.Error("failed to ensure audit topic", "error", err)
			os.Exit(1)
		}

		auditRelay := relay.New(db, kafkaProducer, cfg.Kafka.Topic,
			cfg.Audit.RelayInterval, cfg.Audit.RelayBatchSize, auditM, log)
		go func() {
			if err := auditRelay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit relay stopped", "error", err)
			}
		}()

		materializer := auditconsumer.NewHandler(auditStore, auditM, log)
		kafkaConsumer, err = consumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup,
			[]string{cfg.Kafka.Topic}, materializer, log)
		if err != nil {
			log.Error("failed to create kafka consumer", "error", err)
			os.Exit(1)
		}
		defer kafkaConsumer.Close()

		// A transient store error makes Run return; the consumer is restarted
		// so materialization resumes once the store recovers. Uncommitted
		// offsets make the broker redeliver the failed batch.
		go runWithRestart(ctx, log, "audit consumer", time.Second, kafkaConsumer.Run)
	} else {
		log.Warn("no kafka brokers configured, audit relay disabled")
	}

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("gatehouse listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// runWithRestart keeps a background loop alive across transient failures,
// doubling the wait between restarts up to 30s. Returns once ctx is done or
// the loop exits cleanly.
func runWithRestart(ctx context.Context, log *slog.Logger, name string, backoff time.Duration, fn func(context.Context) error) {
	const maxBackoff = 30 * time.Second
	for {
		err := fn(ctx)
		if ctx.Err() != nil || err == nil || errors.Is(err, context.Canceled) {
			return
		}
		log.Error(name+" stopped, restarting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// healthHandler reports liveness plus database reachability.
func healthHandler(db interface {
	PingContext(ctx context.Context) error
}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
