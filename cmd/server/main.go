// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	auditpublisher "satudata/internal/audit/publisher"
	auditstore "satudata/internal/audit/store"
	auditworker "satudata/internal/audit/worker"
	"satudata/internal/authz"
	indicatorhandler "satudata/internal/indicator/handler"
	indicatorservice "satudata/internal/indicator/service"
	indicatorstore "satudata/internal/indicator/store"
	jwttoken "satudata/internal/jwt_token"
	"satudata/internal/platform/config"
	"satudata/internal/platform/httpserver"
	"satudata/internal/platform/logger"
	"satudata/internal/platform/middleware"
	"satudata/internal/platform/postgres"
	platformredis "satudata/internal/platform/redis"
	stathandler "satudata/internal/statdata/handler"
	statmetrics "satudata/internal/statdata/metrics"
	statservice "satudata/internal/statdata/service"
	statstore "satudata/internal/statdata/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	gate := authz.New()
	audits := auditstore.NewPostgres(db)
	txRunner := newPostgresTx(db)

	pgCatalog := indicatorstore.NewPostgres(db)
	var catalogStore indicatorservice.Store = pgCatalog
	if redisClient != nil {
		catalogStore = indicatorstore.NewCache(pgCatalog, redisClient.Client, cfg.Redis.CacheTTL, log)
	}
	catalog := indicatorservice.New(catalogStore, gate, audits,
		indicatorservice.WithLogger(log),
		indicatorservice.WithTx(txRunner),
	)

	svcOpts := []statservice.Option{
		statservice.WithLogger(log),
		statservice.WithMetrics(statmetrics.New()),
		statservice.WithTx(txRunner),
	}
	var sink *auditworker.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		sink = auditworker.NewSink(1024, log)
		svcOpts = append(svcOpts, statservice.WithAuditSink(sink))
	}
	svc := statservice.New(statstore.NewPostgres(db), catalog, gate, audits, svcOpts...)

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "satudata", "satudata-admin")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Tracing)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.RequireAuth(jwtService, log))
		stathandler.New(svc, catalog, log).Register(api)
		indicatorhandler.New(catalog, log).Register(api)
	})

	srv := httpserver.New(cfg.Server.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting satudata server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := auditpublisher.NewKafka(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		worker := auditworker.New(publisher, sink, log)
		g.Go(func() error {
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
