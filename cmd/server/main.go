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

	"sigil/internal/authz"
	"sigil/internal/capability"
	"sigil/internal/correlation"
	"sigil/internal/plan"
	planhandler "sigil/internal/plan/handler"
	planmetrics "sigil/internal/plan/metrics"
	planservice "sigil/internal/plan/service"
	"sigil/internal/platform/config"
	"sigil/internal/platform/httpserver"
	"sigil/internal/platform/logger"
	platformmetrics "sigil/internal/platform/metrics"
	"sigil/internal/platform/middleware"
	"sigil/internal/platform/postgres"
	redisplatform "sigil/internal/platform/redis"
	"sigil/internal/profile"
	profilehandler "sigil/internal/profile/handler"
	profilemetrics "sigil/internal/profile/metrics"
	profileservice "sigil/internal/profile/service"
	audit "sigil/pkg/platform/audit"
	auditkafka "sigil/pkg/platform/audit/kafka"
	auditworker "sigil/pkg/platform/audit/worker"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogJSON, cfg.LogDebug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage backends. Empty config keeps everything in process.
	var (
		profileStore profile.Store
		planStore    plan.Store
	)
	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connect failed", "err", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		pStore := profile.NewPostgresStore(db)
		lStore := plan.NewPostgresStore(db)
		if err := pStore.Migrate(ctx); err != nil {
			log.Error("migrate profiles failed", "err", err)
			os.Exit(1)
		}
		if err := lStore.Migrate(ctx); err != nil {
			log.Error("migrate plans failed", "err", err)
			os.Exit(1)
		}
		profileStore, planStore = pStore, lStore
		log.Info("using postgres stores")
	} else {
		profileStore, planStore = profile.NewMemoryStore(), plan.NewMemoryStore()
		log.Info("using in-memory stores")
	}

	// Correlation tables: one instance per protocol so request IDs never
	// cross between profile and plan disclosures.
	var profileTable, planTable correlation.Table
	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "err", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		profileTable = correlation.NewRedisTable(redisClient.Client, "profile")
		planTable = correlation.NewRedisTable(redisClient.Client, "plan")
		log.Info("using redis correlation tables")
	} else {
		profileTable = correlation.NewMemoryTable()
		planTable = correlation.NewMemoryTable()
	}

	// Audit pipeline: services emit to a buffered channel, a worker persists,
	// and Kafka (when configured) gets a copy for the external trail.
	auditStore := audit.NewMemoryStore()
	channelPub := audit.NewChannelPublisher(cfg.AuditBuffer, log)
	worker := auditworker.NewWorker(auditStore, channelPub.Inbox())

	var auditPub audit.Publisher = channelPub
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err := auditkafka.New(ctx, cfg.KafkaBrokers, cfg.KafkaAuditTopic, log)
		if err != nil {
			log.Error("kafka connect failed", "err", err)
			os.Exit(1)
		}
		defer kafkaPub.Close()
		auditPub = audit.Fanout{channelPub, kafkaPub}
		log.Info("audit events mirrored to kafka", "topic", cfg.KafkaAuditTopic)
	}

	devCap, err := capability.NewDevCapability(cfg.CapabilityProofKey)
	if err != nil {
		log.Error("capability init failed", "err", err)
		os.Exit(1)
	}
	parser := authz.NewTokenParser(cfg.JWTSigningKey)
	policy := authz.RolePolicy{}

	profileSvc := profileservice.NewService(
		profileStore, profileTable, devCap, policy, auditPub, profilemetrics.New())
	planSvc := planservice.NewService(
		planStore, profileStore, planTable, devCap, policy, auditPub, planmetrics.New())

	httpMetrics := platformmetrics.New()
	profileH := profilehandler.New(profileSvc, log)
	planH := planhandler.New(planSvc, log)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(log))
	router.Use(httpMetrics.Latency)
	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(parser, log))
		profileH.RegisterVault(r)
		planH.RegisterAPI(r)
	})
	profileH.RegisterCallbacks(router)
	planH.RegisterCallbacks(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := httpserver.New(cfg.MetricsAddr, metricsMux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting sigil", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("serving metrics", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
