// cmd/worker-manager/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"crew-match-workers/internal/api"
	"crew-match-workers/internal/common/camunda"
	"crew-match-workers/internal/common/config"
	"crew-match-workers/internal/common/database"
	"crew-match-workers/internal/common/logger"
	"crew-match-workers/internal/common/observability"
	"crew-match-workers/internal/matching"
	"crew-match-workers/internal/store"
	csm "crew-match-workers/internal/workers/matching/calculate-skill-match"
	rl "crew-match-workers/internal/workers/matching/rank-legs"
	"crew-match-workers/pkg/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting worker manager", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer func() { _ = obs.Shutdown(context.Background()) }()

	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}

	matcher, err := matching.NewMatcher(cfg.Matching.Policy())
	if err != nil {
		zapLog.Fatal("matching policy invalid", zap.Error(err))
	}

	// --- Datastores ---
	attempts := uint(cfg.Camunda.ConnectRetries)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()
	if err := database.WaitFor(ctx, "postgres", pg, attempts, log); err != nil {
		zapLog.Fatal("postgres unavailable", zap.Error(err))
	}

	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	if err := database.WaitFor(ctx, "redis", rdb, attempts, log); err != nil {
		zapLog.Fatal("redis unavailable", zap.Error(err))
	}

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch init failed", zap.Error(err))
	}
	if err := database.WaitFor(ctx, "elasticsearch", es, attempts, log); err != nil {
		zapLog.Fatal("elasticsearch unavailable", zap.Error(err))
	}

	profiles := store.NewProfileStore(pg.DB, rdb.Client, store.ProfileStoreConfig{
		RedisTTL:       time.Duration(cfg.Matching.ProfileCacheTTL) * time.Second,
		LocalTTL:       time.Duration(cfg.Matching.LocalCacheTTL) * time.Second,
		LocalCacheSize: cfg.Matching.LocalCacheSize,
	}, log)
	legs := store.NewLegStore(pg.DB, cfg.Matching.MaxCandidates, log)
	search := store.NewLegSearch(es.Client, cfg.Matching.LegIndex, cfg.Matching.MaxCandidates, log)

	// --- Handlers ---
	rankHandler := rl.NewHandler(
		rl.NewConfig(cfg),
		rl.Dependencies{Profiles: profiles, Legs: legs, Search: search},
		matcher, reg.MustInputValidator(rl.TaskType), obs, log,
	)
	skillHandler := csm.NewHandler(
		csm.NewConfig(cfg),
		profiles, legs, matcher, reg.MustInputValidator(csm.TaskType), obs, log,
	)

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig: &camunda.RetryConfig{
			MaxRetries: attempts,
			BaseDelay:  time.Second,
			MaxDelay:   10 * time.Second,
		},
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe unavailable", zap.Error(err))
	}
	defer zeebe.Close()

	workers := camunda.NewWorkerSet(zeebe.GetClient(), log)
	workers.Start(rl.TaskType, config.GetWorkerConfig(cfg, rl.TaskType), rankHandler.Handle)
	workers.Start(csm.TaskType, config.GetWorkerConfig(cfg, csm.TaskType), skillHandler.Handle)

	log.Info("workers registered", map[string]interface{}{"taskTypes": workers.TaskTypes()})

	// --- HTTP ---
	router := api.NewRouter(
		api.NewMatchHandler(rankHandler, skillHandler),
		api.NewHealthHandler(cfg.App.Version, map[string]database.Pinger{
			"postgres":      pg,
			"redis":         rdb,
			"elasticsearch": es,
			"zeebe":         zeebe,
		}),
		log,
	)
	server := api.NewServer(cfg.HTTP, router, log)
	server.Start()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	workers.Close()

	log.Info("worker manager stopped", nil)
}
