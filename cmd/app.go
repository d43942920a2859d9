package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"jobmate/match-service/internal/config"
	"jobmate/match-service/internal/db"
	"jobmate/match-service/internal/events"
	"jobmate/match-service/internal/kanban"
	"jobmate/match-service/internal/logger"
	"jobmate/match-service/internal/matching"
	"jobmate/match-service/internal/model"
	"jobmate/match-service/internal/scoring"
	"jobmate/match-service/internal/store/gormstore"
	"jobmate/match-service/internal/store/postgres"
)

// store is everything the service needs from a backend.
type store interface {
	matching.Store
	kanban.Store
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	ListApplicantIDs(ctx context.Context) ([]string, error)
	Migrate(ctx context.Context) error
}

// app holds the wired components and the cleanup for their connections.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  store
	orch   *matching.Orchestrator
	apps   *kanban.Service

	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

// newApp loads config and connects to the store and, when configured, Redis.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	a := &app{cfg: cfg, logger: log}
	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var pub events.Publisher = events.Nop{}
	if cfg.RedisURL != "" {
		log.Info("connecting to redis")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		pub = events.NewRedisPublisher(rdb)
		log.Info("redis connected")
	} else {
		log.Warn("REDIS_URL not set, domain events are discarded")
	}

	scorer := scoring.NewClient(cfg.ScoringURL, cfg.ScoringTimeout)
	a.orch = matching.NewOrchestrator(a.store, scorer, pub, log, cfg.ScoringWorkers)
	a.apps = kanban.NewService(a.store, pub, log)
	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case config.DriverSQLite:
		a.logger.Info("opening sqlite", zap.String("path", a.cfg.SQLitePath))
		s, err := gormstore.OpenSQLite(ctx, a.cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		a.closers = append(a.closers, func() { _ = s.Close() })
		a.store = s
	default:
		a.logger.Info("connecting to postgres", zap.String("host", hostOf(a.cfg.DatabaseURL)))
		pool, err := db.NewPostgresPool(ctx, a.cfg.DatabaseURL, a.cfg.ScoringWorkers)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.store = postgres.New(pool)
	}
	a.logger.Info("store ready", zap.String("driver", a.cfg.StoreDriver))
	return nil
}

// hostOf strips credentials from a database URL for logging.
func hostOf(databaseURL string) string {
	if i := strings.LastIndex(databaseURL, "@"); i >= 0 {
		return databaseURL[i+1:]
	}
	return databaseURL
}
