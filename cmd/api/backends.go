package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/events"
	"github.com/noah-isme/placement-api/internal/repository"
	"github.com/noah-isme/placement-api/internal/seed"
	"github.com/noah-isme/placement-api/internal/service"
	"github.com/noah-isme/placement-api/pkg/cache"
	"github.com/noah-isme/placement-api/pkg/config"
	"github.com/noah-isme/placement-api/pkg/database"
)

const lifecycleTopicPartitions = 3

// backends holds the optional infrastructure behind the in-memory store.
type backends struct {
	persister      service.Persister
	recorders      service.ActivityFanout
	activityReader service.ActivityReader
	cache          *service.DiscoveryCache

	closers []func()
}

func (b *backends) recorder() service.ActivityRecorder {
	if len(b.recorders) == 0 {
		return nil
	}
	return b.recorders
}

// Close releases resources in reverse order of acquisition.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg *config.Config, logr *zap.Logger, store *repository.MemoryStore, metrics *service.MetricsService) (*backends, error) {
	b := &backends{persister: service.NopPersister{}}

	if cfg.Persistence.Driver == config.PersistencePostgres {
		if err := b.openPostgres(ctx, cfg, logr, store, metrics); err != nil {
			b.Close()
			return nil, err
		}
	}

	if cfg.Discovery.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, discovery cache disabled", zap.Error(err))
		} else {
			b.closers = append(b.closers, func() { _ = client.Close() })
			b.cache = service.NewDiscoveryCache(repository.NewRedisCache(client, logr), metrics, cfg.Discovery.CacheTTL, logr)
		}
	}

	if cfg.Events.Enabled {
		events.EnsureTopic(cfg.Events.Brokers, cfg.Events.Topic, lifecycleTopicPartitions, logr)
		producer := events.NewProducer(cfg.Events.Brokers, cfg.Events.Topic, logr)
		b.closers = append(b.closers, producer.Close)
		b.recorders = append(b.recorders, producer)
	}

	return b, nil
}

func (b *backends) openPostgres(ctx context.Context, cfg *config.Config, logr *zap.Logger, store *repository.MemoryStore, metrics *service.MetricsService) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	b.closers = append(b.closers, func() { _ = db.Close() })

	if err := database.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	snapshots := repository.NewSnapshotRepository(db)
	if err := restore(ctx, snapshots, store, logr); err != nil {
		return err
	}

	activity := repository.NewActivityRepository(db)
	queued := service.NewQueuedPersister(snapshots, activity, metrics, logr, service.QueuedPersisterConfig{
		Retries:    cfg.Persistence.Retries,
		RetryDelay: cfg.Persistence.RetryDelay,
	})
	queued.Start(context.Background())
	b.closers = append(b.closers, queued.Stop)

	b.persister = queued
	b.recorders = append(b.recorders, queued)
	b.activityReader = activity
	return nil
}

// restore loads the last persisted state into the store.
func restore(ctx context.Context, snapshots *repository.SnapshotRepository, store *repository.MemoryStore, logr *zap.Logger) error {
	changes, err := snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := store.Apply(ctx, changes); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	logr.Info("state restored", zap.Any("entities", store.Counts()))
	return nil
}

// loadSeed creates accounts listed in path that do not exist yet.
func loadSeed(ctx context.Context, path string, store *repository.MemoryStore, persister service.Persister, auth *service.AuthService, logr *zap.Logger) error {
	if path == "" {
		return nil
	}
	file, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	changes, err := file.Accounts(ctx, auth.HashPassword, auth.AccountRole)
	if err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	if changes.Empty() {
		return nil
	}
	if err := store.Apply(ctx, changes); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	if err := persister.Persist(ctx, changes); err != nil {
		logr.Warn("seed persist failed", zap.Error(err))
	}
	logr.Info("seed applied",
		zap.Int("students", len(changes.Students)),
		zap.Int("representatives", len(changes.Representatives)),
		zap.Int("staff", len(changes.Staff)))
	return nil
}
