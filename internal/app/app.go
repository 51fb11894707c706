// Package app assembles the clearance service from configuration: the storage
// backend, its cache, the user store and, for PostgreSQL, the outbox
// publisher.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/cache"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/grpcserver"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/kafka"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository/postgresql"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/server"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/storage"
)

type App struct {
	Storage server.Storage
	Users   server.UserRepo

	// Publisher is nil for the file backend, which emits no events.
	Publisher *kafka.Publisher

	// Checks ping the backing services for the gRPC health status.
	Checks []grpcserver.Check

	logger  *zap.Logger
	closers []func()
}

func NewEngine(cfg config.Config) *clearance.Engine {
	return clearance.NewEngine(
		clearance.WithDutyPolicy(clearance.WeightBasedDuty{
			ValuePerKg: cfg.Duty.ValuePerKg,
			Rate:       cfg.Duty.Rate,
			Flat:       cfg.Duty.FlatAmount,
		}),
		clearance.WithValidator(clearance.NewValidator(cfg.Validation.AdvisoryBlocks)),
	)
}

func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}
	engine := NewEngine(cfg)

	var err error
	switch cfg.Backend {
	case config.BackendFile:
		err = a.buildFile(ctx, cfg, engine)
	default:
		err = a.buildPostgres(ctx, cfg, engine)
	}
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) buildFile(ctx context.Context, cfg config.Config, engine *clearance.Engine) error {
	fs, err := storage.NewFileStorage(cfg.DataFile, engine, a.logger.Named("storage"))
	if err != nil {
		return fmt.Errorf("open file storage: %w", err)
	}
	a.logger.Info("using file storage", zap.String("path", cfg.DataFile))

	users := storage.NewStaticUserRepo()
	if err := a.seedAdmin(ctx, cfg.Admin, users); err != nil {
		return err
	}

	a.Storage = fs
	a.Users = users
	return nil
}

func (a *App) buildPostgres(ctx context.Context, cfg config.Config, engine *clearance.Engine) error {
	database, err := db.NewDb(ctx, cfg.Postgres.DSN(), cfg.Postgres.MaxConns)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	a.closers = append(a.closers, database.Close)
	a.Checks = append(a.Checks, grpcserver.Check{Name: "postgres", Ping: database.Ping})

	applied, err := db.Migrate(ctx, database)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if len(applied) > 0 {
		a.logger.Info("applied migrations", zap.Strings("migrations", applied))
	}

	users := postgresql.NewUserRepo(database)
	if err := a.seedAdmin(ctx, cfg.Admin, users); err != nil {
		return err
	}

	containerCache, memCache := a.newCache(ctx, cfg.Redis)
	outboxRepo := postgresql.NewOutboxTaskRepo()

	stg := storage.NewStorage(
		database,
		engine,
		postgresql.NewContainerRepo(database),
		postgresql.NewContainerLogRepo(database),
		outboxRepo,
		storage.WithCache(containerCache),
		storage.WithLogger(a.logger.Named("storage")),
		storage.WithEventTopic(cfg.Kafka.Topic),
	)

	if memCache != nil {
		if err := memCache.LoadInitialData(ctx, stg); err != nil {
			a.logger.Warn("failed to warm container cache", zap.Error(err))
		}
	}

	var producer kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewWriterProducer(cfg.Kafka.Brokers, a.logger.Named("producer"))
		a.logger.Info("publishing container events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	} else {
		producer = kafka.NewConsoleProducer(a.logger.Named("producer"))
		a.logger.Info("no kafka brokers configured, container events go to the log")
	}

	a.Publisher = kafka.NewPublisher(database, outboxRepo, producer, kafka.PublisherConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		ClaimLease:   cfg.Outbox.ClaimLease,
	}, a.logger.Named("outbox"))

	a.Storage = stg
	a.Users = users
	return nil
}

// newCache returns the Redis cache when an address is configured and
// reachable, and the in-memory cache otherwise. The second value is non-nil
// only for the in-memory cache.
func (a *App) newCache(ctx context.Context, cfg config.Redis) (storage.Cache, *cache.ContainerCache) {
	if cfg.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		rc := cache.NewRedisCache(client, cfg.TTL, a.logger.Named("cache"))
		err := rc.Ping(ctx)
		if err == nil {
			a.closers = append(a.closers, func() { _ = client.Close() })
			a.Checks = append(a.Checks, grpcserver.Check{Name: "redis", Ping: rc.Ping})
			a.logger.Info("using redis container cache", zap.String("addr", cfg.Addr))
			return rc, nil
		}
		a.logger.Warn("redis unavailable, falling back to in-memory cache", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
	}

	mc := cache.NewContainerCache(a.logger.Named("cache"))
	return mc, mc
}

func (a *App) seedAdmin(ctx context.Context, admin config.Admin, users db.AdminSeeder) error {
	if admin.Password == "" {
		a.logger.Warn("ADMIN_PASSWORD is not set, no admin account was seeded")
		return nil
	}

	created, err := db.InitAdmin(ctx, users, admin.Username, admin.Password)
	if err != nil {
		return err
	}
	if created {
		a.logger.Info("admin account created", zap.String("username", admin.Username))
	}
	return nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
