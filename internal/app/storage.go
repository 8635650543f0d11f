package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/bakery/internal/health"
	"github.com/vladislavdragonenkov/bakery/internal/storage/memory"
	"github.com/vladislavdragonenkov/bakery/internal/storage/postgres"
	"github.com/vladislavdragonenkov/bakery/internal/storage/sqlite"
)

// runtimeDependencies - репозитории выбранного хранилища и его проверка здоровья.
type runtimeDependencies struct {
	menu           domain.MenuRepository
	orders         domain.OrderRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d runtimeDependencies) close(logger *log.Entry) {
	if d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		logger.Warn("используется in-memory хранилище, данные пропадут после остановки")
		return runtimeDependencies{
			menu:   memory.NewMenuRepository(),
			orders: memory.NewOrderRepository(),
			storageChecker: healthcheck.NewSimpleChecker("storage", func(context.Context) error {
				return nil
			}),
		}, nil

	case StorageDriverSQLite:
		if cfg.SQLitePath == "" {
			return runtimeDependencies{}, fmt.Errorf("sqlite path is required for sqlite storage")
		}
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger.WithField("storage", "sqlite"))
		if err != nil {
			return runtimeDependencies{}, fmt.Errorf("init sqlite storage: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return runtimeDependencies{}, fmt.Errorf("ensure sqlite schema: %w", err)
		}
		logger.WithField("path", cfg.SQLitePath).Info("sqlite storage initialized")
		return runtimeDependencies{
			menu:           sqlite.NewMenuRepository(store),
			orders:         sqlite.NewOrderRepository(store),
			storageChecker: healthcheck.NewPingChecker("storage", store),
			closeFn:        store.Close,
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return runtimeDependencies{}, fmt.Errorf("postgres dsn is required for postgres storage")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return runtimeDependencies{}, fmt.Errorf("init postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return runtimeDependencies{}, fmt.Errorf("ensure postgres schema: %w", err)
			}
		} else if status, err := store.MigrationStatus(ctx); err != nil {
			logger.WithError(err).Warn("failed to read migration status")
		} else if status.Pending > 0 {
			logger.WithField("pending", status.Pending).Warn("есть непримененные миграции, запустите cmd/migrate")
		}
		logger.Info("postgres storage initialized")
		return runtimeDependencies{
			menu:           postgres.NewMenuRepository(store),
			orders:         postgres.NewOrderRepository(store),
			storageChecker: healthcheck.NewSimpleChecker("storage", store.Ready),
			closeFn:        store.Close,
		}, nil

	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
