package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	sqlitedriver "github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultConnTimeout = 5 * time.Second
	opTimeout          = 5 * time.Second
	slowQueryThreshold = 200 * time.Millisecond

	// SQLite пишет одним писателем, поэтому держим одно соединение.
	defaultMaxOpenConns = 1

	defaultPragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
)

// Store оборачивает GORM-подключение к файлу SQLite.
type Store struct {
	db *gorm.DB
}

// Open открывает (или создаёт) файл базы и проверяет подключение.
func Open(ctx context.Context, path string, logger *log.Entry) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if logger == nil {
		logger = log.WithField("component", "sqlite")
	}

	db, err := gorm.Open(sqlitedriver.Open(withPragmas(path)), &gorm.Config{
		Logger: gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(defaultMaxOpenConns)

	store := &Store{db: db}
	if err := store.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return store, nil
}

// DB возвращает GORM-хендл для репозиториев.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping проверяет доступность базы.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite store is not initialized")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}

// EnsureSchema создаёт таблицы menu_items и orders, если их ещё нет.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite store is not initialized")
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&menuItemRow{}, &orderRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SchemaStatus сообщает, какие из таблиц приложения уже существуют.
func (s *Store) SchemaStatus(ctx context.Context) (map[string]bool, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlite store is not initialized")
	}
	migrator := s.db.WithContext(ctx).Migrator()
	return map[string]bool{
		menuItemsTable: migrator.HasTable(&menuItemRow{}),
		ordersTable:    migrator.HasTable(&orderRow{}),
	}, nil
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func withPragmas(path string) string {
	if path == ":memory:" || strings.Contains(path, "_pragma=") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + defaultPragmas
	}
	return path + "?" + defaultPragmas
}
