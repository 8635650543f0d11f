package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	driverName = "pgx"

	// Сайт пекарни делает по одному запросу на HTTP-запрос, большой пул не нужен.
	maxOpenConns    = 8
	maxIdleConns    = 4
	connMaxLifetime = 30 * time.Minute
	connMaxIdleTime = 5 * time.Minute

	pingTimeout = 3 * time.Second
	opTimeout   = 5 * time.Second

	pgCodeCheckViolation = "23514"
)

// ErrPendingMigrations возвращает Ready, пока схема отстаёт от встроенных миграций.
var ErrPendingMigrations = errors.New("postgres schema has pending migrations")

// Store хранит пул подключений к PostgreSQL для репозиториев меню и заказов.
type Store struct {
	db *sql.DB
}

// Open открывает пул и убеждается, что база отвечает.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	store := &Store{db: db}
	if err := store.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return store, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет, что пул может получить соединение.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("postgres store is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Ready дополняет Ping проверкой схемы: сайт не готов, пока есть непримененные миграции.
func (s *Store) Ready(ctx context.Context) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}
	status, err := s.MigrationStatus(ctx)
	if err != nil {
		return err
	}
	if status.Pending > 0 {
		return fmt.Errorf("%w: %d pending", ErrPendingMigrations, status.Pending)
	}
	return nil
}

// EnsureSchema доводит схему до последней встроенной миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// isCheckViolation распознаёт нарушение CHECK-ограничения, например отрицательную цену.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCodeCheckViolation
}
