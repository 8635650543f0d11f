package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/storage/postgres"
	"github.com/vladislavdragonenkov/bakery/internal/storage/sqlite"
)

const (
	defaultTimeout = 30 * time.Second
)

func main() {
	var (
		driver     string
		direction  string
		steps      int
		dsn        string
		sqlitePath string
	)

	flag.StringVar(&driver, "driver", "postgres", "storage driver: postgres|sqlite")
	flag.StringVar(&direction, "direction", "up", "migration direction: up|down|status")
	flag.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: BAKERY_POSTGRES_DSN)")
	flag.StringVar(&sqlitePath, "sqlite-path", "", "SQLite database file (fallback: BAKERY_SQLITE_PATH, bakery.db)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	direction = strings.ToLower(strings.TrimSpace(direction))

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres":
		migratePostgres(ctx, dsn, direction, steps)
	case "sqlite":
		migrateSQLite(ctx, sqlitePath, direction)
	default:
		fail("unsupported driver: %s (use postgres|sqlite)", driver)
	}
}

func migratePostgres(ctx context.Context, dsn, direction string, steps int) {
	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("BAKERY_POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("BAKERY_POSTGRES_DSN (or -dsn) is required")
	}

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	switch direction {
	case "up":
		if err := store.MigrateUp(ctx, steps); err != nil {
			fail("migrate up failed: %v", err)
		}
		printPostgresStatus(ctx, store, "migrate up ok")
	case "down":
		if steps <= 0 {
			steps = 1
		}
		if err := store.MigrateDown(ctx, steps); err != nil {
			fail("migrate down failed: %v", err)
		}
		printPostgresStatus(ctx, store, "migrate down ok")
	case "status":
		printPostgresStatus(ctx, store, "migration status")
	default:
		fail("unsupported direction: %s (use up|down|status)", direction)
	}
}

func printPostgresStatus(ctx context.Context, store *postgres.Store, prefix string) {
	status, err := store.MigrationStatus(ctx)
	if err != nil {
		fail("migration status failed: %v", err)
	}
	fmt.Printf("%s: version=%d applied=%d pending=%d\n", prefix, status.Version, status.Applied, status.Pending)
}

// migrateSQLite создаёт схему SQLite. Откат для SQLite не поддерживается.
func migrateSQLite(ctx context.Context, path, direction string) {
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv("BAKERY_SQLITE_PATH"))
	}
	if path == "" {
		path = "bakery.db"
	}

	logger := log.WithField("component", "migrate")
	switch direction {
	case "up", "status":
	case "down":
		fail("direction down is not supported for sqlite")
	default:
		fail("unsupported direction: %s (use up|down|status)", direction)
	}

	store, err := sqlite.Open(ctx, path, logger)
	if err != nil {
		fail("open sqlite store: %v", err)
	}
	defer store.Close()

	prefix := "schema status"
	if direction == "up" {
		if err := store.EnsureSchema(ctx); err != nil {
			fail("ensure schema failed: %v", err)
		}
		prefix = "migrate up ok"
	}

	tables, err := store.SchemaStatus(ctx)
	if err != nil {
		fail("schema status failed: %v", err)
	}
	fmt.Printf("%s: path=%s %s\n", prefix, path, formatTables(tables))
}

func formatTables(tables map[string]bool) string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%t", name, tables[name]))
	}
	return strings.Join(parts, " ")
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
