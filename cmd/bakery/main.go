package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/app"
	"github.com/vladislavdragonenkov/bakery/internal/version"
)

const (
	envConfigFile          = "BAKERY_CONFIG_FILE"
	envHTTPAddr            = "BAKERY_HTTP_ADDR"
	envMetricsAddr         = "BAKERY_METRICS_ADDR"
	envStorageDriver       = "BAKERY_STORAGE_DRIVER"
	envSQLitePath          = "BAKERY_SQLITE_PATH"
	envPostgresDSN         = "BAKERY_POSTGRES_DSN"
	envPostgresAutoMigrate = "BAKERY_POSTGRES_AUTO_MIGRATE"
	envSecretKey           = "BAKERY_SECRET_KEY"
	envAdminUser           = "BAKERY_ADMIN_USER"
	envAdminPasswordHash   = "BAKERY_ADMIN_PASSWORD_HASH"
	envKafkaBrokers        = "BAKERY_KAFKA_BROKERS"
	envKafkaTopic          = "BAKERY_KAFKA_TOPIC"
	envShutdownTimeout     = "BAKERY_SHUTDOWN_TIMEOUT"
	envLogLevel            = "BAKERY_LOG_LEVEL"
)

type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сайта.
func setupLogger(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	parsed, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, using info")
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// readConfigFromEnv собирает конфигурацию: значения по умолчанию, затем YAML-файл, затем переменные окружения.
// Некорректные значения не применяются и возвращаются в warnings.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	if path := lookupTrimmed(lookup, envConfigFile); path != "" {
		fileCfg, err := app.LoadConfigFile(path, cfg)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envConfigFile, err))
		} else {
			cfg = fileCfg
		}
	}

	setString := func(key string, dst *string) {
		if v := lookupTrimmed(lookup, key); v != "" {
			*dst = v
		}
	}

	setString(envHTTPAddr, &cfg.HTTPAddr)
	setString(envMetricsAddr, &cfg.MetricsAddr)
	if v := lookupTrimmed(lookup, envStorageDriver); v != "" {
		cfg.StorageDriver = app.StorageDriver(strings.ToLower(v))
	}
	setString(envSQLitePath, &cfg.SQLitePath)
	setString(envPostgresDSN, &cfg.PostgresDSN)
	setString(envSecretKey, &cfg.SecretKey)
	setString(envAdminUser, &cfg.AdminUser)
	setString(envAdminPasswordHash, &cfg.AdminPasswordHash)
	setString(envKafkaBrokers, &cfg.KafkaBrokers)
	setString(envKafkaTopic, &cfg.KafkaTopic)
	setString(envLogLevel, &cfg.LogLevel)

	if v := lookupTrimmed(lookup, envPostgresAutoMigrate); v != "" {
		parsed, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envPostgresAutoMigrate, err))
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}

	if v := lookupTrimmed(lookup, envShutdownTimeout); v != "" {
		parsed, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envShutdownTimeout, err))
		} else {
			cfg.ShutdownTimeout = parsed
		}
	}

	return cfg, warnings
}

func lookupTrimmed(lookup envLookup, key string) string {
	v, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseDuration(raw string, valid func(time.Duration) bool, msg string) (time.Duration, error) {
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if valid != nil && !valid(v) {
		return 0, fmt.Errorf("invalid duration %s: %s", v, msg)
	}
	return v, nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	setupLogger(cfg.LogLevel)
	for _, warning := range warnings {
		log.Warnf("некорректная настройка проигнорирована: %s", warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":      cfg.HTTPAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"storage_driver": cfg.StorageDriver,
		"build":          version.Current(),
	}).Info("запускаем сайт пекарни")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("сайт пекарни остановлен")
}
