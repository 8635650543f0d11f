package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StorageDriver выбирает реализацию хранилища.
type StorageDriver string

const (
	StorageDriverSQLite   StorageDriver = "sqlite"
	StorageDriverPostgres StorageDriver = "postgres"
	StorageDriverMemory   StorageDriver = "memory"
)

// Config описывает настройки запуска сайта.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	SQLitePath          string
	PostgresDSN         string
	PostgresAutoMigrate bool

	// SecretKey подписывает flash-cookie. Пустой ключ заменяется случайным при старте.
	SecretKey         string
	AdminUser         string
	AdminPasswordHash string

	// KafkaBrokers - список брокеров через запятую; пусто = события не публикуются.
	KafkaBrokers string
	KafkaTopic   string

	ShutdownTimeout time.Duration
	LogLevel        string
}

// DefaultConfig возвращает настройки по умолчанию: SQLite-файл bakery.db и сайт на :5000.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":5000",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverSQLite,
		SQLitePath:          "bakery.db",
		PostgresAutoMigrate: true,
		KafkaTopic:          "bakery.order.events",
		ShutdownTimeout:     10 * time.Second,
		LogLevel:            "info",
	}
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http address is required"))
	}

	switch c.StorageDriver {
	case StorageDriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, errors.New("sqlite path is required for sqlite storage"))
		}
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("postgres dsn is required for postgres storage"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	if (c.AdminUser == "") != (c.AdminPasswordHash == "") {
		errs = append(errs, errors.New("admin user and admin password hash must be set together"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be > 0"))
	}

	return errors.Join(errs...)
}

// Brokers возвращает список Kafka-брокеров без пустых элементов.
func (c Config) Brokers() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

// fileConfig - YAML-представление Config. Отсутствующие ключи не трогают базовые значения.
type fileConfig struct {
	HTTPAddr    *string `yaml:"http_addr"`
	MetricsAddr *string `yaml:"metrics_addr"`
	Storage     struct {
		Driver              *string `yaml:"driver"`
		SQLitePath          *string `yaml:"sqlite_path"`
		PostgresDSN         *string `yaml:"postgres_dsn"`
		PostgresAutoMigrate *bool   `yaml:"postgres_auto_migrate"`
	} `yaml:"storage"`
	SecretKey *string `yaml:"secret_key"`
	Admin     struct {
		User         *string `yaml:"user"`
		PasswordHash *string `yaml:"password_hash"`
	} `yaml:"admin"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   *string  `yaml:"topic"`
	} `yaml:"kafka"`
	ShutdownTimeout *string `yaml:"shutdown_timeout"`
	LogLevel        *string `yaml:"log_level"`
}

// LoadConfigFile накладывает значения из YAML-файла на base.
func LoadConfigFile(path string, base Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config file: %w", err)
	}
	return parseConfigYAML(raw, base)
}

func parseConfigYAML(raw []byte, base Config) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return base, fmt.Errorf("parse config file: %w", err)
	}

	cfg := base
	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.MetricsAddr, fc.MetricsAddr)
	if fc.Storage.Driver != nil {
		cfg.StorageDriver = StorageDriver(strings.ToLower(strings.TrimSpace(*fc.Storage.Driver)))
	}
	setString(&cfg.SQLitePath, fc.Storage.SQLitePath)
	setString(&cfg.PostgresDSN, fc.Storage.PostgresDSN)
	if fc.Storage.PostgresAutoMigrate != nil {
		cfg.PostgresAutoMigrate = *fc.Storage.PostgresAutoMigrate
	}
	setString(&cfg.SecretKey, fc.SecretKey)
	setString(&cfg.AdminUser, fc.Admin.User)
	setString(&cfg.AdminPasswordHash, fc.Admin.PasswordHash)
	if len(fc.Kafka.Brokers) > 0 {
		cfg.KafkaBrokers = strings.Join(fc.Kafka.Brokers, ",")
	}
	setString(&cfg.KafkaTopic, fc.Kafka.Topic)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.ShutdownTimeout != nil {
		timeout, err := time.ParseDuration(strings.TrimSpace(*fc.ShutdownTimeout))
		if err != nil {
			return base, fmt.Errorf("parse shutdown_timeout: %w", err)
		}
		cfg.ShutdownTimeout = timeout
	}

	return cfg, nil
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}
