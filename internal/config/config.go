package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT"       envDefault:"9000"`
	LogLevel string `env:"LOG_LEVEL"       envDefault:"info"`
	Backend  string `env:"STORAGE_BACKEND" envDefault:"postgres"`
	DataFile string `env:"STORAGE_FILE"    envDefault:"containers.json"`

	// GRPCPort serves the gRPC health service; empty disables it.
	GRPCPort       string        `env:"GRPC_PORT"             envDefault:"50051"`
	HealthInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"10s"`

	Postgres   Postgres
	Admin      Admin
	Kafka      Kafka
	Redis      Redis
	Outbox     Outbox
	Duty       Duty
	Validation Validation
	Audit      Audit
}

type Postgres struct {
	Host     string `env:"DB_HOST"           envDefault:"localhost"`
	Port     int    `env:"DB_PORT"           envDefault:"5432"`
	User     string `env:"POSTGRES_USER"     envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	Database string `env:"POSTGRES_DB"       envDefault:"portflow"`
	MaxConns int32  `env:"DB_MAX_CONNS"      envDefault:"10"`
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Database)
}

type Admin struct {
	Username string `env:"ADMIN_USERNAME" envDefault:"admin"`
	Password string `env:"ADMIN_PASSWORD"`
}

type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC"   envDefault:"container_events"`
	GroupID string   `env:"KAFKA_GROUP_ID" envDefault:"container-events-consumer-group"`
}

type Redis struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB"        envDefault:"0"`
	TTL      time.Duration `env:"REDIS_CACHE_TTL" envDefault:"10m"`
}

type Outbox struct {
	PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	BatchSize    int           `env:"OUTBOX_BATCH_SIZE"    envDefault:"20"`
	MaxAttempts  int           `env:"OUTBOX_MAX_ATTEMPTS"  envDefault:"5"`
	ClaimLease   time.Duration `env:"OUTBOX_CLAIM_LEASE"   envDefault:"1m"`
}

type Duty struct {
	ValuePerKg decimal.Decimal `env:"DUTY_VALUE_PER_KG" envDefault:"100"`
	Rate       decimal.Decimal `env:"DUTY_RATE"         envDefault:"0.10"`
	FlatAmount decimal.Decimal `env:"DUTY_FLAT_AMOUNT"  envDefault:"150000.00"`
}

type Validation struct {
	AdvisoryBlocks bool `env:"VALIDATION_ADVISORY_BLOCKS" envDefault:"true"`
}

type Audit struct {
	Workers   int           `env:"AUDIT_WORKERS"    envDefault:"2"`
	BatchSize int           `env:"AUDIT_BATCH_SIZE" envDefault:"5"`
	Timeout   time.Duration `env:"AUDIT_TIMEOUT"    envDefault:"500ms"`
}

// Load reads the first .env file found next to the working directory or one
// of its two parents, then parses the environment. Missing .env files are not
// an error; real environment variables always win.
func Load() (Config, string, error) {
	loaded := loadDotEnv()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, loaded, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, loaded, err
	}
	return cfg, loaded, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendPostgres, BackendFile:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Backend)
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.Outbox.BatchSize)
	}
	if c.Outbox.ClaimLease <= 0 {
		return fmt.Errorf("OUTBOX_CLAIM_LEASE must be positive, got %s", c.Outbox.ClaimLease)
	}
	if c.Outbox.MaxAttempts <= 0 {
		return fmt.Errorf("OUTBOX_MAX_ATTEMPTS must be positive, got %d", c.Outbox.MaxAttempts)
	}
	if c.Duty.Rate.IsNegative() || c.Duty.ValuePerKg.IsNegative() || c.Duty.FlatAmount.IsNegative() {
		return fmt.Errorf("duty parameters must not be negative")
	}
	return nil
}

func loadDotEnv() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	possiblePaths := []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	}

	for _, envPath := range possiblePaths {
		if err := godotenv.Load(envPath); err == nil {
			return envPath
		}
	}

	for _, envPath := range possiblePaths {
		examplePath := filepath.Join(filepath.Dir(envPath), ".example.env")
		if err := godotenv.Load(examplePath); err == nil {
			return examplePath
		}
	}

	return ""
}
