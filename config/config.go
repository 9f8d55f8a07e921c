package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	GinMode   string `envconfig:"GIN_MODE" default:"debug"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	JWTSecret  string        `envconfig:"JWT_SECRET" default:"TestSecretKeyAUTH1945"`
	JWTTTL     time.Duration `envconfig:"JWT_TTL" default:"24h"`
	CORSOrigin string        `envconfig:"CORS_ORIGIN" default:"http://127.0.0.1:5500"`

	// Seed admin dibuat sekali kalau tabel staff masih kosong
	SeedAdminEmail    string `envconfig:"SEED_ADMIN_EMAIL" default:"admin@kasir.local"`
	SeedAdminPassword string `envconfig:"SEED_ADMIN_PASSWORD" default:"admin123"`
	SeedMenu          bool   `envconfig:"SEED_MENU" default:"false"`

	QueueRefreshTimeout time.Duration `envconfig:"QUEUE_REFRESH_TIMEOUT" default:"5s"`

	DB       DatabaseConfig `envconfig:"DB"`
	Realtime RealtimeConfig `envconfig:"REALTIME"`
}

type DatabaseConfig struct {
	Driver          string        `envconfig:"DRIVER" default:"mysql"`
	DSN             string        `envconfig:"DSN"`
	Host            string        `envconfig:"HOST" default:"127.0.0.1"`
	Port            string        `envconfig:"PORT" default:"3306"`
	User            string        `envconfig:"USER" default:"root"`
	Password        string        `envconfig:"PASSWORD"`
	Name            string        `envconfig:"NAME" default:"kasir_app"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"30m"`
}

type RealtimeConfig struct {
	// local: hub di proses ini, remote: relay websocket di URL, store: outbox di database
	Mode           string        `envconfig:"MODE" default:"local"`
	URL            string        `envconfig:"URL"`
	Channel        string        `envconfig:"CHANNEL" default:"orders-updated"`
	Codec          string        `envconfig:"CODEC" default:"json"`
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"10s"`
	PollInterval   time.Duration `envconfig:"POLL_INTERVAL" default:"500ms"`
	Retention      time.Duration `envconfig:"RETENTION" default:"10m"`
}

// Load membaca .env (kalau ada) lalu environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}

	switch c.Realtime.Mode {
	case "local", "store":
	case "remote":
		if c.Realtime.URL == "" {
			return errors.New("REALTIME_URL is required when REALTIME_MODE=remote")
		}
	default:
		return fmt.Errorf("unsupported REALTIME_MODE %q", c.Realtime.Mode)
	}

	switch c.Realtime.Codec {
	case "json", "cbor":
	default:
		return fmt.Errorf("unsupported REALTIME_CODEC %q", c.Realtime.Codec)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	return nil
}
