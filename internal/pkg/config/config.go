package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (TTLs, intervals, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Booking BookingConfig
	Sweeper SweeperConfig
	Match   MatchConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	// HeartbeatTTL is how long a specialist stays in the online pool after
	// their last heartbeat.
	HeartbeatTTL time.Duration `envconfig:"PRESENCE_HEARTBEAT_TTL" default:"30s"`
}

type BookingConfig struct {
	// HoldTTL is how long a new or renewed hold stays reservable before it expires.
	HoldTTL time.Duration `envconfig:"BOOKING_HOLD_TTL" default:"60s"`
	// MaxHoldLifetime caps total lifetime across renewals so a slot cannot be starved.
	MaxHoldLifetime time.Duration `envconfig:"BOOKING_MAX_HOLD_LIFETIME" default:"10m"`
	CommitRetries   int           `envconfig:"BOOKING_COMMIT_RETRIES" default:"3"`
}

type SweeperConfig struct {
	Interval  time.Duration `envconfig:"SWEEPER_INTERVAL" default:"5s"`
	BatchSize int           `envconfig:"SWEEPER_BATCH_SIZE" default:"500"`
}

type MatchConfig struct {
	MaxAttempts  int           `envconfig:"MATCH_MAX_ATTEMPTS" default:"3"`
	SlotDuration time.Duration `envconfig:"MATCH_SLOT_DURATION" default:"30m"`
	// SearchWindow bounds how far ahead the next open slot is searched for.
	SearchWindow time.Duration `envconfig:"MATCH_SEARCH_WINDOW" default:"4h"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

type JWTConfig struct {
	Secret   string        `envconfig:"JWT_SECRET" required:"true"`
	Duration time.Duration `envconfig:"JWT_DURATION" default:"24h"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Addr:         "localhost:16380",
			HeartbeatTTL: 30 * time.Second,
		},
		Booking: BookingConfig{
			HoldTTL:         60 * time.Second,
			MaxHoldLifetime: 10 * time.Minute,
			CommitRetries:   3,
		},
		Sweeper: SweeperConfig{
			Interval:  5 * time.Second,
			BatchSize: 500,
		},
		Match: MatchConfig{
			MaxAttempts:  3,
			SlotDuration: 30 * time.Minute,
			SearchWindow: 4 * time.Hour,
		},
		Log: LogConfig{
			Level: "error",
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: time.Hour,
		},
	}
}
