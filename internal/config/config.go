// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage drivers accepted in DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the server configuration.
type Config struct {
	Port       int    `envconfig:"PORT" default:"8080"`
	StaticPath string `envconfig:"STATIC_PATH" default:"./static"`

	// Storage
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBPath      string `envconfig:"DB_PATH" default:"./data/corepadel.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Sessions
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// Redis holds the session revocation list when RedisAddr is set.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPoolSize int    `envconfig:"REDIS_POOL_SIZE" default:"10"`

	// Booking events go to RabbitMQ when RabbitURL is set, else to the log.
	RabbitURL       string `envconfig:"RABBIT_URL"`
	BookingExchange string `envconfig:"BOOKING_EXCHANGE" default:"corepadel.bookings"`

	// Booking rules
	PublicOrigin       string        `envconfig:"PUBLIC_ORIGIN" default:"http://localhost:8080"`
	ClubTimezone       string        `envconfig:"CLUB_TIMEZONE" default:"Europe/Madrid"`
	BookingWindowDays  int           `envconfig:"BOOKING_WINDOW_DAYS" default:"7"`
	CompletionInterval time.Duration `envconfig:"COMPLETION_INTERVAL" default:"5m"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads a .env file from the working directory when present, then the
// process environment. Variables already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values envconfig cannot.
func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.BookingWindowDays < 1 {
		return errors.New("BOOKING_WINDOW_DAYS must be at least 1")
	}
	if c.CompletionInterval <= 0 {
		return errors.New("COMPLETION_INTERVAL must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the club time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ClubTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid CLUB_TIMEZONE %q: %w", c.ClubTimezone, err)
	}
	return loc, nil
}
