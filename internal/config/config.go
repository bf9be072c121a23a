// Package config loads application configuration from environment
// variables.  Unlike services that refuse to boot without configuration,
// this one runs out of the box: every value has a development default and
// the durable backends (MySQL, Redis, RabbitMQ) switch on only when their
// variables are present.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.
type Config struct {
	Env          string // APP_ENV: application environment (dev/prod)
	Port         string // APP_PORT: HTTP port to listen on
	JWTSecret    string // JWT_SECRET: secret used to sign access tokens
	TokenTTLDays int    // TOKEN_TTL_DAYS: access token lifetime
	BcryptCost   int    // BCRYPT_COST: bcrypt cost for password hashing
	SeatCount    int    // SEAT_COUNT: seats seeded into an empty hall

	// MySQL backend; the store stays memory-resident while DBHost is
	// empty, mirroring how the service is meant to run in development.
	DBUser string // DB_USER
	DBPass string // DB_PASS (optional)
	DBHost string // DB_HOST (empty = memory store)
	DBPort string // DB_PORT
	DBName string // DB_NAME
}

// Load reads configuration values from environment variables, applying
// development defaults for everything that is unset.
func Load() Config {
	return Config{
		Env:          getenv("APP_ENV", "dev"),
		Port:         getenv("APP_PORT", "5000"),
		JWTSecret:    getenv("JWT_SECRET", "dev_secret"),
		TokenTTLDays: atoi(getenv("TOKEN_TTL_DAYS", "7")),
		BcryptCost:   atoi(getenv("BCRYPT_COST", "10")),
		SeatCount:    atoi(getenv("SEAT_COUNT", "60")),
		DBUser:       getenv("DB_USER", "root"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       os.Getenv("DB_HOST"),
		DBPort:       getenv("DB_PORT", "3306"),
		DBName:       getenv("DB_NAME", "study_hall"),
	}
}

// UseDB reports whether a MySQL backend has been configured.
func (c Config) UseDB() bool { return c.DBHost != "" }

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
