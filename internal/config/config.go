package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	RedisAddr         string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration

	// Reservation core settings.
	HoldTTL          time.Duration
	SlotInterval     time.Duration
	MaxSlotsPerClaim int
	SweepInterval    time.Duration

	// Operating hours, as offsets from local midnight.
	OpenTime      time.Duration
	CloseTime     time.Duration
	OperatingDays map[time.Weekday]bool
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// Redis address for the claim change feed (default: localhost)
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")

	// JWT secret is required for validating tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// JWT access token TTL, parse as time.Duration (e.g. "15m", "1h").
	cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	// How long a provisional hold blocks a slot before it self-expires.
	// Short enough to bound abandonment, long enough to cover form fill.
	cfg.HoldTTL, err = getEnvAsDuration("HOLD_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	// Length of one bookable slot on the grid.
	cfg.SlotInterval, err = getEnvAsDuration("SLOT_INTERVAL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.MaxSlotsPerClaim, err = getEnvAsInt("MAX_SLOTS_PER_CLAIM", 4)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_SLOTS_PER_CLAIM: %w", err)
	}

	// Background sweep for stale holds.
	cfg.SweepInterval, err = getEnvAsDuration("SWEEP_INTERVAL", 10*time.Second)
	if err != nil {
		return nil, err
	}

	// Operating hours (offsets from midnight, e.g. "8h" .. "20h").
	cfg.OpenTime, err = getEnvAsDuration("OPEN_TIME", 8*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.CloseTime, err = getEnvAsDuration("CLOSE_TIME", 20*time.Hour)
	if err != nil {
		return nil, err
	}
	if cfg.CloseTime <= cfg.OpenTime {
		return nil, fmt.Errorf("CLOSE_TIME must be after OPEN_TIME")
	}

	cfg.OperatingDays, err = parseOperatingDays(getEnv("OPERATING_DAYS", "Mon,Tue,Wed,Thu,Fri"))
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// parseOperatingDays parses a comma-separated weekday list like "Mon,Tue,Fri".
func parseOperatingDays(s string) (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		day, ok := weekdayNames[part]
		if !ok {
			return nil, fmt.Errorf("invalid OPERATING_DAYS entry %q", part)
		}
		days[day] = true
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("OPERATING_DAYS must name at least one day")
	}
	return days, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration retrieves an environment variable as a time.Duration.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}

	return val, nil
}
