package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const devJWTSecret = "campuswatch-dev-secret-do-not-use-in-prod"

type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"` // empty disables the health server

	Env      string `yaml:"env"`       // "dev" | "prod"
	DBPath   string `yaml:"db_path"`   // e.g. "./data/campuswatch.db"
	LogLevel string `yaml:"log_level"` // debug | info | warn | error

	AdminJWTSecret string        `yaml:"admin_jwt_secret"`
	AdminTokenTTL  time.Duration `yaml:"admin_token_ttl"`

	SeedDev bool `yaml:"seed_dev"`

	// How often the gRPC health status is refreshed from a DB ping.
	HealthIntervalSeconds int `yaml:"health_interval_seconds"`
}

func Defaults() Config {
	return Config{
		HTTPAddr:              ":8080",
		GRPCAddr:              ":9090",
		Env:                   "dev",
		DBPath:                "./data/campuswatch.db",
		LogLevel:              "info",
		AdminTokenTTL:         12 * time.Hour,
		HealthIntervalSeconds: 15,
	}
}

// Load layers defaults, then the YAML file named by CAMPUSWATCH_CONFIG
// (if set), then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CAMPUSWATCH_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// FromEnv is Load without a config file.
func FromEnv() Config {
	cfg := Defaults()
	cfg.applyEnv()
	cfg.normalize()
	return cfg
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getenvDefault("CAMPUSWATCH_HTTP_ADDR", c.HTTPAddr)
	if v, ok := os.LookupEnv("CAMPUSWATCH_GRPC_ADDR"); ok {
		c.GRPCAddr = strings.TrimSpace(v)
	}
	c.Env = strings.ToLower(getenvDefault("CAMPUSWATCH_ENV", c.Env))
	if c.Env != "dev" && c.Env != "prod" {
		// fail-soft: treat unknown as dev
		c.Env = "dev"
	}
	c.DBPath = getenvDefault("CAMPUSWATCH_DB_PATH", c.DBPath)
	c.LogLevel = getenvDefault("CAMPUSWATCH_LOG_LEVEL", c.LogLevel)
	c.AdminJWTSecret = getenvDefault("CAMPUSWATCH_ADMIN_JWT_SECRET", c.AdminJWTSecret)
	if v := strings.TrimSpace(os.Getenv("CAMPUSWATCH_ADMIN_TOKEN_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.AdminTokenTTL = d
		}
	}
	c.HealthIntervalSeconds = getenvInt("CAMPUSWATCH_HEALTH_INTERVAL_SECONDS", c.HealthIntervalSeconds)

	seedDefault := c.SeedDev || c.Env == "dev"
	c.SeedDev = getenvBool("CAMPUSWATCH_SEED_DEV", seedDefault)
}

func (c *Config) normalize() {
	if c.Env == "dev" && c.AdminJWTSecret == "" {
		c.AdminJWTSecret = devJWTSecret
	}
	if c.HealthIntervalSeconds <= 0 {
		c.HealthIntervalSeconds = Defaults().HealthIntervalSeconds
	}
	if c.AdminTokenTTL <= 0 {
		c.AdminTokenTTL = Defaults().AdminTokenTTL
	}
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if c.Env == "prod" {
		if c.AdminJWTSecret == "" {
			errs = append(errs, errors.New("CAMPUSWATCH_ADMIN_JWT_SECRET is required in prod"))
		} else if c.AdminJWTSecret == devJWTSecret {
			errs = append(errs, errors.New("the dev JWT secret must not be used in prod"))
		}
		if c.SeedDev {
			errs = append(errs, errors.New("dev seed cannot run in prod"))
		}
	}
	return errors.Join(errs...)
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
