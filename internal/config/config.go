package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	UploadLogStorePostgres  = "postgres"
	UploadLogStoreDatastore = "datastore"
)

type envConfig struct {
	APP_PORT      string
	LOG_FILE_PATH string

	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_MAX_OPEN_CONNS    int
	DB_MAX_IDLE_CONNS    int
	DB_CONN_MAX_LIFETIME time.Duration
	DB_AUTO_MIGRATE      bool

	UPLOAD_LOG_STORE string
	GCP_PROJECT_ID   string

	POA_TEMPLATE_PATH string
	MAX_UPLOAD_MB     int
}

// DefaultEnvConfig is filled by LoadEnvConfig.
var DefaultEnvConfig = envConfig{}

// LoadEnvConfig reads .env when present, then the process environment.
func LoadEnvConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := fromEnv(os.Getenv)
	if err != nil {
		return err
	}
	DefaultEnvConfig = cfg
	return nil
}

func fromEnv(getenv func(string) string) (envConfig, error) {
	r := reader{getenv: getenv}
	cfg := envConfig{
		APP_PORT:      r.str("APP_PORT", "8080"),
		LOG_FILE_PATH: r.str("LOG_FILE_PATH", ""),

		DB_HOST:              r.str("DB_HOST", ""),
		DB_PORT:              r.integer("DB_PORT", 5432),
		DB_USER:              r.str("DB_USER", "postgres"),
		DB_PASSWORD:          r.str("DB_PASSWORD", ""),
		DB_NAME:              r.str("DB_NAME", "poa"),
		DB_SSL_MODE:          r.str("DB_SSL_MODE", "disable"),
		DB_MAX_OPEN_CONNS:    r.integer("DB_MAX_OPEN_CONNS", 10),
		DB_MAX_IDLE_CONNS:    r.integer("DB_MAX_IDLE_CONNS", 5),
		DB_CONN_MAX_LIFETIME: r.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DB_AUTO_MIGRATE:      r.boolean("DB_AUTO_MIGRATE", false),

		UPLOAD_LOG_STORE: r.str("UPLOAD_LOG_STORE", UploadLogStorePostgres),
		GCP_PROJECT_ID:   r.str("GCP_PROJECT_ID", ""),

		POA_TEMPLATE_PATH: r.str("POA_TEMPLATE_PATH", ""),
		MAX_UPLOAD_MB:     r.integer("MAX_UPLOAD_MB", 10),
	}
	if r.err != nil {
		return envConfig{}, r.err
	}
	return cfg, cfg.validate()
}

func (c envConfig) validate() error {
	if c.APP_PORT == "" {
		return errors.New("APP_PORT is required")
	}
	if c.DB_HOST == "" {
		return errors.New("DB_HOST is required")
	}
	if c.MAX_UPLOAD_MB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MAX_UPLOAD_MB)
	}
	switch c.UPLOAD_LOG_STORE {
	case UploadLogStorePostgres:
	case UploadLogStoreDatastore:
		if c.GCP_PROJECT_ID == "" {
			return errors.New("GCP_PROJECT_ID is required when UPLOAD_LOG_STORE=datastore")
		}
	default:
		return fmt.Errorf("UPLOAD_LOG_STORE must be %q or %q, got %q",
			UploadLogStorePostgres, UploadLogStoreDatastore, c.UPLOAD_LOG_STORE)
	}
	return nil
}

// reader keeps the first conversion error.
type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) str(key, def string) string {
	if v := r.getenv(key); v != "" {
		return v
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := r.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d
}
