package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"pos_sales/internal/sales"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendStore    = "store"

	FolioRandom = "random"
	FolioRedis  = "redis"
)

// Config holds process settings read from the environment.
type Config struct {
	Port        string
	Env         string
	StoreName   string
	FolioPrefix string
	FolioSource string

	StoreBackend   string
	DatabaseURL    string
	CatalogBackend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CustomerDirectoryURL string
	AMQPURL              string
	PrometheusEnabled    bool
	SeedFile             string
}

// Load reads an optional .env file and then the environment.
func Load(files ...string) (Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load(files...)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("REDIS_DB must be an integer: %w", err)
	}

	cfg := Config{
		Port:                 getEnv("PORT", "8081"),
		Env:                  getEnv("APP_ENV", "production"),
		StoreName:            getEnv("STORE_NAME", sales.DefaultStoreName),
		FolioPrefix:          strings.ToUpper(getEnv("FOLIO_PREFIX", sales.DefaultFolioPrefix)),
		FolioSource:          getEnv("FOLIO_SOURCE", FolioRandom),
		StoreBackend:         getEnv("STORE_BACKEND", BackendMemory),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		CatalogBackend:       getEnv("CATALOG_BACKEND", BackendStore),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              redisDB,
		CustomerDirectoryURL: os.Getenv("CUSTOMER_DIRECTORY_URL"),
		AMQPURL:              os.Getenv("AMQP_URL"),
		PrometheusEnabled:    os.Getenv("PROMETHEUS_ENABLED") == "true",
		SeedFile:             os.Getenv("SEED_FILE"),
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	if !sales.ValidFolioPrefix(c.FolioPrefix) {
		errs = append(errs, fmt.Errorf("FOLIO_PREFIX %q must be 2 to 4 letters", c.FolioPrefix))
	}
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.CatalogBackend != BackendStore && c.CatalogBackend != BackendRedis {
		errs = append(errs, fmt.Errorf("unknown CATALOG_BACKEND %q", c.CatalogBackend))
	}
	if c.FolioSource != FolioRandom && c.FolioSource != FolioRedis {
		errs = append(errs, fmt.Errorf("unknown FOLIO_SOURCE %q", c.FolioSource))
	}
	return errors.Join(errs...)
}

// UsesRedis reports whether any component needs a Redis client.
func (c Config) UsesRedis() bool {
	return c.CatalogBackend == BackendRedis || c.FolioSource == FolioRedis
}

// getEnv obtiene una variable de entorno o devuelve un valor por defecto
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}
