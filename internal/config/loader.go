package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "rentflow.yaml"

// DefaultEnvFile is the dotenv file loaded into the environment, if present.
const DefaultEnvFile = ".env"

var bucketName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// A .env file in the working directory seeds the environment first.
func Load() (*Config, error) {
	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv copies variables from a dotenv file into the process
// environment without overriding variables that are already set.
// Returns nil if the file does not exist.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Host, "RENTFLOW_HOST")
	setString(&cfg.Server.Port, "RENTFLOW_PORT")
	setString(&cfg.Server.CORSOrigin, "RENTFLOW_CORS_ORIGIN")
	setDuration(&cfg.Server.ShutdownTimeout, "RENTFLOW_SHUTDOWN_TIMEOUT")

	setString(&cfg.Logging.Level, "RENTFLOW_LOG_LEVEL")
	setString(&cfg.Logging.Service, "RENTFLOW_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "RENTFLOW_LOG_ASYNC")

	// Storage
	setString(&cfg.Storage.Backend, "RENTFLOW_STORAGE_BACKEND")
	setString(&cfg.Storage.File, "RENTFLOW_STORAGE_FILE")
	setString(&cfg.Storage.Prefix, "RENTFLOW_STORAGE_PREFIX")
	setInt64(&cfg.Storage.L1SizeMB, "RENTFLOW_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Storage.L1TTL, "RENTFLOW_CACHE_L1_TTL")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "RENTFLOW_PG_MAX_CONNS")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Bucket, "RENTFLOW_NATS_BUCKET")

	setInt(&cfg.Breaker.MaxFailures, "RENTFLOW_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "RENTFLOW_BREAKER_TIMEOUT")

	// Invoice
	setString(&cfg.Invoice.Title, "RENTFLOW_INVOICE_TITLE")
	setString(&cfg.Invoice.CurrencySymbol, "RENTFLOW_CURRENCY_SYMBOL")
	setString(&cfg.Invoice.CurrencyFallback, "RENTFLOW_CURRENCY_FALLBACK")
	setString(&cfg.Invoice.Footer, "RENTFLOW_INVOICE_FOOTER")
	setString(&cfg.Invoice.OutputDir, "RENTFLOW_OUTPUT_DIR")

	// Telemetry
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "RENTFLOW_OTEL_INSECURE")
	setFloat64(&cfg.Telemetry.SampleRatio, "RENTFLOW_OTEL_SAMPLE_RATIO")
}

// newValidator reports fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate checks field constraints and the settings each storage backend
// depends on.
func validate(cfg *Config) error {
	var errs []error

	if err := newValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			field := strings.TrimPrefix(fe.Namespace(), "Config.")
			if fe.Param() != "" {
				errs = append(errs, fmt.Errorf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
			} else {
				errs = append(errs, fmt.Errorf("%s: failed %s", field, fe.Tag()))
			}
		}
	}

	switch cfg.Storage.Backend {
	case BackendFile:
		if cfg.Storage.File == "" {
			errs = append(errs, errors.New("storage.file is required for the file backend"))
		}
	case BackendPostgres:
		if cfg.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for the postgres backend"))
		}
	case BackendNATS:
		if cfg.NATS.URL == "" {
			errs = append(errs, errors.New("nats.url is required for the nats backend"))
		}
	}
	if cfg.NATS.Bucket != "" && !bucketName.MatchString(cfg.NATS.Bucket) {
		errs = append(errs, fmt.Errorf("nats.bucket %q may only contain letters, digits, '_' and '-'", cfg.NATS.Bucket))
	}

	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
