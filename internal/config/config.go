// Package config loads the sentiment tool configuration from a YAML file,
// environment variables and defaults, in increasing order of precedence:
// defaults, file, environment. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/fractal-lba/sentiment/internal/model"
	"github.com/fractal-lba/sentiment/internal/store"
	"github.com/fractal-lba/sentiment/pkg/text"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full tool configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Train    TrainConfig    `yaml:"train"`
	Eval     EvalConfig     `yaml:"eval"`
	Classify ClassifyConfig `yaml:"classify"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// StoreConfig selects the model store backend.
type StoreConfig struct {
	Backend       string `yaml:"backend"` // file, redis, postgres
	Dir           string `yaml:"dir"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	PostgresConn  string `yaml:"postgres_conn"`
}

// TrainConfig controls counting and tokenization.
type TrainConfig struct {
	Prune          bool `yaml:"prune"`
	CrossIncrement bool `yaml:"cross_increment"`
	MaxN           int  `yaml:"max_n"`
	Normalize      bool `yaml:"normalize"`
}

// EvalConfig controls evaluation, sweeps and cross-validation.
type EvalConfig struct {
	Workers   int     `yaml:"workers"` // 0 = GOMAXPROCS
	Ratio     float64 `yaml:"ratio"`   // Train share of a split
	Seed      int64   `yaml:"seed"`
	Folds     int     `yaml:"folds"`
	Ks        []int   `yaml:"ks"`
	Bootstrap int     `yaml:"bootstrap"` // Resamples; 0 disables
}

type ClassifyConfig struct {
	MemoSize int `yaml:"memo_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type MetricsConfig struct {
	// Textfile is where batch metrics are written at exit; empty disables.
	Textfile string `yaml:"textfile"`
}

type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"` // OTLP gRPC; empty disables tracing
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns a configuration that trains and stores models in ./models.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:   store.BackendFile,
			Dir:       "models",
			RedisAddr: "localhost:6379",
		},
		Train: TrainConfig{
			Prune:          true,
			CrossIncrement: true,
			MaxN:           3,
			Normalize:      true,
		},
		Eval: EvalConfig{
			Ratio:     0.8,
			Seed:      1,
			Folds:     5,
			Ks:        []int{1000, 5000, 10000, 50000, 100000, 0},
			Bootstrap: 0,
		},
		Classify: ClassifyConfig{MemoSize: 4096},
		Log:      LogConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{
			Insecure:    true,
			ServiceName: "sentiment",
			SampleRatio: 1.0,
		},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SENTIMENT_* environment variables.
func (c *Config) ApplyEnv() {
	c.Store.Backend = getEnv("SENTIMENT_STORE", c.Store.Backend)
	c.Store.Dir = getEnv("SENTIMENT_MODEL_DIR", c.Store.Dir)
	c.Store.RedisAddr = getEnv("SENTIMENT_REDIS_ADDR", c.Store.RedisAddr)
	c.Store.RedisPassword = getEnv("SENTIMENT_REDIS_PASSWORD", c.Store.RedisPassword)
	c.Store.RedisDB = getEnvInt("SENTIMENT_REDIS_DB", c.Store.RedisDB)
	c.Store.PostgresConn = getEnv("SENTIMENT_POSTGRES_CONN", c.Store.PostgresConn)

	c.Eval.Workers = getEnvInt("SENTIMENT_WORKERS", c.Eval.Workers)

	c.Log.Level = getEnv("SENTIMENT_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("SENTIMENT_LOG_FORMAT", c.Log.Format)

	c.Metrics.Textfile = getEnv("SENTIMENT_METRICS_TEXTFILE", c.Metrics.Textfile)
	c.Tracing.Endpoint = getEnv("SENTIMENT_OTLP_ENDPOINT", c.Tracing.Endpoint)
}

// Validate rejects values no command can run with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendFile, store.BackendRedis, store.BackendPostgres:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if c.Store.Backend == store.BackendPostgres && c.Store.PostgresConn == "" {
		return fmt.Errorf("%w: postgres backend needs a connection string", ErrInvalidConfig)
	}
	if c.Train.MaxN < 1 {
		return fmt.Errorf("%w: max_n must be at least 1, got %d", ErrInvalidConfig, c.Train.MaxN)
	}
	if c.Eval.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Eval.Workers)
	}
	if c.Eval.Ratio <= 0 || c.Eval.Ratio >= 1 {
		return fmt.Errorf("%w: ratio must be in (0, 1), got %v", ErrInvalidConfig, c.Eval.Ratio)
	}
	if c.Eval.Folds < 2 {
		return fmt.Errorf("%w: folds must be at least 2, got %d", ErrInvalidConfig, c.Eval.Folds)
	}
	if c.Eval.Bootstrap < 0 {
		return fmt.Errorf("%w: bootstrap must not be negative, got %d", ErrInvalidConfig, c.Eval.Bootstrap)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format must be text or json, got %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: sample_ratio must be in [0, 1], got %v", ErrInvalidConfig, c.Tracing.SampleRatio)
	}
	return nil
}

// StoreOptions converts the store section for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:       c.Store.Backend,
		Dir:           c.Store.Dir,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		PostgresConn:  c.Store.PostgresConn,
	}
}

// TrainOptions converts the train section for model.Train.
func (c *Config) TrainOptions() model.Options {
	return model.Options{
		Prune:          c.Train.Prune,
		CrossIncrement: c.Train.CrossIncrement,
		Transformer:    text.NewTransformer(c.Train.MaxN, c.Train.Normalize),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
