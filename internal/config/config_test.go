package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentiment.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() is invalid: %v", err)
	}
	if cfg.Store.Backend != "file" || !cfg.Train.Prune || !cfg.Train.CrossIncrement || cfg.Train.MaxN != 3 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: redis
  redis_addr: cache:6379
train:
  cross_increment: false
  max_n: 2
eval:
  ks: [10, 20]
  folds: 10
log:
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.Backend != "redis" || cfg.Store.RedisAddr != "cache:6379" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Train.CrossIncrement || !cfg.Train.Prune || cfg.Train.MaxN != 2 {
		t.Errorf("train = %+v; unset keys should keep defaults", cfg.Train)
	}
	if len(cfg.Eval.Ks) != 2 || cfg.Eval.Ks[1] != 20 || cfg.Eval.Folds != 10 {
		t.Errorf("eval = %+v", cfg.Eval)
	}
	if cfg.Eval.Ratio != 0.8 {
		t.Errorf("ratio = %v, want default 0.8", cfg.Eval.Ratio)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "info" {
		t.Errorf("log = %+v", cfg.Log)
	}

	opts := cfg.TrainOptions()
	if opts.CrossIncrement || opts.Transformer.MaxN != 2 {
		t.Errorf("TrainOptions = %+v", opts)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Dir != "models" {
		t.Errorf("Store.Dir = %q, want models", cfg.Store.Dir)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
	if _, err := Load(writeConfig(t, "store: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Load(writeConfig(t, "eval:\n  folds: 1\n")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("invalid folds error = %v, want ErrInvalidConfig", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SENTIMENT_STORE", "postgres")
	t.Setenv("SENTIMENT_POSTGRES_CONN", "postgres://localhost/sentiment")
	t.Setenv("SENTIMENT_MODEL_DIR", "/var/lib/sentiment")
	t.Setenv("SENTIMENT_REDIS_DB", "3")
	t.Setenv("SENTIMENT_WORKERS", "not-a-number")
	t.Setenv("SENTIMENT_LOG_LEVEL", "debug")
	t.Setenv("SENTIMENT_OTLP_ENDPOINT", "collector:4317")

	path := writeConfig(t, "store:\n  backend: redis\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.Backend != "postgres" {
		t.Errorf("environment should win over file: backend = %q", cfg.Store.Backend)
	}
	if cfg.Store.PostgresConn != "postgres://localhost/sentiment" || cfg.Store.Dir != "/var/lib/sentiment" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.RedisDB != 3 {
		t.Errorf("RedisDB = %d, want 3", cfg.Store.RedisDB)
	}
	if cfg.Eval.Workers != 0 {
		t.Errorf("unparseable SENTIMENT_WORKERS should keep the default, got %d", cfg.Eval.Workers)
	}
	if cfg.Log.Level != "debug" || cfg.Tracing.Endpoint != "collector:4317" {
		t.Errorf("log level = %q, endpoint = %q", cfg.Log.Level, cfg.Tracing.Endpoint)
	}

	opts := cfg.StoreOptions()
	if opts.Backend != "postgres" || opts.RedisDB != 3 {
		t.Errorf("StoreOptions = %+v", opts)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "unknown backend", modify: func(c *Config) { c.Store.Backend = "s3" }},
		{name: "postgres without conn", modify: func(c *Config) { c.Store.Backend = "postgres" }},
		{name: "negative workers", modify: func(c *Config) { c.Eval.Workers = -1 }},
		{name: "zero ratio", modify: func(c *Config) { c.Eval.Ratio = 0 }},
		{name: "ratio of one", modify: func(c *Config) { c.Eval.Ratio = 1 }},
		{name: "one fold", modify: func(c *Config) { c.Eval.Folds = 1 }},
		{name: "zero max_n", modify: func(c *Config) { c.Train.MaxN = 0 }},
		{name: "negative bootstrap", modify: func(c *Config) { c.Eval.Bootstrap = -5 }},
		{name: "bad log format", modify: func(c *Config) { c.Log.Format = "xml" }},
		{name: "sample ratio above one", modify: func(c *Config) { c.Tracing.SampleRatio = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
