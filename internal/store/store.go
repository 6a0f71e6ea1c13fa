// Package store persists model snapshots by name in a file directory, Redis
// or Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/fractal-lba/sentiment/internal/model"
)

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

var (
	// ErrNotFound is returned by Load when no model has the given name.
	ErrNotFound = errors.New("model not found")

	// ErrUnknownBackend is returned by Open for an unsupported backend.
	ErrUnknownBackend = errors.New("unknown store backend")

	// ErrInvalidName is returned for names that are empty or contain
	// characters outside [A-Za-z0-9._-].
	ErrInvalidName = errors.New("invalid model name")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Store saves and loads model snapshots
type Store interface {
	// Save stores s under name, replacing any previous model.
	Save(ctx context.Context, name string, s *model.Snapshot) error

	// Load returns the validated snapshot stored under name.
	Load(ctx context.Context, name string) (*model.Snapshot, error)

	// List returns the stored model names in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases resources
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend string

	// File backend
	Dir string

	// Redis backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Postgres backend
	PostgresConn string
}

// Open connects to the configured backend. An empty backend means file.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case BackendPostgres:
		return NewPostgresStore(ctx, opts.PostgresConn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// Copy moves the model name from src to dst and verifies that the stored
// copy has the same checksum.
func Copy(ctx context.Context, src, dst Store, name string) (checksum string, err error) {
	s, err := src.Load(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to load from source: %w", err)
	}
	want, err := s.Checksum()
	if err != nil {
		return "", err
	}

	if err := dst.Save(ctx, name, s); err != nil {
		return "", fmt.Errorf("failed to save to target: %w", err)
	}

	copied, err := dst.Load(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to read back copy: %w", err)
	}
	got, err := copied.Checksum()
	if err != nil {
		return "", err
	}
	if got != want {
		return "", fmt.Errorf("checksum mismatch after copy: source %s, target %s", want, got)
	}
	return want, nil
}

func validateName(name string) error {
	if name == "." || name == ".." || !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
