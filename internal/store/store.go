// Package store persists named byte slots in a durable key-value store. The
// geocoder keeps its whole cache in a single slot.
package store

import (
	"context"

	"github.com/rotisserie/eris"
)

// Store reads and overwrites named slots. Put replaces the whole value.
type Store interface {
	// Get returns the slot value and whether it exists.
	Get(ctx context.Context, name string) ([]byte, bool, error)
	// Put overwrites the slot value.
	Put(ctx context.Context, name string, value []byte) error
	Close() error
}

// Config selects and configures a Store driver.
type Config struct {
	Driver        string // "file" (default), "sqlite", "postgres" or "redis"
	Dir           string // file driver directory
	DSN           string // sqlite path or postgres connection string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open creates the configured Store and prepares its schema where needed.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFile(cfg.Dir), nil
	case "sqlite":
		s, err := NewSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		return s, nil
	case "redis":
		return NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
