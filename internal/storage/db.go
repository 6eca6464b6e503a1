package storage

import (
	"context"
	"fmt"
	"strings"

	"labgraph/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sink persists the tables of one sample. Saving a sample replaces any rows
// previously stored for the same batch and sample.
type Sink interface {
	SaveSample(ctx context.Context, t models.SampleTables) error
	Close() error
}

// Open picks a sink from the DSN scheme: postgres:// or postgresql:// for
// Postgres, sqlite://<path> for SQLite. An empty DSN returns a nil Sink.
func Open(ctx context.Context, dsn string) (Sink, error) {
	switch {
	case dsn == "":
		return nil, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err := NewDB(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return NewPostgresSink(db), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLiteSink(strings.TrimPrefix(dsn, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported store dsn %q", dsn)
	}
}

type DB struct {
	Pool *pgxpool.Pool
}

func NewDB(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (d *DB) Close() {
	if d != nil && d.Pool != nil {
		d.Pool.Close()
	}
}
