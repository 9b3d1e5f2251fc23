package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPoolSize = 10

const (
	queryGetEntry = `
		SELECT value FROM cache_entries
		WHERE key = $1 AND expires_at > now()`

	queryUpsertEntry = `
		INSERT INTO cache_entries (key, value, expires_at)
		VALUES (@key, @value, now() + @ttl::interval)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`

	queryDeleteEntry = `DELETE FROM cache_entries WHERE key = $1`

	querySweepEntries = `DELETE FROM cache_entries WHERE expires_at <= now()`
)

// Postgres is a Cache backed by a PostgreSQL table. Expired rows are
// invisible to Get and removed by Sweep.
type Postgres struct {
	pool   *pgxpool.Pool
	prefix string
}

// PostgresOptions holds connection settings for NewPostgres.
type PostgresOptions struct {
	DSN      string
	Prefix   string
	MaxConns int32
}

// NewPostgres connects to the database, verifies the connection and applies
// the cache schema.
func NewPostgres(ctx context.Context, opts PostgresOptions) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Postgres{pool: pool, prefix: opts.Prefix}, nil
}

// Get returns the stored value, or ErrMiss when absent or expired.
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var val []byte
	err := p.pool.QueryRow(ctx, queryGetEntry, p.prefix+key).Scan(&val)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get: %w", err)
	}
	return val, nil
}

// Set stores val with ttl. A non-positive ttl deletes the key.
func (p *Postgres) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		if _, err := p.pool.Exec(ctx, queryDeleteEntry, p.prefix+key); err != nil {
			return fmt.Errorf("postgres delete: %w", err)
		}
		return nil
	}

	args := pgx.NamedArgs{
		"key":   p.prefix + key,
		"value": val,
		"ttl":   ttl,
	}
	if _, err := p.pool.Exec(ctx, queryUpsertEntry, args); err != nil {
		return fmt.Errorf("postgres set: %w", err)
	}
	return nil
}

// Sweep deletes expired rows and returns how many were removed.
func (p *Postgres) Sweep(ctx context.Context) (int, error) {
	tag, err := p.pool.Exec(ctx, querySweepEntries)
	if err != nil {
		return 0, fmt.Errorf("postgres sweep: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Ping verifies the database connection is alive.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
