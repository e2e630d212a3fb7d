package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"irrigation-monitor/backend/internal/irrigation"
	"irrigation-monitor/backend/pkg/dialect"
	"irrigation-monitor/backend/pkg/migrator"
	"irrigation-monitor/backend/pkg/utils"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// DefaultConnectTimeout is how long Open keeps retrying an unreachable database.
const DefaultConnectTimeout = 30 * time.Second

type Options struct {
	Dialect dialect.Dialect
	// DSN is the SQLite file path or the PostgreSQL URL. Unused for the memory dialect.
	DSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ConnectTimeout time.Duration
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Store is the opened reading repository together with its connections.
type Store struct {
	irrigation.Repository

	l       *slog.Logger
	pingers map[string]pinger
	closers []func() error
}

// Open connects to the configured database, runs migrations and wraps the repository in the
// Redis cache when an address is set.
func Open(ctx context.Context, l *slog.Logger, opts Options) (*Store, error) {
	if err := opts.Dialect.Validate(); err != nil {
		return nil, err
	}

	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}

	s := &Store{
		l:       l.With(slog.String("component", "store"), slog.String("dialect", opts.Dialect.String())),
		pingers: map[string]pinger{},
	}

	var err error

	switch opts.Dialect {
	case dialect.SQLite:
		err = s.openSQLite(ctx, opts)
	case dialect.PostgreSQL:
		err = s.openPostgres(ctx, opts)
	case dialect.Memory:
		s.l.Warn("using in-memory store, readings are lost on restart")
		s.Repository = NewMemoryRepository()
	}

	if err != nil {
		return nil, errors.Join(err, s.Close())
	}

	if opts.RedisAddr != "" {
		if err := s.openRedis(ctx, opts); err != nil {
			return nil, errors.Join(err, s.Close())
		}
	}

	return s, nil
}

// Ping checks every backing connection. The error names the failing backend.
func (s *Store) Ping(ctx context.Context) error {
	var errs []error

	for name, p := range s.pingers {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// Close releases connections in reverse order of opening.
func (s *Store) Close() error {
	var errs []error

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	s.closers = nil

	return errors.Join(errs...)
}

func (s *Store) openSQLite(ctx context.Context, opts Options) error {
	if err := runMigrations(s.l, opts); err != nil {
		return err
	}

	db, err := sql.Open(opts.Dialect.Driver(), SQLiteDSN(opts.DSN))
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	s.closers = append(s.closers, db.Close)

	if err := s.retry(ctx, opts.ConnectTimeout, db.PingContext); err != nil {
		return fmt.Errorf("sqlite database not reachable: %w", err)
	}

	repo := NewSQLiteRepository(db)
	s.Repository = repo
	s.pingers["database"] = repo

	return nil
}

func (s *Store) openPostgres(ctx context.Context, opts Options) error {
	pool, err := pgxpool.New(ctx, opts.DSN)
	if err != nil {
		return fmt.Errorf("failed to configure postgres pool: %w", err)
	}

	s.closers = append(s.closers, func() error {
		pool.Close()

		return nil
	})

	if err := s.retry(ctx, opts.ConnectTimeout, pool.Ping); err != nil {
		return fmt.Errorf("postgres database not reachable: %w", err)
	}

	if err := runMigrations(s.l, opts); err != nil {
		return err
	}

	repo := NewPostgresRepository(pool)
	s.Repository = repo
	s.pingers["database"] = repo

	return nil
}

func (s *Store) openRedis(ctx context.Context, opts Options) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})
	s.closers = append(s.closers, rdb.Close)

	if err := s.retry(ctx, opts.ConnectTimeout, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		return fmt.Errorf("redis not reachable at %s: %w", opts.RedisAddr, err)
	}

	cached := NewCachedRepository(s.l, s.Repository, rdb)
	if err := cached.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset latest reading cache: %w", err)
	}

	s.Repository = cached
	s.pingers["cache"] = cached

	s.l.Info("latest reading cache enabled", slog.String("addr", opts.RedisAddr))

	return nil
}

// retry pings with exponential backoff until it succeeds, ctx ends or timeout elapses.
func (s *Store) retry(ctx context.Context, timeout time.Duration, ping func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = timeout

	return backoff.RetryNotify(func() error {
		return ping(ctx)
	}, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		s.l.Warn("connection attempt failed, retrying", slog.Duration("next", next), utils.ErrAttr(err))
	})
}

func runMigrations(l *slog.Logger, opts Options) error {
	l.Info("Running database migrations")

	mig, err := migrator.New(l, opts.Dialect, opts.DSN)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := mig.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	l.Info("Database migrations completed successfully")

	return nil
}
