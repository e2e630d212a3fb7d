package store

import (
	"context"
	"errors"
	"fmt"

	"irrigation-monitor/backend/internal/irrigation"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores readings in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (p *PostgresRepository) Append(ctx context.Context, r irrigation.Reading) (irrigation.Reading, error) {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO readings (captured_at, soil_moisture, humidity, temperature, rainfall)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, captured_at`,
		r.CapturedAt, r.SoilMoisture, r.Humidity, r.Temperature, r.Rainfall,
	).Scan(&r.ID, &r.CapturedAt)
	if err != nil {
		return irrigation.Reading{}, fmt.Errorf("failed to insert reading: %w", err)
	}

	r.CapturedAt = r.CapturedAt.UTC()

	return r, nil
}

func (p *PostgresRepository) Latest(ctx context.Context) (irrigation.Reading, bool, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+readingColumns+` FROM readings ORDER BY captured_at DESC, id DESC LIMIT 1`)
	if err != nil {
		return irrigation.Reading{}, false, fmt.Errorf("failed to query latest reading: %w", err)
	}

	r, err := pgx.CollectExactlyOneRow(rows, scanPgReading)
	if errors.Is(err, pgx.ErrNoRows) {
		return irrigation.Reading{}, false, nil
	}

	if err != nil {
		return irrigation.Reading{}, false, fmt.Errorf("failed to scan latest reading: %w", err)
	}

	return r, true, nil
}

func (p *PostgresRepository) Recent(ctx context.Context, n int) ([]irrigation.Reading, error) {
	return p.query(ctx, `SELECT `+readingColumns+` FROM readings ORDER BY captured_at DESC, id DESC LIMIT $1`, n)
}

func (p *PostgresRepository) Page(ctx context.Context, page, size int) ([]irrigation.Reading, error) {
	return p.query(ctx,
		`SELECT `+readingColumns+` FROM readings ORDER BY captured_at DESC, id DESC LIMIT $1 OFFSET $2`,
		size, pageOffset(page, size),
	)
}

func (p *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}

	return n, nil
}

func (p *PostgresRepository) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]irrigation.Reading, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}

	out, err := pgx.CollectRows(rows, scanPgReading)
	if err != nil {
		return nil, fmt.Errorf("failed to scan readings: %w", err)
	}

	if out == nil {
		out = []irrigation.Reading{}
	}

	return out, nil
}

func scanPgReading(row pgx.CollectableRow) (irrigation.Reading, error) {
	var r irrigation.Reading

	err := row.Scan(&r.ID, &r.CapturedAt, &r.SoilMoisture, &r.Humidity, &r.Temperature, &r.Rainfall)
	r.CapturedAt = r.CapturedAt.UTC()

	return r, err
}
