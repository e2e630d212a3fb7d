package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"irrigation-monitor/backend/internal/irrigation"

	_ "github.com/mattn/go-sqlite3"
)

const readingColumns = "id, captured_at, soil_moisture, humidity, temperature, rainfall"

// SQLiteRepository stores readings in SQLite. captured_at is kept as unix milliseconds so
// ordering is numeric.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SQLiteDSN adds the connection pragmas used for the reading database.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

func (s *SQLiteRepository) Append(ctx context.Context, r irrigation.Reading) (irrigation.Reading, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (captured_at, soil_moisture, humidity, temperature, rainfall) VALUES (?, ?, ?, ?, ?)`,
		r.CapturedAt.UnixMilli(), r.SoilMoisture, r.Humidity, r.Temperature, nullFloat(r.Rainfall),
	)
	if err != nil {
		return irrigation.Reading{}, fmt.Errorf("failed to insert reading: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return irrigation.Reading{}, fmt.Errorf("failed to read inserted id: %w", err)
	}

	r.ID = id
	r.CapturedAt = time.UnixMilli(r.CapturedAt.UnixMilli()).UTC()

	return r, nil
}

func (s *SQLiteRepository) Latest(ctx context.Context) (irrigation.Reading, bool, error) {
	items, err := s.query(ctx, `SELECT `+readingColumns+` FROM readings ORDER BY captured_at DESC, id DESC LIMIT 1`)
	if err != nil {
		return irrigation.Reading{}, false, err
	}

	if len(items) == 0 {
		return irrigation.Reading{}, false, nil
	}

	return items[0], true, nil
}

func (s *SQLiteRepository) Recent(ctx context.Context, n int) ([]irrigation.Reading, error) {
	return s.query(ctx, `SELECT `+readingColumns+` FROM readings ORDER BY captured_at DESC, id DESC LIMIT ?`, n)
}

func (s *SQLiteRepository) Page(ctx context.Context, page, size int) ([]irrigation.Reading, error) {
	return s.query(ctx,
		`SELECT `+readingColumns+` FROM readings ORDER BY captured_at DESC, id DESC LIMIT ? OFFSET ?`,
		size, pageOffset(page, size),
	)
}

func (s *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}

	return n, nil
}

// Ping checks the connection for the health endpoint.
func (s *SQLiteRepository) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]irrigation.Reading, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	out := []irrigation.Reading{}

	for rows.Next() {
		var (
			r          irrigation.Reading
			capturedAt int64
			rainfall   sql.NullFloat64
		)

		if err := rows.Scan(&r.ID, &capturedAt, &r.SoilMoisture, &r.Humidity, &r.Temperature, &rainfall); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}

		r.CapturedAt = time.UnixMilli(capturedAt).UTC()
		if rainfall.Valid {
			r.Rainfall = &rainfall.Float64
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating readings: %w", err)
	}

	return out, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: *f, Valid: true}
}
