package store

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"irrigation-monitor/backend/internal/irrigation"
)

const (
	DemoReadings = 50
	DemoInterval = 5 * time.Minute
)

// Seed fills an empty repository with n plausible readings spaced interval apart, the newest
// at now. It returns the number of readings written, which is 0 when data already exists.
func Seed(ctx context.Context, repo irrigation.Repository, now time.Time, n int, interval time.Duration) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}

	if count > 0 {
		return 0, nil
	}

	round := func(v float64) float64 { return math.Round(v*10) / 10 }

	for i := n - 1; i >= 0; i-- {
		rain := round(rand.Float64() * 5)
		r := irrigation.Reading{
			CapturedAt:   now.Add(-time.Duration(i) * interval).UTC(),
			SoilMoisture: round(30 + rand.Float64()*50),
			Humidity:     round(50 + rand.Float64()*40),
			Temperature:  round(24 + rand.Float64()*8),
			Rainfall:     &rain,
		}

		if _, err := repo.Append(ctx, r); err != nil {
			return n - 1 - i, fmt.Errorf("failed to seed reading: %w", err)
		}
	}

	return n, nil
}
