package irrigation_test

import (
	"context"
	"testing"
	"time"

	"irrigation-monitor/backend/internal/irrigation"
	"irrigation-monitor/backend/internal/store"
	"irrigation-monitor/backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillRepository appends n readings one minute apart; soil moisture equals the index.
func fillRepository(t *testing.T, n int) *store.MemoryRepository {
	t.Helper()

	repo := store.NewMemoryRepository()

	for i := range n {
		_, err := repo.Append(context.Background(), irrigation.Reading{
			CapturedAt:   t0.Add(time.Duration(i) * time.Minute),
			SoilMoisture: float64(i),
			Humidity:     60,
			Temperature:  28,
		})
		require.NoError(t, err)
	}

	return repo
}

func TestQueryLatest(t *testing.T) {
	t.Parallel()

	t.Run("empty store gives placeholder", func(t *testing.T) {
		t.Parallel()

		latest, err := irrigation.NewQuery(store.NewMemoryRepository()).Latest(context.Background())
		require.NoError(t, err)
		assert.False(t, latest.Found)
		assert.Zero(t, latest.SoilMoisture)
	})

	t.Run("newest reading", func(t *testing.T) {
		t.Parallel()

		latest, err := irrigation.NewQuery(fillRepository(t, 3)).Latest(context.Background())
		require.NoError(t, err)
		assert.True(t, latest.Found)
		assert.Equal(t, 2.0, latest.SoilMoisture)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		_, err := irrigation.NewQuery(brokenRepository{}).Latest(context.Background())
		require.ErrorIs(t, err, irrigation.ErrStoreFailure)
	})
}

func TestQueryChartSeries(t *testing.T) {
	t.Parallel()

	t.Run("caps at limit and orders ascending", func(t *testing.T) {
		t.Parallel()

		s, err := irrigation.NewQuery(fillRepository(t, 60)).ChartSeries(context.Background(), irrigation.DefaultChartLimit)
		require.NoError(t, err)

		require.Len(t, s.Labels, 50)
		require.Len(t, s.SoilMoisture, 50)
		require.Len(t, s.Humidity, 50)
		require.Len(t, s.Temperature, 50)
		require.Len(t, s.Rainfall, 50)

		assert.Equal(t, 10.0, s.SoilMoisture[0], "oldest of the newest 50 first")
		assert.Equal(t, 59.0, s.SoilMoisture[49])
		assert.Equal(t, "08:10:00", s.Labels[0])
		assert.Equal(t, "08:59:00", s.Labels[49])
	})

	t.Run("fewer readings than limit", func(t *testing.T) {
		t.Parallel()

		s, err := irrigation.NewQuery(fillRepository(t, 3)).ChartSeries(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1, 2}, s.SoilMoisture)
	})

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()

		s, err := irrigation.NewQuery(store.NewMemoryRepository()).ChartSeries(context.Background(), 50)
		require.NoError(t, err)
		assert.NotNil(t, s.Labels)
		assert.Empty(t, s.Labels)
	})

	t.Run("null rainfall kept as nil", func(t *testing.T) {
		t.Parallel()

		repo := store.NewMemoryRepository()
		_, err := repo.Append(context.Background(), irrigation.Reading{CapturedAt: t0})
		require.NoError(t, err)
		_, err = repo.Append(context.Background(), irrigation.Reading{CapturedAt: t0.Add(time.Second), Rainfall: utils.Ptr(1.0)})
		require.NoError(t, err)

		s, err := irrigation.NewQuery(repo).ChartSeries(context.Background(), 50)
		require.NoError(t, err)
		assert.Nil(t, s.Rainfall[0])
		assert.Equal(t, 1.0, *s.Rainfall[1])
	})
}

func TestQueryHistory(t *testing.T) {
	t.Parallel()

	q := irrigation.NewQuery(fillRepository(t, 50))

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantLen   int
		wantFirst float64
		hasPrev   bool
		hasNext   bool
	}{
		{"first page", 1, 1, 15, 49, false, true},
		{"second page", 2, 2, 15, 34, true, true},
		{"last partial page", 4, 4, 5, 4, true, false},
		{"past the end", 999, 999, 0, 0, true, false},
		{"page offset beyond int range", 4611686018427387905, 4611686018427387905, 0, 0, true, false},
		{"page zero clamps to one", 0, 1, 15, 49, false, true},
		{"negative page clamps to one", -3, 1, 15, 49, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := q.History(context.Background(), tt.page, irrigation.DefaultPageSize)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPage, h.Page)
			assert.Equal(t, 50, h.Total)
			assert.Equal(t, 4, h.Pages)
			assert.Equal(t, irrigation.DefaultPageSize, h.PageSize)
			require.Len(t, h.Items, tt.wantLen)
			assert.NotNil(t, h.Items)
			assert.Equal(t, tt.hasPrev, h.HasPrev())
			assert.Equal(t, tt.hasNext, h.HasNext())

			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, h.Items[0].SoilMoisture)

				for i := 1; i < len(h.Items); i++ {
					assert.True(t, h.Items[i].CapturedAt.Before(h.Items[i-1].CapturedAt))
				}
			}
		})
	}
}

func TestQueryHistoryDefaultsPageSize(t *testing.T) {
	t.Parallel()

	h, err := irrigation.NewQuery(fillRepository(t, 20)).History(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, irrigation.DefaultPageSize, h.PageSize)
	assert.Len(t, h.Items, 15)
}

func TestQueryDeviceStatus(t *testing.T) {
	t.Parallel()

	t.Run("unknown without readings", func(t *testing.T) {
		t.Parallel()

		rep, err := irrigation.NewQuery(store.NewMemoryRepository()).DeviceStatus(context.Background(), t0)
		require.NoError(t, err)
		assert.Equal(t, irrigation.DeviceUnknown, rep.Status)
		assert.Nil(t, rep.LastSeen)
	})

	t.Run("evaluated against now on every call", func(t *testing.T) {
		t.Parallel()

		q := irrigation.NewQuery(fillRepository(t, 1))

		rep, err := q.DeviceStatus(context.Background(), t0.Add(300*time.Second))
		require.NoError(t, err)
		assert.Equal(t, irrigation.DeviceOnline, rep.Status)
		require.NotNil(t, rep.LastSeen)
		assert.True(t, rep.LastSeen.Equal(t0))

		rep, err = q.DeviceStatus(context.Background(), t0.Add(301*time.Second))
		require.NoError(t, err)
		assert.Equal(t, irrigation.DeviceOffline, rep.Status)
	})
}
