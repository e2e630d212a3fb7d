package store

import (
	"context"
	"math"
	"slices"
	"sync"

	"irrigation-monitor/backend/internal/irrigation"
)

// MemoryRepository keeps readings in process memory, ordered by time and then ID.
type MemoryRepository struct {
	mu       sync.RWMutex
	readings []irrigation.Reading
	nextID   int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func compareReadings(a, b irrigation.Reading) int {
	if c := a.CapturedAt.Compare(b.CapturedAt); c != 0 {
		return c
	}

	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}

func (m *MemoryRepository) Append(_ context.Context, r irrigation.Reading) (irrigation.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.ID = m.nextID
	m.nextID++

	if r.Rainfall != nil {
		v := *r.Rainfall
		r.Rainfall = &v
	}

	i, _ := slices.BinarySearchFunc(m.readings, r, compareReadings)
	m.readings = slices.Insert(m.readings, i, r)

	return r, nil
}

func (m *MemoryRepository) Latest(_ context.Context) (irrigation.Reading, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.readings) == 0 {
		return irrigation.Reading{}, false, nil
	}

	return m.readings[len(m.readings)-1], true, nil
}

func (m *MemoryRepository) Recent(_ context.Context, n int) ([]irrigation.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.descending(0, n), nil
}

func (m *MemoryRepository) Page(_ context.Context, page, size int) ([]irrigation.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.descending(pageOffset(page, size), size), nil
}

func (m *MemoryRepository) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.readings), nil
}

// descending returns up to limit readings newest first, skipping the newest offset.
func (m *MemoryRepository) descending(offset, limit int) []irrigation.Reading {
	out := []irrigation.Reading{}
	if limit <= 0 {
		return out
	}

	for i := len(m.readings) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.readings[i])
	}

	return out
}

// pageOffset saturates at math.MaxInt instead of wrapping for huge pages.
func pageOffset(page, size int) int {
	if page < 1 || size <= 0 {
		return 0
	}

	if page-1 > math.MaxInt/size {
		return math.MaxInt
	}

	return (page - 1) * size
}
