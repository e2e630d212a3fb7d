package irrigation

import (
	"context"
	"time"
)

const (
	// DefaultChartLimit is the number of readings plotted on the history chart.
	DefaultChartLimit = 50
	// DefaultPageSize is the number of rows on one status page.
	DefaultPageSize = 15
	// ChartLabelLayout formats chart x-axis labels.
	ChartLabelLayout = "15:04:05"
)

// LatestReading is the newest reading, or a placeholder when nothing was stored yet.
type LatestReading struct {
	Reading
	Found bool
}

// ChartSeries holds parallel arrays in ascending time order.
type ChartSeries struct {
	Labels       []string
	SoilMoisture []float64
	Humidity     []float64
	Temperature  []float64
	Rainfall     []*float64
}

// HistoryPage is one page of readings, newest first.
type HistoryPage struct {
	Items    []Reading
	Page     int
	PageSize int
	Total    int
	Pages    int
}

// HasPrev reports whether a previous page exists.
func (p HistoryPage) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a following page exists.
func (p HistoryPage) HasNext() bool {
	return p.Page < p.Pages
}

// DeviceReport is the device freshness together with when it was last heard from.
type DeviceReport struct {
	Status   DeviceStatus
	LastSeen *time.Time
}

// Query is the read side used by the dashboard and the JSON API.
type Query struct {
	repo Repository
}

func NewQuery(repo Repository) *Query {
	return &Query{repo: repo}
}

// Latest never fails on an empty store.
func (q *Query) Latest(ctx context.Context) (LatestReading, error) {
	r, ok, err := q.repo.Latest(ctx)
	if err != nil {
		return LatestReading{}, storeErr("latest", err)
	}

	return LatestReading{Reading: r, Found: ok}, nil
}

// ChartSeries projects the newest limit readings into chart arrays, oldest first.
func (q *Query) ChartSeries(ctx context.Context, limit int) (ChartSeries, error) {
	if limit <= 0 {
		limit = DefaultChartLimit
	}

	recent, err := q.repo.Recent(ctx, limit)
	if err != nil {
		return ChartSeries{}, storeErr("recent", err)
	}

	n := len(recent)
	s := ChartSeries{
		Labels:       make([]string, 0, n),
		SoilMoisture: make([]float64, 0, n),
		Humidity:     make([]float64, 0, n),
		Temperature:  make([]float64, 0, n),
		Rainfall:     make([]*float64, 0, n),
	}

	for i := n - 1; i >= 0; i-- {
		r := recent[i]
		s.Labels = append(s.Labels, r.CapturedAt.Format(ChartLabelLayout))
		s.SoilMoisture = append(s.SoilMoisture, r.SoilMoisture)
		s.Humidity = append(s.Humidity, r.Humidity)
		s.Temperature = append(s.Temperature, r.Temperature)
		s.Rainfall = append(s.Rainfall, r.Rainfall)
	}

	return s, nil
}

// History returns a 1-based page of readings. Pages past the end are empty, not errors.
func (q *Query) History(ctx context.Context, page, pageSize int) (HistoryPage, error) {
	if page < 1 {
		page = 1
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total, err := q.repo.Count(ctx)
	if err != nil {
		return HistoryPage{}, storeErr("count", err)
	}

	h := HistoryPage{
		Items:    []Reading{},
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Pages:    (total + pageSize - 1) / pageSize,
	}

	if page > h.Pages {
		return h, nil
	}

	items, err := q.repo.Page(ctx, page, pageSize)
	if err != nil {
		return HistoryPage{}, storeErr("page", err)
	}

	if items != nil {
		h.Items = items
	}

	return h, nil
}

// DeviceStatus evaluates freshness against now on every call.
func (q *Query) DeviceStatus(ctx context.Context, now time.Time) (DeviceReport, error) {
	latest, err := q.Latest(ctx)
	if err != nil {
		return DeviceReport{}, err
	}

	var lastSeen *time.Time
	if latest.Found {
		t := latest.CapturedAt
		lastSeen = &t
	}

	return DeviceReport{Status: EvaluateFreshness(now, lastSeen), LastSeen: lastSeen}, nil
}
