// Package weather looks up current rainfall from the weatherapi.com "current" endpoint.
package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

const (
	DefaultBaseURL = "https://api.weatherapi.com/v1"
	// DefaultQuery is the farm's coordinates.
	DefaultQuery   = "-6.2,106.816666"
	DefaultTimeout = 5 * time.Second
)

var ErrNoAPIKey = errors.New("weather API key is required")

// errCallerGone marks a lookup abandoned by its caller. It does not count against the API.
var errCallerGone = errors.New("weather lookup abandoned by caller")

type Options struct {
	BaseURL string
	APIKey  string
	Query   string
	Timeout time.Duration
	// FailureThreshold consecutive failures open the breaker for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

type currentResponse struct {
	Current struct {
		PrecipMM *float64 `json:"precip_mm"`
	} `json:"current"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client fetches precipitation in millimetres. Repeated failures open a circuit breaker so
// ingestion does not wait on a dead API for every reading.
type Client struct {
	http  *resty.Client
	cb    *gobreaker.CircuitBreaker
	key   string
	query string
	l     *slog.Logger
}

func New(l *slog.Logger, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	if opts.Query == "" {
		opts.Query = DefaultQuery
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 3
	}

	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = time.Minute
	}

	l = l.With(slog.String("component", "weather"))

	c := &Client{
		http: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout).
			SetHeader("Accept", "application/json"),
		key:   opts.APIKey,
		query: opts.Query,
		l:     l,
	}

	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "weather-api",
		Timeout: opts.OpenTimeout,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerGone)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state changed", slog.String("breaker", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})

	return c, nil
}

// Rainfall returns current precipitation in millimetres.
func (c *Client) Rainfall(ctx context.Context) (float64, error) {
	v, err := c.cb.Execute(func() (any, error) {
		mm, err := c.fetch(ctx)
		if err != nil && ctx.Err() != nil {
			return mm, fmt.Errorf("%w: %w", errCallerGone, err)
		}

		return mm, err
	})
	if err != nil {
		return 0, err
	}

	return v.(float64), nil
}

func (c *Client) fetch(ctx context.Context) (float64, error) {
	var body currentResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"key": c.key, "q": c.query}).
		SetResult(&body).
		SetError(&body).
		Get("/current.json")
	if err != nil {
		return 0, fmt.Errorf("weather request failed: %w", err)
	}

	if resp.IsError() {
		if body.Error != nil {
			return 0, fmt.Errorf("weather API returned %d: %s", resp.StatusCode(), body.Error.Message)
		}

		return 0, fmt.Errorf("weather API returned %d", resp.StatusCode())
	}

	if body.Current.PrecipMM == nil {
		return 0, errors.New("weather response has no current.precip_mm")
	}

	return *body.Current.PrecipMM, nil
}
