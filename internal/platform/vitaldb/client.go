// Package vitaldb fetches raw CSV resources from the VitalDB open data API.
package vitaldb

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/vitallab/vitallab/internal/platform/metrics"
)

// Well-known list resources. Any other name is treated as a track id.
const (
	ResourceCases  = "cases"
	ResourceTracks = "trks"
	ResourceLabs   = "labs"
)

// Source returns the raw text of a named resource.
type Source interface {
	Fetch(ctx context.Context, resource string) (string, error)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// Client is the HTTP Source. Connections are reused across calls, and all
// calls go through one circuit breaker so a dead upstream fails fast.
type Client struct {
	http   *resty.Client
	cb     *gobreaker.CircuitBreaker[string]
	logger zerolog.Logger
}

const breakerName = "vitaldb-api"

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", "vitaldb").Logger()

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "text/csv, */*").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Upstream 4xx answers mean the service is up.
		IsSuccessful: func(err error) bool {
			var fe *RemoteFetchError
			if errors.As(err, &fe) {
				return fe.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Client{http: httpClient, cb: cb, logger: logger}
}

// Fetch returns the response body of GET {base}/{resource}.
// An empty resource name is rejected before any request is made.
func (c *Client) Fetch(ctx context.Context, resource string) (string, error) {
	if strings.TrimSpace(resource) == "" {
		return "", &InvalidResourceError{Resource: resource}
	}
	kind := resourceKind(resource)
	start := time.Now()

	body, err := c.cb.Execute(func() (string, error) {
		return c.get(ctx, resource)
	})
	metrics.RemoteFetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &RemoteUnavailableError{Resource: resource, Err: err}
		}
		metrics.RemoteFetches.WithLabelValues(kind, "error").Inc()
		c.logger.Error().Err(err).Str("resource", resource).Msg("remote fetch failed")
		return "", err
	}

	metrics.RemoteFetches.WithLabelValues(kind, "ok").Inc()
	return body, nil
}

func (c *Client) get(ctx context.Context, resource string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/" + url.PathEscape(resource))
	if err != nil {
		return "", &RemoteUnavailableError{Resource: resource, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return "", &RemoteFetchError{
			Resource:   resource,
			StatusCode: resp.StatusCode(),
			Body:       snippet(string(resp.Body())),
		}
	}
	return string(resp.Body()), nil
}

func resourceKind(resource string) string {
	switch resource {
	case ResourceCases, ResourceTracks, ResourceLabs:
		return resource
	default:
		return "track_data"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
