package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	"cotreport/logger"

	"golang.org/x/time/rate"
)

const defaultUserAgent = "cotreport/1.0"

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// HTTPSource downloads archives over HTTP(S). Requests are paced by a token
// bucket and retried with jittered exponential backoff on transient failures.
type HTTPSource struct {
	client      *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration
	userAgent   string
	log         *logger.Log
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// NewHTTPSource creates an HTTP source with a 60s timeout, three attempts and
// no rate limit unless options say otherwise.
func NewHTTPSource(opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		client:      &http.Client{Timeout: 60 * time.Second},
		limiter:     rate.NewLimiter(rate.Inf, 1),
		maxAttempts: 3,
		backoff:     time.Second,
		userAgent:   defaultUserAgent,
		log:         logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithAttempts sets how many times a request is tried and the initial backoff.
func WithAttempts(n int, backoff time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if n > 0 {
			s.maxAttempts = n
		}
		s.backoff = backoff
	}
}

// WithRateLimit paces requests to rps per second. rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(s *HTTPSource) {
		if rps <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithUserAgent(ua string) HTTPOption {
	return func(s *HTTPSource) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if hc != nil {
			s.client = hc
		}
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, location string) ([]byte, error) {
	log := s.log.WithComponent("reader").WithFields(logger.Fields{
		"url":       location,
		"operation": "fetch",
	})

	var lastErr error
	backoff := s.backoff

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			wait := jitter(backoff)
			log.WithFields(logger.Fields{
				"attempt": attempt,
				"backoff": wait,
			}).WithError(lastErr).Warn("retrying archive download")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			backoff *= 2
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		start := time.Now()
		body, err := s.get(ctx, location)
		if err == nil {
			logger.LogPerformanceEntry(log, "reader", "http_download", time.Since(start), logger.Fields{
				"attempt": attempt,
				"bytes":   len(body),
			})
			return body, nil
		}

		lastErr = err
		if ctx.Err() != nil || !isRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *HTTPSource) get(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/zip, application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: location, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// jitter spreads d over [d/2, 3d/2).
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d/2 + time.Duration(rand.Int63n(int64(d)))
}
