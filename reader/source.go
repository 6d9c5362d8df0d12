package reader

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"cotreport/config"
	"cotreport/logger"
)

// Source returns the raw bytes stored at a location.
type Source interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// ExpandURL substitutes {year} in a source location with the year of now.
func ExpandURL(template string, now time.Time) string {
	return strings.ReplaceAll(template, "{year}", strconv.Itoa(now.Year()))
}

// SchemeSource dispatches a fetch to the source that serves the location's
// scheme: http and https over the network, s3 from a bucket, file and bare
// paths from local disk. The S3 client is only built when first needed.
type SchemeSource struct {
	HTTP Source
	File Source

	s3Once sync.Once
	s3     Source
	s3Err  error
	newS3  func(ctx context.Context) (Source, error)
	log    *logger.Log
}

// NewSource builds the scheme dispatcher for the configured archive source.
func NewSource(cfg config.SourceConfig) *SchemeSource {
	log := logger.GetLogger()

	httpSource := NewHTTPSource(
		WithTimeout(cfg.Timeout),
		WithAttempts(cfg.MaxAttempts, time.Second),
		WithRateLimit(cfg.RequestsPerSecond, 1),
		WithUserAgent(cfg.UserAgent),
	)

	s3Cfg := cfg.S3
	src := &SchemeSource{
		HTTP: httpSource,
		File: &FileSource{},
		newS3: func(ctx context.Context) (Source, error) {
			return NewS3Source(ctx, s3Cfg)
		},
		log: log,
	}

	log.WithComponent("reader").WithFields(logger.Fields{
		"timeout":      cfg.Timeout,
		"max_attempts": cfg.MaxAttempts,
		"rps":          cfg.RequestsPerSecond,
	}).Debug("archive source initialized")

	return src
}

// WithS3 replaces the S3 source, mainly for tests.
func (s *SchemeSource) WithS3(src Source) *SchemeSource {
	s.newS3 = func(context.Context) (Source, error) { return src, nil }
	return s
}

func (s *SchemeSource) Fetch(ctx context.Context, location string) ([]byte, error) {
	scheme := schemeOf(location)

	switch scheme {
	case "http", "https":
		return s.HTTP.Fetch(ctx, location)
	case "s3":
		s.s3Once.Do(func() {
			if s.newS3 == nil {
				s.s3Err = fmt.Errorf("s3 source is not configured")
				return
			}
			s.s3, s.s3Err = s.newS3(ctx)
		})
		if s.s3Err != nil {
			return nil, fmt.Errorf("s3 source: %w", s.s3Err)
		}
		return s.s3.Fetch(ctx, location)
	case "file", "":
		return s.File.Fetch(ctx, location)
	default:
		return nil, fmt.Errorf("unsupported source scheme %q", scheme)
	}
}

// schemeOf returns the lower-cased scheme of a location, or "" for a plain
// path. Single letter schemes are treated as Windows drive letters.
func schemeOf(location string) string {
	u, err := url.Parse(location)
	if err != nil || len(u.Scheme) < 2 {
		return ""
	}
	return strings.ToLower(u.Scheme)
}
