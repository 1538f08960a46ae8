package authmiddleware

import (
	"errors"
	"net/http"

	"github.com/coreauth/go-auth-middleware/token"
)

// Option configures the Middleware.
// Returns error for validation failures.
type Option func(*Middleware) error

// Sentinel errors for configuration validation.
var (
	ErrCodecNil          = errors.New("codec cannot be nil (use WithCodec)")
	ErrTokenExtractorNil = errors.New("tokenExtractor cannot be nil")
	ErrLoggerNil         = errors.New("logger cannot be nil")
	ErrTracerNil         = errors.New("tracer cannot be nil")
	ErrMetricsNil        = errors.New("metrics cannot be nil")
	ErrExclusionURLsNil  = errors.New("exclusion URLs list cannot be empty")
)

// WithCodec sets the token codec used to validate presented tokens (REQUIRED).
func WithCodec(c *token.Codec) Option {
	return func(m *Middleware) error {
		if c == nil {
			return ErrCodecNil
		}
		m.codec = c
		return nil
	}
}

// WithTokenExtractor sets the function to extract the token from the request.
//
// Default: AuthHeaderTokenExtractor
func WithTokenExtractor(e TokenExtractor) Option {
	return func(m *Middleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithLogger sets an optional logger for the middleware. Adapters for
// logrus, zap, and zerolog are provided; see NewLogrusLogger and friends.
func WithLogger(logger Logger) Option {
	return func(m *Middleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// WithTracer sets an optional tracer; a span is opened around each
// authentication attempt. See NewOpenTelemetryTracer.
//
// Default: NoopTracer
func WithTracer(tracer Tracer) Option {
	return func(m *Middleware) error {
		if tracer == nil {
			return ErrTracerNil
		}
		m.tracer = tracer
		return nil
	}
}

// WithMetrics sets an optional metrics sink for authentication outcomes and
// validation latency. See NewPrometheusMetrics.
//
// Default: NoopMetrics
func WithMetrics(metrics Metrics) Option {
	return func(m *Middleware) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		m.metrics = metrics
		return nil
	}
}

// WithExclusionURLs configures URL patterns to skip authentication for.
// URLs can be full URLs or just paths.
func WithExclusionURLs(exclusions []string) Option {
	return func(m *Middleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionURLsNil
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			requestFullURL := r.URL.String()
			requestPath := r.URL.Path

			for _, exclusion := range exclusions {
				if requestFullURL == exclusion || requestPath == exclusion {
					return true
				}
			}
			return false
		}
		return nil
	}
}
