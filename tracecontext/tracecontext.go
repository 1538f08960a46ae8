// Package tracecontext defensively parses trace-context headers from
// untrusted requests and carries the resolved trace identifiers through the
// request context.
//
// Three wire formats are recognized, in order of preference: the W3C
// traceparent header, the single b3 header, and the X-B3-TraceId /
// X-B3-SpanId pair. A malformed header is a normal miss, never an error,
// matching the fail-closed posture the token codec takes with untrusted
// compact strings.
package tracecontext

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Headers consulted when resolving the inbound trace context.
const (
	TraceparentHeader = "traceparent"
	B3Header          = "b3"
	B3TraceIDHeader   = "X-B3-TraceId"
	B3SpanIDHeader    = "X-B3-SpanId"
)

var (
	traceparentPattern = regexp.MustCompile(`^(?i)([0-9a-f]{2})-([0-9a-f]{32})-([0-9a-f]{16})-([0-9a-f]{2})$`)
	b3SinglePattern    = regexp.MustCompile(`^(?i)([0-9a-f]{16}|[0-9a-f]{32})-([0-9a-f]{16})(?:-[01d])?(?:-[0-9a-f]{16})?$`)
	hexPattern         = regexp.MustCompile(`^(?i)[0-9a-f]+$`)
)

// TraceContext is the resolved pair of identifiers for the current request.
type TraceContext struct {
	TraceID string
	SpanID  string
}

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const traceContextKey contextKey = iota

// ParseTraceparent parses a W3C traceparent header value. The trace id must
// be exactly 32 lowercase-normalized hex characters and the span id exactly
// 16; all-zero identifiers are rejected per the W3C spec.
func ParseTraceparent(header string) (TraceContext, bool) {
	match := traceparentPattern.FindStringSubmatch(strings.TrimSpace(header))
	if match == nil {
		return TraceContext{}, false
	}

	traceID := strings.ToLower(match[2])
	spanID := strings.ToLower(match[3])
	if !validTraceID(traceID, 32) || !validSpanID(spanID) {
		return TraceContext{}, false
	}

	return TraceContext{TraceID: traceID, SpanID: spanID}, true
}

// ParseB3Single parses a single b3 header value of the form
// traceid-spanid[-sampling][-parentspanid]. The trace id may be 16 or 32
// hex characters.
func ParseB3Single(header string) (TraceContext, bool) {
	match := b3SinglePattern.FindStringSubmatch(strings.TrimSpace(header))
	if match == nil {
		return TraceContext{}, false
	}

	traceID := strings.ToLower(match[1])
	spanID := strings.ToLower(match[2])
	if !validTraceID(traceID, 0) || !validSpanID(spanID) {
		return TraceContext{}, false
	}

	return TraceContext{TraceID: traceID, SpanID: spanID}, true
}

// ParseB3Pair parses the multi-header B3 form from separate trace-id and
// span-id header values.
func ParseB3Pair(traceIDHeader, spanIDHeader string) (TraceContext, bool) {
	traceID := strings.ToLower(strings.TrimSpace(traceIDHeader))
	spanID := strings.ToLower(strings.TrimSpace(spanIDHeader))
	if !validTraceID(traceID, 0) || !validSpanID(spanID) {
		return TraceContext{}, false
	}

	return TraceContext{TraceID: traceID, SpanID: spanID}, true
}

// validTraceID accepts 16- or 32-character hex identifiers that are not all
// zeros. A non-zero expectedLength pins the length exactly.
func validTraceID(value string, expectedLength int) bool {
	if expectedLength != 0 && len(value) != expectedLength {
		return false
	}
	if len(value) != 16 && len(value) != 32 {
		return false
	}
	if !hexPattern.MatchString(value) {
		return false
	}
	return !allZero(value)
}

func validSpanID(value string) bool {
	if len(value) != 16 {
		return false
	}
	if !hexPattern.MatchString(value) {
		return false
	}
	return !allZero(value)
}

func allZero(value string) bool {
	for _, c := range value {
		if c != '0' {
			return false
		}
	}
	return true
}

// Resolve inspects the request headers in preference order and returns the
// first parseable trace context.
func Resolve(r *http.Request) (TraceContext, bool) {
	if header := r.Header.Get(TraceparentHeader); header != "" {
		if tc, ok := ParseTraceparent(header); ok {
			return tc, true
		}
	}

	if header := r.Header.Get(B3Header); header != "" {
		if tc, ok := ParseB3Single(header); ok {
			return tc, true
		}
	}

	traceID := r.Header.Get(B3TraceIDHeader)
	spanID := r.Header.Get(B3SpanIDHeader)
	if traceID != "" && spanID != "" {
		if tc, ok := ParseB3Pair(traceID, spanID); ok {
			return tc, true
		}
	}

	return TraceContext{}, false
}

// WithTraceContext returns a context carrying the trace context.
func WithTraceContext(ctx context.Context, tc TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey, tc)
}

// FromContext retrieves the trace context, if one was installed.
func FromContext(ctx context.Context) (TraceContext, bool) {
	tc, ok := ctx.Value(traceContextKey).(TraceContext)
	return tc, ok
}

// LogrusFields returns the trace identifiers as logrus fields, empty when
// the context carries no trace context. Handlers pass the result to
// logrus.WithFields so every log line of a request carries its trace.
func LogrusFields(ctx context.Context) logrus.Fields {
	tc, ok := FromContext(ctx)
	if !ok {
		return logrus.Fields{}
	}
	return logrus.Fields{
		"trace_id": tc.TraceID,
		"span_id":  tc.SpanID,
	}
}

// NewTraceID generates a fresh 32-character trace id.
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewSpanID generates a fresh non-zero 16-character span id.
func NewSpanID() string {
	buf := make([]byte, 8)
	for {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand never fails on supported platforms; fall back to
			// a uuid-derived span id rather than returning an error.
			return NewTraceID()[:16]
		}
		id := hex.EncodeToString(buf)
		if !allZero(id) {
			return id
		}
	}
}

// Middleware resolves the inbound trace context and installs it into the
// request context for the rest of the chain. Requests with no parseable
// trace headers pass through untouched unless WithGenerateIfMissing is set,
// in which case fresh identifiers are generated.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, ok := Resolve(r)
			if !ok {
				if !cfg.generateIfMissing {
					next.ServeHTTP(w, r)
					return
				}
				tc = TraceContext{TraceID: NewTraceID(), SpanID: NewSpanID()}
			}

			next.ServeHTTP(w, r.WithContext(WithTraceContext(r.Context(), tc)))
		})
	}
}

type config struct {
	generateIfMissing bool
}

// Option configures the trace-context middleware.
type Option func(*config)

// WithGenerateIfMissing makes the middleware mint fresh identifiers when
// the request carries none, so every request downstream has a trace.
func WithGenerateIfMissing(generate bool) Option {
	return func(c *config) {
		c.generateIfMissing = generate
	}
}
