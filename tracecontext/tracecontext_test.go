package tracecontext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sampleTraceID32 = "4bf92f3577b34da6a3ce929d0e0e4736"
	sampleTraceID16 = "a3ce929d0e0e4736"
	sampleSpanID    = "00f067aa0ba902b7"
)

func Test_ParseTraceparent(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   TraceContext
		wantOK bool
	}{
		{
			name:   "it parses a well-formed header",
			header: "00-" + sampleTraceID32 + "-" + sampleSpanID + "-01",
			want:   TraceContext{TraceID: sampleTraceID32, SpanID: sampleSpanID},
			wantOK: true,
		},
		{
			name:   "it normalizes uppercase hex",
			header: "00-4BF92F3577B34DA6A3CE929D0E0E4736-00F067AA0BA902B7-01",
			want:   TraceContext{TraceID: sampleTraceID32, SpanID: sampleSpanID},
			wantOK: true,
		},
		{
			name:   "it tolerates surrounding whitespace",
			header: "  00-" + sampleTraceID32 + "-" + sampleSpanID + "-01  ",
			want:   TraceContext{TraceID: sampleTraceID32, SpanID: sampleSpanID},
			wantOK: true,
		},
		{
			name:   "it rejects an all-zero trace id",
			header: "00-00000000000000000000000000000000-" + sampleSpanID + "-01",
		},
		{
			name:   "it rejects an all-zero span id",
			header: "00-" + sampleTraceID32 + "-0000000000000000-01",
		},
		{
			name:   "it rejects a short trace id",
			header: "00-" + sampleTraceID16 + "-" + sampleSpanID + "-01",
		},
		{
			name:   "it rejects missing segments",
			header: "00-" + sampleTraceID32 + "-" + sampleSpanID,
		},
		{
			name:   "it rejects non-hex characters",
			header: "00-zzf92f3577b34da6a3ce929d0e0e4736-" + sampleSpanID + "-01",
		},
		{
			name: "it rejects an empty header",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, ok := ParseTraceparent(testCase.header)
			assert.Equal(t, testCase.wantOK, ok)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func Test_ParseB3Single(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   TraceContext
		wantOK bool
	}{
		{
			name:   "it parses a 32-character trace id",
			header: sampleTraceID32 + "-" + sampleSpanID,
			want:   TraceContext{TraceID: sampleTraceID32, SpanID: sampleSpanID},
			wantOK: true,
		},
		{
			name:   "it parses a 16-character trace id",
			header: sampleTraceID16 + "-" + sampleSpanID,
			want:   TraceContext{TraceID: sampleTraceID16, SpanID: sampleSpanID},
			wantOK: true,
		},
		{
			name:   "it parses a header with a sampling flag",
			header: sampleTraceID32 + "-" + sampleSpanID + "-1",
			want:   TraceContext{TraceID: sampleTraceID32, SpanID: sampleSpanID},
			wantOK: true,
		},
		{
			name:   "it parses a header with sampling and parent span",
			header: sampleTraceID32 + "-" + sampleSpanID + "-d-05e3ac9a4f6e3b90",
			want:   TraceContext{TraceID: sampleTraceID32, SpanID: sampleSpanID},
			wantOK: true,
		},
		{
			name:   "it rejects an all-zero trace id",
			header: "00000000000000000000000000000000-" + sampleSpanID,
		},
		{
			name:   "it rejects a trace id with an odd length",
			header: "abc-" + sampleSpanID,
		},
		{
			name:   "it rejects a missing span id",
			header: sampleTraceID32,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, ok := ParseB3Single(testCase.header)
			assert.Equal(t, testCase.wantOK, ok)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func Test_ParseB3Pair(t *testing.T) {
	testCases := []struct {
		name    string
		traceID string
		spanID  string
		wantOK  bool
	}{
		{name: "it parses a valid pair", traceID: sampleTraceID32, spanID: sampleSpanID, wantOK: true},
		{name: "it parses a 16-character trace id", traceID: sampleTraceID16, spanID: sampleSpanID, wantOK: true},
		{name: "it rejects an all-zero trace id", traceID: "0000000000000000", spanID: sampleSpanID},
		{name: "it rejects an all-zero span id", traceID: sampleTraceID32, spanID: "0000000000000000"},
		{name: "it rejects a wrong-length span id", traceID: sampleTraceID32, spanID: "abcd"},
		{name: "it rejects empty values", traceID: "", spanID: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, ok := ParseB3Pair(testCase.traceID, testCase.spanID)
			assert.Equal(t, testCase.wantOK, ok)
			if testCase.wantOK {
				assert.NotEmpty(t, got.TraceID)
				assert.NotEmpty(t, got.SpanID)
			}
		})
	}
}

func Test_Resolve_Preference(t *testing.T) {
	t.Run("it prefers traceparent over b3", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(TraceparentHeader, "00-"+sampleTraceID32+"-"+sampleSpanID+"-01")
		request.Header.Set(B3Header, sampleTraceID16+"-05e3ac9a4f6e3b90")

		tc, ok := Resolve(request)
		require.True(t, ok)
		assert.Equal(t, sampleTraceID32, tc.TraceID)
		assert.Equal(t, sampleSpanID, tc.SpanID)
	})

	t.Run("it falls back to b3 when traceparent is malformed", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(TraceparentHeader, "garbage")
		request.Header.Set(B3Header, sampleTraceID16+"-"+sampleSpanID)

		tc, ok := Resolve(request)
		require.True(t, ok)
		assert.Equal(t, sampleTraceID16, tc.TraceID)
	})

	t.Run("it falls back to the B3 pair headers", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(B3TraceIDHeader, sampleTraceID32)
		request.Header.Set(B3SpanIDHeader, sampleSpanID)

		tc, ok := Resolve(request)
		require.True(t, ok)
		assert.Equal(t, sampleTraceID32, tc.TraceID)
		assert.Equal(t, sampleSpanID, tc.SpanID)
	})

	t.Run("it resolves nothing from a bare request", func(t *testing.T) {
		_, ok := Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.False(t, ok)
	})
}

func Test_ContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := FromContext(ctx)
	assert.False(t, ok)

	tc := TraceContext{TraceID: sampleTraceID32, SpanID: sampleSpanID}
	ctx = WithTraceContext(ctx, tc)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, tc, got)
}

func Test_LogrusFields(t *testing.T) {
	assert.Empty(t, LogrusFields(context.Background()))

	ctx := WithTraceContext(context.Background(), TraceContext{TraceID: sampleTraceID32, SpanID: sampleSpanID})
	assert.Equal(t, logrus.Fields{
		"trace_id": sampleTraceID32,
		"span_id":  sampleSpanID,
	}, LogrusFields(ctx))
}

func Test_Generators(t *testing.T) {
	traceID := NewTraceID()
	assert.Len(t, traceID, 32)
	assert.Regexp(t, "^[0-9a-f]{32}$", traceID)
	assert.True(t, validTraceID(traceID, 32))

	spanID := NewSpanID()
	assert.Len(t, spanID, 16)
	assert.True(t, validSpanID(spanID))

	assert.NotEqual(t, NewTraceID(), NewTraceID())
}

func Test_Middleware(t *testing.T) {
	t.Run("it installs the resolved trace context", func(t *testing.T) {
		var got TraceContext
		var ok bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok = FromContext(r.Context())
		})

		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(TraceparentHeader, "00-"+sampleTraceID32+"-"+sampleSpanID+"-01")

		Middleware()(next).ServeHTTP(httptest.NewRecorder(), request)

		require.True(t, ok)
		assert.Equal(t, sampleTraceID32, got.TraceID)
	})

	t.Run("it passes through untraced requests by default", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := FromContext(r.Context())
			assert.False(t, ok)
		})

		Middleware()(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})

	t.Run("it mints identifiers when configured to", func(t *testing.T) {
		var got TraceContext
		var ok bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok = FromContext(r.Context())
		})

		Middleware(WithGenerateIfMissing(true))(next).ServeHTTP(
			httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		require.True(t, ok)
		assert.True(t, validTraceID(got.TraceID, 32))
		assert.True(t, validSpanID(got.SpanID))
	})
}
