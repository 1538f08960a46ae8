package authmiddleware

import (
	"net/http"
	"time"

	"github.com/coreauth/go-auth-middleware/identity"
	"github.com/coreauth/go-auth-middleware/token"
)

// Middleware is the per-request authentication filter. It opportunistically
// authenticates: a request presenting a valid bearer token gets an identity
// installed into its context, every other request continues anonymously.
//
// The filter never rejects a request itself. Denying access to anonymous or
// under-privileged callers is the job of route-level authorization (see
// RequireRoles); absence of identity is not an error at this layer.
type Middleware struct {
	codec               *token.Codec
	tokenExtractor      TokenExtractor
	logger              Logger
	tracer              Tracer
	metrics             Metrics
	exclusionURLHandler func(r *http.Request) bool
}

// New constructs a new Middleware instance with the supplied options.
// WithCodec is required.
//
// Example:
//
//	m, err := authmiddleware.New(
//	    authmiddleware.WithCodec(codec),
//	    authmiddleware.WithLogger(authmiddleware.NewLogrusLogger(logrus.StandardLogger())),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
//	http.Handle("/", m.Handler(mux))
func New(opts ...Option) (*Middleware, error) {
	m := &Middleware{
		tokenExtractor: AuthHeaderTokenExtractor,
		tracer:         &NoopTracer{},
		metrics:        &NoopMetrics{},
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if m.codec == nil {
		return nil, ErrCodecNil
	}

	return m, nil
}

// Handler wraps next with the authentication filter. The chain is always
// continued exactly once, whatever the outcome of extraction or validation;
// the filter writes nothing to the ResponseWriter.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			m.debugf("skipping authentication for excluded URL %s", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}

		if id, ok := m.authenticate(r); ok {
			r = r.Clone(identity.WithIdentity(r.Context(), id))
		}

		next.ServeHTTP(w, r)
	})
}

// authenticate runs extract → validate → build identity for a single
// request. Every failure mode, including a panic out of a custom extractor,
// resolves to an anonymous outcome so the filter can never abort the chain.
func (m *Middleware) authenticate(r *http.Request) (id identity.Identity, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			m.errorf("recovered panic during authentication: %v", rec)
			m.metrics.IncCounter(metricAuthOutcome, map[string]string{"outcome": "error"})
			ok = false
		}
	}()

	span := m.tracer.StartSpan("authmiddleware.authenticate")
	defer span.Finish()

	tokenString, err := m.tokenExtractor(r)
	if err != nil {
		// A malformed credential presentation, such as an Authorization
		// header without the Bearer scheme. Treated the same as no token.
		m.debugf("ignoring malformed credentials on %s %s: %v", r.Method, r.URL.Path, err)
		m.metrics.IncCounter(metricAuthOutcome, map[string]string{"outcome": "malformed"})
		span.SetTag("auth.outcome", "malformed")
		return identity.Identity{}, false
	}

	if tokenString == "" {
		m.metrics.IncCounter(metricAuthOutcome, map[string]string{"outcome": "anonymous"})
		span.SetTag("auth.outcome", "anonymous")
		return identity.Identity{}, false
	}

	start := time.Now()
	claims, err := m.codec.ParseAndValidate(tokenString)
	m.metrics.ObserveHistogram(metricValidationSeconds, time.Since(start).Seconds(), nil)

	if err != nil {
		// Invalid and expired tokens are indistinguishable from "no token"
		// at this layer; downstream authorization produces the 401.
		m.debugf("token rejected on %s %s: %v", r.Method, r.URL.Path, err)
		m.metrics.IncCounter(metricAuthOutcome, map[string]string{"outcome": "invalid"})
		span.SetTag("auth.outcome", "invalid")
		return identity.Identity{}, false
	}

	m.debugf("authenticated subject %q on %s %s", claims.Subject, r.Method, r.URL.Path)
	m.metrics.IncCounter(metricAuthOutcome, map[string]string{"outcome": "authenticated"})
	span.SetTag("auth.outcome", "authenticated")
	span.SetTag("auth.subject", claims.Subject)

	return identity.Identity{Subject: claims.Subject, Roles: claims.Roles}, true
}

func (m *Middleware) debugf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Debugf(format, args...)
	}
}

func (m *Middleware) errorf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Errorf(format, args...)
	}
}
