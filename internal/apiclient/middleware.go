package apiclient

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/treegar/admin-console/internal/metrics"
	"github.com/treegar/admin-console/internal/util"
	"go.uber.org/zap"
)

const (
	HeaderAPIKey        = "x-api-key"
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
)

// Middleware decorates a RoundTripper. The chain is assembled once in New.
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain wraps base so that mws[0] sees the request first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}

// withHeader returns a copy of r with key set; RoundTrippers must not mutate their input.
func withHeader(r *http.Request, key, value string) *http.Request {
	c := r.Clone(r.Context())
	c.Header.Set(key, value)
	return c
}

type requestIDKey struct{}

// WithRequestID makes calls made with ctx carry id as their request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id set by WithRequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID tags every request with the context's id, or a fresh ULID,
// unless the caller already set the header.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(HeaderRequestID) == "" {
				id := RequestIDFrom(r.Context())
				if id == "" {
					id = util.NewID()
				}
				r = withHeader(r, HeaderRequestID, id)
			}
			return next.RoundTrip(r)
		})
	}
}

// APIKey (re)applies the static service key to any request missing it.
func APIKey(key string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(HeaderAPIKey) == "" {
				r = withHeader(r, HeaderAPIKey, key)
			}
			return next.RoundTrip(r)
		})
	}
}

// Bearer attaches the session token when one is stored.
func Bearer(tokens TokenStore) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if tokens == nil || r.Header.Get(HeaderAuthorization) != "" {
				return next.RoundTrip(r)
			}
			tok, err := tokens.Token(r.Context())
			if err != nil {
				return nil, &tokenError{err: err}
			}
			if tok != "" {
				r = withHeader(r, HeaderAuthorization, "Bearer "+tok)
			}
			return next.RoundTrip(r)
		})
	}
}

// ResetOnUnauthorized clears the stored token when the API answers 401.
// The response still flows back to the caller untouched; 403 is left alone.
func ResetOnUnauthorized(tokens TokenStore, log *zap.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(r)
			if err != nil || tokens == nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}
			if cerr := tokens.ClearToken(r.Context()); cerr != nil {
				log.Warn("clear session token after 401", zap.Error(cerr))
			} else {
				log.Info("session token cleared after 401", zap.String("path", r.URL.Path))
			}
			return resp, nil
		})
	}
}

// Logging writes one line per round trip. Failures are logged at warn.
func Logging(log *zap.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", r.Header.Get(HeaderRequestID)),
				zap.Duration("took", time.Since(start)),
			}
			switch {
			case err != nil:
				log.Warn("api request failed", append(fields, zap.Error(err))...)
			case resp.StatusCode >= http.StatusBadRequest:
				log.Warn("api request", append(fields, zap.Int("status", resp.StatusCode))...)
			default:
				log.Debug("api request", append(fields, zap.Int("status", resp.StatusCode))...)
			}
			return resp, err
		})
	}
}

// Metrics counts round trips by status class and observes latency.
func Metrics() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			metrics.APIRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())

			code := "error"
			if err == nil {
				code = strconv.Itoa(resp.StatusCode/100) + "xx"
			}
			metrics.APIRequestsTotal.WithLabelValues(r.Method, code).Inc()
			return resp, err
		})
	}
}

// tokenError marks a failure to read the session store before sending.
type tokenError struct{ err error }

func (e *tokenError) Error() string { return "read session token: " + e.err.Error() }
func (e *tokenError) Unwrap() error { return e.err }
