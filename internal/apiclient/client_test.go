package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

type memTokens struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (m *memTokens) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memTokens) ClearToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.cleared++
	return nil
}

func newTestClient(t *testing.T, srv *httptest.Server, tokens TokenStore, mws ...Middleware) *Client {
	t.Helper()
	c, err := New(Options{
		BaseURL:    srv.URL + "/api/Admin",
		APIKey:     "test-key",
		Timeout:    2 * time.Second,
		Tokens:     tokens,
		Middleware: mws,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsMissingKeyAndURL(t *testing.T) {
	if _, err := New(Options{BaseURL: "http://x/api/Admin"}); err == nil {
		t.Error("expected error for empty API key")
	}
	if _, err := New(Options{APIKey: "k"}); err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestGetSendsHeadersAndUnwrapsEnvelope(t *testing.T) {
	var got http.Header
	var gotURL *url.URL
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotURL = r.URL
		writeJSON(w, http.StatusOK, map[string]any{
			"data":    map[string]any{"name": "Acme"},
			"message": "ok",
			"success": true,
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &memTokens{token: "tok-1"})

	var out struct {
		Name string `json:"name"`
	}
	err := c.Get(context.Background(), "/companies/1", url.Values{"status": {"pending"}}, &out)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Name != "Acme" {
		t.Errorf("name = %q, want Acme", out.Name)
	}
	if got.Get("x-api-key") != "test-key" {
		t.Errorf("x-api-key = %q", got.Get("x-api-key"))
	}
	if got.Get("Authorization") != "Bearer tok-1" {
		t.Errorf("Authorization = %q", got.Get("Authorization"))
	}
	if got.Get(HeaderRequestID) == "" {
		t.Error("missing request id")
	}
	if gotURL.Path != "/api/Admin/companies/1" || gotURL.Query().Get("status") != "pending" {
		t.Errorf("unexpected url %s", gotURL)
	}
}

func TestNoBearerWithoutToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"data": nil})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &memTokens{})
	if err := c.Post(context.Background(), "/login", map[string]string{"email": "a@b.c"}, nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if auth != "" {
		t.Errorf("Authorization should be empty, got %q", auth)
	}
}

func TestAPIKeyReappliedWhenStripped(t *testing.T) {
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("x-api-key")
		writeJSON(w, http.StatusOK, map[string]any{"data": nil})
	}))
	defer srv.Close()

	strip := func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())
			r.Header.Del("x-api-key")
			return next.RoundTrip(r)
		})
	}
	c := newTestClient(t, srv, nil, strip)
	if err := c.Get(context.Background(), "/dashboard", nil, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if key != "test-key" {
		t.Errorf("x-api-key = %q, want test-key", key)
	}
}

func TestUnauthorizedClearsTokenForbiddenDoesNot(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantCleared int
		wantToken   string
	}{
		{"401 clears", http.StatusUnauthorized, 1, ""},
		{"403 keeps", http.StatusForbidden, 0, "tok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]any{"message": "nope"})
			}))
			defer srv.Close()

			tokens := &memTokens{token: "tok"}
			c := newTestClient(t, srv, tokens)

			err := c.Get(context.Background(), "/transfers", nil, nil)
			var ae *Error
			if !errors.As(err, &ae) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if ae.Kind != KindServer || ae.Status != tt.status || ae.Message != "nope" {
				t.Errorf("unexpected error %+v", ae)
			}
			if tokens.cleared != tt.wantCleared || tokens.token != tt.wantToken {
				t.Errorf("cleared=%d token=%q, want %d %q", tokens.cleared, tokens.token, tt.wantCleared, tt.wantToken)
			}
		})
	}
}

func TestUnauthorizedFromAnyEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	for _, path := range []string{"/companies", "/users/1", "/customers/9/kyc-documents"} {
		tokens := &memTokens{token: "tok"}
		c := newTestClient(t, srv, tokens)
		_ = c.Delete(context.Background(), path, nil)
		if tokens.token != "" {
			t.Errorf("%s: token not cleared", path)
		}
		if !IsUnauthorized(c.Get(context.Background(), path, nil, nil)) {
			t.Errorf("%s: expected unauthorized error", path)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		}))
		defer srv.Close()

		c, err := New(Options{BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond})
		if err != nil {
			t.Fatal(err)
		}
		err = c.Get(context.Background(), "/slow", nil, nil)
		if KindOf(err) != KindTimeout {
			t.Fatalf("kind = %v, err = %v", KindOf(err), err)
		}
		if !IsRetryable(err) {
			t.Error("timeout should be retryable")
		}
	})

	t.Run("network", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		c, err := New(Options{BaseURL: addr, APIKey: "k"})
		if err != nil {
			t.Fatal(err)
		}
		err = c.Get(context.Background(), "/x", nil, nil)
		if KindOf(err) != KindNetwork {
			t.Fatalf("kind = %v, err = %v", KindOf(err), err)
		}
	})

	t.Run("request", func(t *testing.T) {
		c, err := New(Options{BaseURL: "http://127.0.0.1:1", APIKey: "k"})
		if err != nil {
			t.Fatal(err)
		}
		err = c.Post(context.Background(), "/x", map[string]any{"bad": make(chan int)}, nil)
		if KindOf(err) != KindRequest {
			t.Fatalf("kind = %v, err = %v", KindOf(err), err)
		}
		if IsRetryable(err) {
			t.Error("request errors are not retryable")
		}
	})

	t.Run("server with fields", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"title":  "One or more validation errors occurred.",
				"errors": map[string][]string{"Email": {"Email already exists"}},
			})
		}))
		defer srv.Close()

		c := newTestClient(t, srv, nil)
		err := c.Post(context.Background(), "/users", map[string]string{}, nil)
		var ae *Error
		if !errors.As(err, &ae) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if ae.Status != 400 || ae.Fields["Email"][0] != "Email already exists" {
			t.Errorf("unexpected %+v", ae)
		}
		if ae.Retryable() {
			t.Error("4xx must not be retryable")
		}
	})

	t.Run("5xx retryable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		c := newTestClient(t, srv, nil)
		err := c.Get(context.Background(), "/x", nil, nil)
		if !IsRetryable(err) || StatusOf(err) != http.StatusBadGateway {
			t.Errorf("unexpected %v", err)
		}
	})

	t.Run("success false", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "company already approved"})
		}))
		defer srv.Close()

		c := newTestClient(t, srv, nil)
		err := c.Put(context.Background(), "/companies/1/approve", nil, nil)
		var ae *Error
		if !errors.As(err, &ae) || ae.Kind != KindServer || ae.Message != "company already approved" {
			t.Errorf("unexpected %v", err)
		}
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		order = append(order, "base")
		return &http.Response{StatusCode: 204, Body: http.NoBody, Request: r}, nil
	})

	rt := Chain(base, mark("a"), mark("b"))
	req, _ := http.NewRequest(http.MethodGet, "http://example.test", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "base" {
		t.Errorf("order = %v", order)
	}
}
