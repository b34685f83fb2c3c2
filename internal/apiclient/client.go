// Package apiclient is the single point of contact with the remote Admin API.
//
// Every call performs at most one HTTP round trip through a middleware
// chain assembled at construction time (request id, logging, metrics, an
// optional circuit breaker, 401 reset, API key, bearer token) and unwraps
// the {data, message, success} envelope.
// Retries are the query layer's business, not the client's.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/treegar/admin-console/internal/model"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 15 * time.Second
	maxBodyBytes   = 10 << 20
)

// TokenStore is the slice of the session the client needs: read the bearer
// token and drop it when the API rejects it.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error
}

type Options struct {
	BaseURL   string // e.g. http://localhost:8080/api/Admin
	APIKey    string
	Timeout   time.Duration // default 15s
	Tokens    TokenStore
	Logger    *zap.Logger
	Transport http.RoundTripper // default http.DefaultTransport
	Breaker   *Breaker          // optional; nil never trips
	// Middleware runs outside the built-in chain, first in first out.
	Middleware []Middleware
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New validates opts and builds the middleware chain once.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("apiclient: empty base URL")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("apiclient: base URL: %w", err)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("apiclient: empty API key")
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	chain := append([]Middleware{}, opts.Middleware...)
	chain = append(chain, RequestID(), Logging(log), Metrics())
	if opts.Breaker != nil {
		chain = append(chain, CircuitBreaker(opts.Breaker))
	}
	chain = append(chain,
		ResetOnUnauthorized(opts.Tokens, log),
		APIKey(opts.APIKey),
		Bearer(opts.Tokens),
	)

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: Chain(transport, chain...),
		},
		log: log,
	}, nil
}

// Response is an unwrapped envelope.
type Response struct {
	Status  int
	Message string
	Data    json.RawMessage
}

// Decode unmarshals Data into out. A missing or null data field leaves out untouched.
func (r *Response) Decode(out any) error {
	if out == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	return json.Unmarshal(r.Data, out)
}

func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.call(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) call(ctx context.Context, method, path string, params url.Values, body, out any) error {
	resp, err := c.Do(ctx, method, path, params, body)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return &Error{Kind: KindServer, Method: method, Path: path, Status: resp.Status,
			Message: "malformed response data", Err: err}
	}
	return nil
}

// Do performs one round trip and returns the unwrapped envelope.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, body any) (*Response, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindRequest, Method: method, Path: path, Err: fmt.Errorf("encode body: %w", err)}
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		var te *tokenError
		if errors.As(err, &te) {
			return nil, &Error{Kind: KindRequest, Method: method, Path: path, Err: te}
		}
		return nil, transportError(method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(method, path, err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		return nil, serverError(method, path, res.StatusCode, raw)
	}

	out := &Response{Status: res.StatusCode}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}

	var env model.RawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &Error{Kind: KindServer, Method: method, Path: path, Status: res.StatusCode,
			Message: "malformed response envelope", Err: err}
	}
	if env.Success != nil && !*env.Success {
		return nil, &Error{Kind: KindServer, Method: method, Path: path, Status: res.StatusCode, Message: env.Message}
	}

	out.Message = env.Message
	out.Data = env.Data
	return out, nil
}

func serverError(method, path string, status int, raw []byte) *Error {
	e := &Error{Kind: KindServer, Method: method, Path: path, Status: status}

	var body model.ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		e.Message = body.Text()
		e.Fields = body.Errors
	} else if s := strings.TrimSpace(string(raw)); s != "" && len(s) < 512 {
		e.Message = s
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
