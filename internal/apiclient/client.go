// Package apiclient talks to the attendance REST service. It is the only
// component that touches the network: it attaches the stored bearer token to
// every request and turns every failure into an *Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"attendclient/internal/tokenstore"
)

const (
	DefaultTimeout      = 20 * time.Second
	DefaultLoginTimeout = 10 * time.Second

	maxBodyBytes = 10 << 20
)

// Config is fixed at construction.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	LoginTimeout time.Duration
	HTTP         *http.Client // optional
	Metrics      *Metrics     // optional
	Logger       *log.Logger  // optional, silent when nil
}

// Client calls the attendance API. It is safe for concurrent use.
type Client struct {
	baseURL      string
	timeout      time.Duration
	loginTimeout time.Duration
	http         *http.Client
	tokens       tokenstore.Store
	metrics      *Metrics
	log          *log.Logger
}

// New creates a client. tokens holds the bearer credential across runs.
func New(cfg Config, tokens tokenstore.Store) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		timeout:      cfg.Timeout,
		loginTimeout: cfg.LoginTimeout,
		http:         cfg.HTTP,
		tokens:       tokens,
		metrics:      cfg.Metrics,
		log:          cfg.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.loginTimeout <= 0 {
		c.loginTimeout = DefaultLoginTimeout
	}
	if c.http == nil {
		// Deadlines come from the per-call context.
		c.http = &http.Client{}
	}
	if c.log == nil {
		c.log = log.New(io.Discard, "", 0)
	}
	return c
}

type timeoutKey struct{}

// WithTimeout overrides the configured deadline for calls made with ctx.
func WithTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, timeoutKey{}, d)
}

// request describes one API call.
type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	timeout time.Duration
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// call performs req and unwraps the envelope, returning it only when the
// server reported success.
func (c *Client) call(ctx context.Context, req request) (*Envelope, error) {
	start := time.Now()
	env, err := c.callEnvelope(ctx, req)
	c.metrics.observe(req.op, start, err)
	return env, err
}

func (c *Client) callEnvelope(ctx context.Context, req request) (*Envelope, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(req.op, resp)
}

func (c *Client) send(ctx context.Context, req request) (*response, error) {
	timeout := req.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	if d, ok := ctx.Value(timeoutKey{}).(time.Duration); ok && d > 0 {
		timeout = d
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s: build request: %w", req.op, err)
	}
	c.authorize(ctx, httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Printf("%s %s failed: %v", req.method, req.path, err)
		return nil, transportError(req.op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, transportError(req.op, err)
	}
	if len(body) > maxBodyBytes {
		c.log.Printf("%s %s: body exceeds %d bytes", req.method, req.path, maxBodyBytes)
		return nil, &Error{Op: req.op, Kind: KindServer, StatusCode: resp.StatusCode, Message: InvalidResponse, Err: ErrResponseTooLarge}
	}
	c.log.Printf("%s %s -> %d (%s)", req.method, req.path, resp.StatusCode, httpReq.Header.Get("X-Request-ID"))
	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}
	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	return httpReq, nil
}

// authorize attaches the stored token when there is one. A missing token or
// a failing store never blocks the request.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	token, err := c.tokens.Get(ctx, tokenstore.TokenKey)
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNotFound) {
			c.log.Printf("token lookup failed, sending unauthenticated: %v", err)
		}
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func decodeEnvelope(op string, resp *response) (*Envelope, error) {
	var env Envelope
	decodeErr := json.Unmarshal(resp.body, &env)

	if resp.status < 200 || resp.status >= 300 {
		if decodeErr != nil {
			return nil, serverError(op, resp.status, nil)
		}
		return nil, serverError(op, resp.status, &env)
	}
	if decodeErr != nil {
		return nil, &Error{Op: op, Kind: KindServer, StatusCode: resp.status, Message: InvalidResponse, Err: decodeErr}
	}
	if env.Status != StatusSuccess {
		return nil, serverError(op, resp.status, &env)
	}
	return &env, nil
}

// decodeField unmarshals one envelope payload field. An absent field yields
// the zero value.
func decodeField[T any](op string, raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &Error{Op: op, Kind: KindServer, StatusCode: http.StatusOK, Message: InvalidResponse, Err: err}
	}
	return out, nil
}

// getData is the common GET-and-unwrap-data shape.
func getData[T any](ctx context.Context, c *Client, op, path string, query url.Values) (T, error) {
	env, err := c.call(ctx, request{op: op, method: http.MethodGet, path: path, query: query})
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeField[T](op, env.Data)
}

// message performs a write call and returns the server's confirmation text.
func (c *Client) message(ctx context.Context, op, method, path string, body any) (string, error) {
	env, err := c.call(ctx, request{op: op, method: method, path: path, body: body})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}
