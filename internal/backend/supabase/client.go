// Package supabase implements service.Service against a Supabase project:
// the GoTrue auth API for sessions and the PostgREST API for the tasks table.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/postgrest-go"
	"go.uber.org/zap"

	"todoshell/internal/config"
	"todoshell/internal/service"
	"todoshell/internal/session"
)

const (
	authPath = "/auth/v1"
	restPath = "/rest/v1"
	schema   = "public"
)

// Client implements service.Service using the Supabase HTTP APIs.
type Client struct {
	baseURL   string
	anonKey   string
	table     string
	timeout   time.Duration
	transport http.RoundTripper
	store     session.Store
	notifier  *session.Notifier
	log       *zap.Logger
}

// New creates a client from config. The session is kept in cfg.SessionPath().
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: transport,
	}
	store := session.Store{Path: cfg.SessionPath()}
	return NewWithHTTPClient(cfg.URL, cfg.AnonKey, cfg.Table, store, cfg.SessionPoll, httpClient, cfg.Log), nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// Only its transport and timeout are used.
func NewWithHTTPClient(baseURL, anonKey, table string, store session.Store, poll time.Duration, httpClient *http.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("supabase")
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		anonKey:   anonKey,
		table:     table,
		timeout:   httpClient.Timeout,
		transport: &apiKeyTransport{anonKey: anonKey, next: transportOrDefault(httpClient.Transport)},
		store:     store,
		notifier:  session.NewNotifier(store, poll, log),
		log:       log,
	}
}

// OnSessionChange implements service.SessionGateway.
func (c *Client) OnSessionChange(handler func(service.AuthEvent, *service.Session)) service.Subscription {
	return c.notifier.Subscribe(handler)
}

// Close stops the session watcher.
func (c *Client) Close() error {
	c.notifier.Close()
	return nil
}

// call holds the transport for one API call. The auth and table clients take
// no context and drop the response status, so both live here.
type call struct {
	ctx    context.Context
	next   http.RoundTripper
	log    *zap.Logger
	status int
}

// begin starts a call bounded by ctx and the configured timeout.
func (c *Client) begin(ctx context.Context) (*call, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, wrapError(err)
	}
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	return &call{ctx: ctx, next: c.transport, log: c.log}, cancel, nil
}

func (t *call) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(t.ctx)
	start := time.Now()
	resp, err := t.next.RoundTrip(r)
	if err != nil {
		t.log.Debug("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		return nil, err
	}
	t.status = resp.StatusCode
	t.log.Debug("request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

// auth returns a GoTrue client for this call. An empty token makes the
// request as the anonymous role.
func (c *Client) auth(t *call, token string) gotrue.Client {
	client := gotrue.New("", c.anonKey).
		WithCustomGoTrueURL(c.baseURL + authPath).
		WithClient(http.Client{Transport: t})
	if token != "" {
		client = client.WithToken(token)
	}
	return client
}

// rest returns a PostgREST client for this call.
func (c *Client) rest(t *call, token string) *postgrest.Client {
	if token == "" {
		token = c.anonKey
	}
	client := postgrest.NewClient(c.baseURL+restPath, schema, nil).
		SetApiKey(c.anonKey).
		SetAuthToken(token)
	client.Transport.Parent = t
	return client
}

// authError converts a GoTrue client error. Failed responses are reported as
// "response status code N: body".
func (t *call) authError(err error) error {
	if t.status < 300 {
		return wrapError(err)
	}
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, "response status code "+strconv.Itoa(t.status)); ok {
		msg = errorMessage([]byte(strings.TrimPrefix(rest, ": ")))
	}
	return &service.APIError{Status: t.status, Message: msg}
}

// restError converts a PostgREST client error. Failed responses are reported
// as "(code) message".
func (t *call) restError(err error) error {
	if t.status < 400 {
		return wrapError(err)
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "(") {
		if _, rest, ok := strings.Cut(msg, ") "); ok {
			msg = rest
		}
	}
	return &service.APIError{Status: t.status, Message: msg}
}

// apiKeyTransport adds the project key to every request. Requests that carry
// no bearer token are made as the anonymous role.
type apiKeyTransport struct {
	anonKey string
	next    http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("apikey", t.anonKey)
	if r.Header.Get("Authorization") == "" {
		r.Header.Set("Authorization", "Bearer "+t.anonKey)
	}
	return t.next.RoundTrip(r)
}

func transportOrDefault(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}

// errorBody covers the error shapes of GoTrue and PostgREST.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func errorMessage(data []byte) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return strings.TrimSpace(string(data))
	}
	for _, s := range []string{eb.ErrorDescription, eb.Msg, eb.Message, eb.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// wrapError turns transport failures into user-friendly messages.
func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout exceeded") {
		return fmt.Errorf("request timed out")
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("backend unreachable: %w", urlErr.Err)
	}
	return err
}
