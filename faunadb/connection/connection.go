// Package connection posts serialized queries to the database over HTTP.
package connection

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/krew-solutions/faunadb-go/faunadb/signals"
)

const (
	DefaultRoot    = "https://rest.faunadb.com"
	DefaultTimeout = 60 * time.Second

	headerRequestID = "X-Request-Id"
	userAgent       = "faunadb-go"
)

// Response is a raw server answer. Non-2xx statuses are not errors at this
// level; the body carries the error envelope.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

type Option func(*Connection)

func WithFaunaRoot(root string) Option {
	return func(c *Connection) {
		c.rawRoot = root
	}
}

// WithAuthToken sets the secret sent as a bearer token.
func WithAuthToken(secret string) Option {
	return func(c *Connection) {
		c.secret = secret
	}
}

func WithTransport(transport http.RoundTripper) Option {
	return func(c *Connection) {
		c.base = transport
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Connection) {
		c.timeout = timeout
	}
}

// WithRateLimit caps outgoing requests per second. Zero means unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(c *Connection) {
		c.rateLimit = perSecond
	}
}

// WithHTTPClient takes transport, timeout and cookie jar from client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connection) {
		c.base = client.Transport
		c.timeout = client.Timeout
		c.jar = client.Jar
	}
}

type Connection struct {
	rawRoot   string
	root      *url.URL
	secret    string
	base      http.RoundTripper
	timeout   time.Duration
	rateLimit float64
	jar       http.CookieJar

	httpClient       *http.Client
	limiter          *rate.Limiter
	onRequestStarted signals.Signal[RequestStartedEvent]
	onRequestEnded   signals.Signal[RequestEndedEvent]
}

func New(opts ...Option) (*Connection, error) {
	c := &Connection{
		rawRoot:          DefaultRoot,
		base:             http.DefaultTransport,
		timeout:          DefaultTimeout,
		onRequestStarted: signals.NewSignal[RequestStartedEvent](),
		onRequestEnded:   signals.NewSignal[RequestEndedEvent](),
	}
	for _, opt := range opts {
		opt(c)
	}
	root, err := url.Parse(c.rawRoot)
	if err != nil {
		return nil, fmt.Errorf("invalid fauna root %q: %w", c.rawRoot, err)
	}
	if root.Scheme != "http" && root.Scheme != "https" {
		return nil, fmt.Errorf("invalid fauna root %q: scheme must be http or https", c.rawRoot)
	}
	c.root = root
	if c.base == nil {
		c.base = http.DefaultTransport
	}
	if c.rateLimit < 0 {
		return nil, fmt.Errorf("invalid rate limit %v", c.rateLimit)
	}
	if c.rateLimit > 0 {
		burst := max(int(c.rateLimit), 1)
		c.limiter = rate.NewLimiter(rate.Limit(c.rateLimit), burst)
	}
	c.httpClient = &http.Client{
		Transport: &observableTransport{base: c.base, conn: c},
		Timeout:   c.timeout,
		Jar:       c.jar,
	}
	return c, nil
}

func (c *Connection) Root() string {
	return c.root.String()
}

func (c *Connection) OnRequestStarted() signals.Signal[RequestStartedEvent] {
	return c.onRequestStarted
}

func (c *Connection) OnRequestEnded() signals.Signal[RequestEndedEvent] {
	return c.onRequestEnded
}

// Post sends body as one query request. The error is non-nil only when no
// response was received.
func (c *Connection) Post(ctx context.Context, body []byte) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.root.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(headerRequestID, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}
