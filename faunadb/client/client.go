// Package client submits query expressions and hands back futures of the
// decoded results.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"

	"github.com/krew-solutions/faunadb-go/faunadb/connection"
	"github.com/krew-solutions/faunadb-go/faunadb/deferred"
	"github.com/krew-solutions/faunadb-go/faunadb/logger"
	"github.com/krew-solutions/faunadb-go/faunadb/query"
	"github.com/krew-solutions/faunadb-go/faunadb/response"
	"github.com/krew-solutions/faunadb-go/faunadb/wire"
)

// Connection delivers a serialized query and returns the raw answer.
type Connection interface {
	Post(ctx context.Context, body []byte) (*connection.Response, error)
}

type Option func(*FaunaClient)

// WithPoolSize bounds the number of queries in flight. Zero means one
// goroutine per query.
func WithPoolSize(size int) Option {
	return func(c *FaunaClient) {
		c.poolSize = size
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *FaunaClient) {
		c.logger = l
	}
}

type FaunaClient struct {
	conn     Connection
	poolSize int
	pool     *ants.Pool // nil = unlimited
	logger   *slog.Logger
}

func New(conn Connection, opts ...Option) (*FaunaClient, error) {
	if conn == nil {
		return nil, errors.New("client: nil connection")
	}
	c := &FaunaClient{conn: conn, logger: logger.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	if c.poolSize < 0 {
		return nil, fmt.Errorf("client: invalid pool size %d", c.poolSize)
	}
	if c.poolSize > 0 {
		pool, err := ants.NewPool(c.poolSize, ants.WithNonblocking(true), ants.WithPanicHandler(func(v any) {
			c.logger.Error("query worker panic", "panic", v)
		}))
		if err != nil {
			return nil, errors.Wrap(err, "client: create worker pool")
		}
		c.pool = pool
	}
	return c, nil
}

// Close releases the worker pool. Queries already running finish.
func (c *FaunaClient) Close() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// Query submits expr. The returned future resolves with the decoded result
// or rejects with one of the errors of this package; Cancel on it aborts the
// request.
func (c *FaunaClient) Query(ctx context.Context, expr query.Expr) *deferred.Future[*response.LazyValue] {
	body, err := wire.Marshal(expr)
	if err != nil {
		return deferred.Rejected[*response.LazyValue](err)
	}
	ctx, cancel := context.WithCancel(ctx)
	f := deferred.WithCancel[*response.LazyValue](cancel)
	c.submit(cancel, f.Reject, func() {
		resource, err := c.roundTrip(ctx, body)
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(response.Wrap(resource))
	})
	return f
}

// QueryBatch submits exprs as one request and resolves with one result per
// expression, in order. A single expression goes through Query.
func (c *FaunaClient) QueryBatch(ctx context.Context, exprs []query.Expr) *deferred.Future[[]*response.LazyValue] {
	switch len(exprs) {
	case 0:
		return deferred.Rejected[[]*response.LazyValue](ErrEmptyBatch)
	case 1:
		return deferred.Then(c.Query(ctx, exprs[0]),
			func(v *response.LazyValue) ([]*response.LazyValue, error) {
				return []*response.LazyValue{v}, nil
			},
			func(err error) ([]*response.LazyValue, error) {
				return nil, err
			},
		)
	}
	body, err := wire.MarshalBatch(exprs)
	if err != nil {
		return deferred.Rejected[[]*response.LazyValue](err)
	}
	ctx, cancel := context.WithCancel(ctx)
	f := deferred.WithCancel[[]*response.LazyValue](cancel)
	c.submit(cancel, f.Reject, func() {
		resource, err := c.roundTrip(ctx, body)
		if err != nil {
			f.Reject(err)
			return
		}
		results, ok := resource.(query.ArrayV)
		if !ok || results.Len() != len(exprs) {
			f.Reject(&UnexpectedResponseError{
				Status: 200,
				Reason: fmt.Sprintf("batch of %d expressions answered with %s", len(exprs), response.Wrap(resource).Kind()),
			})
			return
		}
		values := make([]*response.LazyValue, 0, results.Len())
		for _, v := range results.Items() {
			values = append(values, response.Wrap(v))
		}
		f.Resolve(values)
	})
	return f
}

// submit runs task on the pool, or on a new goroutine without one. A task
// that cannot be scheduled or that panics is turned into a rejection.
func (c *FaunaClient) submit(cancel context.CancelFunc, reject func(error), task func()) {
	run := func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("query panicked", "panic", r)
				reject(fmt.Errorf("query panicked: %v", r))
			}
		}()
		task()
	}
	if c.pool == nil {
		go run()
		return
	}
	if err := c.pool.Submit(run); err != nil {
		cancel()
		if errors.Cause(err) == ants.ErrPoolOverload {
			err = ErrPoolOverload
		}
		c.logger.Warn("query rejected", "error", err)
		reject(err)
	}
}

func (c *FaunaClient) roundTrip(ctx context.Context, body []byte) (query.Value, error) {
	log := logger.WithTraceID(ctx, c.logger)
	start := time.Now()
	log.Debug("query submitted", "bytes", len(body))

	resp, err := c.conn.Post(ctx, body)
	if err != nil {
		err = &TransportError{Cause: err}
		log.Warn("query failed", "error", err, "elapsed", time.Since(start))
		return nil, err
	}
	resource, err := decodeEnvelope(resp)
	if err != nil {
		log.Warn("query failed", "status", resp.Status, "error", err, "elapsed", time.Since(start))
		return nil, err
	}
	log.Debug("query completed", "status", resp.Status, "elapsed", time.Since(start))
	return resource, nil
}

// decodeEnvelope unwraps {"resource": ...} or maps {"errors": [...]} to a
// StatusError.
func decodeEnvelope(resp *connection.Response) (query.Value, error) {
	v, err := response.DecodeValue(resp.Body)
	success := resp.Status >= 200 && resp.Status < 300
	if err != nil {
		if success {
			return nil, &UnexpectedResponseError{Status: resp.Status, Reason: err.Error(), Body: resp.Body}
		}
		return nil, newServerError(resp.Status, []QueryError{{Code: "unknown", Description: string(resp.Body)}})
	}
	envelope, _ := v.(query.ObjectV)
	if success {
		resource, ok := envelope.Get("resource")
		if !ok {
			return nil, &UnexpectedResponseError{Status: resp.Status, Reason: "missing resource", Body: resp.Body}
		}
		return resource, nil
	}
	return nil, newServerError(resp.Status, queryErrors(envelope))
}

func queryErrors(envelope query.ObjectV) []QueryError {
	raw, _ := envelope.Get("errors")
	list, _ := raw.(query.ArrayV)
	errs := make([]QueryError, 0, list.Len())
	for _, item := range list.Items() {
		obj, ok := item.(query.ObjectV)
		if !ok {
			continue
		}
		qe := QueryError{}
		if code, ok := obj.Get("code"); ok {
			qe.Code = stringOf(code)
		}
		if description, ok := obj.Get("description"); ok {
			qe.Description = stringOf(description)
		}
		if position, ok := obj.Get("position"); ok {
			if arr, ok := position.(query.ArrayV); ok {
				qe.Position = arr.Items()
			}
		}
		errs = append(errs, qe)
	}
	return errs
}

func stringOf(v query.Value) string {
	if s, ok := v.(query.StringV); ok {
		return string(s)
	}
	return response.Wrap(v).String()
}
