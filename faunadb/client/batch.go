package client

import (
	"context"
	"sync"

	"github.com/krew-solutions/faunadb-go/faunadb/deferred"
	"github.com/krew-solutions/faunadb-go/faunadb/query"
	"github.com/krew-solutions/faunadb-go/faunadb/response"
	"github.com/krew-solutions/faunadb-go/faunadb/wire"
)

// Batch collects expressions and sends them as a single request on Flush.
// Each Add returns a future of that expression's own result.
func NewBatch(c *FaunaClient) *Batch {
	return &Batch{client: c}
}

type pendingQuery struct {
	expr   query.Expr
	result *deferred.Future[*response.LazyValue]
}

type Batch struct {
	mu      sync.Mutex
	client  *FaunaClient
	pending []pendingQuery
}

// Add queues expr. An expression that cannot be serialized is refused here
// rather than failing the whole batch later.
func (b *Batch) Add(expr query.Expr) (*deferred.Future[*response.LazyValue], error) {
	if _, err := wire.Marshal(expr); err != nil {
		return nil, err
	}
	f := deferred.New[*response.LazyValue]()
	b.mu.Lock()
	b.pending = append(b.pending, pendingQuery{expr: expr, result: f})
	b.mu.Unlock()
	return f, nil
}

func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flush sends everything queued so far and settles the futures returned by
// Add. The returned future settles after them. A failed request rejects
// every queued future with the same error.
func (b *Batch) Flush(ctx context.Context) *deferred.Future[[]*response.LazyValue] {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	exprs := make([]query.Expr, 0, len(pending))
	for _, p := range pending {
		exprs = append(exprs, p.expr)
	}
	return deferred.Then(b.client.QueryBatch(ctx, exprs),
		func(values []*response.LazyValue) ([]*response.LazyValue, error) {
			for i, p := range pending {
				p.result.Resolve(values[i])
			}
			return values, nil
		},
		func(err error) ([]*response.LazyValue, error) {
			for _, p := range pending {
				p.result.Reject(err)
			}
			return nil, err
		},
	)
}
