package deferred

import (
	"context"
	"errors"
	"sync"

	"github.com/hashicorp/go-multierror"
)

/**
* Simplified version of
* - https://github.com/emacsway/store/blob/devel/polyfill.js#L199
* - https://github.com/emacsway/go-promise
*
* See also:
* - https://promisesaplus.com/
**/

var ErrNilRejection = errors.New("deferred: rejected with nil error")

func Noop[T, R any](_ T) (R, error) {
	var zero R
	return zero, nil
}

type nextDeferred interface {
	resolveAny(any)
	rejectAny(error)
	OccurredErr() error
}

type handler[T any] struct {
	onSuccess func(T) (any, error)
	onError   func(error) (any, error)
	next      nextDeferred
}

// Future settles exactly once, either with a value or with an error.
// It is safe for concurrent use; handlers run on the goroutine that settles
// the future, or on the goroutine that attaches them if it is already settled.
type Future[T any] struct {
	mu          sync.Mutex
	done        chan struct{}
	value       T
	err         error
	occurredErr error
	settled     bool
	handlers    []handler[T]
	cancel      context.CancelFunc
}

func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// WithCancel returns a pending future whose Cancel also calls cancel.
func WithCancel[T any](cancel context.CancelFunc) *Future[T] {
	f := New[T]()
	f.cancel = cancel
	return f
}

func Resolved[T any](value T) *Future[T] {
	f := New[T]()
	f.Resolve(value)
	return f
}

func Rejected[T any](err error) *Future[T] {
	f := New[T]()
	f.Reject(err)
	return f
}

func (d *Future[T]) resolveAny(v any) {
	var t T
	if v != nil {
		t = v.(T)
	}
	d.Resolve(t)
}

func (d *Future[T]) rejectAny(err error) {
	d.Reject(err)
}

// doneChan must be called with mu held.
func (d *Future[T]) doneChan() chan struct{} {
	if d.done == nil {
		d.done = make(chan struct{})
	}
	return d.done
}

func (d *Future[T]) Resolve(value T) {
	d.settle(value, nil)
}

func (d *Future[T]) Reject(err error) {
	if err == nil {
		err = ErrNilRejection
	}
	var zero T
	d.settle(zero, err)
}

func (d *Future[T]) settle(value T, err error) {
	d.mu.Lock()
	if d.settled {
		d.mu.Unlock()
		return
	}
	d.value = value
	d.err = err
	d.settled = true
	handlers := append([]handler[T](nil), d.handlers...)
	close(d.doneChan())
	d.mu.Unlock()

	for _, h := range handlers {
		d.dispatch(h)
	}
}

func (d *Future[T]) addHandler(h handler[T]) {
	d.mu.Lock()
	d.handlers = append(d.handlers, h)
	settled := d.settled
	d.mu.Unlock()
	if settled {
		d.dispatch(h)
	}
}

func (d *Future[T]) dispatch(h handler[T]) {
	var (
		result any
		err    error
	)
	if d.err == nil {
		result, err = h.onSuccess(d.value)
	} else {
		result, err = h.onError(d.err)
	}
	if err == nil {
		h.next.resolveAny(result)
		return
	}
	d.mu.Lock()
	d.occurredErr = multierror.Append(d.occurredErr, err)
	d.mu.Unlock()
	h.next.rejectAny(err)
}

func (d *Future[T]) Then(onSuccess func(T) (any, error), onError func(error) (any, error)) Deferred[any] {
	next := New[any]()
	d.addHandler(handler[T]{
		onSuccess: onSuccess,
		onError:   onError,
		next:      next,
	})
	return next
}

// Then registers typed callbacks for success and error cases.
//
// Per Promises/A+ 2.2.7:
//   - If onSuccess returns a value, next future is resolved with it.
//   - If onSuccess returns an error, next future is rejected with it.
//   - If onError returns a value, next future is resolved with it (recovery).
//   - If onError returns an error, next future is rejected with it.
//
// This is a free function (not a method) because Go does not support
// type parameters on methods.
func Then[T, R any](d *Future[T], onSuccess func(T) (R, error), onError func(error) (R, error)) *Future[R] {
	next := New[R]()
	next.cancel = d.Cancel
	d.addHandler(handler[T]{
		onSuccess: func(v T) (any, error) { return onSuccess(v) },
		onError:   func(err error) (any, error) { return onError(err) },
		next:      next,
	})
	return next
}

// Done is closed once the future has settled.
func (d *Future[T]) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doneChan()
}

// Await blocks until the future settles or ctx is done. A ctx expiry does
// not cancel the underlying work; use Cancel for that.
func (d *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.Done():
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.value, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel rejects a pending future with context.Canceled and cancels the
// work behind it. Cancellation is best-effort: a write that already reached
// the server may still be applied.
func (d *Future[T]) Cancel() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.Reject(context.Canceled)
}

func (d *Future[T]) IsSettled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

func (d *Future[T]) OccurredErr() error {
	d.mu.Lock()
	err := d.occurredErr
	handlers := append([]handler[T](nil), d.handlers...)
	d.mu.Unlock()
	for _, h := range handlers {
		nestedErr := h.next.OccurredErr()
		if nestedErr != nil {
			err = multierror.Append(err, nestedErr)
		}
	}
	return err
}

// All resolves with every value in input order once all futures resolve,
// or rejects with the first error.
func All[T any](deferreds []Deferred[T]) *Future[[]T] {
	result := New[[]T]()

	if len(deferreds) == 0 {
		result.Resolve([]T{})
		return result
	}

	var mu sync.Mutex
	count := len(deferreds)
	values := make([]T, count)
	resolvedCount := 0

	for i, d := range deferreds {
		idx := i
		d.Then(func(value T) (any, error) {
			mu.Lock()
			values[idx] = value
			resolvedCount++
			complete := resolvedCount == count
			mu.Unlock()
			if complete {
				result.Resolve(values)
			}
			return nil, nil
		}, func(err error) (any, error) {
			result.Reject(err)
			return nil, nil
		})
	}

	return result
}
