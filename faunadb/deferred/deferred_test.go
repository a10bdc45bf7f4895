package deferred

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	result, err := Noop[int, any](42)
	assert.Nil(t, result)
	assert.NoError(t, err)

	sResult, sErr := Noop[string, string]("test")
	assert.Equal(t, "", sResult)
	assert.NoError(t, sErr)
}

func TestFutureBasics(t *testing.T) {
	t.Run("resolve triggers success handler", func(t *testing.T) {
		d := New[int]()
		var result []int

		Then(d, func(value int) (int, error) {
			result = append(result, value)
			return value, nil
		}, Noop[error, int])
		d.Resolve(42)

		assert.Equal(t, []int{42}, result)
	})

	t.Run("reject triggers error handler", func(t *testing.T) {
		d := New[int]()
		var result []error

		testError := errors.New("test error")
		Then(d, Noop[int, any], func(err error) (any, error) {
			result = append(result, err)
			return nil, nil
		})
		d.Reject(testError)

		assert.Equal(t, []error{testError}, result)
	})

	t.Run("resolve before then", func(t *testing.T) {
		d := Resolved(42)
		var result []int

		Then(d, func(value int) (int, error) {
			result = append(result, value)
			return value, nil
		}, Noop[error, int])

		assert.Equal(t, []int{42}, result)
	})

	t.Run("zero value future is usable", func(t *testing.T) {
		var d Future[string]
		d.Resolve("ok")
		v, err := d.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
	})

	t.Run("reject with nil error", func(t *testing.T) {
		d := Rejected[int](nil)
		_, err := d.Await(context.Background())
		assert.ErrorIs(t, err, ErrNilRejection)
	})
}

func TestFutureSettlesOnce(t *testing.T) {
	d := New[int]()
	var results []int

	Then(d, func(value int) (int, error) {
		results = append(results, value)
		return value, nil
	}, Noop[error, int])
	d.Resolve(42)
	d.Resolve(100)
	d.Reject(errors.New("late"))

	assert.Equal(t, []int{42}, results)
	v, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFutureChaining(t *testing.T) {
	t.Run("value transformation chain", func(t *testing.T) {
		d := New[int]()

		d2 := Then(d, func(value int) (int, error) {
			return value * 2, nil
		}, Noop[error, int])
		d3 := Then(d2, func(value int) (string, error) {
			return fmt.Sprintf("result_%d", value), nil
		}, Noop[error, string])

		d.Resolve(5)

		v, err := d3.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "result_10", v)
	})

	t.Run("chain with error propagation", func(t *testing.T) {
		d := New[int]()
		testError := errors.New("test error")

		d2 := Then(d, func(value int) (string, error) {
			return "", testError
		}, Noop[error, string])
		var seen error
		Then(d2, func(value string) (string, error) {
			return value, nil
		}, func(err error) (string, error) {
			seen = err
			return "", nil
		})

		d.Resolve(42)

		assert.Equal(t, testError, seen)
	})

	t.Run("error handler recovers with value", func(t *testing.T) {
		d := New[int]()
		d2 := Then(d, Noop[int, string], func(err error) (string, error) {
			return "recovered", nil
		})
		d.Reject(errors.New("boom"))

		v, err := d2.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "recovered", v)
	})
}

func TestErrorCollection(t *testing.T) {
	t.Run("occurred err empty when no errors", func(t *testing.T) {
		d := New[int]()
		Then(d, func(value int) (int, error) {
			return value, nil
		}, Noop[error, int])
		d.Resolve(42)

		assert.Nil(t, d.OccurredErr())
	})

	t.Run("occurred err collects nested errors", func(t *testing.T) {
		d := New[int]()
		error1 := errors.New("error 1")
		error2 := errors.New("error 2")

		d2 := Then(d, func(_ int) (int, error) {
			return 0, error1
		}, Noop[error, int])
		Then(d2, Noop[int, int], func(err error) (int, error) {
			return 0, error2
		})
		d.Resolve(42)

		err := d.OccurredErr()
		assert.ErrorIs(t, err, error1)
		assert.ErrorIs(t, err, error2)
	})
}

func TestAwait(t *testing.T) {
	t.Run("resolved from another goroutine", func(t *testing.T) {
		d := New[string]()
		go func() {
			time.Sleep(5 * time.Millisecond)
			d.Resolve("done")
		}()
		v, err := d.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "done", v)
	})

	t.Run("context expiry leaves future pending", func(t *testing.T) {
		d := New[string]()
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()
		_, err := d.Await(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, d.IsSettled())
	})
}

func TestCancel(t *testing.T) {
	t.Run("calls cancel func and rejects", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		d := WithCancel[int](cancel)

		d.Cancel()

		assert.ErrorIs(t, ctx.Err(), context.Canceled)
		_, err := d.Await(context.Background())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("cancel after resolve keeps value", func(t *testing.T) {
		d := Resolved(1)
		d.Cancel()
		v, err := d.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("cancel on chained future reaches the source", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		d := WithCancel[int](cancel)
		d2 := Then(d, func(v int) (int, error) { return v, nil }, func(err error) (int, error) { return 0, err })

		d2.Cancel()

		assert.ErrorIs(t, ctx.Err(), context.Canceled)
		assert.True(t, d.IsSettled())
	})
}

func TestConcurrentSettle(t *testing.T) {
	d := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			d.Resolve(n)
		}(i)
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Await(context.Background())
		}()
	}
	wg.Wait()
	assert.True(t, d.IsSettled())
}

func TestAll(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		d1, d2, d3 := New[string](), New[string](), New[string]()
		combined := All([]Deferred[string]{d1, d2, d3})

		d3.Resolve("third")
		d1.Resolve("first")
		d2.Resolve("second")

		v, err := combined.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second", "third"}, v)
	})

	t.Run("rejects on first error", func(t *testing.T) {
		d1, d2 := New[int](), New[int]()
		combined := All([]Deferred[int]{d1, d2})

		testError := errors.New("fail")
		d1.Resolve(1)
		d2.Reject(testError)

		_, err := combined.Await(context.Background())
		assert.Equal(t, testError, err)
	})

	t.Run("empty list", func(t *testing.T) {
		v, err := All([]Deferred[int]{}).Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []int{}, v)
	})
}
