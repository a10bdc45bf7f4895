package deferred

// Deferred is the producer side of a pending result.
type Deferred[T any] interface {
	Resolve(T)
	Reject(error)
	Then(func(T) (any, error), func(error) (any, error)) Deferred[any]
	OccurredErr() error
}
