package signals

// Observer handles an event. A non-nil error stops the notification chain
// and is returned by Notify.
type Observer[E any] func(E) error

type Disposable interface {
	Dispose()
}

type Signal[E any] interface {
	Attach(observer Observer[E], observerID ...any) Disposable
	Detach(observer Observer[E], observerID ...any)
	Notify(event E) error
}
