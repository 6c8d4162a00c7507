package client

import (
	"context"
	"sync"
)

// Fulfilled handles the value produced by the previous stage. Returning an
// error fails the pipeline from this point on.
type Fulfilled[T any] func(ctx context.Context, v T) (T, error)

// Rejected handles the error produced by the previous stage. Returning a nil
// error recovers the pipeline with the returned value.
type Rejected[T any] func(ctx context.Context, err error) (T, error)

// Interceptor is one (on-success, on-failure) handler pair. A nil OnFulfilled
// passes the value through; a nil OnRejected passes the error through.
type Interceptor[T any] struct {
	OnFulfilled Fulfilled[T]
	OnRejected  Rejected[T]
}

// settle feeds the outcome of the previous stage into this pair. Only one of
// the two handlers runs, so an error returned by OnFulfilled is seen by the
// next stage, not by this pair's OnRejected.
func (i Interceptor[T]) settle(ctx context.Context, v T, err error) (T, error) {
	if err != nil {
		if i.OnRejected == nil {
			var zero T
			return zero, err
		}
		return i.OnRejected(ctx, err)
	}
	if i.OnFulfilled == nil {
		return v, nil
	}
	return i.OnFulfilled(ctx, v)
}

// InterceptorManager is an ordered registry of interceptors. Handles returned
// by Use are slot positions; Eject clears a slot in place, so a handle stays
// valid (meaning "removed") forever and is never reused.
//
// ForEach visits a snapshot taken when it starts: interceptors ejected or
// added by a handler during the traversal only affect later traversals.
type InterceptorManager[T any] struct {
	mu       sync.RWMutex
	handlers []*Interceptor[T]
}

// NewInterceptorManager returns an empty registry.
func NewInterceptorManager[T any]() *InterceptorManager[T] {
	return &InterceptorManager[T]{}
}

// Use appends an interceptor and returns its handle.
func (m *InterceptorManager[T]) Use(onFulfilled Fulfilled[T], onRejected Rejected[T]) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers = append(m.handlers, &Interceptor[T]{
		OnFulfilled: onFulfilled,
		OnRejected:  onRejected,
	})
	return len(m.handlers) - 1
}

// Eject removes the interceptor registered under id. Unknown or already
// ejected handles are ignored.
func (m *InterceptorManager[T]) Eject(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id < 0 || id >= len(m.handlers) {
		return
	}
	m.handlers[id] = nil
}

// ForEach calls fn for every live interceptor in registration order.
func (m *InterceptorManager[T]) ForEach(fn func(Interceptor[T])) {
	m.mu.RLock()
	snapshot := make([]*Interceptor[T], len(m.handlers))
	copy(snapshot, m.handlers)
	m.mu.RUnlock()

	for _, h := range snapshot {
		if h != nil {
			fn(*h)
		}
	}
}

// Len returns the number of live interceptors.
func (m *InterceptorManager[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, h := range m.handlers {
		if h != nil {
			n++
		}
	}
	return n
}

// Interceptors groups the request and response registries of a Client.
type Interceptors struct {
	Request  *InterceptorManager[*Config]
	Response *InterceptorManager[*Response]
}
