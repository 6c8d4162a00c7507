// Package cancel provides the cancellation token used to abort hitclient requests.
//
// A Token is signaled at most once. The dispatch pipeline only queries it
// (Requested / Reason); adapters that want to abort an in-flight exchange can
// additionally select on Done.
package cancel

import (
	"context"
	"errors"
	"sync"
)

// Cancel is the error raised when a request was cancelled by its caller.
type Cancel struct {
	Message string
}

func (c *Cancel) Error() string {
	if c.Message == "" {
		return "request canceled"
	}
	return "request canceled: " + c.Message
}

// IsCancel reports whether err, or any error it wraps, is a *Cancel.
func IsCancel(err error) bool {
	var c *Cancel
	return errors.As(err, &c)
}

// Func signals a token. Only the first call has an effect.
type Func func(message string)

// Token carries a cancellation request from the caller to the pipeline.
type Token struct {
	mu     sync.Mutex
	reason *Cancel
	done   chan struct{}
}

// NewToken creates a token and hands its cancel function to executor.
func NewToken(executor func(cancel Func)) *Token {
	t := &Token{done: make(chan struct{})}
	if executor != nil {
		executor(t.cancel)
	}
	return t
}

func (t *Token) cancel(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reason != nil {
		return
	}
	t.reason = &Cancel{Message: message}
	close(t.done)
}

// Requested reports whether cancellation has been signaled.
func (t *Token) Requested() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason != nil
}

// Reason returns the *Cancel error once the token is signaled, nil before.
func (t *Token) Reason() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reason == nil {
		return nil
	}
	return t.reason
}

// ThrowIfRequested returns the cancellation error if the token is signaled.
func (t *Token) ThrowIfRequested() error {
	return t.Reason()
}

// Done is closed when the token is signaled.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Source pairs a token with the function that signals it.
type Source struct {
	Token  *Token
	Cancel Func
}

// NewSource returns a fresh token and its cancel function.
func NewSource() Source {
	var fn Func
	tok := NewToken(func(c Func) { fn = c })
	return Source{Token: tok, Cancel: fn}
}

// FromContext returns a token that is signaled when ctx is done. The message
// is the context's error text.
func FromContext(ctx context.Context) *Token {
	src := NewSource()
	context.AfterFunc(ctx, func() {
		src.Cancel(context.Cause(ctx).Error())
	})
	return src.Token
}
