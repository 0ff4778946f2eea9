package threadpool

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// DoneFunc receives the JSON encoded result of a successful job.
type DoneFunc = func(result json.RawMessage)

// ErrorFunc receives the error of a failed job.
type ErrorFunc = func(err error)

type listeners[F any] struct {
	mu  sync.Mutex
	fns []F
}

func (l *listeners[F]) add(fn F) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns = append(l.fns, fn)
}

func (l *listeners[F]) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns = nil
}

func (l *listeners[F]) snapshot() []F {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]F(nil), l.fns...)
}

// invoke calls every listener with v in registration order. A panicking
// listener is logged and does not prevent the others from running.
func invoke[T any](fns []func(T), v T) {
	for _, fn := range fns {
		call(fn, v)
	}
}

func call[T any](fn func(T), v T) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.S().Named("thread_pool").Errorw("callback panicked", "panic", rec)
		}
	}()
	fn(v)
}
