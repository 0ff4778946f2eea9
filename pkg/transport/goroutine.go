package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	ErrThreadTerminated = errors.New("thread terminated")
	ErrThreadBusy       = errors.New("thread is busy")
)

// ScriptRunner executes scripts that are not found in the registry.
type ScriptRunner interface {
	Run(ctx context.Context, script string, in Input) (json.RawMessage, error)
}

// GoroutineSource spawns threads backed by a dedicated goroutine each.
// Script names resolve against the registry first, then the script runner.
type GoroutineSource struct {
	registry *Registry
	loader   Loader
	runner   ScriptRunner
}

type SourceOption func(*GoroutineSource)

func WithRegistry(r *Registry) SourceOption {
	return func(s *GoroutineSource) {
		s.registry = r
	}
}

func WithLoader(l Loader) SourceOption {
	return func(s *GoroutineSource) {
		s.loader = l
	}
}

func WithScriptRunner(r ScriptRunner) SourceOption {
	return func(s *GoroutineSource) {
		s.runner = r
	}
}

func NewGoroutineSource(opts ...SourceOption) *GoroutineSource {
	s := &GoroutineSource{registry: NewRegistry()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GoroutineSource) Spawn(id string, reply func(Reply)) (Thread, error) {
	if reply == nil {
		return nil, fmt.Errorf("thread %s: reply function is required", id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &goroutineThread{
		id:     id,
		src:    s,
		reply:  reply,
		inbox:  make(chan Message, 1),
		ctx:    ctx,
		cancel: cancel,
	}
	go t.loop()

	zap.S().Named("transport").Debugw("thread spawned", "thread", id)
	return t, nil
}

type goroutineThread struct {
	id     string
	src    *GoroutineSource
	reply  func(Reply)
	inbox  chan Message
	busy   atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
}

func (t *goroutineThread) Post(msg Message) error {
	if t.ctx.Err() != nil {
		return ErrThreadTerminated
	}
	if !t.busy.CompareAndSwap(false, true) {
		return ErrThreadBusy
	}

	// nothing posted may alias memory owned by the sender
	msg.Param = bytes.Clone(msg.Param)
	msg.Imports = append([]string(nil), msg.Imports...)

	select {
	case t.inbox <- msg:
		return nil
	case <-t.ctx.Done():
		return ErrThreadTerminated
	}
}

// Terminate stops the thread. A run in progress has its context cancelled and
// its reply is never delivered.
func (t *goroutineThread) Terminate() {
	t.cancel()
}

func (t *goroutineThread) loop() {
	for {
		select {
		case <-t.ctx.Done():
			return
		case msg := <-t.inbox:
			r := t.execute(msg)
			t.busy.Store(false)
			if t.ctx.Err() != nil {
				zap.S().Named("transport").Debugw("dropping reply of terminated thread", "thread", t.id, "job", msg.JobID)
				return
			}
			t.reply(r)
		}
	}
}

func (t *goroutineThread) execute(msg Message) (r Reply) {
	r.JobID = msg.JobID
	defer func() {
		if rec := recover(); rec != nil {
			r.Result = nil
			r.Err = fmt.Errorf("thread panicked: %v", rec)
		}
	}()

	in := Input{Param: msg.Param, Buffers: msg.Buffers}

	if msg.Func != nil {
		imports, err := loadImports(t.ctx, t.src.loader, msg.Imports)
		if err != nil {
			r.Err = err
			return r
		}
		in.Imports = imports
		r.Result, r.Err = encodeResult(msg.Func(t.ctx, in))
		return r
	}

	if fn, ok := t.src.registry.Lookup(msg.Script); ok {
		r.Result, r.Err = encodeResult(fn(t.ctx, in))
		return r
	}

	if t.src.runner != nil {
		r.Result, r.Err = t.src.runner.Run(t.ctx, msg.Script, in)
		return r
	}

	r.Err = fmt.Errorf("unknown script %q", msg.Script)
	return r
}

func encodeResult(v any, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}

	switch val := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return bytes.Clone(val), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return data, nil
}
