package transport

import (
	"context"
	"encoding/json"
)

// Func is logic executed inside a thread. The returned value is JSON encoded
// before it leaves the thread.
type Func func(ctx context.Context, in Input) (any, error)

// Input is what a thread hands to the logic it runs.
type Input struct {
	Param   json.RawMessage
	Buffers [][]byte
	Imports map[string][]byte
}

// Decode unmarshals the parameter into v.
func (in Input) Decode(v any) error {
	if len(in.Param) == 0 {
		return nil
	}
	return json.Unmarshal(in.Param, v)
}

// Message is posted to a thread to start one run. Exactly one of Script and Func is set.
type Message struct {
	JobID   string
	Script  string
	Func    Func
	Imports []string
	Param   json.RawMessage
	Buffers [][]byte
}

// Reply is the terminal message of a run.
type Reply struct {
	JobID  string
	Result json.RawMessage
	Err    error
}

// Thread is an isolated execution context. It runs one message at a time and
// delivers exactly one Reply per posted message unless it is terminated first.
type Thread interface {
	Post(msg Message) error
	Terminate()
}

// Source spawns threads. reply is called from the thread's own goroutine.
type Source interface {
	Spawn(id string, reply func(Reply)) (Thread, error)
}
