package threadpool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	srvErrors "github.com/kubev2v/threadpool/pkg/errors"
	"github.com/kubev2v/threadpool/pkg/transport"
)

type JobState string

const (
	JobStatePending JobState = "pending"
	JobStateRunning JobState = "running"
	JobStateDone    JobState = "done"
	JobStateFailed  JobState = "failed"
)

var errBufferTransferred = errors.New("buffer already transferred")

// JobSpec describes a unit of work. Exactly one of Script and Func must be set.
type JobSpec struct {
	// Script names logic known to the worker transport.
	Script string
	// Func is inline logic run inside the worker.
	Func transport.Func
	// Imports are loaded by the worker before Func runs.
	Imports []string
	// Param must be JSON encodable. It has to be a map, struct, slice or array
	// when Buffers are set.
	Param   any
	Buffers []*Buffer
}

// Job is one unit of work with its own done and error listeners. Apart from
// listener registration a job is immutable once created.
type Job struct {
	id      string
	script  string
	fn      transport.Func
	imports []string
	param   json.RawMessage
	buffers []*Buffer

	onDone  listeners[DoneFunc]
	onError listeners[ErrorFunc]
	queued  atomic.Bool

	mu       sync.Mutex
	state    JobState
	workerID string
	result   json.RawMessage
	err      error
	finished chan struct{}
}

func NewJob(spec JobSpec) (*Job, error) {
	switch {
	case spec.Script == "" && spec.Func == nil:
		return nil, srvErrors.NewInvalidJobSpecError("either a script or a function is required")
	case spec.Script != "" && spec.Func != nil:
		return nil, srvErrors.NewInvalidJobSpecError("script %q and a function are mutually exclusive", spec.Script)
	case spec.Script != "" && len(spec.Imports) > 0:
		return nil, srvErrors.NewInvalidJobSpecError("imports are only supported for function jobs")
	}

	if len(spec.Buffers) > 0 && !isStructured(spec.Param) {
		return nil, srvErrors.NewInvalidJobSpecError("transfer buffers require a structured parameter, got %T", spec.Param)
	}
	seen := make(map[*Buffer]struct{}, len(spec.Buffers))
	for i, b := range spec.Buffers {
		if b == nil {
			return nil, srvErrors.NewInvalidJobSpecError("transfer buffer %d is nil", i)
		}
		if _, ok := seen[b]; ok {
			return nil, srvErrors.NewInvalidJobSpecError("transfer buffer %d is listed twice", i)
		}
		seen[b] = struct{}{}
	}

	param, err := encodeParam(spec.Param)
	if err != nil {
		return nil, srvErrors.NewInvalidJobSpecError("parameter is not JSON encodable: %v", err)
	}

	return &Job{
		id:       uuid.NewString(),
		script:   spec.Script,
		fn:       spec.Func,
		imports:  append([]string(nil), spec.Imports...),
		param:    param,
		buffers:  append([]*Buffer(nil), spec.Buffers...),
		state:    JobStatePending,
		finished: make(chan struct{}),
	}, nil
}

func (j *Job) ID() string { return j.id }

// Script returns the script name, empty for function jobs.
func (j *Job) Script() string { return j.script }

func (j *Job) Param() json.RawMessage { return bytes.Clone(j.param) }

func (j *Job) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// WorkerID returns the worker the job was dispatched to, empty while pending.
func (j *Job) WorkerID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.workerID
}

// Done registers fn to receive the result of the job. If the job already
// succeeded fn is called right away with the stored result.
func (j *Job) Done(fn DoneFunc) *Job {
	if fn == nil {
		return j
	}

	j.mu.Lock()
	switch j.state {
	case JobStateFailed:
		j.mu.Unlock()
		return j
	case JobStateDone:
	default:
		j.onDone.add(fn)
		j.mu.Unlock()
		return j
	}
	result := j.result
	j.mu.Unlock()

	call(fn, result)
	return j
}

// Error registers fn to receive the error of the job. If the job already
// failed fn is called right away with the stored error.
func (j *Job) Error(fn ErrorFunc) *Job {
	if fn == nil {
		return j
	}

	j.mu.Lock()
	switch j.state {
	case JobStateDone:
		j.mu.Unlock()
		return j
	case JobStateFailed:
	default:
		j.onError.add(fn)
		j.mu.Unlock()
		return j
	}
	err := j.err
	j.mu.Unlock()

	call(fn, err)
	return j
}

// Finished is closed once the job succeeded or failed. A job abandoned by
// TerminateAll never finishes.
func (j *Job) Finished() <-chan struct{} {
	return j.finished
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-j.finished:
		j.mu.Lock()
		defer j.mu.Unlock()
		return j.result, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (j *Job) start(workerID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = JobStateRunning
	j.workerID = workerID
}

// message detaches the transfer buffers and builds what is posted to the
// thread. Either every buffer is detached or none is.
func (j *Job) message() (transport.Message, error) {
	buffers, err := detachAll(j.buffers)
	if err != nil {
		return transport.Message{}, err
	}
	return transport.Message{
		JobID:   j.id,
		Script:  j.script,
		Func:    j.fn,
		Imports: j.imports,
		Param:   j.param,
		Buffers: buffers,
	}, nil
}

// unsent returns the buffers of a message that never reached its thread.
func (j *Job) unsent(msg transport.Message) {
	reattach(j.buffers, msg.Buffers)
}

func (j *Job) complete(result json.RawMessage) {
	j.mu.Lock()
	j.state = JobStateDone
	j.result = result
	fns := j.onDone.snapshot()
	j.onDone.clear()
	j.onError.clear()
	close(j.finished)
	j.mu.Unlock()

	invoke(fns, result)
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	j.state = JobStateFailed
	j.err = err
	fns := j.onError.snapshot()
	j.onDone.clear()
	j.onError.clear()
	close(j.finished)
	j.mu.Unlock()

	invoke(fns, err)
}

func encodeParam(v any) (json.RawMessage, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if !json.Valid(p) {
			return nil, errors.New("invalid raw JSON")
		}
		return bytes.Clone(p), nil
	}
	return json.Marshal(v)
}

func isStructured(v any) bool {
	if raw, ok := v.(json.RawMessage); ok {
		raw = bytes.TrimSpace(raw)
		return len(raw) > 0 && (raw[0] == '{' || raw[0] == '[')
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map, reflect.Struct, reflect.Array:
		return true
	case reflect.Slice:
		return rv.Type().Elem().Kind() != reflect.Uint8
	default:
		return false
	}
}
