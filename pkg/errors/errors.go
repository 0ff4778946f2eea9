package errors

import (
	"errors"
	"fmt"
)

// InvalidArgumentsError is returned when a submission request or a constructor
// receives a malformed set of arguments. No job is created.
type InvalidArgumentsError struct {
	reason string
}

func NewInvalidArgumentsError(format string, args ...any) *InvalidArgumentsError {
	return &InvalidArgumentsError{reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments: %s", e.reason)
}

func IsInvalidArgumentsError(err error) bool {
	var e *InvalidArgumentsError
	return errors.As(err, &e)
}

// InvalidJobSpecError is returned when a job is described without usable logic
// or with an inconsistent parameter/buffer combination.
type InvalidJobSpecError struct {
	reason string
}

func NewInvalidJobSpecError(format string, args ...any) *InvalidJobSpecError {
	return &InvalidJobSpecError{reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidJobSpecError) Error() string {
	return fmt.Sprintf("invalid job spec: %s", e.reason)
}

func IsInvalidJobSpecError(err error) bool {
	var e *InvalidJobSpecError
	return errors.As(err, &e)
}

// WorkerExecutionError wraps a failure reported by a worker thread while it was
// running a job.
type WorkerExecutionError struct {
	WorkerID string
	JobID    string
	Err      error
}

func NewWorkerExecutionError(workerID, jobID string, err error) *WorkerExecutionError {
	return &WorkerExecutionError{WorkerID: workerID, JobID: jobID, Err: err}
}

func (e *WorkerExecutionError) Error() string {
	return fmt.Sprintf("job %s failed on %s: %v", e.JobID, e.WorkerID, e.Err)
}

func (e *WorkerExecutionError) Unwrap() error {
	return e.Err
}

func IsWorkerExecutionError(err error) bool {
	var e *WorkerExecutionError
	return errors.As(err, &e)
}

// PoolTerminatedError is returned by operations attempted after the pool was terminated.
type PoolTerminatedError struct{}

func NewPoolTerminatedError() *PoolTerminatedError {
	return &PoolTerminatedError{}
}

func (e *PoolTerminatedError) Error() string {
	return "thread pool terminated"
}

func IsPoolTerminatedError(err error) bool {
	var e *PoolTerminatedError
	return errors.As(err, &e)
}

type ResourceNotFoundError struct {
	kind string
	id   string
}

func NewJobNotFoundError(id string) *ResourceNotFoundError {
	return &ResourceNotFoundError{kind: "job", id: id}
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.kind, e.id)
}

func IsResourceNotFoundError(err error) bool {
	var e *ResourceNotFoundError
	return errors.As(err, &e)
}
