package threadpool

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	srvErrors "github.com/kubev2v/threadpool/pkg/errors"
	"github.com/kubev2v/threadpool/pkg/transport"
)

type WorkerState int

const (
	WorkerIdle WorkerState = iota
	WorkerBusy
	WorkerTerminated
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerBusy:
		return "busy"
	case WorkerTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// reporter is the view a worker has of its pool.
type reporter interface {
	// deliver forwards a thread reply to the pool's control goroutine.
	deliver(w *worker, r transport.Reply)
	workerDone(w *worker, result json.RawMessage)
	workerFailed(w *worker, err error)
}

// worker is a handle over one thread. Its state is only touched by the
// pool's control goroutine.
type worker struct {
	id     string
	owner  reporter
	thread transport.Thread
	state  WorkerState
	job    *Job
}

func newWorker(id string, owner reporter, source transport.Source) (*worker, error) {
	w := &worker{id: id, owner: owner, state: WorkerIdle}

	thread, err := source.Spawn(id, func(r transport.Reply) {
		owner.deliver(w, r)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to spawn %s: %w", id, err)
	}
	w.thread = thread

	return w, nil
}

func (w *worker) run(j *Job) error {
	if w.state != WorkerIdle {
		return fmt.Errorf("%s cannot run job %s while %s", w.id, j.id, w.state)
	}

	msg, err := j.message()
	if err != nil {
		return err
	}

	w.job = j
	w.state = WorkerBusy
	j.start(w.id)

	if err := w.thread.Post(msg); err != nil {
		j.unsent(msg)
		w.job = nil
		w.state = WorkerIdle
		return err
	}
	return nil
}

// handle processes the terminal reply of the bound job. The job's own
// listeners fire before the pool is told about the outcome.
func (w *worker) handle(r transport.Reply) {
	if w.state != WorkerBusy || w.job == nil || w.job.id != r.JobID {
		zap.S().Named("thread_pool").Warnw("dropping unexpected reply", "worker", w.id, "job", r.JobID, "state", w.state.String())
		return
	}

	j := w.job
	w.job = nil
	w.state = WorkerIdle

	if r.Err != nil {
		err := srvErrors.NewWorkerExecutionError(w.id, j.id, r.Err)
		j.fail(err)
		w.owner.workerFailed(w, err)
		return
	}

	j.complete(r.Result)
	w.owner.workerDone(w, r.Result)
}

func (w *worker) terminate() {
	if w.thread != nil {
		w.thread.Terminate()
	}
	w.state = WorkerTerminated
	w.job = nil
}
