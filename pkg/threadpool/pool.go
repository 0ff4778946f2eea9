package threadpool

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	srvErrors "github.com/kubev2v/threadpool/pkg/errors"
	"github.com/kubev2v/threadpool/pkg/transport"
)

// Stats is a snapshot of the pool bookkeeping.
type Stats struct {
	Size      int
	Idle      int
	Active    int
	Pending   int
	Submitted uint64
	Completed uint64
	Failed    uint64
}

type report struct {
	worker *worker
	reply  transport.Reply
}

// Pool dispatches jobs to a fixed number of workers.
//
// The pending queue, the idle and active worker sets and every worker's
// state belong to the control goroutine started by New. Submissions reach it
// through the inbox, thread replies through the reports channel.
type Pool struct {
	size    int
	workers []*worker
	idle    *stack[*worker]
	active  map[*worker]struct{}
	pending *queue[*Job]

	inboxMu sync.Mutex
	inbox   []*Job
	wake    chan struct{}

	reports chan report
	closing chan struct{}
	stopped chan struct{}
	once    sync.Once

	terminated atomic.Bool
	submitted  atomic.Uint64
	completed  uint64
	failed     uint64

	statsMu sync.Mutex
	stats   Stats

	onDone  listeners[DoneFunc]
	onError listeners[ErrorFunc]
}

// New spawns size workers from source and starts the control goroutine.
func New(size int, source transport.Source) (*Pool, error) {
	if size < 1 {
		return nil, srvErrors.NewInvalidArgumentsError("pool size must be at least 1, got %d", size)
	}
	if source == nil {
		return nil, srvErrors.NewInvalidArgumentsError("a worker source is required")
	}

	p := &Pool{
		size:    size,
		idle:    &stack[*worker]{},
		active:  make(map[*worker]struct{}, size),
		pending: &queue[*Job]{},
		wake:    make(chan struct{}, 1),
		reports: make(chan report, size),
		closing: make(chan struct{}),
		stopped: make(chan struct{}),
	}

	for i := range size {
		w, err := newWorker(fmt.Sprintf("worker-%d", i), p, source)
		if err != nil {
			for _, spawned := range p.workers {
				spawned.terminate()
			}
			return nil, err
		}
		p.workers = append(p.workers, w)
	}
	// worker-0 sits on top of the idle stack
	for i := len(p.workers) - 1; i >= 0; i-- {
		p.idle.Push(p.workers[i])
	}

	p.publish()
	go p.run()

	zap.S().Named("thread_pool").Infow("thread pool started", "size", size)
	return p, nil
}

func (p *Pool) Size() int { return p.size }

// Submit queues j and returns immediately. Dispatch happens on the next turn of
// the control goroutine so that a burst of submissions is paired with workers
// in a single pass.
func (p *Pool) Submit(j *Job) (*Job, error) {
	if j == nil {
		return nil, srvErrors.NewInvalidArgumentsError("nil job")
	}
	if p.terminated.Load() {
		return nil, srvErrors.NewPoolTerminatedError()
	}
	if !j.queued.CompareAndSwap(false, true) {
		return nil, srvErrors.NewInvalidArgumentsError("job %s was already submitted", j.id)
	}

	p.inboxMu.Lock()
	p.inbox = append(p.inbox, j)
	p.inboxMu.Unlock()
	p.submitted.Add(1)

	select {
	case p.wake <- struct{}{}:
	default:
	}

	zap.S().Named("thread_pool").Debugw("job submitted", "job", j.id, "script", j.script)
	return j, nil
}

// Run builds a job from req and submits it.
func (p *Pool) Run(req Request) (*Job, error) {
	if req == nil {
		return nil, srvErrors.NewInvalidArgumentsError("nil request")
	}

	spec, onDone, err := req.spec()
	if err != nil {
		return nil, err
	}
	if p.terminated.Load() {
		return nil, srvErrors.NewPoolTerminatedError()
	}

	j, err := NewJob(spec)
	if err != nil {
		return nil, err
	}
	j.Done(onDone)

	return p.Submit(j)
}

// Done registers fn for the result of every successful job.
func (p *Pool) Done(fn DoneFunc) *Pool {
	if fn != nil {
		p.onDone.add(fn)
	}
	return p
}

// Error registers fn for the error of every failed job.
func (p *Pool) Error(fn ErrorFunc) *Pool {
	if fn != nil {
		p.onError.add(fn)
	}
	return p
}

// ClearDone removes every pool level done listener.
func (p *Pool) ClearDone() {
	p.onDone.clear()
}

// TerminateAll stops every worker. Queued jobs are dropped, running jobs are
// abandoned and none of their listeners fire. It does not wait for the
// control goroutine to exit, use Stopped for that. Safe to call from a listener.
func (p *Pool) TerminateAll() {
	p.once.Do(func() {
		p.terminated.Store(true)
		for _, w := range p.workers {
			w.thread.Terminate()
		}
		close(p.closing)
		zap.S().Named("thread_pool").Infow("thread pool terminated", "size", p.size)
	})
}

// Stopped is closed once the control goroutine has exited after TerminateAll.
func (p *Pool) Stopped() <-chan struct{} {
	return p.stopped
}

func (p *Pool) Terminated() bool {
	return p.terminated.Load()
}

// Stats returns the bookkeeping as of the last event handled by the pool.
func (p *Pool) Stats() Stats {
	p.statsMu.Lock()
	s := p.stats
	p.statsMu.Unlock()

	s.Submitted = p.submitted.Load()
	if !p.terminated.Load() {
		p.inboxMu.Lock()
		s.Pending += len(p.inbox)
		p.inboxMu.Unlock()
	}
	return s
}

func (p *Pool) run() {
	defer close(p.stopped)
	for {
		// termination wins over anything else that is ready
		select {
		case <-p.closing:
			p.shutdown()
			return
		default:
		}

		select {
		case <-p.wake:
			p.drainInbox()
			p.dispatch()
		case r := <-p.reports:
			if p.terminated.Load() {
				continue
			}
			r.worker.handle(r.reply)
		case <-p.closing:
			p.shutdown()
			return
		}
	}
}

func (p *Pool) drainInbox() {
	p.inboxMu.Lock()
	jobs := p.inbox
	p.inbox = nil
	p.inboxMu.Unlock()

	for _, j := range jobs {
		p.pending.Push(j)
	}
}

// dispatch pairs pending jobs with idle workers until one side runs out.
func (p *Pool) dispatch() {
	for p.idle.Len() > 0 && p.pending.Len() > 0 && !p.terminated.Load() {
		j := p.pending.Pop()
		w := p.idle.Pop()
		p.active[w] = struct{}{}

		if err := w.run(j); err != nil {
			delete(p.active, w)
			p.idle.Push(w)
			p.failed++
			p.publish()

			werr := srvErrors.NewWorkerExecutionError(w.id, j.id, err)
			zap.S().Named("thread_pool").Errorw("failed to dispatch job", "job", j.id, "worker", w.id, "error", err)
			j.fail(werr)
			invoke(p.onError.snapshot(), error(werr))
			continue
		}

		zap.S().Named("thread_pool").Debugw("job dispatched", "job", j.id, "worker", w.id)
	}
	p.publish()
}

func (p *Pool) deliver(w *worker, r transport.Reply) {
	select {
	case p.reports <- report{worker: w, reply: r}:
	case <-p.closing:
	}
}

func (p *Pool) workerDone(w *worker, result json.RawMessage) {
	p.release(w)
	p.completed++
	p.publish()

	zap.S().Named("thread_pool").Debugw("job done", "worker", w.id)
	if !p.terminated.Load() {
		invoke(p.onDone.snapshot(), result)
	}
	p.dispatch()
}

func (p *Pool) workerFailed(w *worker, err error) {
	p.release(w)
	p.failed++
	p.publish()

	zap.S().Named("thread_pool").Debugw("job failed", "worker", w.id, "error", err)
	if !p.terminated.Load() {
		invoke(p.onError.snapshot(), err)
	}
	p.dispatch()
}

func (p *Pool) release(w *worker) {
	if _, ok := p.active[w]; !ok {
		zap.S().Named("thread_pool").Warnw("released worker was not active", "worker", w.id)
		return
	}
	delete(p.active, w)
	p.idle.Push(w)
}

func (p *Pool) shutdown() {
	for _, w := range p.workers {
		w.terminate()
	}

	p.inboxMu.Lock()
	dropped := p.pending.Len() + len(p.inbox)
	p.inbox = nil
	p.inboxMu.Unlock()
	p.pending = &queue[*Job]{}

	p.publish()
	zap.S().Named("thread_pool").Infow("thread pool stopped", "dropped_jobs", dropped, "abandoned_jobs", len(p.active))
}

func (p *Pool) publish() {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats = Stats{
		Size:      p.size,
		Idle:      p.idle.Len(),
		Active:    len(p.active),
		Pending:   p.pending.Len(),
		Completed: p.completed,
		Failed:    p.failed,
	}
}
