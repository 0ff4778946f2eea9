// Package threadpool implements a fixed-capacity pool of isolated worker
// threads that run jobs and report their outcome through listeners.
//
// Jobs are submitted with Submit or Run and queued when every worker is busy.
// The pool pairs queued jobs with idle workers in submission order and
// returns a worker to the idle set as soon as it reports back.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                              Pool                                   │
//	│                                                                     │
//	│  idle (LIFO)                          active                        │
//	│  ┌──────────┐ ┌──────────┐            ┌──────────┐                  │
//	│  │ worker-0 │ │ worker-1 │            │ worker-2 │ ──► Thread       │
//	│  └──────────┘ └──────────┘            └──────────┘                  │
//	│         ▲                                   │                       │
//	│         │          reports (Reply)          │                       │
//	│         └───────────────────────────────────┘                       │
//	│                         │                                           │
//	│                  ┌──────┴──────┐                                    │
//	│                  │ dispatch()  │                                    │
//	│                  └──────┬──────┘                                    │
//	│                         │                                           │
//	│  ┌──────────────────────┴──────────────────────────────────┐        │
//	│  │                   Pending (FIFO)                        │        │
//	│  │  [job1] [job2] [job3] ...                               │        │
//	│  └─────────────────────────────────────────────────────────┘        │
//	│                         ▲                                           │
//	│                  Submit(job) / Run(req)                             │
//	└─────────────────────────────────────────────────────────────────────┘
//
// # Core Components
//
// Job:
//   - Logic (a script name or a transport.Func), a JSON encoded parameter,
//     transfer buffers and imports
//   - Its own done and error listeners
//   - Immutable after NewJob except for listener registration
//
// Worker:
//   - Handle over one transport.Thread
//   - Idle → Busy on run, Busy → Idle on the thread's reply, Terminated on shutdown
//   - Fires the job's listeners, then reports to the pool
//
// Pool:
//   - Owns N workers, the pending queue and the idle/active sets
//   - Runs a control goroutine that is the only writer of that state
//   - Fires pool level listeners for every job, whoever submitted it
//
// # Control Goroutine
//
//	for {
//	    select {
//	    case <-p.wake:            // submissions waiting in the inbox
//	        p.drainInbox()
//	        p.dispatch()
//	    case r := <-p.reports:    // a thread replied
//	        r.worker.handle(r.reply)  // → workerDone / workerFailed → dispatch()
//	    case <-p.closing:         // TerminateAll
//	        p.shutdown()
//	        return
//	    }
//	}
//
// Submit never blocks: it appends to the inbox and pokes the wake channel,
// so a burst of submissions is handled by one dispatch pass on the next turn.
// A reply triggers a dispatch pass in the same turn. dispatch() runs until
// there are no idle workers or no pending jobs left.
//
// # Listeners
//
// Two independent listener lists see every outcome:
//
//	job.Done(fn) / job.Error(fn)     only this job
//	pool.Done(fn) / pool.Error(fn)   every job of the pool
//
// Both receive the same payload. All listeners run on the control goroutine;
// a panicking listener is logged and ignored. A listener registered on a job
// that already finished is called immediately with the stored outcome.
//
// Failures reported by a thread reach the listeners as a
// *errors.WorkerExecutionError. The worker goes back to the idle set: errors
// belong to jobs, never to workers.
//
// # Transfer Buffers
//
// Buffers attached to a job are detached when the job is dispatched. From then
// on the bytes belong to the worker and Buffer.Bytes returns nil:
//
//	buf := threadpool.NewBuffer(data)
//	job, _ := pool.Run(threadpool.FuncRequest{
//	    Func:    hash,
//	    Param:   map[string]string{"algo": "sha256"},
//	    Buffers: []*threadpool.Buffer{buf},
//	})
//
// # Termination
//
// TerminateAll is a hard stop, not a drain. Every thread is terminated, queued
// jobs are dropped and running jobs are abandoned; none of their listeners
// fire. Submit and Run return a PoolTerminatedError afterwards.
//
// # Usage Example
//
//	source := transport.NewGoroutineSource(transport.WithRegistry(registry))
//	pool, err := threadpool.New(4, source)
//	if err != nil {
//	    return err
//	}
//	defer pool.TerminateAll()
//
//	pool.Error(func(err error) {
//	    zap.S().Errorw("job failed", "error", err)
//	})
//
//	job, err := pool.Run(threadpool.ScriptRequest{Script: "resize", Param: img})
//	if err != nil {
//	    return err
//	}
//	result, err := job.Wait(ctx)
package threadpool
