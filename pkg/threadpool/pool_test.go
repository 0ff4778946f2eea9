package threadpool_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/kubev2v/threadpool/pkg/errors"
	"github.com/kubev2v/threadpool/pkg/threadpool"
	"github.com/kubev2v/threadpool/pkg/transport"
)

func sleepFor(d time.Duration, result any) transport.Func {
	return func(ctx context.Context, in transport.Input) (any, error) {
		select {
		case <-time.After(d):
			return result, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

var _ = Describe("Pool", func() {
	var pool *threadpool.Pool

	AfterEach(func() {
		if pool != nil {
			pool.TerminateAll()
			Eventually(pool.Stopped(), time.Second).Should(BeClosed())
			pool = nil
		}
	})

	Describe("New", func() {
		It("should reject a pool size below one", func() {
			_, err := threadpool.New(0, transport.NewGoroutineSource())
			Expect(srvErrors.IsInvalidArgumentsError(err)).To(BeTrue())
		})

		It("should require a worker source", func() {
			_, err := threadpool.New(2, nil)
			Expect(srvErrors.IsInvalidArgumentsError(err)).To(BeTrue())
		})

		It("should terminate spawned threads when a spawn fails", func() {
			src := newFakeSource()
			src.failAt = 2

			_, err := threadpool.New(4, src)
			Expect(err).To(MatchError(ContainSubstring("spawn failed")))

			threads := src.all()
			Expect(threads).To(HaveLen(2))
			for _, t := range threads {
				Expect(t.terminated.Load()).To(BeTrue())
			}
		})

		It("should start with every worker idle", func() {
			var err error
			pool, err = threadpool.New(3, newFakeSource())
			Expect(err).NotTo(HaveOccurred())

			stats := pool.Stats()
			Expect(pool.Size()).To(Equal(3))
			Expect(stats.Idle).To(Equal(3))
			Expect(stats.Active).To(BeZero())
			Expect(stats.Pending).To(BeZero())
		})
	})

	Describe("Run", func() {
		BeforeEach(func() {
			var err error
			pool, err = threadpool.New(2, transport.NewGoroutineSource())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should notify the job and the pool with the same result exactly once", func() {
			var poolResults, jobResults []json.RawMessage
			var mu sync.Mutex

			pool.Done(func(result json.RawMessage) {
				mu.Lock()
				defer mu.Unlock()
				poolResults = append(poolResults, result)
			})

			job, err := pool.Run(threadpool.FuncRequest{
				Func: func(ctx context.Context, in transport.Input) (any, error) {
					var n int
					if err := in.Decode(&n); err != nil {
						return nil, err
					}
					return map[string]int{"square": n * n}, nil
				},
				Param: 7,
				OnDone: func(result json.RawMessage) {
					mu.Lock()
					defer mu.Unlock()
					jobResults = append(jobResults, result)
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(job.ID()).NotTo(BeEmpty())

			Eventually(job.Finished(), time.Second).Should(BeClosed())
			Consistently(func() int {
				mu.Lock()
				defer mu.Unlock()
				return len(poolResults) + len(jobResults)
			}, 100*time.Millisecond).Should(Equal(2))

			mu.Lock()
			defer mu.Unlock()
			Expect(jobResults[0]).To(MatchJSON(`{"square":49}`))
			Expect(poolResults[0]).To(MatchJSON(jobResults[0]))
			Expect(job.State()).To(Equal(threadpool.JobStateDone))
		})

		It("should reject malformed requests before creating a job", func() {
			_, err := pool.Run(nil)
			Expect(srvErrors.IsInvalidArgumentsError(err)).To(BeTrue())

			_, err = pool.Run(threadpool.ScriptRequest{})
			Expect(srvErrors.IsInvalidArgumentsError(err)).To(BeTrue())

			_, err = pool.Run(threadpool.FuncRequest{Param: 1})
			Expect(srvErrors.IsInvalidArgumentsError(err)).To(BeTrue())

			_, err = pool.Run(threadpool.FuncRequest{Imports: []string{""}, Func: sleepFor(0, nil)})
			Expect(srvErrors.IsInvalidArgumentsError(err)).To(BeTrue())

			Expect(pool.Stats().Submitted).To(BeZero())
		})

		It("should reject an inconsistent job spec", func() {
			_, err := pool.Run(threadpool.ScriptRequest{
				Script:  "hash",
				Param:   42,
				Buffers: []*threadpool.Buffer{threadpool.NewBuffer([]byte("x"))},
			})
			Expect(srvErrors.IsInvalidJobSpecError(err)).To(BeTrue())
		})

		It("should refuse to submit the same job twice", func() {
			job, err := threadpool.NewJob(threadpool.JobSpec{Func: sleepFor(0, 1)})
			Expect(err).NotTo(HaveOccurred())

			_, err = pool.Submit(job)
			Expect(err).NotTo(HaveOccurred())

			_, err = pool.Submit(job)
			Expect(srvErrors.IsInvalidArgumentsError(err)).To(BeTrue())
		})

		It("should keep running listeners after one of them panics", func() {
			called := make(chan struct{}, 1)
			pool.Done(func(json.RawMessage) { panic("listener bug") })
			pool.Done(func(json.RawMessage) { called <- struct{}{} })

			_, err := pool.Run(threadpool.FuncRequest{Func: sleepFor(0, "ok")})
			Expect(err).NotTo(HaveOccurred())
			Eventually(called, time.Second).Should(Receive())

			job, err := pool.Run(threadpool.FuncRequest{Func: sleepFor(0, "again")})
			Expect(err).NotTo(HaveOccurred())
			Eventually(job.Finished(), time.Second).Should(BeClosed())
		})
	})

	Describe("Dispatch", func() {
		var src *fakeSource

		BeforeEach(func() {
			src = newFakeSource()
			var err error
			pool, err = threadpool.New(2, src)
			Expect(err).NotTo(HaveOccurred())
		})

		submitScripts := func(n int) []*threadpool.Job {
			jobs := make([]*threadpool.Job, 0, n)
			for i := range n {
				job, err := pool.Run(threadpool.ScriptRequest{Script: "work", Param: i})
				Expect(err).NotTo(HaveOccurred())
				jobs = append(jobs, job)
			}
			return jobs
		}

		It("should dispatch the first N jobs and queue the rest", func() {
			jobs := submitScripts(5)

			var first, second posting
			Eventually(src.posted, time.Second).Should(Receive(&first))
			Eventually(src.posted, time.Second).Should(Receive(&second))
			Expect(first.msg.JobID).To(Equal(jobs[0].ID()))
			Expect(second.msg.JobID).To(Equal(jobs[1].ID()))
			Expect(first.thread).NotTo(BeIdenticalTo(second.thread))

			Consistently(src.posted, 100*time.Millisecond).ShouldNot(Receive())
			Eventually(pool.Stats).Should(SatisfyAll(
				HaveField("Active", 2),
				HaveField("Idle", 0),
				HaveField("Pending", 3),
			))
		})

		It("should hand queued jobs to freed workers in submission order", func() {
			jobs := submitScripts(5)

			var p0, p1 posting
			Eventually(src.posted, time.Second).Should(Receive(&p0))
			Eventually(src.posted, time.Second).Should(Receive(&p1))

			p1.thread.succeed(p1.msg.JobID, `1`)
			var p2 posting
			Eventually(src.posted, time.Second).Should(Receive(&p2))
			Expect(p2.msg.JobID).To(Equal(jobs[2].ID()))
			Expect(p2.thread).To(BeIdenticalTo(p1.thread))

			p0.thread.succeed(p0.msg.JobID, `0`)
			var p3 posting
			Eventually(src.posted, time.Second).Should(Receive(&p3))
			Expect(p3.msg.JobID).To(Equal(jobs[3].ID()))
			Expect(p3.thread).To(BeIdenticalTo(p0.thread))

			p2.thread.failWith(p2.msg.JobID, errors.New("boom"))
			var p4 posting
			Eventually(src.posted, time.Second).Should(Receive(&p4))
			Expect(p4.msg.JobID).To(Equal(jobs[4].ID()))

			p3.thread.succeed(p3.msg.JobID, `3`)
			p4.thread.succeed(p4.msg.JobID, `4`)

			Eventually(pool.Stats).Should(SatisfyAll(
				HaveField("Idle", 2),
				HaveField("Active", 0),
				HaveField("Pending", 0),
				HaveField("Completed", uint64(4)),
				HaveField("Failed", uint64(1)),
			))
			Expect(jobs[2].State()).To(Equal(threadpool.JobStateFailed))
		})

		It("should ignore replies for jobs the worker is not running", func() {
			submitScripts(1)

			var p posting
			Eventually(src.posted, time.Second).Should(Receive(&p))

			p.thread.succeed("someone-else", `1`)
			Consistently(pool.Stats, 100*time.Millisecond).Should(HaveField("Active", 1))

			p.thread.succeed(p.msg.JobID, `1`)
			Eventually(pool.Stats).Should(HaveField("Active", 0))
		})

		It("should fail a job whose buffer was already transferred without losing the worker", func() {
			buf := threadpool.NewBuffer([]byte("once"))
			first, err := pool.Run(threadpool.ScriptRequest{Script: "a", Param: []int{1}, Buffers: []*threadpool.Buffer{buf}})
			Expect(err).NotTo(HaveOccurred())

			var p posting
			Eventually(src.posted, time.Second).Should(Receive(&p))
			Expect(p.msg.JobID).To(Equal(first.ID()))

			errs := make(chan error, 1)
			second, err := pool.Run(threadpool.ScriptRequest{Script: "b", Param: []int{2}, Buffers: []*threadpool.Buffer{buf}})
			Expect(err).NotTo(HaveOccurred())
			second.Error(func(err error) { errs <- err })

			var got error
			Eventually(errs, time.Second).Should(Receive(&got))
			Expect(srvErrors.IsWorkerExecutionError(got)).To(BeTrue())
			Eventually(pool.Stats).Should(SatisfyAll(HaveField("Idle", 1), HaveField("Active", 1)))
		})

		It("should leave every buffer attached when one of them was already transferred", func() {
			shared := threadpool.NewBuffer([]byte("shared"))
			_, err := pool.Run(threadpool.ScriptRequest{Script: "a", Param: []int{1}, Buffers: []*threadpool.Buffer{shared}})
			Expect(err).NotTo(HaveOccurred())
			Eventually(src.posted, time.Second).Should(Receive())

			mine := threadpool.NewBuffer([]byte("mine"))
			second, err := pool.Run(threadpool.ScriptRequest{Script: "b", Param: []int{2}, Buffers: []*threadpool.Buffer{mine, shared}})
			Expect(err).NotTo(HaveOccurred())
			Eventually(second.Finished(), time.Second).Should(BeClosed())

			Expect(second.State()).To(Equal(threadpool.JobStateFailed))
			Expect(mine.Detached()).To(BeFalse())
			Expect(mine.Bytes()).To(Equal([]byte("mine")))
			Expect(shared.Detached()).To(BeTrue())
		})

		It("should give buffers back when the thread refuses the job", func() {
			for _, t := range src.all() {
				t.Terminate()
			}

			errs := make(chan error, 1)
			pool.Error(func(err error) { errs <- err })

			buf := threadpool.NewBuffer([]byte("kept"))
			job, err := pool.Run(threadpool.ScriptRequest{Script: "a", Param: []int{1}, Buffers: []*threadpool.Buffer{buf}})
			Expect(err).NotTo(HaveOccurred())

			var got error
			Eventually(errs, time.Second).Should(Receive(&got))
			Expect(got).To(MatchError(transport.ErrThreadTerminated))
			Expect(job.State()).To(Equal(threadpool.JobStateFailed))
			Expect(buf.Detached()).To(BeFalse())
			Expect(buf.Bytes()).To(Equal([]byte("kept")))
			Eventually(pool.Stats).Should(SatisfyAll(HaveField("Idle", 2), HaveField("Active", 0)))
		})
	})

	Describe("Capacity", func() {
		It("should never run more jobs than workers", func() {
			const size, jobs = 3, 30

			var err error
			pool, err = threadpool.New(size, transport.NewGoroutineSource())
			Expect(err).NotTo(HaveOccurred())

			var running, maxRunning, broken atomic.Int32
			pool.Done(func(json.RawMessage) {
				s := pool.Stats()
				if s.Idle+s.Active != size || s.Active > size {
					broken.Add(1)
				}
			})

			work := func(ctx context.Context, in transport.Input) (any, error) {
				n := running.Add(1)
				for {
					m := maxRunning.Load()
					if n <= m || maxRunning.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil, nil
			}

			submitted := make([]*threadpool.Job, 0, jobs)
			for range jobs {
				job, err := pool.Run(threadpool.FuncRequest{Func: work})
				Expect(err).NotTo(HaveOccurred())
				submitted = append(submitted, job)
			}

			for _, job := range submitted {
				Eventually(job.Finished(), 5*time.Second).Should(BeClosed())
			}
			Expect(maxRunning.Load()).To(BeNumerically("<=", size))
			Expect(broken.Load()).To(BeZero())
			Eventually(pool.Stats).Should(HaveField("Completed", uint64(jobs)))
		})

		It("should dispatch in submission order on a single worker", func() {
			var err error
			pool, err = threadpool.New(1, transport.NewGoroutineSource())
			Expect(err).NotTo(HaveOccurred())

			var mu sync.Mutex
			var order []int
			var last *threadpool.Job
			for i := range 10 {
				last, err = pool.Run(threadpool.FuncRequest{
					Func: func(ctx context.Context, in transport.Input) (any, error) {
						mu.Lock()
						defer mu.Unlock()
						order = append(order, i)
						return nil, nil
					},
				})
				Expect(err).NotTo(HaveOccurred())
			}

			Eventually(last.Finished(), 2*time.Second).Should(BeClosed())
			mu.Lock()
			defer mu.Unlock()
			Expect(order).To(Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
		})
	})

	Describe("Completion order", func() {
		It("should run a queued job on the first worker to free up", func() {
			var err error
			pool, err = threadpool.New(2, transport.NewGoroutineSource())
			Expect(err).NotTo(HaveOccurred())

			var mu sync.Mutex
			var completed []string
			pool.Done(func(result json.RawMessage) {
				var name string
				_ = json.Unmarshal(result, &name)
				mu.Lock()
				defer mu.Unlock()
				completed = append(completed, name)
			})

			j1, err := pool.Run(threadpool.FuncRequest{Func: sleepFor(150*time.Millisecond, "J1")})
			Expect(err).NotTo(HaveOccurred())
			j2, err := pool.Run(threadpool.FuncRequest{Func: sleepFor(50*time.Millisecond, "J2")})
			Expect(err).NotTo(HaveOccurred())
			j3, err := pool.Run(threadpool.FuncRequest{Func: sleepFor(10*time.Millisecond, "J3")})
			Expect(err).NotTo(HaveOccurred())

			Eventually(j2.State).Should(Equal(threadpool.JobStateRunning))
			Expect(j1.State()).To(Equal(threadpool.JobStateRunning))
			Expect(j3.State()).To(Equal(threadpool.JobStatePending))

			Eventually(j1.Finished(), 2*time.Second).Should(BeClosed())
			Eventually(func() []string {
				mu.Lock()
				defer mu.Unlock()
				return append([]string(nil), completed...)
			}).Should(Equal([]string{"J2", "J3", "J1"}))
			Expect(j3.WorkerID()).To(Equal(j2.WorkerID()))
			Expect(j1.WorkerID()).NotTo(Equal(j2.WorkerID()))
		})
	})

	Describe("Errors", func() {
		It("should report a failing job once and keep the worker", func() {
			var err error
			pool, err = threadpool.New(1, transport.NewGoroutineSource())
			Expect(err).NotTo(HaveOccurred())

			var doneCount, errCount atomic.Int32
			errs := make(chan error, 4)
			pool.Done(func(json.RawMessage) { doneCount.Add(1) })
			pool.Error(func(err error) {
				errCount.Add(1)
				errs <- err
			})

			boom := errors.New("boom")
			failing, err := pool.Run(threadpool.FuncRequest{
				Func: func(ctx context.Context, in transport.Input) (any, error) {
					return nil, boom
				},
			})
			Expect(err).NotTo(HaveOccurred())

			jobErrs := make(chan error, 1)
			failing.Error(func(err error) { jobErrs <- err })

			var poolErr, jobErr error
			Eventually(errs, time.Second).Should(Receive(&poolErr))
			Eventually(jobErrs, time.Second).Should(Receive(&jobErr))
			Expect(poolErr).To(MatchError(boom))
			Expect(srvErrors.IsWorkerExecutionError(poolErr)).To(BeTrue())
			Expect(jobErr).To(BeIdenticalTo(poolErr))

			next, err := pool.Run(threadpool.FuncRequest{Func: sleepFor(0, "fine")})
			Expect(err).NotTo(HaveOccurred())
			result, err := next.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(MatchJSON(`"fine"`))

			Eventually(doneCount.Load).Should(Equal(int32(1)))
			Expect(errCount.Load()).To(Equal(int32(1)))
			Expect(next.WorkerID()).To(Equal(failing.WorkerID()))
		})

		It("should turn a panic into a job error", func() {
			var err error
			pool, err = threadpool.New(1, transport.NewGoroutineSource())
			Expect(err).NotTo(HaveOccurred())

			job, err := pool.Run(threadpool.FuncRequest{
				Func: func(ctx context.Context, in transport.Input) (any, error) {
					panic("bad logic")
				},
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = job.Wait(context.Background())
			Expect(err).To(MatchError(ContainSubstring("bad logic")))
		})
	})

	Describe("Transfer buffers", func() {
		It("should move the buffer into the worker exactly once", func() {
			var err error
			pool, err = threadpool.New(1, transport.NewGoroutineSource())
			Expect(err).NotTo(HaveOccurred())

			data := []byte("payload")
			buf := threadpool.NewBuffer(data)
			var seen atomic.Int32

			job, err := pool.Run(threadpool.FuncRequest{
				Func: func(ctx context.Context, in transport.Input) (any, error) {
					seen.Add(1)
					return string(in.Buffers[0]), nil
				},
				Param:   map[string]string{"kind": "raw"},
				Buffers: []*threadpool.Buffer{buf},
			})
			Expect(err).NotTo(HaveOccurred())

			result, err := job.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(MatchJSON(`"payload"`))
			Expect(seen.Load()).To(Equal(int32(1)))
			Expect(buf.Detached()).To(BeTrue())
			Expect(buf.Bytes()).To(BeNil())
			Expect(buf.Len()).To(BeZero())
		})
	})

	Describe("TerminateAll", func() {
		It("should abandon running and queued jobs without notifying anyone", func() {
			var err error
			pool, err = threadpool.New(1, transport.NewGoroutineSource())
			Expect(err).NotTo(HaveOccurred())

			var notified atomic.Int32
			pool.Done(func(json.RawMessage) { notified.Add(1) })
			pool.Error(func(error) { notified.Add(1) })

			started := make(chan struct{})
			running, err := pool.Run(threadpool.FuncRequest{
				Func: func(ctx context.Context, in transport.Input) (any, error) {
					close(started)
					<-ctx.Done()
					return nil, ctx.Err()
				},
			})
			Expect(err).NotTo(HaveOccurred())
			queued, err := pool.Run(threadpool.FuncRequest{Func: sleepFor(0, "never")})
			Expect(err).NotTo(HaveOccurred())

			for _, job := range []*threadpool.Job{running, queued} {
				job.Done(func(json.RawMessage) { notified.Add(1) })
				job.Error(func(error) { notified.Add(1) })
			}

			Eventually(started, time.Second).Should(BeClosed())
			pool.TerminateAll()
			Eventually(pool.Stopped(), time.Second).Should(BeClosed())

			Consistently(notified.Load, 200*time.Millisecond).Should(BeZero())
			Expect(queued.State()).To(Equal(threadpool.JobStatePending))
			Expect(pool.Stats().Pending).To(BeZero())
			Expect(pool.Terminated()).To(BeTrue())
		})

		It("should refuse new work afterwards", func() {
			var err error
			pool, err = threadpool.New(1, transport.NewGoroutineSource())
			Expect(err).NotTo(HaveOccurred())

			pool.TerminateAll()
			pool.TerminateAll()

			_, err = pool.Run(threadpool.FuncRequest{Func: sleepFor(0, nil)})
			Expect(srvErrors.IsPoolTerminatedError(err)).To(BeTrue())

			job, err := threadpool.NewJob(threadpool.JobSpec{Script: "x"})
			Expect(err).NotTo(HaveOccurred())
			_, err = pool.Submit(job)
			Expect(srvErrors.IsPoolTerminatedError(err)).To(BeTrue())
		})

		It("should be callable from a listener", func() {
			var err error
			pool, err = threadpool.New(2, transport.NewGoroutineSource())
			Expect(err).NotTo(HaveOccurred())

			pool.Done(func(json.RawMessage) { pool.TerminateAll() })

			_, err = pool.Run(threadpool.FuncRequest{Func: sleepFor(0, 1)})
			Expect(err).NotTo(HaveOccurred())

			Eventually(pool.Stopped(), time.Second).Should(BeClosed())
		})
	})

	Describe("ClearDone", func() {
		It("should stop notifying cleared done listeners", func() {
			var err error
			pool, err = threadpool.New(1, transport.NewGoroutineSource())
			Expect(err).NotTo(HaveOccurred())

			var count atomic.Int32
			pool.Done(func(json.RawMessage) { count.Add(1) })

			job, err := pool.Run(threadpool.FuncRequest{Func: sleepFor(0, 1)})
			Expect(err).NotTo(HaveOccurred())
			Eventually(job.Finished(), time.Second).Should(BeClosed())
			Eventually(count.Load).Should(Equal(int32(1)))

			pool.ClearDone()

			job, err = pool.Run(threadpool.FuncRequest{Func: sleepFor(0, 2)})
			Expect(err).NotTo(HaveOccurred())
			Eventually(job.Finished(), time.Second).Should(BeClosed())
			Consistently(count.Load, 100*time.Millisecond).Should(Equal(int32(1)))
		})
	})

	Describe("Scripts", func() {
		It("should run registered scripts and load imports for functions", func() {
			registry := transport.NewRegistry().Register("greet", func(ctx context.Context, in transport.Input) (any, error) {
				var name string
				if err := in.Decode(&name); err != nil {
					return nil, err
				}
				return fmt.Sprintf("hello %s", name), nil
			})

			var err error
			pool, err = threadpool.New(2, transport.NewGoroutineSource(transport.WithRegistry(registry)))
			Expect(err).NotTo(HaveOccurred())

			job, err := pool.Run(threadpool.ScriptRequest{Script: "greet", Param: "pool"})
			Expect(err).NotTo(HaveOccurred())

			result, err := job.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(MatchJSON(`"hello pool"`))
		})
	})
})
