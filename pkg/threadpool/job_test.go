package threadpool_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/kubev2v/threadpool/pkg/errors"
	"github.com/kubev2v/threadpool/pkg/threadpool"
	"github.com/kubev2v/threadpool/pkg/transport"
)

var _ = Describe("Job", func() {
	noop := func(ctx context.Context, in transport.Input) (any, error) { return nil, nil }
	buffers := func() []*threadpool.Buffer {
		return []*threadpool.Buffer{threadpool.NewBuffer([]byte{1, 2, 3})}
	}

	Describe("NewJob", func() {
		DescribeTable("should reject an unusable spec",
			func(spec threadpool.JobSpec) {
				job, err := threadpool.NewJob(spec)
				Expect(job).To(BeNil())
				Expect(srvErrors.IsInvalidJobSpecError(err)).To(BeTrue(), "got %v", err)
			},
			Entry("without logic", threadpool.JobSpec{Param: 1}),
			Entry("with both a script and a function", threadpool.JobSpec{Script: "s", Func: noop}),
			Entry("with imports on a script", threadpool.JobSpec{Script: "s", Imports: []string{"lib.js"}}),
			Entry("with buffers and a scalar parameter", threadpool.JobSpec{Script: "s", Param: 3, Buffers: buffers()}),
			Entry("with buffers and no parameter", threadpool.JobSpec{Script: "s", Buffers: buffers()}),
			Entry("with buffers and a byte slice parameter", threadpool.JobSpec{Script: "s", Param: []byte("x"), Buffers: buffers()}),
			Entry("with buffers and a raw JSON string", threadpool.JobSpec{Script: "s", Param: json.RawMessage(`"x"`), Buffers: buffers()}),
			Entry("with the same buffer twice", func() threadpool.JobSpec {
				b := threadpool.NewBuffer([]byte{1})
				return threadpool.JobSpec{Script: "s", Param: map[string]int{}, Buffers: []*threadpool.Buffer{b, b}}
			}()),
			Entry("with a nil buffer", threadpool.JobSpec{Script: "s", Param: map[string]int{}, Buffers: []*threadpool.Buffer{nil}}),
			Entry("with an unencodable parameter", threadpool.JobSpec{Script: "s", Param: make(chan int)}),
			Entry("with invalid raw JSON", threadpool.JobSpec{Script: "s", Param: json.RawMessage(`{`)}),
		)

		DescribeTable("should accept structured parameters with buffers",
			func(param any) {
				job, err := threadpool.NewJob(threadpool.JobSpec{Script: "s", Param: param, Buffers: buffers()})
				Expect(err).NotTo(HaveOccurred())
				Expect(job.State()).To(Equal(threadpool.JobStatePending))
			},
			Entry("map", map[string]int{"a": 1}),
			Entry("struct", struct{ A int }{A: 1}),
			Entry("pointer to struct", &struct{ A int }{A: 1}),
			Entry("slice", []string{"a"}),
			Entry("array", [2]int{1, 2}),
			Entry("raw JSON object", json.RawMessage(` {"a":1}`)),
			Entry("raw JSON array", json.RawMessage(`[1]`)),
		)

		It("should encode the parameter and assign an id", func() {
			job, err := threadpool.NewJob(threadpool.JobSpec{Script: "s", Param: map[string]int{"a": 1}})
			Expect(err).NotTo(HaveOccurred())

			Expect(job.ID()).NotTo(BeEmpty())
			Expect(job.Script()).To(Equal("s"))
			Expect(job.Param()).To(MatchJSON(`{"a":1}`))
			Expect(job.WorkerID()).To(BeEmpty())
		})

		It("should not expose its parameter for mutation", func() {
			job, err := threadpool.NewJob(threadpool.JobSpec{Script: "s", Param: json.RawMessage(`[1]`)})
			Expect(err).NotTo(HaveOccurred())

			p := job.Param()
			p[1] = '2'
			Expect(job.Param()).To(MatchJSON(`[1]`))
		})
	})

	Describe("Wait", func() {
		It("should return the context error when the job does not finish", func() {
			job, err := threadpool.NewJob(threadpool.JobSpec{Script: "s"})
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			_, err = job.Wait(ctx)
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})
	})

	Describe("Late listeners", func() {
		var pool *threadpool.Pool

		BeforeEach(func() {
			var err error
			pool, err = threadpool.New(1, transport.NewGoroutineSource())
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			pool.TerminateAll()
		})

		It("should replay the result to a done listener registered after completion", func() {
			job, err := pool.Run(threadpool.FuncRequest{
				Func: func(ctx context.Context, in transport.Input) (any, error) { return "late", nil },
			})
			Expect(err).NotTo(HaveOccurred())
			Eventually(job.Finished(), time.Second).Should(BeClosed())

			var got json.RawMessage
			var errCalled bool
			job.Done(func(result json.RawMessage) { got = result }).
				Error(func(error) { errCalled = true })

			Expect(got).To(MatchJSON(`"late"`))
			Expect(errCalled).To(BeFalse())
		})

		It("should replay the error to an error listener registered after failure", func() {
			boom := errors.New("boom")
			job, err := pool.Run(threadpool.FuncRequest{
				Func: func(ctx context.Context, in transport.Input) (any, error) { return nil, boom },
			})
			Expect(err).NotTo(HaveOccurred())
			Eventually(job.Finished(), time.Second).Should(BeClosed())

			var got error
			var doneCalled bool
			job.Error(func(err error) { got = err }).
				Done(func(json.RawMessage) { doneCalled = true })

			Expect(got).To(MatchError(boom))
			Expect(doneCalled).To(BeFalse())
		})
	})
})

var _ = Describe("Buffer", func() {
	It("should hold its bytes until transferred", func() {
		buf := threadpool.NewBuffer([]byte("abc"))
		Expect(buf.Bytes()).To(Equal([]byte("abc")))
		Expect(buf.Len()).To(Equal(3))
		Expect(buf.Detached()).To(BeFalse())
	})
})
