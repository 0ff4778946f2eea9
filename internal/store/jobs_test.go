package store_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/threadpool/internal/models"
	"github.com/kubev2v/threadpool/internal/store"
	srvErrors "github.com/kubev2v/threadpool/pkg/errors"
	"github.com/kubev2v/threadpool/pkg/threadpool"
)

var _ = Describe("JobStore", func() {
	var (
		ctx context.Context
		s   *store.Store
		db  *sql.DB
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())

		s = store.NewStore(db)
		err = s.Migrate(ctx)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Context("Get", func() {
		// Given an empty job store
		// When we try to get a job
		// Then it should return ResourceNotFoundError
		It("should return ResourceNotFoundError when the job does not exist", func() {
			// Act
			_, err := s.Jobs().Get(ctx, "missing")

			// Assert
			Expect(err).To(HaveOccurred())
			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})

		// Given a pending job saved in the store
		// When we retrieve it
		// Then it should return the saved fields with no outcome
		It("should return a saved pending job", func() {
			// Arrange
			created := time.Now().Add(-time.Minute)
			err := s.Jobs().Save(ctx, models.JobRecord{
				ID:        "job-1",
				Script:    "echo",
				State:     threadpool.JobStatePending,
				Param:     json.RawMessage(`{"a":1}`),
				CreatedAt: created,
			})
			Expect(err).NotTo(HaveOccurred())

			// Act
			rec, err := s.Jobs().Get(ctx, "job-1")

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Script).To(Equal("echo"))
			Expect(rec.State).To(Equal(threadpool.JobStatePending))
			Expect(rec.Param).To(MatchJSON(`{"a":1}`))
			Expect(rec.Result).To(BeNil())
			Expect(rec.FinishedAt).To(BeNil())
			Expect(rec.CreatedAt).To(BeTemporally("~", created, time.Millisecond))
			Expect(rec.Finished()).To(BeFalse())
		})
	})

	Context("Save", func() {
		// Given a pending job in the store
		// When we save its outcome
		// Then it should update the record and keep the original parameter
		It("should upsert the outcome of an existing job", func() {
			// Arrange
			err := s.Jobs().Save(ctx, models.JobRecord{
				ID:     "job-1",
				Script: "echo",
				State:  threadpool.JobStatePending,
				Param:  json.RawMessage(`"hi"`),
			})
			Expect(err).NotTo(HaveOccurred())

			// Act
			finished := time.Now()
			err = s.Jobs().Save(ctx, models.JobRecord{
				ID:         "job-1",
				Script:     "echo",
				State:      threadpool.JobStateDone,
				WorkerID:   "worker-0",
				Result:     json.RawMessage(`"hi"`),
				FinishedAt: &finished,
			})
			Expect(err).NotTo(HaveOccurred())

			// Assert
			rec, err := s.Jobs().Get(ctx, "job-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.State).To(Equal(threadpool.JobStateDone))
			Expect(rec.WorkerID).To(Equal("worker-0"))
			Expect(rec.Param).To(MatchJSON(`"hi"`))
			Expect(rec.Result).To(MatchJSON(`"hi"`))
			Expect(rec.FinishedAt).NotTo(BeNil())
			Expect(*rec.FinishedAt).To(BeTemporally("~", finished, time.Millisecond))
			Expect(rec.Finished()).To(BeTrue())
		})

		// Given a failed job
		// When we save it
		// Then the error message should be stored
		It("should store the error of a failed job", func() {
			// Act
			err := s.Jobs().Save(ctx, models.JobRecord{
				ID:     "job-2",
				Script: "fail",
				State:  threadpool.JobStateFailed,
				Error:  "boom",
			})
			Expect(err).NotTo(HaveOccurred())

			// Assert
			rec, err := s.Jobs().Get(ctx, "job-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.State).To(Equal(threadpool.JobStateFailed))
			Expect(rec.Error).To(Equal("boom"))
		})
	})

	Context("List", func() {
		BeforeEach(func() {
			base := time.Now().Add(-time.Hour)
			for i := range 6 {
				state := threadpool.JobStateDone
				script := "echo"
				if i%2 == 1 {
					state = threadpool.JobStateFailed
					script = "fail"
				}
				err := s.Jobs().Save(ctx, models.JobRecord{
					ID:        fmt.Sprintf("job-%d", i),
					Script:    script,
					State:     state,
					WorkerID:  fmt.Sprintf("worker-%d", i%3),
					CreatedAt: base.Add(time.Duration(i) * time.Minute),
				})
				Expect(err).NotTo(HaveOccurred())
			}
		})

		// Given six jobs
		// When we list with the default sort
		// Then the newest job should come first
		It("should list newest first", func() {
			jobs, err := s.Jobs().List(ctx, store.WithDefaultSort())
			Expect(err).NotTo(HaveOccurred())
			Expect(jobs).To(HaveLen(6))
			Expect(jobs[0].ID).To(Equal("job-5"))
			Expect(jobs[5].ID).To(Equal("job-0"))
		})

		// Given done and failed jobs
		// When we filter by state
		// Then only jobs in that state should be returned
		It("should filter by state", func() {
			jobs, err := s.Jobs().List(ctx, store.ByStates(threadpool.JobStateFailed))
			Expect(err).NotTo(HaveOccurred())
			Expect(jobs).To(HaveLen(3))
			for _, j := range jobs {
				Expect(j.Script).To(Equal("fail"))
			}
		})

		It("should filter by script and worker", func() {
			jobs, err := s.Jobs().List(ctx, store.ByScripts("echo"), store.ByWorker("worker-0"))
			Expect(err).NotTo(HaveOccurred())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].ID).To(Equal("job-0"))
		})

		It("should ignore empty filters", func() {
			count, err := s.Jobs().Count(ctx, store.ByStates(), store.ByScripts(), store.ByWorker(""))
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(6))
		})

		// Given six jobs
		// When we request the second page of two
		// Then the third and fourth newest should be returned
		It("should paginate", func() {
			jobs, err := s.Jobs().List(ctx, store.WithDefaultSort(), store.WithLimit(2), store.WithOffset(2))
			Expect(err).NotTo(HaveOccurred())
			Expect(jobs).To(HaveLen(2))
			Expect(jobs[0].ID).To(Equal("job-3"))
			Expect(jobs[1].ID).To(Equal("job-2"))
		})

		It("should count filtered jobs", func() {
			count, err := s.Jobs().Count(ctx, store.ByStates(threadpool.JobStateDone))
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(3))
		})
	})
})
