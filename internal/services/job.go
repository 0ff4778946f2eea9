package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kubev2v/threadpool/internal/models"
	"github.com/kubev2v/threadpool/internal/store"
	srvErrors "github.com/kubev2v/threadpool/pkg/errors"
	"github.com/kubev2v/threadpool/pkg/threadpool"
)

// JobService submits script jobs to the pool and records their history.
type JobService struct {
	pool  *threadpool.Pool
	store *store.Store

	mu   sync.Mutex
	live map[string]*threadpool.Job
	wg   sync.WaitGroup
}

func NewJobService(pool *threadpool.Pool, st *store.Store) *JobService {
	return &JobService{
		pool:  pool,
		store: st,
		live:  make(map[string]*threadpool.Job),
	}
}

type SubmitParams struct {
	Script  string
	Param   json.RawMessage
	Buffers [][]byte
}

// Submit records a pending job and hands it to the pool. The outcome is
// recorded asynchronously once the pool reports it.
func (s *JobService) Submit(ctx context.Context, params SubmitParams) (*models.JobRecord, error) {
	spec := threadpool.JobSpec{Script: params.Script}
	if len(params.Param) > 0 {
		spec.Param = params.Param
	}
	for _, b := range params.Buffers {
		spec.Buffers = append(spec.Buffers, threadpool.NewBuffer(b))
	}

	job, err := threadpool.NewJob(spec)
	if err != nil {
		return nil, err
	}

	rec := models.JobRecord{
		ID:        job.ID(),
		Script:    job.Script(),
		State:     threadpool.JobStatePending,
		Param:     job.Param(),
		CreatedAt: time.Now(),
	}
	if err := s.store.Jobs().Save(ctx, rec); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.live[job.ID()] = job
	s.mu.Unlock()

	job.Done(func(result json.RawMessage) {
		s.finish(job, rec, result, nil)
	}).Error(func(err error) {
		s.finish(job, rec, nil, err)
	})

	if _, err := s.pool.Submit(job); err != nil {
		s.forget(job.ID())
		rec.State = threadpool.JobStateFailed
		rec.Error = err.Error()
		finished := time.Now()
		rec.FinishedAt = &finished
		if saveErr := s.store.Jobs().Save(ctx, rec); saveErr != nil {
			zap.S().Named("job_service").Errorw("failed to record rejected job", "job", rec.ID, "error", saveErr)
		}
		return nil, err
	}

	zap.S().Named("job_service").Debugw("job submitted", "job", rec.ID, "script", rec.Script)
	return &rec, nil
}

// Get returns the job record, with the live state of jobs still in the pool.
func (s *JobService) Get(ctx context.Context, id string) (*models.JobRecord, error) {
	rec, err := s.store.Jobs().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.overlay(rec)
	return rec, nil
}

type JobListParams struct {
	States  []threadpool.JobState
	Scripts []string
	Worker  string
	Limit   uint64
	Offset  uint64
}

func (s *JobService) List(ctx context.Context, params JobListParams) (*models.JobListResult, error) {
	filters := []store.ListOption{
		store.ByStates(params.States...),
		store.ByScripts(params.Scripts...),
		store.ByWorker(params.Worker),
	}

	opts := append([]store.ListOption{store.WithDefaultSort()}, filters...)
	if params.Limit > 0 {
		opts = append(opts, store.WithLimit(params.Limit))
	}
	if params.Offset > 0 {
		opts = append(opts, store.WithOffset(params.Offset))
	}

	jobs, err := s.store.Jobs().List(ctx, opts...)
	if err != nil {
		return nil, err
	}

	// Get total count without pagination
	total, err := s.store.Jobs().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	for i := range jobs {
		s.overlay(&jobs[i])
	}

	return &models.JobListResult{Jobs: jobs, Total: total}, nil
}

func (s *JobService) Stats() threadpool.Stats {
	return s.pool.Stats()
}

// Wait blocks until every outcome reported so far has been recorded.
func (s *JobService) Wait() {
	s.wg.Wait()
}

// Abandon records every job the pool never finished as failed. Call it once
// the pool has stopped and Wait has returned.
func (s *JobService) Abandon(ctx context.Context) error {
	s.mu.Lock()
	jobs := make([]*threadpool.Job, 0, len(s.live))
	for _, job := range s.live {
		jobs = append(jobs, job)
	}
	s.mu.Unlock()

	reason := srvErrors.NewPoolTerminatedError().Error()
	var errs []error
	for _, job := range jobs {
		select {
		case <-job.Finished():
			continue
		default:
		}

		rec, err := s.store.Jobs().Get(ctx, job.ID())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		finished := time.Now()
		rec.State = threadpool.JobStateFailed
		rec.WorkerID = job.WorkerID()
		rec.Error = reason
		rec.FinishedAt = &finished

		if err := s.store.Jobs().Save(ctx, *rec); err != nil {
			errs = append(errs, err)
			continue
		}
		s.forget(job.ID())
	}

	zap.S().Named("job_service").Infow("recorded abandoned jobs", "count", len(jobs))
	return errors.Join(errs...)
}

// finish runs on the pool's control goroutine, so the store write happens
// elsewhere.
func (s *JobService) finish(job *threadpool.Job, rec models.JobRecord, result json.RawMessage, err error) {
	finished := time.Now()
	rec.WorkerID = job.WorkerID()
	rec.FinishedAt = &finished
	if err != nil {
		rec.State = threadpool.JobStateFailed
		rec.Error = err.Error()
	} else {
		rec.State = threadpool.JobStateDone
		rec.Result = result
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.forget(rec.ID)

		if err := s.store.Jobs().Save(context.Background(), rec); err != nil {
			zap.S().Named("job_service").Errorw("failed to record job outcome", "job", rec.ID, "error", err)
			return
		}
		zap.S().Named("job_service").Debugw("job recorded", "job", rec.ID, "state", rec.State)
	}()
}

func (s *JobService) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, id)
}

func (s *JobService) overlay(rec *models.JobRecord) {
	s.mu.Lock()
	job, ok := s.live[rec.ID]
	s.mu.Unlock()
	if !ok {
		return
	}

	rec.State = job.State()
	rec.WorkerID = job.WorkerID()

	select {
	case <-job.Finished():
		// the outcome may not be written yet
		result, err := job.Wait(context.Background())
		if err != nil {
			rec.Error = err.Error()
		} else {
			rec.Result = result
		}
	default:
	}
}
