package v1

import (
	"fmt"

	"github.com/kubev2v/threadpool/internal/models"
	"github.com/kubev2v/threadpool/pkg/threadpool"
)

// NewJobFromModel converts a models.JobRecord to an API Job.
func NewJobFromModel(rec models.JobRecord) Job {
	job := Job{
		Id:         rec.ID,
		Script:     rec.Script,
		State:      JobState(rec.State),
		Param:      rec.Param,
		Result:     rec.Result,
		CreatedAt:  rec.CreatedAt,
		FinishedAt: rec.FinishedAt,
	}

	if rec.WorkerID != "" {
		job.WorkerId = &rec.WorkerID
	}
	if rec.Error != "" {
		job.Error = &rec.Error
	}

	return job
}

func NewPoolStatus(s threadpool.Stats) PoolStatus {
	return PoolStatus{
		Size:      s.Size,
		Idle:      s.Idle,
		Active:    s.Active,
		Pending:   s.Pending,
		Submitted: s.Submitted,
		Completed: s.Completed,
		Failed:    s.Failed,
	}
}

// ParseJobStates converts API job states to pool job states.
func ParseJobStates(states []JobState) ([]threadpool.JobState, error) {
	var result []threadpool.JobState
	for _, s := range states {
		switch s {
		case JobStatePending:
			result = append(result, threadpool.JobStatePending)
		case JobStateRunning:
			result = append(result, threadpool.JobStateRunning)
		case JobStateDone:
			result = append(result, threadpool.JobStateDone)
		case JobStateFailed:
			result = append(result, threadpool.JobStateFailed)
		default:
			return nil, fmt.Errorf("invalid job state %q", s)
		}
	}
	return result, nil
}
