package models

import (
	"encoding/json"
	"time"

	"github.com/kubev2v/threadpool/pkg/threadpool"
)

// JobRecord is the persisted history of one script job.
type JobRecord struct {
	ID         string
	Script     string
	State      threadpool.JobState
	WorkerID   string
	Param      json.RawMessage
	Result     json.RawMessage
	Error      string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

func (r JobRecord) Finished() bool {
	return r.State == threadpool.JobStateDone || r.State == threadpool.JobStateFailed
}

type JobListResult struct {
	Jobs  []JobRecord
	Total int
}
