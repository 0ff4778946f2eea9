package v1

import (
	"encoding/json"
	"time"
)

// JobState defines model for Job.State.
type JobState string

const (
	JobStatePending JobState = "pending"
	JobStateRunning JobState = "running"
	JobStateDone    JobState = "done"
	JobStateFailed  JobState = "failed"
)

// CreateJobRequest defines model for CreateJobRequest.
type CreateJobRequest struct {
	Script string          `json:"script" binding:"required"`
	Param  json.RawMessage `json:"param,omitempty"`
	// Buffers are transfer buffers, base64 encoded.
	Buffers [][]byte `json:"buffers,omitempty"`
}

// Job defines model for Job.
type Job struct {
	Id         string          `json:"id"`
	Script     string          `json:"script"`
	State      JobState        `json:"state"`
	WorkerId   *string         `json:"workerId,omitempty"`
	Param      json.RawMessage `json:"param,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      *string         `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
}

// JobListResponse defines model for JobListResponse.
type JobListResponse struct {
	Page      int   `json:"page"`
	PageCount int   `json:"pageCount"`
	Total     int   `json:"total"`
	Jobs      []Job `json:"jobs"`
}

// PoolStatus defines model for PoolStatus.
type PoolStatus struct {
	Size      int    `json:"size"`
	Idle      int    `json:"idle"`
	Active    int    `json:"active"`
	Pending   int    `json:"pending"`
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
}

// GetJobsParams defines parameters for GetJobs.
type GetJobsParams struct {
	// Page Page number, starting at 1
	Page *int `form:"page,omitempty" json:"page,omitempty"`

	// PageSize Number of jobs per page
	PageSize *int `form:"pageSize,omitempty" json:"pageSize,omitempty"`

	// State Filter by job state
	State *[]JobState `form:"state,omitempty" json:"state,omitempty"`

	// Script Filter by script name
	Script *[]string `form:"script,omitempty" json:"script,omitempty"`

	// Worker Filter by worker id
	Worker *string `form:"worker,omitempty" json:"worker,omitempty"`
}

// Error defines model for Error.
type Error struct {
	Error string `json:"error"`
}
