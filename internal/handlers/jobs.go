package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/kubev2v/threadpool/api/v1"
	"github.com/kubev2v/threadpool/internal/services"
	srvErrors "github.com/kubev2v/threadpool/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GetJobs returns the job history with filtering and pagination
// (GET /jobs)
func (h *Handler) GetJobs(c *gin.Context, params v1.GetJobsParams) {
	page := 1
	if params.Page != nil && *params.Page > 0 {
		page = *params.Page
	}
	pageSize := defaultPageSize
	if params.PageSize != nil && *params.PageSize > 0 {
		pageSize = min(*params.PageSize, maxPageSize)
	}
	if page-1 > math.MaxInt/pageSize {
		c.JSON(http.StatusBadRequest, v1.Error{Error: "page is out of range"})
		return
	}

	var filter services.JobListParams
	if params.State != nil {
		states, err := v1.ParseJobStates(*params.State)
		if err != nil {
			c.JSON(http.StatusBadRequest, v1.Error{Error: err.Error()})
			return
		}
		filter.States = states
	}
	if params.Script != nil {
		filter.Scripts = *params.Script
	}
	if params.Worker != nil {
		filter.Worker = *params.Worker
	}
	filter.Limit = uint64(pageSize)
	filter.Offset = uint64((page - 1) * pageSize)

	result, err := h.jobSrv.List(c.Request.Context(), filter)
	if err != nil {
		zap.S().Named("job_handler").Errorw("failed to list jobs", "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to list jobs"})
		return
	}

	pageCount := (result.Total + pageSize - 1) / pageSize
	if pageCount == 0 {
		pageCount = 1
	}

	jobs := make([]v1.Job, 0, len(result.Jobs))
	for _, rec := range result.Jobs {
		jobs = append(jobs, v1.NewJobFromModel(rec))
	}

	c.JSON(http.StatusOK, v1.JobListResponse{
		Page:      page,
		PageCount: pageCount,
		Total:     result.Total,
		Jobs:      jobs,
	})
}

// CreateJob submits a script job to the pool
// (POST /jobs)
func (h *Handler) CreateJob(c *gin.Context) {
	var req v1.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, v1.Error{Error: "invalid request body: " + err.Error()})
		return
	}

	rec, err := h.jobSrv.Submit(c.Request.Context(), services.SubmitParams{
		Script:  req.Script,
		Param:   req.Param,
		Buffers: req.Buffers,
	})
	switch {
	case err == nil:
	case srvErrors.IsInvalidJobSpecError(err), srvErrors.IsInvalidArgumentsError(err):
		c.JSON(http.StatusBadRequest, v1.Error{Error: err.Error()})
		return
	case srvErrors.IsPoolTerminatedError(err):
		c.JSON(http.StatusServiceUnavailable, v1.Error{Error: err.Error()})
		return
	default:
		zap.S().Named("job_handler").Errorw("failed to submit job", "script", req.Script, "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to submit job"})
		return
	}

	c.JSON(http.StatusAccepted, v1.NewJobFromModel(*rec))
}

// GetJob returns one job
// (GET /jobs/{id})
func (h *Handler) GetJob(c *gin.Context, id string) {
	rec, err := h.jobSrv.Get(c.Request.Context(), id)
	if err != nil {
		if srvErrors.IsResourceNotFoundError(err) {
			c.JSON(http.StatusNotFound, v1.Error{Error: err.Error()})
			return
		}
		zap.S().Named("job_handler").Errorw("failed to get job", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to get job"})
		return
	}

	c.JSON(http.StatusOK, v1.NewJobFromModel(*rec))
}

// GetPool returns the pool statistics
// (GET /pool)
func (h *Handler) GetPool(c *gin.Context) {
	c.JSON(http.StatusOK, v1.NewPoolStatus(h.jobSrv.Stats()))
}
