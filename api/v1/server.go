package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /jobs)
	GetJobs(c *gin.Context, params GetJobsParams)
	// (POST /jobs)
	CreateJob(c *gin.Context)
	// (GET /jobs/{id})
	GetJob(c *gin.Context, id string)
	// (GET /pool)
	GetPool(c *gin.Context)
}

type serverWrapper struct {
	handler ServerInterface
}

// GetJobs operation middleware
func (w *serverWrapper) GetJobs(c *gin.Context) {
	var params GetJobsParams
	query := c.Request.URL.Query()

	bind := []struct {
		name string
		dest any
	}{
		{"page", &params.Page},
		{"pageSize", &params.PageSize},
		{"state", &params.State},
		{"script", &params.Script},
		{"worker", &params.Worker},
	}
	for _, p := range bind {
		if err := runtime.BindQueryParameter("form", true, false, p.name, query, p.dest); err != nil {
			c.JSON(http.StatusBadRequest, Error{Error: fmt.Sprintf("Invalid format for parameter %s: %v", p.name, err)})
			return
		}
	}

	w.handler.GetJobs(c, params)
}

func (w *serverWrapper) CreateJob(c *gin.Context) {
	w.handler.CreateJob(c)
}

func (w *serverWrapper) GetJob(c *gin.Context) {
	w.handler.GetJob(c, c.Param("id"))
}

func (w *serverWrapper) GetPool(c *gin.Context) {
	w.handler.GetPool(c)
}

// RegisterHandlers adds each server route to the router.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	w := &serverWrapper{handler: si}

	router.GET("/jobs", w.GetJobs)
	router.POST("/jobs", w.CreateJob)
	router.GET("/jobs/:id", w.GetJob)
	router.GET("/pool", w.GetPool)
}
