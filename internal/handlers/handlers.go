package handlers

import (
	v1 "github.com/kubev2v/threadpool/api/v1"
	"github.com/kubev2v/threadpool/internal/services"
)

type Handler struct {
	jobSrv *services.JobService
}

func New(jobSrv *services.JobService) *Handler {
	return &Handler{
		jobSrv: jobSrv,
	}
}

var _ v1.ServerInterface = (*Handler)(nil)
