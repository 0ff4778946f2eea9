package threadpool

import (
	srvErrors "github.com/kubev2v/threadpool/pkg/errors"
	"github.com/kubev2v/threadpool/pkg/transport"
)

// Request is a submission accepted by Pool.Run. It is implemented by
// ScriptRequest and FuncRequest only.
type Request interface {
	spec() (JobSpec, DoneFunc, error)
}

// ScriptRequest runs a named script.
type ScriptRequest struct {
	Script  string
	Param   any
	Buffers []*Buffer
	OnDone  DoneFunc
}

func (r ScriptRequest) spec() (JobSpec, DoneFunc, error) {
	if r.Script == "" {
		return JobSpec{}, nil, srvErrors.NewInvalidArgumentsError("script request without a script name")
	}
	return JobSpec{Script: r.Script, Param: r.Param, Buffers: r.Buffers}, r.OnDone, nil
}

// FuncRequest runs an inline function after loading Imports.
type FuncRequest struct {
	Imports []string
	Func    transport.Func
	Param   any
	Buffers []*Buffer
	OnDone  DoneFunc
}

func (r FuncRequest) spec() (JobSpec, DoneFunc, error) {
	if r.Func == nil {
		return JobSpec{}, nil, srvErrors.NewInvalidArgumentsError("function request without a function")
	}
	for _, name := range r.Imports {
		if name == "" {
			return JobSpec{}, nil, srvErrors.NewInvalidArgumentsError("empty import name")
		}
	}
	return JobSpec{Func: r.Func, Imports: r.Imports, Param: r.Param, Buffers: r.Buffers}, r.OnDone, nil
}
