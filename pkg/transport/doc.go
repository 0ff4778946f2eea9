// Package transport provides the isolated execution contexts ("threads") that
// the thread pool hands its jobs to.
//
// A Thread receives one Message per run and delivers exactly one Reply unless
// it is terminated first. Nothing crosses the boundary by reference: the
// parameter travels JSON encoded, the result comes back JSON encoded and
// buffers are owned by the thread once posted.
//
// GoroutineSource backs every thread with a dedicated goroutine. Scripts are
// resolved against a Registry of in-process functions first and, when an
// ExecRunner is configured, against executables in a scripts folder:
//
//	registry := transport.NewRegistry().
//	    Register("echo", func(ctx context.Context, in transport.Input) (any, error) {
//	        return in.Param, nil
//	    })
//
//	source := transport.NewGoroutineSource(
//	    transport.WithRegistry(registry),
//	    transport.WithScriptRunner(transport.NewExecRunner("/var/lib/scripts")),
//	    transport.WithLoader(transport.DirLoader("/var/lib/imports")),
//	)
package transport
