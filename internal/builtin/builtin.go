// Package builtin provides the scripts every threadpool worker knows without
// a scripts folder.
package builtin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/kubev2v/threadpool/pkg/transport"
)

const (
	ScriptEcho   = "echo"
	ScriptSleep  = "sleep"
	ScriptSHA256 = "sha256"
	ScriptFail   = "fail"
)

// Registry returns a registry holding every builtin script.
func Registry() *transport.Registry {
	return Register(transport.NewRegistry())
}

func Register(r *transport.Registry) *transport.Registry {
	return r.Register(ScriptEcho, Echo).
		Register(ScriptSleep, Sleep).
		Register(ScriptSHA256, SHA256).
		Register(ScriptFail, Fail)
}

// Echo returns its parameter unchanged.
func Echo(_ context.Context, in transport.Input) (any, error) {
	if len(in.Param) == 0 {
		return nil, nil
	}
	return in.Param, nil
}

type SleepParam struct {
	Duration string `json:"duration"`
	Result   any    `json:"result,omitempty"`
}

// Sleep waits for the given duration, then returns Result. It stops early
// when its thread is terminated.
func Sleep(ctx context.Context, in transport.Input) (any, error) {
	var p SleepParam
	if err := in.Decode(&p); err != nil {
		return nil, fmt.Errorf("invalid sleep parameter: %w", err)
	}
	d, err := time.ParseDuration(p.Duration)
	if err != nil {
		return nil, fmt.Errorf("invalid sleep duration: %w", err)
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return p.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SHA256 hashes every transfer buffer and returns the hex digests in order.
func SHA256(_ context.Context, in transport.Input) (any, error) {
	if len(in.Buffers) == 0 {
		return nil, errors.New("sha256 needs at least one transfer buffer")
	}

	digests := make([]string, 0, len(in.Buffers))
	for _, b := range in.Buffers {
		sum := sha256.Sum256(b)
		digests = append(digests, hex.EncodeToString(sum[:]))
	}
	return digests, nil
}

type FailParam struct {
	Message string `json:"message"`
}

// Fail always fails, with the given message.
func Fail(_ context.Context, in transport.Input) (any, error) {
	var p FailParam
	if err := in.Decode(&p); err != nil {
		return nil, fmt.Errorf("invalid fail parameter: %w", err)
	}
	if p.Message == "" {
		p.Message = "job failed"
	}
	return nil, errors.New(p.Message)
}
