package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	defaultMaxStartTries = 5
	// how long Wait keeps reading output after the process was killed
	killWaitDelay = time.Second
)

// ExecRunner runs scripts as child processes found in a folder.
//
// The process receives a JSON object on stdin:
//
//	{"param": <parameter>, "buffers": ["<base64>", ...], "imports": {"name": "<base64>"}}
//
// and must write a single JSON object on stdout before exiting:
//
//	{"result": <any>}   or   {"error": "message"}
//
// A non-zero exit status is a failure; stderr is attached to the error.
// The script and every process it started are killed when its thread is
// terminated.
type ExecRunner struct {
	dir           string
	env           []string
	maxStartTries uint
}

func NewExecRunner(dir string, env ...string) *ExecRunner {
	return &ExecRunner{
		dir:           dir,
		env:           env,
		maxStartTries: defaultMaxStartTries,
	}
}

// WithStartTries sets how many times starting a busy script is attempted.
func (r *ExecRunner) WithStartTries(n uint) *ExecRunner {
	if n > 0 {
		r.maxStartTries = n
	}
	return r
}

type execRequest struct {
	Param   json.RawMessage   `json:"param,omitempty"`
	Buffers [][]byte          `json:"buffers,omitempty"`
	Imports map[string][]byte `json:"imports,omitempty"`
}

type execResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func (r *ExecRunner) Run(ctx context.Context, script string, in Input) (json.RawMessage, error) {
	path, err := r.resolve(script)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(execRequest{Param: in.Param, Buffers: in.Buffers, Imports: in.Imports})
	if err != nil {
		return nil, fmt.Errorf("failed to encode script input: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd, err := backoff.Retry(ctx, func() (*exec.Cmd, error) {
		stdout.Reset()
		stderr.Reset()

		cmd := exec.CommandContext(ctx, path)
		cmd.Dir = r.dir
		cmd.Env = append(os.Environ(), r.env...)
		cmd.Stdin = bytes.NewReader(payload)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		cmd.WaitDelay = killWaitDelay
		killProcessGroup(cmd)

		if err := cmd.Start(); err != nil {
			// a freshly written script may still be open for writing
			if errors.Is(err, syscall.ETXTBSY) {
				zap.S().Named("exec_runner").Debugw("script busy, retrying start", "script", script)
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return cmd, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(r.maxStartTries))
	if err != nil {
		return nil, fmt.Errorf("failed to start script %s: %w", script, err)
	}

	if err := cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("script %s failed: %w: %s", script, err, msg)
		}
		return nil, fmt.Errorf("script %s failed: %w", script, err)
	}

	return decodeExecResponse(script, stdout.Bytes())
}

func (r *ExecRunner) resolve(script string) (string, error) {
	if r.dir == "" {
		return "", fmt.Errorf("unknown script %q", script)
	}
	if !filepath.IsLocal(script) {
		return "", fmt.Errorf("script %q is outside the scripts folder", script)
	}

	path, err := filepath.Abs(filepath.Join(r.dir, script))
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("unknown script %q: %w", script, err)
	}
	return path, nil
}

func decodeExecResponse(script string, out []byte) (json.RawMessage, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, nil
	}

	var resp execResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("script %s wrote an invalid response: %w", script, err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return resp.Result, nil
}
