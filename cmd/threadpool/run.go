package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kubev2v/threadpool/internal/jobfile"
	"github.com/kubev2v/threadpool/pkg/threadpool"
)

type outcome struct {
	name   string
	worker string
	result json.RawMessage
	err    error
}

func newRunCommand() *cobra.Command {
	var (
		file    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch of jobs from a YAML file and print their outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfiguration(cmd)
			if err != nil {
				return err
			}
			flush, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer flush()

			batch, err := jobfile.Load(file)
			if err != nil {
				return err
			}
			jobs, err := batch.Expand()
			if err != nil {
				return err
			}

			size := cfg.PoolSize
			if batch.PoolSize > 0 {
				size = batch.PoolSize
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			pool, err := newPool(cfg, size)
			if err != nil {
				return err
			}
			defer pool.TerminateAll()

			return runBatch(ctx, cmd.OutOrStdout(), pool, jobs)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file describing the jobs")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up on unfinished jobs after this long (0 waits forever)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// runBatch submits every job and prints outcomes in completion order.
func runBatch(ctx context.Context, w io.Writer, pool *threadpool.Pool, jobs []jobfile.Job) error {
	outcomes := make(chan outcome, len(jobs))

	for _, j := range jobs {
		job, err := pool.Run(j.Request)
		if err != nil {
			return fmt.Errorf("failed to submit %s: %w", j.Name, err)
		}

		name := j.Name
		job.Done(func(result json.RawMessage) {
			outcomes <- outcome{name: name, worker: job.WorkerID(), result: result}
		}).Error(func(err error) {
			outcomes <- outcome{name: name, worker: job.WorkerID(), err: err}
		})
	}
	zap.S().Named("run").Infow("jobs submitted", "count", len(jobs), "pool_size", pool.Size())

	ok := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)
	dim := color.New(color.Faint)

	failed := 0
	for range jobs {
		select {
		case o := <-outcomes:
			if o.err != nil {
				failed++
				bad.Fprint(w, "✗ ")
				fmt.Fprintf(w, "%s ", o.name)
				dim.Fprintf(w, "[%s] ", o.worker)
				fmt.Fprintln(w, o.err)
				continue
			}
			ok.Fprint(w, "✓ ")
			fmt.Fprintf(w, "%s ", o.name)
			dim.Fprintf(w, "[%s] ", o.worker)
			fmt.Fprintln(w, resultText(o.result))
		case <-ctx.Done():
			return fmt.Errorf("stopped waiting for jobs: %w", ctx.Err())
		}
	}

	summary := fmt.Sprintf("%d succeeded, %d failed", len(jobs)-failed, failed)
	if failed > 0 {
		bad.Fprintln(w, summary)
		return fmt.Errorf("%d of %d jobs failed", failed, len(jobs))
	}
	ok.Fprintln(w, summary)
	return nil
}

func resultText(result json.RawMessage) string {
	if len(result) == 0 {
		return "(no result)"
	}
	return string(result)
}
