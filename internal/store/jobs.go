package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/kubev2v/threadpool/internal/models"
	srvErrors "github.com/kubev2v/threadpool/pkg/errors"
	"github.com/kubev2v/threadpool/pkg/threadpool"
)

var jobColumns = []string{
	"id",
	"script",
	"state",
	"worker_id",
	"param",
	"result",
	"error",
	"created_at",
	"finished_at",
}

// JobStore keeps the history of script jobs.
type JobStore struct {
	db QueryInterceptor
}

func NewJobStore(db QueryInterceptor) *JobStore {
	return &JobStore{db: db}
}

// Get returns the job record with the given id or a ResourceNotFoundError.
func (s *JobStore) Get(ctx context.Context, id string) (*models.JobRecord, error) {
	rec, err := scanJob(s.db.QueryRowContext(ctx, queryGetJob, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewJobNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Save inserts the record or updates its outcome. Script, parameter and
// creation time are kept from the first insert.
func (s *JobStore) Save(ctx context.Context, rec models.JobRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var finishedAt any
	if rec.FinishedAt != nil {
		finishedAt = *rec.FinishedAt
	}

	_, err := s.db.ExecContext(ctx, queryUpsertJob,
		rec.ID,
		rec.Script,
		string(rec.State),
		rec.WorkerID,
		nullableJSON(rec.Param),
		nullableJSON(rec.Result),
		rec.Error,
		rec.CreatedAt,
		finishedAt,
	)
	return err
}

func (s *JobStore) List(ctx context.Context, opts ...ListOption) ([]models.JobRecord, error) {
	builder := sq.Select(jobColumns...).From("jobs")

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.JobRecord
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *rec)
	}

	return jobs, rows.Err()
}

func (s *JobStore) Count(ctx context.Context, opts ...ListOption) (int, error) {
	builder := sq.Select("COUNT(*)").From("jobs")

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

type ListOption func(sq.SelectBuilder) sq.SelectBuilder

func ByStates(states ...threadpool.JobState) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(states) == 0 {
			return b
		}
		values := make([]string, 0, len(states))
		for _, s := range states {
			values = append(values, string(s))
		}
		return b.Where(sq.Eq{"state": values})
	}
}

func ByScripts(scripts ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(scripts) == 0 {
			return b
		}
		return b.Where(sq.Eq{"script": scripts})
	}
}

func ByWorker(workerID string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if workerID == "" {
			return b
		}
		return b.Where(sq.Eq{"worker_id": workerID})
	}
}

func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit)
	}
}

func WithOffset(offset uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Offset(offset)
	}
}

// WithDefaultSort orders by creation time, newest first.
func WithDefaultSort() ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.OrderBy("created_at DESC", "id")
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.JobRecord, error) {
	var (
		rec        models.JobRecord
		state      string
		param      sql.NullString
		result     sql.NullString
		finishedAt sql.NullTime
	)

	err := row.Scan(
		&rec.ID,
		&rec.Script,
		&state,
		&rec.WorkerID,
		&param,
		&result,
		&rec.Error,
		&rec.CreatedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.State = threadpool.JobState(state)
	if param.Valid {
		rec.Param = json.RawMessage(param.String)
	}
	if result.Valid {
		rec.Result = json.RawMessage(result.String)
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		rec.FinishedAt = &t
	}
	return &rec, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
