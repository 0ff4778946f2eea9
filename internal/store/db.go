package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"
)

// NewDB opens a DuckDB database. Use ":memory:" for a database that lives as
// long as the returned handle.
func NewDB(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}
	return db, nil
}

// QueryInterceptor is the subset of *sql.DB the stores use.
type QueryInterceptor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type loggingInterceptor struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

func newLoggingInterceptor(db *sql.DB) *loggingInterceptor {
	return &loggingInterceptor{db: db, logger: zap.S().Named("store")}
}

func (l *loggingInterceptor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := l.db.QueryContext(ctx, query, args...)
	l.logger.Debugw("query", "sql", query, "args", args, "duration", time.Since(start), "error", err)
	return rows, err
}

func (l *loggingInterceptor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := l.db.QueryRowContext(ctx, query, args...)
	l.logger.Debugw("query row", "sql", query, "args", args, "duration", time.Since(start))
	return row
}

func (l *loggingInterceptor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := l.db.ExecContext(ctx, query, args...)
	l.logger.Debugw("exec", "sql", query, "args", args, "duration", time.Since(start), "error", err)
	return res, err
}
