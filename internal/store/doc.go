// Package store implements the data access layer for the threadpool service.
//
// This package persists the history of script jobs in DuckDB so that the HTTP
// API can answer for jobs that finished long ago, or ran before a restart.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                         Store (facade)                          │
//	├─────────────────────────────────────────────────────────────────┤
//	│                           JobStore                              │
//	│                              ▼                                  │
//	│                            jobs                                 │
//	├─────────────────────────────────────────────────────────────────┤
//	│                 QueryInterceptor (debug logging)                │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Data Sources
//
// Tables created by LOCAL MIGRATIONS (internal/store/migrations/sql/):
//
//	┌────────────────────┬─────────────────────────────────────────────┐
//	│  Table             │  Purpose                                    │
//	├────────────────────┼─────────────────────────────────────────────┤
//	│  jobs              │  One row per submitted script job           │
//	│  schema_migrations │  Migration version tracking                 │
//	└────────────────────┴─────────────────────────────────────────────┘
//
// # Initialization Flow
//
//	db, _ := NewDB(path)           ":memory:" or a file in DataFolder
//	s := NewStore(db)
//	    └── Wraps db with a logging QueryInterceptor
//	s.Migrate(ctx)
//	    └── migrations.Run()  → Creates jobs
//
// # JobStore
//
// Schema:
//
//	jobs (
//	    id VARCHAR PRIMARY KEY,
//	    script VARCHAR NOT NULL,
//	    state VARCHAR NOT NULL,          -- pending, running, done, failed
//	    worker_id VARCHAR NOT NULL DEFAULT '',
//	    param VARCHAR,                   -- JSON
//	    result VARCHAR,                  -- JSON
//	    error VARCHAR NOT NULL DEFAULT '',
//	    created_at TIMESTAMP NOT NULL,
//	    finished_at TIMESTAMP
//	)
//
// Methods:
//   - Get(ctx, id) → *models.JobRecord (ResourceNotFoundError when missing)
//   - Save(ctx, record) → error (uses UPSERT, keeps script and param)
//   - List(ctx, ...ListOption) → []models.JobRecord
//   - Count(ctx, ...ListOption) → int
//
// List options:
//
//	┌──────────────────────┬─────────────────────────────────────────┐
//	│  Option              │  Effect                                 │
//	├──────────────────────┼─────────────────────────────────────────┤
//	│  ByStates(...)       │  state IN (...)                         │
//	│  ByScripts(...)      │  script IN (...)                        │
//	│  ByWorker(id)        │  worker_id = id                         │
//	│  WithLimit(n)        │  LIMIT n                                │
//	│  WithOffset(n)       │  OFFSET n                               │
//	│  WithDefaultSort()   │  ORDER BY created_at DESC, id           │
//	└──────────────────────┴─────────────────────────────────────────┘
//
// Empty filters are no-ops, so callers can pass request parameters through
// without checking them first.
//
// # QueryInterceptor
//
// All database operations are wrapped with a QueryInterceptor that provides
// debug logging for all queries, with their arguments and duration.
//
// Logged operations:
//   - QueryRowContext
//   - QueryContext
//   - ExecContext
package store
