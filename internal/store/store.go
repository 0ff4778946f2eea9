package store

import (
	"context"
	"database/sql"

	"github.com/kubev2v/threadpool/internal/store/migrations"
)

// Store provides access to all storage repositories.
type Store struct {
	db   *sql.DB
	jobs *JobStore
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:   db,
		jobs: NewJobStore(newLoggingInterceptor(db)),
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, s.db)
}

func (s *Store) Jobs() *JobStore {
	return s.jobs
}

func (s *Store) Close() error {
	return s.db.Close()
}
