package store

// Job queries
const (
	queryGetJob = `
		SELECT id, script, state, worker_id, param, result, error, created_at, finished_at
		FROM jobs WHERE id = ?`

	queryUpsertJob = `
		INSERT INTO jobs (id, script, state, worker_id, param, result, error, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			worker_id = EXCLUDED.worker_id,
			result = EXCLUDED.result,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at`
)
