package analyses

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a completed analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (id, file_name, job_description, result, model, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.FileName,
		analysis.JobDescription,
		analysis.Result,
		analysis.Model,
		analysis.DurationMs,
		analysis.CreatedAt,
	)
	return err
}

// ListRecent returns up to limit analyses, newest first.
func (r *PGRepo) ListRecent(ctx context.Context, limit int) ([]Analysis, error) {
	const query = `
SELECT id, file_name, job_description, result, model, duration_ms, created_at
FROM analyses
ORDER BY created_at DESC
LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.FileName, &a.JobDescription, &a.Result, &a.Model, &a.DurationMs, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
