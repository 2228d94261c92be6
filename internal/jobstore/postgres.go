package jobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists job state durably, surviving restarts. It is swept
// like the memory backend.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the jobs table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS jobs (
			id               text PRIMARY KEY,
			status           text NOT NULL,
			progress         int NOT NULL DEFAULT 0,
			message          text NOT NULL DEFAULT '',
			input_path       text NOT NULL,
			output_path      text NOT NULL DEFAULT '',
			archive_key      text NOT NULL DEFAULT '',
			archive_provider text NOT NULL DEFAULT '',
			duration         double precision NOT NULL DEFAULT 0,
			created_at       timestamptz NOT NULL,
			completed_at     timestamptz
		)`)
	if err != nil {
		return fmt.Errorf("ensure jobs schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, id, inputPath string) (*Job, error) {
	job := newJob(id, inputPath)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, status, progress, message, input_path, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		job.ID, job.Status, job.Progress, job.Message, job.InputPath, job.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("job %s already exists", id)
		}
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Job, error) {
	return scanJob(s.pool.QueryRow(ctx, selectJobSQL+` WHERE id=$1`, id))
}

func (s *PostgresStore) Update(ctx context.Context, id string, u Update) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := scanJob(tx.QueryRow(ctx, selectJobSQL+` WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	if u.violatesTerminal(job) {
		return false, ErrTerminalState
	}

	u.apply(job)

	_, err = tx.Exec(ctx,
		`UPDATE jobs SET status=$2, progress=$3, message=$4, output_path=$5,
		 archive_key=$6, archive_provider=$7, duration=$8, completed_at=$9
		 WHERE id=$1`,
		job.ID, job.Status, job.Progress, job.Message, job.OutputPath,
		job.ArchiveKey, job.ArchiveProvider, job.Duration, job.CompletedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update job: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit update: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Expired returns terminal jobs whose completion predates the cutoff.
func (s *PostgresStore) Expired(ctx context.Context, cutoff time.Time) ([]Job, error) {
	rows, err := s.pool.Query(ctx,
		selectJobSQL+` WHERE status IN ($1,$2) AND completed_at IS NOT NULL AND completed_at < $3`,
		StatusDone, StatusError, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query expired jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

const selectJobSQL = `SELECT id, status, progress, message, input_path, output_path,
	archive_key, archive_provider, duration, created_at, completed_at FROM jobs`

type row interface {
	Scan(dest ...any) error
}

func scanJob(r row) (*Job, error) {
	var job Job
	err := r.Scan(&job.ID, &job.Status, &job.Progress, &job.Message,
		&job.InputPath, &job.OutputPath, &job.ArchiveKey, &job.ArchiveProvider,
		&job.Duration, &job.CreatedAt, &job.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &job, nil
}

// isUniqueViolation reports a PostgreSQL unique constraint violation.
// 23505 = unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var (
	_ Store     = (*PostgresStore)(nil)
	_ Sweepable = (*PostgresStore)(nil)
)
