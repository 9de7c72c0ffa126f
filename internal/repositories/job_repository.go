package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zoomclip/internal/httpkit"
	"zoomclip/internal/models"
	"zoomclip/internal/pkg/errors"
)

// MaxErrorText caps error_text so a runaway encoder log cannot bloat a row.
const MaxErrorText = 2000

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

const schema = `
CREATE TABLE IF NOT EXISTS render_jobs (
	id              TEXT PRIMARY KEY,
	status          TEXT NOT NULL,
	params_json     JSONB NOT NULL,
	output_key      TEXT,
	thumb_key       TEXT,
	output_provider TEXT,
	error_code      TEXT,
	error_text      TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at      TIMESTAMPTZ,
	finished_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS render_jobs_status_created_idx ON render_jobs (status, created_at DESC);
`

const jobColumns = `id, status, params_json, COALESCE(output_key,''), COALESCE(thumb_key,''),
	COALESCE(output_provider,''), COALESCE(error_code,''), COALESCE(error_text,''),
	created_at, started_at, finished_at`

type JobRepository struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: db}
}

// EnsureSchema creates render_jobs if it does not exist.
func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "jobs.ensure_schema", "create render_jobs")
	}
	return nil
}

// Create inserts j as QUEUED and fills CreatedAt.
func (r *JobRepository) Create(ctx context.Context, j *models.Job) error {
	j.Status = models.JobQueued
	err := r.db.QueryRow(ctx, `
		INSERT INTO render_jobs (id, status, params_json)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, j.ID, string(j.Status), j.Params).Scan(&j.CreatedAt)

	if err != nil {
		if httpkit.IsUniqueViolation(err) {
			return errors.Newf(errors.CodeConflict, "job %s already exists", j.ID).WithField("job_id", j.ID)
		}
		return errors.Wrap(err, "jobs.create", "insert job")
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	j, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM render_jobs WHERE id=$1`, id))
	if err != nil {
		if httpkit.IsNoRows(err) {
			return nil, errors.NotFound("job", id)
		}
		return nil, errors.Wrap(err, "jobs.get", "select job")
	}
	return j, nil
}

// List returns the newest jobs first, optionally filtered by status.
func (r *JobRepository) List(ctx context.Context, status models.JobStatus, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+jobColumns+`
		FROM render_jobs
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, string(status), limit)
	if err != nil {
		return nil, errors.Wrap(err, "jobs.list", "select jobs")
	}
	defer rows.Close()

	out := make([]models.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, "jobs.list", "scan job")
		}
		out = append(out, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "jobs.list", "iterate jobs")
	}
	return out, nil
}

// MarkRunning moves a QUEUED job to RUNNING. A job that is already running
// (redelivered after a worker crash) is restarted.
func (r *JobRepository) MarkRunning(ctx context.Context, id string) error {
	return r.transition(ctx, "jobs.mark_running", id, `
		UPDATE render_jobs
		SET status=$2, started_at=now(), error_code=NULL, error_text=NULL
		WHERE id=$1 AND status IN ('QUEUED','RUNNING')
	`, string(models.JobRunning))
}

func (r *JobRepository) MarkDone(ctx context.Context, id string, out models.JobOutputs) error {
	return r.transition(ctx, "jobs.mark_done", id, `
		UPDATE render_jobs
		SET status=$2, output_key=$3, thumb_key=NULLIF($4,''), output_provider=$5, finished_at=now()
		WHERE id=$1 AND status='RUNNING'
	`, string(models.JobDone), out.OutputKey, out.ThumbKey, out.Provider)
}

// MarkFailed records a failure. text is truncated to MaxErrorText.
func (r *JobRepository) MarkFailed(ctx context.Context, id, code, text string) error {
	return r.transition(ctx, "jobs.mark_failed", id, `
		UPDATE render_jobs
		SET status=$2, error_code=$3, error_text=$4, finished_at=now()
		WHERE id=$1 AND status IN ('QUEUED','RUNNING')
	`, string(models.JobFailed), code, TruncateErrorText(text))
}

// Delete removes a job that never reached the queue. Only QUEUED rows are
// touched; a missing row is not an error.
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM render_jobs WHERE id=$1 AND status=$2`, id, string(models.JobQueued)); err != nil {
		return errors.Wrap(err, "jobs.delete", "delete job")
	}
	return nil
}

// Ping checks that the table is reachable.
func (r *JobRepository) Ping(ctx context.Context) error {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM (SELECT 1 FROM render_jobs LIMIT 1) t`).Scan(&n); err != nil {
		if httpkit.IsUndefinedTable(err) {
			return errors.New(errors.CodeUnavailable, "render_jobs table missing")
		}
		return errors.WrapWithCode(err, errors.CodeUnavailable, "jobs.ping", "database unavailable")
	}
	return nil
}

func (r *JobRepository) transition(ctx context.Context, op, id, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, append([]any{id}, args...)...)
	if err != nil {
		return errors.Wrap(err, op, "update job")
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return errors.Newf(errors.CodeFailedPrecond, "job %s cannot move to %s", id, args[0]).WithField("job_id", id).WithOp(op)
	}
	return nil
}

// TruncateErrorText cuts s to MaxErrorText bytes without splitting a rune.
func TruncateErrorText(s string) string {
	if len(s) <= MaxErrorText {
		return s
	}
	cut := MaxErrorText
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }

func scanJob(row pgx.Row) (*models.Job, error) {
	var (
		j          models.Job
		started    *time.Time
		finished   *time.Time
		statusText string
	)
	err := row.Scan(
		&j.ID,
		&statusText,
		&j.Params,
		&j.OutputKey,
		&j.ThumbKey,
		&j.OutputProvider,
		&j.ErrorCode,
		&j.ErrorText,
		&j.CreatedAt,
		&started,
		&finished,
	)
	if err != nil {
		return nil, err
	}
	j.Status = models.JobStatus(statusText)
	j.StartedAt = started
	j.FinishedAt = finished
	return &j, nil
}
