package db

import (
	"context"
	"database/sql"
	"time"
)

const jobColumns = `id, user_id, type, payload, status, attempt_count, max_attempts, last_error, run_at, created_at, updated_at`

func scanJob(row rowScanner) (Job, error) {
	var i Job
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Type,
		&i.Payload,
		&i.Status,
		&i.AttemptCount,
		&i.MaxAttempts,
		&i.LastError,
		&i.RunAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createJob = `-- name: CreateJob :execlastid
INSERT INTO jobs (user_id, type, payload, run_at) VALUES (?, ?, ?, ?)`

type CreateJobParams struct {
	UserID  sql.NullInt64
	Type    string
	Payload []byte
	RunAt   time.Time
}

func (q *Queries) CreateJob(ctx context.Context, arg CreateJobParams) (int64, error) {
	runAt := arg.RunAt
	if runAt.IsZero() {
		runAt = time.Now()
	}
	res, err := q.db.ExecContext(ctx, createJob, arg.UserID, arg.Type, arg.Payload, Timestamp(runAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getJob = `-- name: GetJob :one
SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`

func (q *Queries) GetJob(ctx context.Context, id int64) (Job, error) {
	return scanJob(q.db.QueryRowContext(ctx, getJob, id))
}

const pickNextJob = `-- name: PickNextJob :one
UPDATE jobs
SET status = 'processing', attempt_count = attempt_count + 1, updated_at = ?1
WHERE id = (
    SELECT id FROM jobs
    WHERE status = 'pending' AND run_at <= ?1
    ORDER BY run_at ASC, id ASC LIMIT 1
)
RETURNING id`

// PickNextJob marca o próximo job vencido como 'processing' num único UPDATE,
// então dois pollers nunca pegam o mesmo job.
func (q *Queries) PickNextJob(ctx context.Context, now time.Time) (Job, error) {
	var id int64
	if err := q.db.QueryRowContext(ctx, pickNextJob, Timestamp(now)).Scan(&id); err != nil {
		return Job{}, err
	}
	return q.GetJob(ctx, id)
}

const completeJob = `-- name: CompleteJob :exec
UPDATE jobs SET status = 'completed', updated_at = ? WHERE id = ?`

func (q *Queries) CompleteJob(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, completeJob, Timestamp(time.Now()), id)
	return err
}

const retryJob = `-- name: RetryJob :exec
UPDATE jobs SET status = 'pending', last_error = ?, run_at = ?, updated_at = ? WHERE id = ?`

type RetryJobParams struct {
	LastError sql.NullString
	RunAt     time.Time
	ID        int64
}

func (q *Queries) RetryJob(ctx context.Context, arg RetryJobParams) error {
	_, err := q.db.ExecContext(ctx, retryJob, arg.LastError, Timestamp(arg.RunAt), Timestamp(time.Now()), arg.ID)
	return err
}

const failJob = `-- name: FailJob :exec
UPDATE jobs SET status = 'failed', last_error = ?, updated_at = ? WHERE id = ?`

type FailJobParams struct {
	LastError sql.NullString
	ID        int64
}

func (q *Queries) FailJob(ctx context.Context, arg FailJobParams) error {
	_, err := q.db.ExecContext(ctx, failJob, arg.LastError, Timestamp(time.Now()), arg.ID)
	return err
}

const deleteJob = `-- name: DeleteJob :exec
DELETE FROM jobs WHERE id = ?`

func (q *Queries) DeleteJob(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteJob, id)
	return err
}

const rescueZombies = `-- name: RescueZombies :execrows
UPDATE jobs SET status = 'pending', updated_at = ? WHERE status = 'processing'`

func (q *Queries) RescueZombies(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, rescueZombies, Timestamp(time.Now()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countJobsByStatus = `-- name: CountJobsByStatus :one
SELECT COUNT(*) FROM jobs WHERE status = ?`

func (q *Queries) CountJobsByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countJobsByStatus, status).Scan(&count)
	return count, err
}

const isJobProcessed = `-- name: IsJobProcessed :one
SELECT EXISTS(SELECT 1 FROM processed_jobs WHERE job_id = ?)`

func (q *Queries) IsJobProcessed(ctx context.Context, jobID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, isJobProcessed, jobID).Scan(&exists)
	return exists, err
}

const recordJobProcessed = `-- name: RecordJobProcessed :exec
INSERT OR IGNORE INTO processed_jobs (job_id, processed_at) VALUES (?, ?)`

func (q *Queries) RecordJobProcessed(ctx context.Context, jobID int64) error {
	_, err := q.db.ExecContext(ctx, recordJobProcessed, jobID, Timestamp(time.Now()))
	return err
}

const moveToDeadLetter = `-- name: MoveToDeadLetter :exec
INSERT INTO dead_letter_jobs (original_job_id, user_id, type, payload, attempt_count, last_error, failed_at)
SELECT id, user_id, type, payload, attempt_count, ?, ? FROM jobs WHERE id = ?`

func (q *Queries) MoveToDeadLetter(ctx context.Context, jobID int64, lastError sql.NullString) error {
	_, err := q.db.ExecContext(ctx, moveToDeadLetter, lastError, Timestamp(time.Now()), jobID)
	return err
}

const deadLetterColumns = `id, original_job_id, user_id, type, payload, attempt_count, last_error, failed_at`

func scanDeadLetter(row rowScanner) (DeadLetterJob, error) {
	var i DeadLetterJob
	err := row.Scan(
		&i.ID,
		&i.OriginalJobID,
		&i.UserID,
		&i.Type,
		&i.Payload,
		&i.AttemptCount,
		&i.LastError,
		&i.FailedAt,
	)
	return i, err
}

const getDeadLetterJob = `-- name: GetDeadLetterJob :one
SELECT ` + deadLetterColumns + ` FROM dead_letter_jobs WHERE id = ?`

func (q *Queries) GetDeadLetterJob(ctx context.Context, id int64) (DeadLetterJob, error) {
	return scanDeadLetter(q.db.QueryRowContext(ctx, getDeadLetterJob, id))
}

const listDeadLetterJobs = `-- name: ListDeadLetterJobs :many
SELECT ` + deadLetterColumns + ` FROM dead_letter_jobs ORDER BY failed_at DESC, id DESC LIMIT ?`

func (q *Queries) ListDeadLetterJobs(ctx context.Context, limit int64) ([]DeadLetterJob, error) {
	rows, err := q.db.QueryContext(ctx, listDeadLetterJobs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DeadLetterJob
	for rows.Next() {
		i, err := scanDeadLetter(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countDeadLetterJobs = `-- name: CountDeadLetterJobs :one
SELECT COUNT(*) FROM dead_letter_jobs`

func (q *Queries) CountDeadLetterJobs(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countDeadLetterJobs).Scan(&count)
	return count, err
}

const countDeadLetterJobsByType = `-- name: CountDeadLetterJobsByType :one
SELECT COUNT(*) FROM dead_letter_jobs WHERE type = ?`

func (q *Queries) CountDeadLetterJobsByType(ctx context.Context, jobType string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countDeadLetterJobsByType, jobType).Scan(&count)
	return count, err
}

const deleteDeadLetterJob = `-- name: DeleteDeadLetterJob :exec
DELETE FROM dead_letter_jobs WHERE id = ?`

func (q *Queries) DeleteDeadLetterJob(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteDeadLetterJob, id)
	return err
}

const cleanupDeadLetterJobs = `-- name: CleanupDeadLetterJobs :execrows
DELETE FROM dead_letter_jobs WHERE failed_at < ?`

func (q *Queries) CleanupDeadLetterJobs(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, cleanupDeadLetterJobs, Timestamp(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
