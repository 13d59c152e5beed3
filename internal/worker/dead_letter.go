package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/jobs"
	"github.com/PauloHFS/hcportal/internal/metrics"
)

const (
	MaxJobAttempts = 5
	DLQRetention   = 14 * 24 * time.Hour
	// MaxJobAge manda para a DLQ jobs que ficaram reagendando por mais de um dia.
	MaxJobAge = 24 * time.Hour
)

var ErrDeadLetterNotFound = errors.New("dead letter job not found")

type DeadLetterQueue struct {
	queries *db.Queries
	db      *sql.DB
	logger  *slog.Logger
	now     func() time.Time
}

func NewDeadLetterQueue(queries *db.Queries, db *sql.DB, logger *slog.Logger) *DeadLetterQueue {
	return &DeadLetterQueue{
		queries: queries,
		db:      db,
		logger:  logger,
		now:     time.Now,
	}
}

func (dlq *DeadLetterQueue) ShouldMoveToDLQ(job db.Job) bool {
	limit := job.MaxAttempts
	if limit <= 0 || limit > MaxJobAttempts {
		limit = MaxJobAttempts
	}
	if job.AttemptCount >= limit {
		return true
	}

	return dlq.now().Sub(job.CreatedAt) > MaxJobAge
}

// Move copia o job para dead_letter_jobs e apaga a linha original na mesma
// transação.
func (dlq *DeadLetterQueue) Move(ctx context.Context, job db.Job, lastErr error) error {
	tx, err := dlq.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	qtx := dlq.queries.WithTx(tx)

	if err := qtx.MoveToDeadLetter(ctx, job.ID, sql.NullString{String: lastErr.Error(), Valid: true}); err != nil {
		return fmt.Errorf("failed to copy job to dead letter queue: %w", err)
	}

	if err := qtx.DeleteJob(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to delete dead job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	metrics.JobsDeadLetter.WithLabelValues(job.Type).Inc()

	dlq.logger.ErrorContext(ctx, "job moved to dead letter queue",
		slog.Int64("job_id", job.ID),
		slog.String("type", job.Type),
		slog.Int64("attempts", job.AttemptCount),
		slog.String("error", lastErr.Error()),
	)

	return nil
}

// Reprocess recria o job a partir da entrada da DLQ com as tentativas zeradas.
func (dlq *DeadLetterQueue) Reprocess(ctx context.Context, dlqJobID int64) (int64, error) {
	tx, err := dlq.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	qtx := dlq.queries.WithTx(tx)

	dead, err := qtx.GetDeadLetterJob(ctx, dlqJobID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDeadLetterNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load dead letter job: %w", err)
	}

	jobID, err := qtx.CreateJob(ctx, db.CreateJobParams{
		UserID:  dead.UserID,
		Type:    dead.Type,
		Payload: dead.Payload,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to recreate job: %w", err)
	}

	if err := qtx.DeleteDeadLetterJob(ctx, dlqJobID); err != nil {
		return 0, fmt.Errorf("failed to delete dead letter job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	dlq.logger.InfoContext(ctx, "job reprocessed from DLQ",
		slog.Int64("dlq_id", dlqJobID),
		slog.Int64("new_job_id", jobID),
		slog.String("type", dead.Type),
	)

	return jobID, nil
}

func (dlq *DeadLetterQueue) List(ctx context.Context, limit int64) ([]db.DeadLetterJob, error) {
	return dlq.queries.ListDeadLetterJobs(ctx, limit)
}

func (dlq *DeadLetterQueue) Delete(ctx context.Context, id int64) error {
	return dlq.queries.DeleteDeadLetterJob(ctx, id)
}

// Cleanup apaga entradas mais antigas que DLQRetention.
func (dlq *DeadLetterQueue) Cleanup(ctx context.Context) (int64, error) {
	return dlq.queries.CleanupDeadLetterJobs(ctx, dlq.now().Add(-DLQRetention))
}

func (dlq *DeadLetterQueue) Stats(ctx context.Context) (map[string]int64, error) {
	total, err := dlq.queries.CountDeadLetterJobs(ctx)
	if err != nil {
		return nil, err
	}

	stats := map[string]int64{
		"total": total,
	}

	for _, jobType := range jobs.Types {
		count, err := dlq.queries.CountDeadLetterJobsByType(ctx, jobType)
		if err != nil {
			return nil, err
		}
		stats[jobType] = count
	}

	return stats, nil
}
