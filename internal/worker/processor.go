package worker

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/PauloHFS/hcportal/internal/config"
	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/jobs"
	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/mailer"
	"github.com/PauloHFS/hcportal/internal/metrics"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/services"
	"github.com/PauloHFS/hcportal/internal/sse"
	"github.com/PauloHFS/hcportal/internal/telemetry"
	"github.com/PauloHFS/hcportal/internal/validator"
	"github.com/PauloHFS/hcportal/internal/view/pages"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	pollInterval  = time.Second
	sweepInterval = time.Minute
	// maxBatch limita quantos jobs um único tick drena.
	maxBatch = 50
)

var jobStatuses = []string{"pending", "processing", "completed", "failed"}

// Notifier entrega fragmentos HTML para as abas abertas de um usuário.
type Notifier interface {
	SendHTML(userID int64, eventType, html string) int
}

type Option func(*Processor)

func WithMailer(s mailer.Sender) Option {
	return func(p *Processor) { p.mailer = s }
}

func WithNotifier(n Notifier) Option {
	return func(p *Processor) { p.notifier = n }
}

func WithRateLimiter(l *JobRateLimiter) Option {
	return func(p *Processor) { p.limiter = l }
}

type Processor struct {
	db       *sql.DB
	queries  *db.Queries
	logger   *slog.Logger
	mailer   mailer.Sender
	notifier Notifier
	shifts   *services.ShiftService
	limiter  *JobRateLimiter
	dlq      *DeadLetterQueue
	baseURL  string
	backoff  BackoffConfig
	now      func() time.Time
	wg       sync.WaitGroup
}

func New(cfg *config.Config, dbConn *sql.DB, q *db.Queries, l *slog.Logger, opts ...Option) *Processor {
	p := &Processor{
		db:      dbConn,
		queries: q,
		logger:  l,
		shifts:  services.NewShiftService(dbConn, q),
		dlq:     NewDeadLetterQueue(q, dbConn, l),
		baseURL: cfg.BaseURL,
		backoff: DefaultBackoffConfig,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.mailer == nil {
		p.mailer = mailer.New(cfg)
	}
	if p.limiter == nil {
		p.limiter = NewJobRateLimiter(DefaultJobRateConfigs)
	}
	return p
}

// DeadLetters expõe a DLQ para a área administrativa.
func (p *Processor) DeadLetters() *DeadLetterQueue {
	return p.dlq
}

func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("worker started")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker signal received: waiting for active jobs to finish")
			return
		case <-ticker.C:
			p.drain(ctx)
		case <-sweep.C:
			p.sweep(ctx)
		}
	}
}

// Wait blocks until all active jobs are finished
func (p *Processor) Wait() {
	p.wg.Wait()
}

func (p *Processor) drain(ctx context.Context) {
	for range maxBatch {
		if ctx.Err() != nil || !p.processNext(ctx) {
			return
		}
	}
}

// processNext devolve false quando a fila não tem job vencido.
func (p *Processor) processNext(ctx context.Context) bool {
	p.wg.Add(1)
	defer p.wg.Done()

	job, err := p.queries.PickNextJob(ctx, p.now())
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to pick next job", slog.String("error", err.Error()))
		return false
	}

	p.run(ctx, job)
	return true
}

func (p *Processor) run(ctx context.Context, job db.Job) {
	start := time.Now()

	ctx, event := logging.NewEventContext(ctx)
	event.Add(
		slog.Int64("job_id", job.ID),
		slog.String("job_type", job.Type),
		slog.Int64("attempt", job.AttemptCount),
	)

	ctx, span := telemetry.Tracer().Start(ctx, "job "+job.Type,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.Int64("job.id", job.ID),
			attribute.String("job.type", job.Type),
			attribute.Int64("job.attempt", job.AttemptCount),
		),
	)
	defer span.End()

	// Idempotência: um job já registrado em processed_jobs só sincroniza o status
	processed, err := p.queries.IsJobProcessed(ctx, job.ID)
	if err == nil && processed {
		_ = p.queries.CompleteJob(ctx, job.ID)
		p.logger.InfoContext(ctx, "job already processed, skipping", event.Attrs()...)
		return
	}

	if err := p.limiter.Acquire(ctx, job.Type); err != nil {
		p.fail(ctx, job, fmt.Errorf("rate limiter: %w", err), start)
		return
	}
	errProcessing := p.handle(ctx, job)
	p.limiter.Release(job.Type)

	if errProcessing != nil {
		span.RecordError(errProcessing)
		span.SetStatus(codes.Error, errProcessing.Error())
		p.fail(ctx, job, errProcessing, start)
		return
	}

	if err := p.complete(ctx, job); err != nil {
		p.logger.ErrorContext(ctx, "failed to complete job", append(event.Attrs(), slog.String("error", err.Error()))...)
		return
	}

	duration := time.Since(start)
	metrics.JobDuration.WithLabelValues(job.Type, "success").Observe(duration.Seconds())
	metrics.JobsProcessed.WithLabelValues(job.Type, "success").Inc()
	event.Add(slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6))

	p.logger.InfoContext(ctx, "job completed", event.Attrs()...)
}

// complete registra o job como processado e o conclui na mesma transação.
func (p *Processor) complete(ctx context.Context, job db.Job) error {
	ctx = context.WithoutCancel(ctx)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	qtx := p.queries.WithTx(tx)
	if err := qtx.RecordJobProcessed(ctx, job.ID); err != nil {
		return err
	}
	if err := qtx.CompleteJob(ctx, job.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// fail reagenda o job com backoff ou o move para a DLQ quando o erro é
// permanente ou as tentativas acabaram.
func (p *Processor) fail(ctx context.Context, job db.Job, jobErr error, start time.Time) {
	attrs := logging.EventFromContext(ctx).Attrs()
	attrs = append(attrs, slog.String("error", jobErr.Error()))
	ctx = context.WithoutCancel(ctx)

	metrics.JobDuration.WithLabelValues(job.Type, "failed").Observe(time.Since(start).Seconds())

	if IsPermanent(jobErr) || p.dlq.ShouldMoveToDLQ(job) {
		if err := p.dlq.Move(ctx, job, jobErr); err != nil {
			p.logger.ErrorContext(ctx, "failed to move job to dead letter queue", slog.Int64("job_id", job.ID), slog.String("error", err.Error()))
			_ = p.queries.FailJob(ctx, db.FailJobParams{
				LastError: sql.NullString{String: jobErr.Error(), Valid: true},
				ID:        job.ID,
			})
		}
		metrics.JobsProcessed.WithLabelValues(job.Type, "dead_letter").Inc()
		return
	}

	delay := EqualJitter(int(job.AttemptCount), p.backoff)
	if retryAfter := RetryAfter(jobErr); retryAfter > delay {
		delay = retryAfter
	}

	if err := p.queries.RetryJob(ctx, db.RetryJobParams{
		LastError: sql.NullString{String: jobErr.Error(), Valid: true},
		RunAt:     p.now().Add(delay),
		ID:        job.ID,
	}); err != nil {
		p.logger.ErrorContext(ctx, "failed to reschedule job", slog.Int64("job_id", job.ID), slog.String("error", err.Error()))
		return
	}

	metrics.JobRetries.WithLabelValues(job.Type).Inc()
	metrics.JobsProcessed.WithLabelValues(job.Type, "retry").Inc()
	p.logger.WarnContext(ctx, "job failed, retrying", append(attrs, slog.Duration("retry_in", delay))...)
}

func (p *Processor) handle(ctx context.Context, job db.Job) error {
	err := p.dispatch(ctx, job)
	// endereço recusado pelo provedor não melhora com retry
	if errors.Is(err, mailer.ErrRejected) && !IsPermanent(err) {
		return Permanent(err)
	}
	return err
}

func (p *Processor) dispatch(ctx context.Context, job db.Job) error {
	switch job.Type {
	case jobs.TypeSendVerificationEmail:
		return p.handleSendVerificationEmail(ctx, job.Payload)
	case jobs.TypeSendPasswordResetEmail:
		return p.handleSendPasswordResetEmail(ctx, job.Payload)
	case jobs.TypeSendShiftConfirmation:
		return p.handleSendShiftConfirmation(ctx, job.Payload)
	case jobs.TypeSendShiftReminder:
		return p.handleSendShiftReminder(ctx, job.Payload)
	case jobs.TypeProcessWebhook:
		return p.handleProcessWebhook(ctx, job.Payload)
	default:
		return Permanent(fmt.Errorf("unknown job type %q", job.Type))
	}
}

func decode[T any](payload []byte) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, Permanent(fmt.Errorf("invalid payload: %w", err))
	}
	return v, nil
}

func (p *Processor) link(path string, query url.Values) string {
	if len(query) == 0 {
		return p.baseURL + path
	}
	return p.baseURL + path + "?" + query.Encode()
}

func (p *Processor) handleSendVerificationEmail(ctx context.Context, payload []byte) error {
	data, err := decode[jobs.EmailTokenPayload](payload)
	if err != nil {
		return err
	}

	link := p.link(routes.VerifyEmail, url.Values{"token": {data.Token}})
	return mailer.SendComponent(ctx, p.mailer, data.Email, "Verify your email", pages.VerificationEmail(link))
}

func (p *Processor) handleSendPasswordResetEmail(ctx context.Context, payload []byte) error {
	data, err := decode[jobs.EmailTokenPayload](payload)
	if err != nil {
		return err
	}

	link := p.link(routes.ResetPassword, url.Values{"token": {data.Token}})
	return mailer.SendComponent(ctx, p.mailer, data.Email, "Reset your password", pages.PasswordResetEmail(link))
}

func (p *Processor) handleSendShiftConfirmation(ctx context.Context, payload []byte) error {
	data, err := decode[jobs.ShiftConfirmationPayload](payload)
	if err != nil {
		return err
	}

	shift, err := p.queries.GetShift(ctx, data.ShiftID)
	if errors.Is(err, sql.ErrNoRows) {
		return Permanent(fmt.Errorf("shift %d no longer exists", data.ShiftID))
	}
	if err != nil {
		return fmt.Errorf("failed to load shift: %w", err)
	}

	user, err := p.queries.GetUserByID(ctx, shift.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return Permanent(fmt.Errorf("user %d no longer exists", shift.UserID))
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	// Preferência pode ter mudado entre o aceite e o envio
	if !user.EmailNotifications {
		logging.AddToEvent(ctx, slog.Bool("skipped", true))
		return nil
	}

	return mailer.SendComponent(ctx, p.mailer, user.Email, "Shift confirmed", pages.ShiftConfirmationEmail(shift, p.link(routes.MyShifts, nil)))
}

func (p *Processor) handleSendShiftReminder(ctx context.Context, payload []byte) error {
	data, err := decode[jobs.ShiftReminderPayload](payload)
	if err != nil {
		return err
	}

	shift, err := p.queries.GetShift(ctx, data.ShiftID)
	if errors.Is(err, sql.ErrNoRows) {
		return Permanent(fmt.Errorf("shift %d no longer exists", data.ShiftID))
	}
	if err != nil {
		return fmt.Errorf("failed to load shift: %w", err)
	}
	// cancelado depois do claim
	if shift.Status != db.ShiftAccepted {
		logging.AddToEvent(ctx, slog.Bool("skipped", true), slog.String("shift_status", shift.Status))
		return nil
	}

	user, err := p.queries.GetUserByID(ctx, shift.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return Permanent(fmt.Errorf("user %d no longer exists", shift.UserID))
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.ShiftReminders {
		logging.AddToEvent(ctx, slog.Bool("skipped", true))
		return nil
	}

	return mailer.SendComponent(ctx, p.mailer, user.Email, "Shift reminder", pages.ShiftReminderEmail(shift, p.link(routes.MyShifts, nil)))
}

func (p *Processor) handleProcessWebhook(ctx context.Context, payload []byte) error {
	data, err := decode[jobs.WebhookPayload](payload)
	if err != nil {
		return err
	}

	wh, err := p.queries.GetWebhook(ctx, data.WebhookID)
	if errors.Is(err, sql.ErrNoRows) {
		return Permanent(fmt.Errorf("webhook %d not found", data.WebhookID))
	}
	if err != nil {
		return fmt.Errorf("failed to load webhook: %w", err)
	}

	offer, err := decode[services.ShiftOffer](wh.Payload)
	if err != nil {
		return err
	}

	shift, created, err := p.shifts.ImportOffer(ctx, wh.Source, offer)
	var fieldErrs validator.FieldErrors
	if errors.Is(err, services.ErrProfessionalNotFound) || errors.As(err, &fieldErrs) {
		return Permanent(err)
	}
	if err != nil {
		return err
	}

	logging.AddToEvent(ctx,
		slog.Int64("webhook_id", wh.ID),
		slog.String("source", wh.Source),
		slog.Bool("created", created),
	)
	if !created || p.notifier == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := pages.ShiftOfferedNotice(shift).Render(ctx, &buf); err != nil {
		return fmt.Errorf("failed to render shift notice: %w", err)
	}
	delivered := p.notifier.SendHTML(shift.UserID, sse.EventShiftOffered, buf.String())
	logging.AddToEvent(ctx, slog.Int("sse_delivered", delivered))
	return nil
}

// sweep conclui turnos aceitos que já terminaram, enfileira lembretes e poda
// a DLQ.
func (p *Processor) sweep(ctx context.Context) {
	if n, err := p.shifts.CompletePast(ctx); err != nil {
		p.logger.ErrorContext(ctx, "shift sweep failed", slog.String("error", err.Error()))
	} else if n > 0 {
		p.logger.InfoContext(ctx, "shifts completed", slog.Int64("count", n))
	}

	if n, err := p.shifts.QueueReminders(ctx); err != nil {
		p.logger.ErrorContext(ctx, "shift reminders failed", slog.String("error", err.Error()))
	} else if n > 0 {
		p.logger.InfoContext(ctx, "shift reminders queued", slog.Int("count", n))
	}

	if n, err := p.dlq.Cleanup(ctx); err != nil {
		p.logger.ErrorContext(ctx, "dead letter cleanup failed", slog.String("error", err.Error()))
	} else if n > 0 {
		p.logger.InfoContext(ctx, "dead letters pruned", slog.Int64("count", n))
	}
}

type Stats struct {
	Jobs        map[string]int64
	DeadLetters map[string]int64
	Limiters    map[string]LimiterStats
}

func (p *Processor) Stats(ctx context.Context) (Stats, error) {
	jobCounts := make(map[string]int64, len(jobStatuses))
	for _, status := range jobStatuses {
		n, err := p.queries.CountJobsByStatus(ctx, status)
		if err != nil {
			return Stats{}, fmt.Errorf("failed to count %s jobs: %w", status, err)
		}
		jobCounts[status] = n
	}

	dead, err := p.dlq.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count dead letters: %w", err)
	}

	return Stats{
		Jobs:        jobCounts,
		DeadLetters: dead,
		Limiters:    p.limiter.Stats(),
	}, nil
}
