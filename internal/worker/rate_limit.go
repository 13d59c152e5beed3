package worker

import (
	"context"
	"errors"
	"time"

	"github.com/PauloHFS/hcportal/internal/jobs"
	"github.com/PauloHFS/hcportal/internal/mailer"
	"golang.org/x/time/rate"
)

type JobRateConfig struct {
	Concurrency int
	Rate        rate.Limit
	Burst       int
}

// Os tipos de email dividem a cota do provedor; por isso a vazão é baixa.
var DefaultJobRateConfigs = map[string]JobRateConfig{
	jobs.TypeSendVerificationEmail:  {Concurrency: 5, Rate: 2, Burst: 5},
	jobs.TypeSendPasswordResetEmail: {Concurrency: 5, Rate: 2, Burst: 5},
	jobs.TypeSendShiftConfirmation:  {Concurrency: 5, Rate: 2, Burst: 5},
	jobs.TypeSendShiftReminder:      {Concurrency: 5, Rate: 2, Burst: 5},
	jobs.TypeProcessWebhook:         {Concurrency: 10, Rate: 5, Burst: 10},
}

const defaultLimiterKey = "default"

var fallbackJobRate = JobRateConfig{Concurrency: 5, Rate: 1, Burst: 5}

type lane struct {
	slots   chan struct{}
	limiter *rate.Limiter
}

func newLane(cfg JobRateConfig) lane {
	return lane{
		slots:   make(chan struct{}, max(cfg.Concurrency, 1)),
		limiter: rate.NewLimiter(cfg.Rate, cfg.Burst),
	}
}

// JobRateLimiter limita vazão e concorrência por tipo de job. Tipos sem
// configuração dividem a faixa default. O mapa não muda depois do New.
type JobRateLimiter struct {
	lanes map[string]lane
}

func NewJobRateLimiter(configs map[string]JobRateConfig) *JobRateLimiter {
	lanes := make(map[string]lane, len(configs)+1)
	for jobType, cfg := range configs {
		lanes[jobType] = newLane(cfg)
	}
	if _, ok := lanes[defaultLimiterKey]; !ok {
		lanes[defaultLimiterKey] = newLane(fallbackJobRate)
	}
	return &JobRateLimiter{lanes: lanes}
}

func (jrl *JobRateLimiter) lane(jobType string) lane {
	if l, ok := jrl.lanes[jobType]; ok {
		return l
	}
	return jrl.lanes[defaultLimiterKey]
}

// Acquire espera a vez na taxa e depois uma vaga de concorrência.
func (jrl *JobRateLimiter) Acquire(ctx context.Context, jobType string) error {
	l := jrl.lane(jobType)
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}

	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (jrl *JobRateLimiter) Release(jobType string) {
	select {
	case <-jrl.lane(jobType).slots:
	default:
	}
}

type LimiterStats struct {
	Concurrency int
	InUse       int
	Rate        float64
}

func (jrl *JobRateLimiter) Stats() map[string]LimiterStats {
	stats := make(map[string]LimiterStats, len(jrl.lanes))
	for jobType, l := range jrl.lanes {
		stats[jobType] = LimiterStats{
			Concurrency: cap(l.slots),
			InUse:       len(l.slots),
			Rate:        float64(l.limiter.Limit()),
		}
	}
	return stats
}

// externalRateLimitDelay é quanto esperar quando o provedor devolve 429 sem
// Retry-After.
const externalRateLimitDelay = time.Minute

// RetryAfter devolve o atraso mínimo pedido pelo provedor externo, ou zero
// quando o erro não é de rate limit.
func RetryAfter(err error) time.Duration {
	var rl *mailer.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	if errors.Is(err, mailer.ErrRateLimited) {
		return externalRateLimitDelay
	}
	return 0
}
