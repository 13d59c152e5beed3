package worker

import (
	"context"
	"log/slog"
)

// RescueZombies devolve para 'pending' os jobs que ficaram em 'processing'
// depois de um crash ou restart.
func (p *Processor) RescueZombies(ctx context.Context) (int64, error) {
	n, err := p.queries.RescueZombies(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "zombie hunter: failed to rescue jobs", slog.String("error", err.Error()))
		return 0, err
	}
	if n > 0 {
		p.logger.WarnContext(ctx, "zombie hunter: rescued stuck jobs", slog.Int64("count", n))
	}
	return n, nil
}
