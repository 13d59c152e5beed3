package web

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"syscall"

	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/middleware"
)

const (
	minFreeDiskBytes   = 100 * 1024 * 1024
	failedJobsWarning  = 50
	pendingJobsWarning = 1000
)

func handleHealth(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logger := logging.Get()

	// 1. Ping DB
	if err := deps.DB.PingContext(r.Context()); err != nil {
		logger.Error("health check failed: db unreachable", "error", err)
		http.Error(w, "Database unreachable", http.StatusServiceUnavailable)
		return nil
	}

	// 2. Fila de jobs
	failed, _ := deps.Queries.CountJobsByStatus(r.Context(), "failed")
	pending, _ := deps.Queries.CountJobsByStatus(r.Context(), "pending")
	if failed > failedJobsWarning || pending > pendingJobsWarning {
		logger.Warn("health check warning: job queue issues", "failed", failed, "pending", pending)
	}

	// 3. Disk Space Check
	var stat syscall.Statfs_t
	wd, _ := os.Getwd()
	if err := syscall.Statfs(wd, &stat); err == nil {
		free := stat.Bavail * uint64(stat.Bsize)
		if free < minFreeDiskBytes {
			logger.Error("health check failed: low disk space", "free_bytes", free)
			http.Error(w, "Low disk space", http.StatusServiceUnavailable)
			return nil
		}
	}

	logging.AddToEvent(r.Context(), slog.Int64("jobs_pending", pending), slog.Int64("jobs_failed", failed))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
	return nil
}

// sessionUserID resolve o dono do stream SSE a partir do usuário já
// carregado por RequireAuth.
func sessionUserID(ctx context.Context) int64 {
	user, ok := middleware.GetUser(ctx)
	if !ok {
		return 0
	}
	return user.ID
}
