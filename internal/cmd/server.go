package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	_ "github.com/PauloHFS/hcportal/docs"
	"github.com/PauloHFS/hcportal/internal/catalog"
	"github.com/PauloHFS/hcportal/internal/config"
	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/sse"
	"github.com/PauloHFS/hcportal/internal/storage"
	"github.com/PauloHFS/hcportal/internal/telemetry"
	"github.com/PauloHFS/hcportal/internal/web"
	"github.com/PauloHFS/hcportal/internal/worker"
)

const sessionLifetime = 7 * 24 * time.Hour

// @title hcportal API
// @version 1.0
// @description Endpoints de máquina do portal de profissionais: webhooks de turnos, health e métricas.
// @host localhost:8080
// @BasePath /
func RunServer(assetsFS fs.FS) {
	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config", err)
	}

	logging.Init()
	logger := logging.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx)
	if err != nil {
		fatal("failed to init tracing", err)
	}

	// 1. DB: pool de escrita com uma conexão, leituras do painel no outro
	driver, err := tracedDriver()
	if err != nil {
		fatal("failed to init database driver", err)
	}
	pool, err := db.NewDualPool(driver, cfg.DatabaseURL, db.WithSQLite(cfg.SQLite))
	if err != nil {
		fatal("failed to open database", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool.Write); err != nil {
		fatal("failed to run migrations", err)
	}

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.New(pool.Write)
	sessionManager.Lifetime = sessionLifetime
	sessionManager.Cookie.Name = "hcportal_session"
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.IsProd()

	// 2. Catálogo de idiomas e softwares
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			fatal("failed to load catalog", err)
		}
		if err := cat.Watch(ctx); err != nil {
			logger.Warn("catalog watcher disabled", slog.String("error", err.Error()))
		}
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		fatal("failed to init storage", err)
	}

	broker := sse.NewBroker()

	// 3. Worker
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	proc := worker.New(cfg, pool.Write, db.New(pool.Write), logger, worker.WithNotifier(broker))
	if n, err := proc.RescueZombies(workerCtx); err != nil {
		logger.Error("zombie hunter failed", slog.String("error", err.Error()))
	} else if n > 0 {
		logger.Warn("zombie jobs rescued", slog.Int64("count", n))
	}
	go proc.Start(workerCtx)

	// 4. HTTP
	deps, err := web.NewDeps(cfg, pool.Write, sessionManager, cat, store, broker, proc)
	if err != nil {
		fatal("failed to build handlers", err)
	}
	deps.Reader = pool.Reader()
	go deps.RateLimiter.Cleanup(ctx)

	handler, err := web.NewRouter(deps, assetsFS)
	if err != nil {
		fatal("failed to build router", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Info("server started",
			slog.String("port", cfg.Port),
			slog.String("env", cfg.Env),
			slog.String("storage", cfg.Storage.Driver),
			slog.Bool("google_oauth", cfg.GoogleEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping")

	// streams SSE seguram o Shutdown até fecharem
	broker.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	cancelWorker()
	proc.Wait()

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", slog.String("error", err.Error()))
	}

	logger.Info("server exited properly")
}
