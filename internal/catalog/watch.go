package catalog

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/metrics"
	"github.com/fsnotify/fsnotify"
)

// Watch recarrega o catálogo quando o arquivo muda. Observa o diretório, não o
// arquivo, porque editores costumam substituir o arquivo inteiro.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		watcher.Close()
		return err
	}

	target := filepath.Clean(c.path)
	logger := logging.Get()

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if err := c.Reload(); err != nil {
					metrics.CatalogReloads.WithLabelValues("error").Inc()
					logger.Error("catalog reload failed", slog.String("path", c.path), slog.String("error", err.Error()))
					continue
				}
				metrics.CatalogReloads.WithLabelValues("success").Inc()
				logger.Info("catalog reloaded", slog.String("path", c.path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("catalog watcher error", slog.String("error", err.Error()))
			}
		}
	}()

	return nil
}
