package ml

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchedOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watch reports changes to the bundle file until ctx is done. The loaded
// bundle is never replaced; a change only means the process is serving a
// stale model until it restarts. onChange may be nil.
func Watch(ctx context.Context, path string, logger *zap.Logger, onChange func(fsnotify.Op)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create artifact watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve artifact path: %w", err)
	}
	// Watch the directory so replace-by-rename is still seen.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	logger.Debug("watching model artifact", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			op := event.Op & watchedOps
			if op == 0 {
				continue
			}
			logger.Warn("model artifact changed on disk; restart to load it",
				zap.String("path", target),
				zap.String("op", op.String()))
			if onChange != nil {
				onChange(op)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}
