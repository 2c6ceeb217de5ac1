package export

import (
	"context"
	"fmt"
	"mapshare/internal/logger"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher calls back when a single file settles after a burst of writes.
// The parent directory is watched so editors that replace the file via
// rename are still seen.
type Watcher struct {
	fw    *fsnotify.Watcher
	path  string
	delay time.Duration
}

func NewWatcher(path string, delay time.Duration) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("map file not found: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(absPath)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	return &Watcher{
		fw:    fw,
		path:  absPath,
		delay: delay,
	}, nil
}

// Close releases the watcher without running it. Run closes it itself.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

// Run blocks until ctx is done, calling onChange at most once per delay
// window after the file is written.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer func() {
		_ = w.fw.Close()
	}()

	logger.Log.Info("watching map file",
		zap.String("path", w.path))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Log.Info("watcher stopping")
			return nil

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != w.path {
				continue
			}

			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}

			logger.Log.Debug("map file changed",
				zap.String("op", ev.Op.String()))

			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}

			logger.Log.Error("watcher error",
				zap.Error(err))
		}
	}
}
