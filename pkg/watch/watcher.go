// Package watch re-triggers analysis when the log file is rewritten.
// Each change event means "run a fresh full-file pass"; the analyzer
// itself stays batch and never tails the file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/supporttools/klipper-doctor/pkg/logger"
)

// LogWatcher watches a log file for changes and emits debounced change
// events. Klipper appends stats lines every few seconds while printing;
// debouncing keeps a busy log from triggering an analysis per line.
type LogWatcher struct {
	logPath          string
	debounceInterval time.Duration
	watcher          *fsnotify.Watcher
	changeCh         chan struct{}
	mu               sync.Mutex
	running          bool
	stopCh           chan struct{}
}

// NewLogWatcher creates a watcher for the given log file.
func NewLogWatcher(logPath string, debounceInterval time.Duration) (*LogWatcher, error) {
	if logPath == "" {
		return nil, fmt.Errorf("log path cannot be empty")
	}

	if debounceInterval <= 0 {
		debounceInterval = 2 * time.Second
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &LogWatcher{
		logPath:          logPath,
		debounceInterval: debounceInterval,
		watcher:          watcher,
		changeCh:         make(chan struct{}, 1), // Buffered to prevent blocking
		stopCh:           make(chan struct{}),
	}, nil
}

// Start begins watching the log file. Returns a channel that receives an
// event after each debounced burst of writes.
func (lw *LogWatcher) Start(ctx context.Context) (<-chan struct{}, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if lw.running {
		return nil, fmt.Errorf("watcher already running")
	}

	// Watch the directory, not the file directly, so log rotation
	// (rename plus recreate) keeps the watch alive.
	dir := filepath.Dir(lw.logPath)
	if err := lw.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	lw.running = true

	go lw.processEvents(ctx)

	return lw.changeCh, nil
}

// Stop stops watching the log file.
func (lw *LogWatcher) Stop() {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if !lw.running {
		return
	}

	close(lw.stopCh)
	lw.watcher.Close()
	lw.running = false
}

// processEvents handles file system events with debouncing. It owns the
// change channel: only this goroutine sends on it, and it closes the
// channel on exit, so Stop can never race a pending debounce emit.
func (lw *LogWatcher) processEvents(ctx context.Context) {
	defer close(lw.changeCh)

	var debounceTimer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case <-lw.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-lw.watcher.Events:
			if !ok {
				return
			}

			if !lw.isLogFileEvent(event) {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {

				// Start or reset debounce timer
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.NewTimer(lw.debounceInterval)
				timerCh = debounceTimer.C
			}

		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			logger.WithError(err).Warn("file watcher error")

		case <-timerCh:
			// Debounce period elapsed, emit change event
			select {
			case lw.changeCh <- struct{}{}:
			default:
				// Channel full, event already pending
			}
			timerCh = nil
		}
	}
}

// isLogFileEvent checks if the event is for the watched log file.
func (lw *LogWatcher) isLogFileEvent(event fsnotify.Event) bool {
	return filepath.Clean(event.Name) == filepath.Clean(lw.logPath)
}
