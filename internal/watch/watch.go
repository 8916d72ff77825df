package watch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"lectern/internal/logging"
)

// Watcher re-triggers the pipeline when files land in the watched
// directories. Events are debounced so a burst of copies produces one run
// after the directory goes quiet.
type Watcher struct {
	dirs     []string
	debounce time.Duration
	logger   *slog.Logger
	trigger  func(ctx context.Context)
}

// New creates a Watcher over dirs. The trigger runs once per quiet period
// following filesystem activity.
func New(dirs []string, debounce time.Duration, logger *slog.Logger, trigger func(ctx context.Context)) (*Watcher, error) {
	if len(dirs) == 0 {
		return nil, errors.New("watch: at least one directory required")
	}
	if trigger == nil {
		return nil, errors.New("watch: trigger required")
	}
	if debounce <= 0 {
		debounce = 5 * time.Second
	}
	return &Watcher{
		dirs:     dirs,
		debounce: debounce,
		logger:   logging.NewComponentLogger(logger, "watch"),
		trigger:  trigger,
	}, nil
}

// Run blocks, triggering until the context is canceled. The trigger fires
// once immediately so pre-existing files are processed before the watcher
// settles in.
func (w *Watcher) Run(ctx context.Context) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer notifier.Close()

	for _, dir := range w.dirs {
		if err := notifier.Add(dir); err != nil {
			return err
		}
		w.logger.Info("watching", logging.String("dir", dir))
	}

	w.trigger(ctx)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.logger.Debug("filesystem event", logging.String("path", event.Name), logging.String("op", event.Op.String()))
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logging.Error(err))
		case <-timer.C:
			w.trigger(ctx)
		}
	}
}
