package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher watches the Config and Apps files for changes and publishes a
// reload signal on Changed. It never reloads mid-Run: the caller (cmd/run's
// --watch loop) only consumes Changed between Run boundaries, matching the
// "actuator state mutated only by the Supervisor between runs, never during"
// rule (spec.md §5).
type Watcher struct {
	Changed <-chan struct{}

	fsw    *fsnotify.Watcher
	closed chan struct{}
}

// NewWatcher watches configPath and appsPath for write/create/rename events.
func NewWatcher(configPath, appsPath string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, p := range []string{configPath, appsPath} {
		if err := fsw.Add(p); err != nil {
			fsw.Close() //nolint:errcheck // best-effort cleanup on the error path
			return nil, err
		}
	}

	changed := make(chan struct{}, 1)
	closed := make(chan struct{})
	w := &Watcher{Changed: changed, fsw: fsw, closed: closed}

	go w.run(changed)
	return w, nil
}

func (w *Watcher) run(changed chan<- struct{}) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logrus.WithField("file", event.Name).Info("config file changed; will reload before next run")
			select {
			case changed <- struct{}{}:
			default:
				// a reload is already pending; coalesce
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Warn("config watcher error")
		case <-w.closed:
			return
		}
	}
}

// Close stops the watcher. Safe to call once.
func (w *Watcher) Close() error {
	close(w.closed)
	return w.fsw.Close()
}

// WaitForChange blocks until either a change is published or ctx is done.
func (w *Watcher) WaitForChange(ctx context.Context) bool {
	select {
	case <-w.Changed:
		return true
	case <-ctx.Done():
		return false
	}
}
