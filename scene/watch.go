package scene

import (
	"context"
	"path/filepath"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the time waited after the last change of a scene
// file before reloading it.
const DefaultWatchDebounce = 250 * time.Millisecond

// Watch calls onChange with the reloaded scene each time the file at the
// given path changes, until the context is canceled. Changes are debounced
// and files that fail to load are logged and skipped.
//
// The parent directory is watched so editors replacing the file on save are
// handled.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(*Scene)) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return errors.New("resolving scene path failed").
			WithTag("path", path).
			Wrap(err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New("creating scene watcher failed").Wrap(err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return errors.New("watching scene directory failed").
			WithTag("path", path).
			Wrap(err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != path {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			logs.WithTag("path", path).
				WithTag("op", event.Op.String()).
				Debug("scene file changed")

			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil

			s, err := Load(path)
			if err != nil {
				logs.Warn(errors.New("reloading scene failed").
					WithTag("path", path).
					Wrap(err))
				continue
			}
			onChange(s)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logs.Warn(errors.New("scene watcher error").
				WithTag("path", path).
				Wrap(err))
		}
	}
}
