package store

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultPollInterval = 500 * time.Millisecond

// Watch polls the backend's change log and relays writes made by other origins
// (typically other processes sharing the SQLite file) to every local context.
// It blocks until ctx is done. Poll errors are reported to onErr (if set) and retried.
//
// Backends that live on disk (see fileWatched) also poll as soon as their files change.
func (o *Origin) Watch(ctx context.Context, interval time.Duration, onErr func(error)) error {
	last, err := o.backend.Head(ctx)
	if err != nil {
		return err
	}
	return o.WatchFrom(ctx, last, interval, onErr)
}

// WatchFrom is Watch starting after change version from. Callers that read state
// before watching pass the Head taken before that read, so writes landing in
// between are still relayed.
func (o *Origin) WatchFrom(ctx context.Context, from int64, interval time.Duration, onErr func(error)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	report := func(err error) {
		if onErr != nil {
			onErr(err)
		}
	}
	var (
		kick <-chan fsnotify.Event
		errs <-chan error
	)
	if fw, ok := o.backend.(fileWatched); ok {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			report(err)
		} else {
			defer w.Close()
			for _, p := range fw.WatchPaths() {
				if err := w.Add(p); err != nil {
					report(err)
				}
			}
			kick, errs = w.Events, w.Errors
		}
	}

	// Catch up on anything written after from before waiting for the first tick.
	last := from
	if next, err := o.pollOnce(ctx, last); err != nil {
		report(err)
	} else {
		last = next
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case ev, ok := <-kick:
			if !ok {
				kick = nil
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			report(err)
			continue
		}
		next, err := o.pollOnce(ctx, last)
		if err != nil {
			report(err)
			continue
		}
		last = next
	}
}

// fileWatched is implemented by backends whose writes show up as file changes.
type fileWatched interface {
	WatchPaths() []string
}

// pollOnce relays changes newer than last and returns the new high-water mark.
func (o *Origin) pollOnce(ctx context.Context, last int64) (int64, error) {
	changes, err := o.backend.ChangesSince(ctx, last)
	if err != nil {
		return last, err
	}
	for _, ch := range changes {
		if ch.Version > last {
			last = ch.Version
		}
		if ch.Origin == o.id {
			// Already relayed in-process at write time.
			continue
		}
		o.publish(ch)
	}
	return last, nil
}
