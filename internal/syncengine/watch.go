package syncengine

import (
	"context"
	"time"
)

// RunRemoteWatch consumes the remote change feed, when the remote store
// provides one, and re-syncs whenever another device writes this user's
// document or the global settings. Blocks until ctx is done; a dropped
// connection is redialed after the retry interval.
func (e *Engine) RunRemoteWatch(ctx context.Context) {
	w, ok := e.remote.(RemoteWatcher)
	if !ok {
		return
	}

	for {
		err := w.Watch(ctx, func(identifier string) {
			e.mu.Lock()
			relevant := identifier == SettingsIdentifier ||
				(e.user != "" && identifier == e.user)
			e.mu.Unlock()
			if relevant {
				e.Sync(ctx)
			}
		})
		if ctx.Err() != nil {
			return
		}
		e.log.Warn("remote watch dropped", "err", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(e.retryIn):
		}
	}
}
