// Package client assembles the full sync stack from configuration: the
// offline cache, the remote blob client and the engine, plus the background
// watchers that keep multiple tabs and devices converged. Embedding
// applications construct one Client at bootstrap and talk to its Engine.
package client

import (
	"context"
	"fmt"
	"log/slog"

	"contas/internal/config"
	"contas/internal/localstore"
	"contas/internal/remote"
	"contas/internal/syncengine"
)

// Client is the assembled consumer-side stack.
type Client struct {
	Engine *syncengine.Engine
	Store  *localstore.Store

	cfg *config.Config
}

// New wires the stack from configuration. The engine comes up seeded from
// the cache (or first-run defaults) in local mode; call Engine.SetUser to
// start syncing.
func New(cfg *config.Config) (*Client, error) {
	store, err := localstore.Open(cfg.Local.Path, cfg.Security.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}

	rc := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout())

	eng := syncengine.New(store, rc, syncengine.Options{
		Debounce: cfg.Sync.Debounce(),
		Retry:    cfg.Sync.Retry(),
		Logger:   slog.Default(),
	})

	return &Client{Engine: eng, Store: store, cfg: cfg}, nil
}

// Run starts the background watchers and returns. The cache watcher feeds
// foreign writes (another tab sharing the cache file) into the engine
// wholesale; the remote watcher, when enabled, re-syncs on writes from other
// devices. Both stop when ctx is done.
func (c *Client) Run(ctx context.Context) {
	go c.Store.Watch(ctx, c.cfg.Sync.WatchPoll(), c.Engine.ApplyExternalSnapshot)

	if c.cfg.Remote.Watch {
		go c.Engine.RunRemoteWatch(ctx)
	}
}
