// Package syncengine owns the canonical in-memory snapshot and reconciles it
// with the local cache and the remote blob store. All reads and writes go
// through the engine: mutators update the snapshot, notify subscribers,
// persist locally and schedule a remote push; a status machine
// (local/syncing/synced/error) tells the UI how fresh the data is.
//
// The engine never returns transport errors from its public API. Failures
// are absorbed into the status machine and recovered by a single retry
// timer; the only way a consumer observes failure is the status stream, so
// it cannot tell why a sync failed, only that it did.
package syncengine

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"contas/internal/models"
	"contas/internal/seed"
)

// Status is the sync state surfaced to status-indicator UI.
type Status string

const (
	StatusLocal   Status = "local"   // no identity set, nothing attempted
	StatusSyncing Status = "syncing" // a sync cycle is in flight
	StatusSynced  Status = "synced"  // last remote operation succeeded
	StatusError   Status = "error"   // last remote operation failed, retry pending
)

// SettingsIdentifier is the fixed remote identifier for the global
// application settings, shared by every user.
const SettingsIdentifier = "contas-app-settings"

// LocalStore is the durable offline cache.
type LocalStore interface {
	Load() (models.Snapshot, bool, error)
	Save(models.Snapshot) error
}

// RemoteStore is the blob store: one opaque JSON document per identifier,
// with not-found distinct from failure.
type RemoteStore interface {
	Get(ctx context.Context, identifier string) (json.RawMessage, bool, error)
	Put(ctx context.Context, identifier string, doc any) error
}

// RemoteWatcher is optionally implemented by remote stores that can push
// change notifications.
type RemoteWatcher interface {
	Watch(ctx context.Context, fn func(identifier string)) error
}

// Options tune the engine's timers.
type Options struct {
	Debounce time.Duration // data-push quiet window, default 2s
	Retry    time.Duration // delay before retrying a failed sync, default 15s
	Logger   *slog.Logger
}

// Engine is the synchronization engine. Construct one at application
// bootstrap and hand it by reference to every consumer.
type Engine struct {
	log        *slog.Logger
	local      LocalStore
	remote     RemoteStore
	debounceIn time.Duration
	retryIn    time.Duration

	mu       sync.Mutex
	db       models.Snapshot
	user     string // identifier of the authenticated user, "" when logged out
	status   Status
	lastSync time.Time
	syncing  bool
	debounce timerSlot
	retry    timerSlot

	subs       map[models.CollectionKey]map[int]func(any)
	statusSubs map[int]func(Status, time.Time)
	nextSubID  int

	// ordered delivery queue, drained by flush
	pending     []func()
	dispatching bool
}

// New builds an engine seeded from the local store, or from first-run
// defaults when the store is empty or unreadable.
func New(local LocalStore, remote RemoteStore, opts Options) *Engine {
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	if opts.Retry <= 0 {
		opts.Retry = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	log := opts.Logger.With("component", "syncengine")

	snap, ok, err := local.Load()
	if err != nil {
		log.Warn("local load failed, using defaults", "err", err)
		ok = false
	}
	if !ok {
		snap = seed.Snapshot()
	}

	return &Engine{
		log:        log,
		local:      local,
		remote:     remote,
		debounceIn: opts.Debounce,
		retryIn:    opts.Retry,
		db:         snap,
		status:     StatusLocal,
		subs:       make(map[models.CollectionKey]map[int]func(any)),
		statusSubs: make(map[int]func(Status, time.Time)),
	}
}

// Snapshot returns a copy of the current snapshot.
func (e *Engine) Snapshot() models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db.Clone()
}

// Status returns the current sync status and the last successful sync time.
func (e *Engine) Status() (Status, time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status, e.lastSync
}

// SetUser switches the authenticated identity. A new non-empty identity
// cancels any pending retry and syncs immediately; an empty identity
// (logout) cancels pending work and drops back to local-only mode.
func (e *Engine) SetUser(ctx context.Context, identifier string) {
	e.mu.Lock()
	if identifier == e.user {
		e.mu.Unlock()
		return
	}
	e.user = identifier
	e.retry.cancel()

	if identifier == "" {
		e.debounce.cancel()
		e.setStatusLocked(StatusLocal)
		e.mu.Unlock()
		e.flush()
		return
	}
	e.mu.Unlock()

	e.Sync(ctx)
}

// Sync runs one full reconcile cycle against the remote store. A call made
// while another sync is in flight is a no-op. Errors are not returned; they
// drive the status machine and schedule a single retry.
func (e *Engine) Sync(ctx context.Context) {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		return
	}
	e.syncing = true
	e.retry.cancel()
	user := e.user
	e.setStatusLocked(StatusSyncing)
	e.mu.Unlock()
	e.flush()

	rawSettings, settingsFound, err := e.remote.Get(ctx, SettingsIdentifier)
	if err != nil {
		e.syncFailed(err, true)
		return
	}

	var rawUser json.RawMessage
	userFound := false
	if user != "" {
		rawUser, userFound, err = e.remote.Get(ctx, user)
		if err != nil {
			e.syncFailed(err, true)
			return
		}
	}

	// Merge, persist and notify before any initializing pushes: offline
	// consumers must see the best-known data without waiting on the network.
	e.mu.Lock()
	if userFound {
		if err := applyUserDocument(&e.db, rawUser); err != nil {
			e.mu.Unlock()
			e.syncFailed(err, true)
			return
		}
	}
	if settingsFound {
		var st models.AppSettings
		if err := json.Unmarshal(rawSettings, &st); err != nil {
			e.mu.Unlock()
			e.syncFailed(err, true)
			return
		}
		e.db.Settings = st
	}
	e.saveLocked()
	e.notifyLocked(models.AllCollections...)
	userDoc := buildUserDocument(e.db)
	settingsDoc := e.db.Settings
	e.mu.Unlock()
	e.flush()

	// A missing remote document (true not-found) is the first-sync branch:
	// initialize the remote from what we have.
	if !settingsFound {
		if err := e.remote.Put(ctx, SettingsIdentifier, settingsDoc); err != nil {
			e.syncFailed(err, true)
			return
		}
	}
	if user != "" && !userFound {
		if err := e.remote.Put(ctx, user, userDoc); err != nil {
			e.syncFailed(err, true)
			return
		}
	}

	e.mu.Lock()
	e.syncing = false
	e.lastSync = time.Now()
	e.setStatusLocked(StatusSynced)
	e.mu.Unlock()
	e.flush()
}

// syncFailed records a failure: error status plus exactly one retry timer.
// wasSyncing clears the in-flight guard when the failure came from a Sync
// cycle rather than a standalone push.
func (e *Engine) syncFailed(err error, wasSyncing bool) {
	e.log.Error("sync failed", "err", err)

	e.mu.Lock()
	if wasSyncing {
		e.syncing = false
	}
	e.setStatusLocked(StatusError)
	e.retry.schedule(e.retryIn, func() { e.Sync(context.Background()) })
	e.mu.Unlock()
	e.flush()
}

// ImportSnapshot replaces the snapshot wholesale (explicit data import),
// then persists and pushes it like any other mutation.
func (e *Engine) ImportSnapshot(snap models.Snapshot) {
	e.mu.Lock()
	e.db = snap.Clone()
	e.notifyLocked(models.AllCollections...)
	e.saveLocked()
	e.scheduleDataPushLocked()
	e.mu.Unlock()
	e.flush()

	go e.pushSettings()
}

// ApplyExternalSnapshot replaces the snapshot with one written by another
// process sharing the local store. The newer write wins wholesale, no merge
// and no write-back.
func (e *Engine) ApplyExternalSnapshot(snap models.Snapshot) {
	e.mu.Lock()
	e.db = snap.Clone()
	e.notifyLocked(models.AllCollections...)
	e.mu.Unlock()
	e.flush()
}

func (e *Engine) saveLocked() {
	if err := e.local.Save(e.db); err != nil {
		// local persistence failure is non-fatal: the in-memory snapshot
		// stays authoritative
		e.log.Warn("local save failed", "err", err)
	}
}
