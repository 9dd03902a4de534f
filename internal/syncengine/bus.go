package syncengine

import (
	"time"

	"contas/internal/models"
)

// Subscribe registers a per-collection listener. The callback is invoked
// with a defensive copy of the current value (a subscriber never observes
// "no data" just because of subscription timing) and again after every
// mutation of that collection. Deliveries are queued in mutation order, so
// the initial value can never arrive after a fresher one. The returned
// function removes exactly this subscription.
func (e *Engine) Subscribe(key models.CollectionKey, fn func(any)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	if e.subs[key] == nil {
		e.subs[key] = make(map[int]func(any))
	}
	e.subs[key][id] = fn
	payload := e.db.Value(key)
	e.pending = append(e.pending, func() { fn(payload) })
	e.mu.Unlock()

	e.flush()

	return func() {
		e.mu.Lock()
		delete(e.subs[key], id)
		e.mu.Unlock()
	}
}

// SubscribeStatus registers a sync-status listener, invoked with the current
// state on subscribe and again on every transition.
func (e *Engine) SubscribeStatus(fn func(Status, time.Time)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.statusSubs[id] = fn
	st, ts := e.status, e.lastSync
	e.pending = append(e.pending, func() { fn(st, ts) })
	e.mu.Unlock()

	e.flush()

	return func() {
		e.mu.Lock()
		delete(e.statusSubs, id)
		e.mu.Unlock()
	}
}

// Typed convenience wrappers over Subscribe.

func (e *Engine) SubscribeUsers(fn func([]models.User)) func() {
	return e.Subscribe(models.KeyUsers, func(v any) { fn(v.([]models.User)) })
}

func (e *Engine) SubscribeGroups(fn func([]models.Group)) func() {
	return e.Subscribe(models.KeyGroups, func(v any) { fn(v.([]models.Group)) })
}

func (e *Engine) SubscribeAccounts(fn func([]models.Account)) func() {
	return e.Subscribe(models.KeyAccounts, func(v any) { fn(v.([]models.Account)) })
}

func (e *Engine) SubscribeIncomes(fn func([]models.Income)) func() {
	return e.Subscribe(models.KeyIncomes, func(v any) { fn(v.([]models.Income)) })
}

func (e *Engine) SubscribeCategories(fn func([]string)) func() {
	return e.Subscribe(models.KeyCategories, func(v any) { fn(v.([]string)) })
}

func (e *Engine) SubscribeSettings(fn func(models.AppSettings)) func() {
	return e.Subscribe(models.KeySettings, func(v any) { fn(v.(models.AppSettings)) })
}

// notifyLocked queues the callback invocations for the given collections.
// Each subscriber gets its own fresh copy of the collection, so mutating a
// delivered value can corrupt neither the snapshot nor another subscriber's
// view.
func (e *Engine) notifyLocked(keys ...models.CollectionKey) {
	for _, key := range keys {
		for _, fn := range e.subs[key] {
			fn := fn
			payload := e.db.Value(key)
			e.pending = append(e.pending, func() { fn(payload) })
		}
	}
}

// setStatusLocked transitions the status machine and queues the status
// notifications.
func (e *Engine) setStatusLocked(st Status) {
	e.status = st
	ts := e.lastSync
	for _, fn := range e.statusSubs {
		fn := fn
		e.pending = append(e.pending, func() { fn(st, ts) })
	}
}

// flush drains the delivery queue in FIFO order. At most one goroutine
// dispatches at a time; deliveries queued by a callback that re-enters the
// engine are picked up by the active dispatcher, so subscribers observe
// mutations in the order they were applied and a callback never deadlocks
// calling back in.
func (e *Engine) flush() {
	e.mu.Lock()
	if e.dispatching {
		e.mu.Unlock()
		return
	}
	e.dispatching = true
	for len(e.pending) > 0 {
		batch := e.pending
		e.pending = nil
		e.mu.Unlock()
		for _, fn := range batch {
			fn()
		}
		e.mu.Lock()
	}
	e.dispatching = false
	e.mu.Unlock()
}
