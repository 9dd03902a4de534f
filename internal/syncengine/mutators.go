package syncengine

import (
	"context"
	"time"

	"contas/internal/models"

	"github.com/google/uuid"
)

// Collection mutators. Every mutator runs the same tail while holding the
// engine lock: mutate the snapshot, notify that collection's subscribers,
// persist to the local store, schedule the remote push. Data pushes are
// debounced; settings pushes go out immediately.
//
// User and Group creation assign the id here and return the created entity;
// Account and Income ids are caller-supplied. The asymmetry is intentional
// and mirrors how the collaborator layer generates identifiers.

// ---------- users ----------

// AddUser creates a user, assigning its id.
func (e *Engine) AddUser(u models.User) models.User {
	u.ID = uuid.New().String()
	u.Groups = append([]string(nil), u.Groups...)

	e.mu.Lock()
	e.db.Users = append(e.db.Users, u)
	e.afterDataMutationLocked(models.KeyUsers)
	e.mu.Unlock()
	e.flush()
	return u
}

// UpdateUser replaces the user with the same id. Returns false when absent.
func (e *Engine) UpdateUser(u models.User) bool {
	u.Groups = append([]string(nil), u.Groups...)

	e.mu.Lock()
	found := false
	for i := range e.db.Users {
		if e.db.Users[i].ID == u.ID {
			e.db.Users[i] = u
			found = true
			break
		}
	}
	if !found {
		e.mu.Unlock()
		return false
	}
	e.afterDataMutationLocked(models.KeyUsers)
	e.mu.Unlock()
	e.flush()
	return true
}

// DeleteUser removes the user with the given id.
func (e *Engine) DeleteUser(id string) bool {
	e.mu.Lock()
	kept := e.db.Users[:0]
	for _, u := range e.db.Users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(e.db.Users) {
		e.mu.Unlock()
		return false
	}
	e.db.Users = kept
	e.afterDataMutationLocked(models.KeyUsers)
	e.mu.Unlock()
	e.flush()
	return true
}

// ---------- groups ----------

// AddGroup creates a group, assigning its id.
func (e *Engine) AddGroup(g models.Group) models.Group {
	g.ID = uuid.New().String()

	e.mu.Lock()
	e.db.Groups = append(e.db.Groups, g)
	e.afterDataMutationLocked(models.KeyGroups)
	e.mu.Unlock()
	e.flush()
	return g
}

// UpdateGroup replaces the group with the same id.
func (e *Engine) UpdateGroup(g models.Group) bool {
	e.mu.Lock()
	found := false
	for i := range e.db.Groups {
		if e.db.Groups[i].ID == g.ID {
			e.db.Groups[i] = g
			found = true
			break
		}
	}
	if !found {
		e.mu.Unlock()
		return false
	}
	e.afterDataMutationLocked(models.KeyGroups)
	e.mu.Unlock()
	e.flush()
	return true
}

// DeleteGroup removes the group with the given id.
func (e *Engine) DeleteGroup(id string) bool {
	e.mu.Lock()
	kept := e.db.Groups[:0]
	for _, g := range e.db.Groups {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	if len(kept) == len(e.db.Groups) {
		e.mu.Unlock()
		return false
	}
	e.db.Groups = kept
	e.afterDataMutationLocked(models.KeyGroups)
	e.mu.Unlock()
	e.flush()
	return true
}

// ---------- accounts ----------

// AddAccount appends an account. The caller supplies the id; an account
// without one is rejected.
func (e *Engine) AddAccount(a models.Account) bool {
	if a.ID == "" {
		e.log.Warn("account without id rejected")
		return false
	}

	e.mu.Lock()
	e.db.Accounts = append(e.db.Accounts, a)
	e.afterDataMutationLocked(models.KeyAccounts)
	e.mu.Unlock()
	e.flush()
	return true
}

// UpdateAccount replaces the account with the same id.
func (e *Engine) UpdateAccount(a models.Account) bool {
	e.mu.Lock()
	found := false
	for i := range e.db.Accounts {
		if e.db.Accounts[i].ID == a.ID {
			e.db.Accounts[i] = a
			found = true
			break
		}
	}
	if !found {
		e.mu.Unlock()
		return false
	}
	e.afterDataMutationLocked(models.KeyAccounts)
	e.mu.Unlock()
	e.flush()
	return true
}

// UpdateAccounts batch-replaces accounts by id in one mutation (one notify,
// one save, one scheduled push). Used for bulk date-shifting operations.
func (e *Engine) UpdateAccounts(accounts []models.Account) int {
	byID := make(map[string]models.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	e.mu.Lock()
	replaced := 0
	for i := range e.db.Accounts {
		if a, ok := byID[e.db.Accounts[i].ID]; ok {
			e.db.Accounts[i] = a
			replaced++
		}
	}
	if replaced == 0 {
		e.mu.Unlock()
		return 0
	}
	e.afterDataMutationLocked(models.KeyAccounts)
	e.mu.Unlock()
	e.flush()
	return replaced
}

// DeleteAccount removes the account with the given id.
func (e *Engine) DeleteAccount(id string) bool {
	e.mu.Lock()
	kept := e.db.Accounts[:0]
	for _, a := range e.db.Accounts {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(e.db.Accounts) {
		e.mu.Unlock()
		return false
	}
	e.db.Accounts = kept
	e.afterDataMutationLocked(models.KeyAccounts)
	e.mu.Unlock()
	e.flush()
	return true
}

// ---------- incomes ----------

// AddIncome appends an income. The caller supplies the id.
func (e *Engine) AddIncome(in models.Income) bool {
	if in.ID == "" {
		e.log.Warn("income without id rejected")
		return false
	}

	e.mu.Lock()
	e.db.Incomes = append(e.db.Incomes, in)
	e.afterDataMutationLocked(models.KeyIncomes)
	e.mu.Unlock()
	e.flush()
	return true
}

// UpdateIncome replaces the income with the same id.
func (e *Engine) UpdateIncome(in models.Income) bool {
	e.mu.Lock()
	found := false
	for i := range e.db.Incomes {
		if e.db.Incomes[i].ID == in.ID {
			e.db.Incomes[i] = in
			found = true
			break
		}
	}
	if !found {
		e.mu.Unlock()
		return false
	}
	e.afterDataMutationLocked(models.KeyIncomes)
	e.mu.Unlock()
	e.flush()
	return true
}

// DeleteIncome removes the income with the given id.
func (e *Engine) DeleteIncome(id string) bool {
	e.mu.Lock()
	kept := e.db.Incomes[:0]
	for _, in := range e.db.Incomes {
		if in.ID != id {
			kept = append(kept, in)
		}
	}
	if len(kept) == len(e.db.Incomes) {
		e.mu.Unlock()
		return false
	}
	e.db.Incomes = kept
	e.afterDataMutationLocked(models.KeyIncomes)
	e.mu.Unlock()
	e.flush()
	return true
}

// ---------- categories ----------

// AddCategory appends a category name. Duplicates are rejected.
func (e *Engine) AddCategory(name string) bool {
	if name == "" {
		return false
	}

	e.mu.Lock()
	for _, c := range e.db.Categories {
		if c == name {
			e.mu.Unlock()
			return false
		}
	}
	e.db.Categories = append(e.db.Categories, name)
	e.afterDataMutationLocked(models.KeyCategories)
	e.mu.Unlock()
	e.flush()
	return true
}

// UpdateCategory renames a category. The name is the id for this collection.
func (e *Engine) UpdateCategory(oldName, newName string) bool {
	if newName == "" {
		return false
	}

	e.mu.Lock()
	found := false
	for i, c := range e.db.Categories {
		if c == oldName {
			e.db.Categories[i] = newName
			found = true
			break
		}
	}
	if !found {
		e.mu.Unlock()
		return false
	}
	e.afterDataMutationLocked(models.KeyCategories)
	e.mu.Unlock()
	e.flush()
	return true
}

// DeleteCategory removes a category name.
func (e *Engine) DeleteCategory(name string) bool {
	e.mu.Lock()
	kept := e.db.Categories[:0]
	for _, c := range e.db.Categories {
		if c != name {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(e.db.Categories) {
		e.mu.Unlock()
		return false
	}
	e.db.Categories = kept
	e.afterDataMutationLocked(models.KeyCategories)
	e.mu.Unlock()
	e.flush()
	return true
}

// ---------- settings ----------

// UpdateSettings replaces the global settings and pushes them immediately
// (no debounce) to the fixed global identifier. Settings changes are rare
// and explicit, so they confirm quickly instead of riding the data window.
func (e *Engine) UpdateSettings(st models.AppSettings) {
	e.mu.Lock()
	e.db.Settings = st
	e.notifyLocked(models.KeySettings)
	e.saveLocked()
	e.mu.Unlock()
	e.flush()

	go e.pushSettings()
}

// ---------- push scheduling ----------

// afterDataMutationLocked is the uniform mutator tail for the five per-user
// collections.
func (e *Engine) afterDataMutationLocked(key models.CollectionKey) {
	e.notifyLocked(key)
	e.saveLocked()
	e.scheduleDataPushLocked()
}

// scheduleDataPushLocked (re)arms the trailing-edge debounce: each mutation
// resets the window, so a burst of edits costs one remote write.
func (e *Engine) scheduleDataPushLocked() {
	e.debounce.schedule(e.debounceIn, e.pushUserData)
}

// pushUserData writes the five per-user collections to the user's remote
// document. Runs on the debounce timer goroutine.
func (e *Engine) pushUserData() {
	e.mu.Lock()
	if e.user == "" {
		e.mu.Unlock()
		return
	}
	e.retry.cancel()
	user := e.user
	doc := buildUserDocument(e.db)
	e.mu.Unlock()

	if err := e.remote.Put(context.Background(), user, doc); err != nil {
		// no per-write retry: recovery is a full resync, which re-pulls
		// before it re-pushes
		e.syncFailed(err, false)
		return
	}

	e.mu.Lock()
	e.lastSync = time.Now()
	// an in-flight full sync owns the status until it finishes
	if !e.syncing {
		e.setStatusLocked(StatusSynced)
	}
	e.mu.Unlock()
	e.flush()
}

// pushSettings writes the global settings document immediately.
func (e *Engine) pushSettings() {
	e.mu.Lock()
	e.retry.cancel()
	doc := e.db.Settings
	e.mu.Unlock()

	if err := e.remote.Put(context.Background(), SettingsIdentifier, doc); err != nil {
		e.syncFailed(err, false)
		return
	}

	e.mu.Lock()
	e.lastSync = time.Now()
	if !e.syncing {
		e.setStatusLocked(StatusSynced)
	}
	e.mu.Unlock()
	e.flush()
}
