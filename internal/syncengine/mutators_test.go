package syncengine

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"contas/internal/models"

	"github.com/shopspring/decimal"
)

// loggedIn returns an engine synced as "maria" with both remote documents
// already present, so no initializing pushes muddy the push counters.
func loggedIn(t *testing.T, debounce time.Duration) (*Engine, *fakeRemote) {
	t.Helper()
	rm := newFakeRemote()
	rm.docs[SettingsIdentifier] = json.RawMessage(`{"appName":"Casa"}`)
	rm.docs["maria"] = json.RawMessage(`{}`)
	e := New(seededLocal([]string{"A"}), rm, Options{Debounce: debounce, Retry: 50 * time.Millisecond})
	e.SetUser(context.Background(), "maria")
	if st, _ := e.Status(); st != StatusSynced {
		t.Fatalf("setup sync failed: status %q", st)
	}
	return e, rm
}

func TestDebounceCollapsesBurstIntoOnePush(t *testing.T) {
	e, rm := loggedIn(t, 40*time.Millisecond)

	const n = 5
	for i := 0; i < n; i++ {
		e.AddAccount(models.Account{
			ID:      fmt.Sprintf("a%d", i),
			GroupID: "g1", Name: fmt.Sprintf("Conta %d", i),
			Value: decimal.NewFromInt(int64(i + 1)), Status: models.StatusPending,
		})
	}

	waitFor(t, time.Second, "debounced push", func() bool {
		return len(rm.putCalls("maria")) > 0
	})
	time.Sleep(100 * time.Millisecond) // would catch a second, spurious push

	puts := rm.putCalls("maria")
	if len(puts) != 1 {
		t.Fatalf("%d mutations produced %d pushes, want 1", n, len(puts))
	}

	var doc struct {
		Accounts []models.Account `json:"accounts"`
	}
	if err := json.Unmarshal(puts[0].body, &doc); err != nil {
		t.Fatalf("pushed document: %v", err)
	}
	if len(doc.Accounts) != n {
		t.Errorf("pushed document has %d accounts, want the state after the %dth mutation", len(doc.Accounts), n)
	}
}

func TestEachMutationResetsDebounceWindow(t *testing.T) {
	e, rm := loggedIn(t, 60*time.Millisecond)

	// keep mutating faster than the window: nothing may be pushed meanwhile
	for i := 0; i < 4; i++ {
		e.AddCategory(fmt.Sprintf("C%d", i))
		time.Sleep(25 * time.Millisecond)
		if n := len(rm.putCalls("maria")); n != 0 {
			t.Fatalf("push fired inside the debounce window (%d pushes)", n)
		}
	}
	waitFor(t, time.Second, "trailing-edge push", func() bool {
		return len(rm.putCalls("maria")) == 1
	})
}

func TestSettingsPushImmediateAndPartitioned(t *testing.T) {
	// debounce set absurdly high: only the immediate settings path can push
	e, rm := loggedIn(t, time.Hour)

	e.UpdateSettings(models.AppSettings{AppName: "Nova Casa", LogoURL: "http://x/logo.png"})

	waitFor(t, time.Second, "immediate settings push", func() bool {
		return len(rm.putCalls(SettingsIdentifier)) == 1
	})
	if n := len(rm.putCalls("maria")); n != 0 {
		t.Errorf("settings update pushed to the per-user identifier (%d times)", n)
	}

	var st models.AppSettings
	json.Unmarshal(rm.putCalls(SettingsIdentifier)[0].body, &st)
	if st.AppName != "Nova Casa" {
		t.Errorf("pushed settings = %+v", st)
	}
}

func TestDataPushTargetsUserIdentifierOnly(t *testing.T) {
	e, rm := loggedIn(t, 30*time.Millisecond)

	e.AddIncome(models.Income{ID: "i1", GroupID: "g1", Name: "Salário", Value: decimal.NewFromInt(5000), Date: "2026-08-05"})

	waitFor(t, time.Second, "data push", func() bool {
		return len(rm.putCalls("maria")) == 1
	})
	if n := len(rm.putCalls(SettingsIdentifier)); n != 0 {
		t.Errorf("data mutation pushed to the settings identifier (%d times)", n)
	}
}

func TestUserAndGroupIDsAreAssigned(t *testing.T) {
	e := newTestEngine(seededLocal(nil), newFakeRemote())

	u := e.AddUser(models.User{Name: "Maria", Username: "maria", Role: models.RoleUser})
	if u.ID == "" {
		t.Error("AddUser must assign and return the id")
	}
	g := e.AddGroup(models.Group{Name: "Sítio"})
	if g.ID == "" {
		t.Error("AddGroup must assign and return the id")
	}
	if u2 := e.AddUser(models.User{Name: "João", Username: "joao"}); u2.ID == u.ID {
		t.Error("assigned ids must be unique")
	}

	// accounts and incomes are the other way around: caller supplies the id
	if e.AddAccount(models.Account{Name: "sem id"}) {
		t.Error("AddAccount without id must be rejected")
	}
	if e.AddIncome(models.Income{Name: "sem id"}) {
		t.Error("AddIncome without id must be rejected")
	}
}

func TestUpdateDeleteByID(t *testing.T) {
	e := newTestEngine(seededLocal(nil), newFakeRemote())
	e.AddAccount(models.Account{ID: "a1", GroupID: "g1", Name: "Luz", Value: decimal.NewFromInt(100)})

	if !e.UpdateAccount(models.Account{ID: "a1", GroupID: "g1", Name: "Luz Elétrica", Value: decimal.NewFromInt(130)}) {
		t.Fatal("update of existing account failed")
	}
	if e.UpdateAccount(models.Account{ID: "missing"}) {
		t.Error("update of missing account should report false")
	}
	if got := e.Snapshot().Accounts[0]; got.Name != "Luz Elétrica" || !got.Value.Equal(decimal.NewFromInt(130)) {
		t.Errorf("replace-by-id result: %+v", got)
	}

	if !e.DeleteAccount("a1") {
		t.Fatal("delete of existing account failed")
	}
	if e.DeleteAccount("a1") {
		t.Error("second delete should report false")
	}
	if n := len(e.Snapshot().Accounts); n != 0 {
		t.Errorf("accounts after delete: %d", n)
	}
}

func TestUpdateAccountsBatch(t *testing.T) {
	e, rm := loggedIn(t, 30*time.Millisecond)
	for i := 0; i < 3; i++ {
		e.AddAccount(models.Account{ID: fmt.Sprintf("a%d", i), GroupID: "g1", Name: "Conta", PaymentDate: "2026-08-01"})
	}
	waitFor(t, time.Second, "setup push", func() bool { return len(rm.putCalls("maria")) == 1 })

	notifies := 0
	defer e.SubscribeAccounts(func([]models.Account) { notifies++ })()

	// bulk date shift: one mutation, one notification, one push
	shifted := []models.Account{
		{ID: "a0", GroupID: "g1", Name: "Conta", PaymentDate: "2026-09-01"},
		{ID: "a2", GroupID: "g1", Name: "Conta", PaymentDate: "2026-09-01"},
		{ID: "missing", GroupID: "g1", Name: "?"},
	}
	if n := e.UpdateAccounts(shifted); n != 2 {
		t.Errorf("batch replaced %d accounts, want 2", n)
	}
	if notifies != 2 { // initial delivery + one batch notification
		t.Errorf("batch caused %d notifications, want 2", notifies)
	}

	waitFor(t, time.Second, "batch push", func() bool { return len(rm.putCalls("maria")) == 2 })

	snap := e.Snapshot()
	dates := map[string]string{}
	for _, a := range snap.Accounts {
		dates[a.ID] = a.PaymentDate
	}
	if dates["a0"] != "2026-09-01" || dates["a1"] != "2026-08-01" || dates["a2"] != "2026-09-01" {
		t.Errorf("batch result: %v", dates)
	}
}

func TestCategoryMutators(t *testing.T) {
	e := newTestEngine(seededLocal([]string{"A"}), newFakeRemote())

	if !e.AddCategory("B") || e.AddCategory("B") {
		t.Error("duplicate category must be rejected")
	}
	if !e.UpdateCategory("A", "A2") || e.UpdateCategory("gone", "X") {
		t.Error("rename semantics wrong")
	}
	if !e.DeleteCategory("B") || e.DeleteCategory("B") {
		t.Error("delete semantics wrong")
	}
	if got := e.Snapshot().Categories; len(got) != 1 || got[0] != "A2" {
		t.Errorf("categories = %v, want [A2]", got)
	}
}

func TestMutationPersistsLocallyBeforePush(t *testing.T) {
	local := seededLocal(nil)
	e := newTestEngine(local, newFakeRemote())

	e.AddCategory("Nova")

	local.mu.Lock()
	defer local.mu.Unlock()
	found := false
	for _, c := range local.snap.Categories {
		if c == "Nova" {
			found = true
		}
	}
	if !found {
		t.Error("mutation not persisted to the local store synchronously")
	}
}

func TestFailedPushEntersErrorAndRetries(t *testing.T) {
	e, rm := loggedIn(t, 20*time.Millisecond)

	rm.mu.Lock()
	rm.putErr = fmt.Errorf("wire down")
	rm.mu.Unlock()

	e.AddCategory("Nova")
	waitFor(t, time.Second, "error state after failed push", func() bool {
		st, _ := e.Status()
		return st == StatusError
	})

	// recovery is a full resync: the retry re-pulls before re-pushing
	rm.mu.Lock()
	rm.putErr = nil
	gets := len(rm.gets)
	rm.mu.Unlock()

	waitFor(t, time.Second, "retry resync", func() bool {
		st, _ := e.Status()
		rm.mu.Lock()
		defer rm.mu.Unlock()
		return st == StatusSynced && len(rm.gets) > gets
	})
}

func TestStandalonePushDoesNotMaskInFlightSync(t *testing.T) {
	rm := newFakeRemote()
	rm.docs[SettingsIdentifier] = json.RawMessage(`{"appName":"Casa"}`)
	rm.docs["maria"] = json.RawMessage(`{}`)
	e := New(seededLocal([]string{"A"}), rm, Options{Debounce: time.Hour, Retry: time.Hour})
	e.SetUser(context.Background(), "maria")

	// block the next sync cycle inside its first fetch
	gate := make(chan struct{})
	rm.mu.Lock()
	rm.gate = gate
	rm.mu.Unlock()

	go e.Sync(context.Background())
	waitFor(t, time.Second, "sync to start", func() bool {
		st, _ := e.Status()
		return st == StatusSyncing
	})

	// the immediate settings push succeeds while the cycle is still in
	// flight: the cycle owns the status until it finishes
	e.UpdateSettings(models.AppSettings{AppName: "Nova"})
	waitFor(t, time.Second, "settings push", func() bool {
		return len(rm.putCalls(SettingsIdentifier)) == 1
	})
	time.Sleep(30 * time.Millisecond)
	if st, _ := e.Status(); st != StatusSyncing {
		t.Errorf("status = %q during an in-flight sync, want %q", st, StatusSyncing)
	}

	rm.mu.Lock()
	rm.gate = nil
	rm.mu.Unlock()
	close(gate)
	waitFor(t, time.Second, "sync to finish", func() bool {
		st, _ := e.Status()
		return st == StatusSynced
	})
}

func TestImportSnapshotReplacesWholesale(t *testing.T) {
	e, rm := loggedIn(t, 20*time.Millisecond)

	imported := seededLocal([]string{"Importada"}).snap
	e.ImportSnapshot(imported)

	if got := e.Snapshot().Categories; len(got) != 1 || got[0] != "Importada" {
		t.Errorf("import did not replace the snapshot: %v", got)
	}
	waitFor(t, time.Second, "import pushes", func() bool {
		return len(rm.putCalls("maria")) >= 1 && len(rm.putCalls(SettingsIdentifier)) >= 1
	})
}
