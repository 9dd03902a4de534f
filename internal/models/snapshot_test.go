package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func sample() Snapshot {
	return Snapshot{
		Users: []User{{ID: "u1", Name: "Maria", Username: "maria", Role: RoleAdmin, Groups: []string{"g1"}}},
		Groups: []Group{{ID: "g1", Name: "Casa"}},
		Accounts: []Account{{
			ID: "a1", GroupID: "g1", Name: "Luz", Category: "Moradia",
			Value: decimal.NewFromFloat(120.50), Status: StatusPending,
			IsRecurrent: true, // no payment date: a template, not a ledger entry
		}},
		Incomes:    []Income{{ID: "i1", GroupID: "g1", Name: "Salário", Value: decimal.NewFromInt(5000), Date: "2026-08-05"}},
		Categories: []string{"🏠 Moradia", "💰 Salário"},
		Settings:   AppSettings{AppName: "Contas"},
	}
}

func TestCloneIsolation(t *testing.T) {
	orig := sample()
	c := orig.Clone()

	c.Users[0].Name = "X"
	c.Users[0].Groups[0] = "X"
	c.Accounts[0].PaymentDate = "2026-08-10"
	c.Categories[0] = "X"
	c.Settings.AppName = "X"

	if orig.Users[0].Name != "Maria" || orig.Users[0].Groups[0] != "g1" {
		t.Error("clone shares user state with the original")
	}
	if orig.Accounts[0].PaymentDate != "" {
		t.Error("clone shares account state with the original")
	}
	if orig.Categories[0] != "🏠 Moradia" {
		t.Error("clone shares the category slice with the original")
	}
	if orig.Settings.AppName != "Contas" {
		t.Error("clone shares settings with the original")
	}
}

func TestValueReturnsCopies(t *testing.T) {
	orig := sample()
	for _, key := range AllCollections {
		if orig.Value(key) == nil {
			t.Errorf("Value(%s) = nil", key)
		}
	}

	accs := orig.Value(KeyAccounts).([]Account)
	accs[0].Name = "X"
	if orig.Accounts[0].Name != "Luz" {
		t.Error("Value(accounts) shares backing storage")
	}
}

func TestWireNames(t *testing.T) {
	// the remote documents are shared with other clients: the JSON field
	// names are a wire contract, not a style choice
	raw, err := json.Marshal(sample())
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	json.Unmarshal(raw, &doc)
	for _, key := range []string{"users", "groups", "accounts", "incomes", "categories", "settings"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("snapshot JSON missing %q", key)
		}
	}

	var acc map[string]json.RawMessage
	json.Unmarshal([]byte(`{}`), &acc)
	accRaw, _ := json.Marshal(sample().Accounts[0])
	json.Unmarshal(accRaw, &acc)
	for _, key := range []string{"id", "groupId", "isRecurrent", "isInstallment", "value", "status"} {
		if _, ok := acc[key]; !ok {
			t.Errorf("account JSON missing %q: %s", key, accRaw)
		}
	}
	if _, ok := acc["paymentDate"]; ok {
		t.Error("unpaid template account must omit paymentDate")
	}
}

func TestAccountDecimalRoundtrip(t *testing.T) {
	// documents written by other clients may carry bare JSON numbers
	var a Account
	if err := json.Unmarshal([]byte(`{"id":"a1","groupId":"g1","value":120.5,"status":"PAID"}`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !a.Value.Equal(decimal.NewFromFloat(120.5)) {
		t.Errorf("value = %s", a.Value)
	}
	if a.GroupID != "g1" {
		t.Error("groupId must never be dropped")
	}
}
