package syncengine

import (
	"encoding/json"
	"fmt"

	"contas/internal/models"
)

// userCollections drives both halves of per-user sync: building the remote
// document and merging one back in. Syncing a seventh collection is one row
// here, not new branching logic.
var userCollections = []struct {
	key   models.CollectionKey
	apply func(s *models.Snapshot, raw json.RawMessage) error
	value func(s models.Snapshot) any
}{
	{
		models.KeyUsers,
		func(s *models.Snapshot, raw json.RawMessage) error { return json.Unmarshal(raw, &s.Users) },
		func(s models.Snapshot) any { return models.CopyUsers(s.Users) },
	},
	{
		models.KeyGroups,
		func(s *models.Snapshot, raw json.RawMessage) error { return json.Unmarshal(raw, &s.Groups) },
		func(s models.Snapshot) any { return models.CopyGroups(s.Groups) },
	},
	{
		models.KeyAccounts,
		func(s *models.Snapshot, raw json.RawMessage) error { return json.Unmarshal(raw, &s.Accounts) },
		func(s models.Snapshot) any { return models.CopyAccounts(s.Accounts) },
	},
	{
		models.KeyIncomes,
		func(s *models.Snapshot, raw json.RawMessage) error { return json.Unmarshal(raw, &s.Incomes) },
		func(s models.Snapshot) any { return models.CopyIncomes(s.Incomes) },
	},
	{
		models.KeyCategories,
		func(s *models.Snapshot, raw json.RawMessage) error { return json.Unmarshal(raw, &s.Categories) },
		func(s models.Snapshot) any { return models.CopyCategories(s.Categories) },
	},
}

// buildUserDocument assembles the per-user remote document: the snapshot
// minus settings, which travel under their own identifier. The document
// holds copies of the collections, never the live slices, because it is
// marshaled on the push goroutine after the engine lock is released.
func buildUserDocument(s models.Snapshot) map[string]any {
	doc := make(map[string]any, len(userCollections))
	for _, col := range userCollections {
		doc[string(col.key)] = col.value(s)
	}
	return doc
}

// applyUserDocument merges a remote user document into the snapshot. Per
// collection the remote value wins when present; absent or null fields keep
// the local value (which was itself seeded from the cache or defaults).
func applyUserDocument(s *models.Snapshot, raw json.RawMessage) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode user document: %w", err)
	}

	for _, col := range userCollections {
		field, ok := doc[string(col.key)]
		if !ok || string(field) == "null" {
			continue
		}
		if err := col.apply(s, field); err != nil {
			return fmt.Errorf("decode %s: %w", col.key, err)
		}
	}
	return nil
}
