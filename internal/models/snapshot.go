package models

// CollectionKey names one of the six collections held by a Snapshot.
type CollectionKey string

const (
	KeyUsers      CollectionKey = "users"
	KeyGroups     CollectionKey = "groups"
	KeyAccounts   CollectionKey = "accounts"
	KeyIncomes    CollectionKey = "incomes"
	KeyCategories CollectionKey = "categories"
	KeySettings   CollectionKey = "settings"
)

// AllCollections lists every collection key, in wire order.
var AllCollections = []CollectionKey{
	KeyUsers, KeyGroups, KeyAccounts, KeyIncomes, KeyCategories, KeySettings,
}

// Snapshot is the full in-memory aggregate of all six collections. It is the
// unit of local persistence and, minus settings, the unit of per-user remote
// sync.
type Snapshot struct {
	Users      []User      `json:"users"`
	Groups     []Group     `json:"groups"`
	Accounts   []Account   `json:"accounts"`
	Incomes    []Income    `json:"incomes"`
	Categories []string    `json:"categories"`
	Settings   AppSettings `json:"settings"`
}

// Clone returns a copy of the snapshot that shares no mutable state with the
// receiver. Handing clones (or per-collection copies) to subscribers is what
// keeps the canonical snapshot safe from external mutation.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Users:      CopyUsers(s.Users),
		Groups:     CopyGroups(s.Groups),
		Accounts:   CopyAccounts(s.Accounts),
		Incomes:    CopyIncomes(s.Incomes),
		Categories: CopyCategories(s.Categories),
		Settings:   s.Settings,
	}
}

// Value returns a defensive copy of the named collection. Settings are a
// value type and copy by assignment.
func (s Snapshot) Value(key CollectionKey) any {
	switch key {
	case KeyUsers:
		return CopyUsers(s.Users)
	case KeyGroups:
		return CopyGroups(s.Groups)
	case KeyAccounts:
		return CopyAccounts(s.Accounts)
	case KeyIncomes:
		return CopyIncomes(s.Incomes)
	case KeyCategories:
		return CopyCategories(s.Categories)
	case KeySettings:
		return s.Settings
	}
	return nil
}

// CopyUsers copies the slice and each user's group membership list.
func CopyUsers(in []User) []User {
	out := make([]User, len(in))
	copy(out, in)
	for i := range out {
		if out[i].Groups != nil {
			g := make([]string, len(out[i].Groups))
			copy(g, out[i].Groups)
			out[i].Groups = g
		}
	}
	return out
}

func CopyGroups(in []Group) []Group {
	out := make([]Group, len(in))
	copy(out, in)
	return out
}

func CopyAccounts(in []Account) []Account {
	out := make([]Account, len(in))
	copy(out, in)
	return out
}

func CopyIncomes(in []Income) []Income {
	out := make([]Income, len(in))
	copy(out, in)
	return out
}

func CopyCategories(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
