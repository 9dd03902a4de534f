package models

// Group is a shared household. Accounts and incomes are scoped to a group
// through their GroupID.
type Group struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}
