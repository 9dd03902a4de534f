package models

import "github.com/shopspring/decimal"

// Income is a single income entry, scoped to a group.
type Income struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"groupId"`
	Name        string          `json:"name"`
	Value       decimal.Decimal `json:"value"`
	Date        string          `json:"date"` // YYYY-MM-DD
	IsRecurrent bool            `json:"isRecurrent"`
}
