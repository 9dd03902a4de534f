package models

import "github.com/shopspring/decimal"

// AccountStatus marks whether an expense has been paid.
type AccountStatus string

const (
	StatusPending AccountStatus = "PENDING"
	StatusPaid    AccountStatus = "PAID"
)

// Account is a single expense entry. A recurrent account with an empty
// PaymentDate is a template (a recurring-expense definition), not a dated
// ledger entry; the sync layer must carry these fields untouched either way.
// InstallmentID links the accounts that form one installment purchase.
type Account struct {
	ID                 string          `json:"id"`
	GroupID            string          `json:"groupId"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Value              decimal.Decimal `json:"value"`
	Status             AccountStatus   `json:"status"`
	IsRecurrent        bool            `json:"isRecurrent"`
	IsInstallment      bool            `json:"isInstallment"`
	TotalInstallments  int             `json:"totalInstallments,omitempty"`
	CurrentInstallment int             `json:"currentInstallment,omitempty"`
	InstallmentID      string          `json:"installmentId,omitempty"`
	PaymentDate        string          `json:"paymentDate,omitempty"` // YYYY-MM-DD, empty when unpaid/template
}
