package feedback

import (
	"github.com/dvloznov/receiptlog/internal/domain"
)

// Tier is the user-facing outcome of one processed receipt.
type Tier string

const (
	// TierSuccess: the expense was stored and has a total amount.
	TierSuccess Tier = "success"
	// TierPartial: the expense was stored but the total amount is missing.
	TierPartial Tier = "partial"
	// TierFailed: the expense could not be durably stored.
	TierFailed Tier = "failed"
)

// Classify maps a persistence outcome and a normalized expense to a tier.
//
// Persistence gates first: a record that was not stored is failed no matter
// how good the extraction was. Amount presence gates second; other missing
// fields (merchant, currency, date) never downgrade success to partial.
func Classify(persisted bool, expense *domain.Expense) Tier {
	if !persisted {
		return TierFailed
	}
	if expense != nil && expense.TotalAmount != nil {
		return TierSuccess
	}
	return TierPartial
}
