package feedback

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/dvloznov/receiptlog/internal/domain"
)

// Fixed partial/failure messages. These are user-facing, not debug output:
// no identifiers, raw dates or error codes ever appear in them.
const (
	msgSavedBare     = "Receipt saved."
	msgPartialAmount = "⚠️ Saved receipt, but I couldn’t find the total amount."
	msgPartialOther  = "⚠️ Saved receipt, but some details may be missing."
	msgPartialCheck  = "⚠️ Saved receipt, but please check the details."
	msgFailed        = "❌ Sorry, I couldn’t save this receipt. Please try again."
)

// Formatter renders each feedback tier into its fixed user-facing string.
// All output is deterministic; the one configured locale (id-ID grouping)
// is used for amount formatting.
type Formatter struct {
	defaultCurrency string
	printer         *message.Printer
}

// NewFormatter creates a formatter that substitutes defaultCurrency when the
// extraction found none.
func NewFormatter(defaultCurrency string) *Formatter {
	return &Formatter{
		defaultCurrency: defaultCurrency,
		printer:         message.NewPrinter(language.Indonesian),
	}
}

// Success composes "Receipt saved: {merchant} {currency} {amount}".
// Segments are omitted when absent; with neither merchant nor amount the
// bare "Receipt saved." sentinel is returned. The classifier never produces
// a success without an amount, but the formatter tolerates it anyway.
func (f *Formatter) Success(expense *domain.Expense) string {
	var parts []string

	if expense.Merchant != nil && *expense.Merchant != "" {
		parts = append(parts, *expense.Merchant)
	}

	if expense.TotalAmount != nil {
		currency := f.defaultCurrency
		if expense.Currency != nil && *expense.Currency != "" {
			currency = *expense.Currency
		}
		parts = append(parts, currency+" "+f.formatAmount(*expense.TotalAmount))
	}

	if len(parts) == 0 {
		return msgSavedBare
	}

	return "Receipt saved: " + strings.Join(parts, " ")
}

// Partial reports a stored-but-incomplete receipt. A missing amount is the
// specific case worth calling out; everything else gets the generic message.
func (f *Formatter) Partial(expense *domain.Expense, missing []string) string {
	amountMissing := expense == nil || expense.TotalAmount == nil
	for _, field := range missing {
		if field == "total_amount" {
			amountMissing = true
		}
	}

	if amountMissing {
		return msgPartialAmount
	}
	if len(missing) > 0 {
		return msgPartialOther
	}
	return msgPartialCheck
}

// Failure returns the one fixed polite failure message.
func (f *Formatter) Failure() string {
	return msgFailed
}

// formatAmount renders the amount with thousands grouping (50000 -> 50.000).
func (f *Formatter) formatAmount(amount float64) string {
	return f.printer.Sprint(number.Decimal(amount))
}
