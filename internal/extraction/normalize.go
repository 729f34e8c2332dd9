package extraction

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dvloznov/receiptlog/internal/domain"
)

// Normalize turns raw model output into a validated ExtractionResult.
// It is a pure function and never fails: unparsable input yields the
// fallback result (all fields null, status error) with the raw text kept.
func Normalize(rawText string) domain.ExtractionResult {
	var parsed interface{}
	if err := json.Unmarshal([]byte(rawText), &parsed); err != nil {
		return fallbackResult(rawText)
	}

	obj, ok := parsed.(map[string]interface{})
	if !ok {
		// Parsed but not an object (array, string, number, null).
		return fallbackResult(rawText)
	}

	result := domain.ExtractionResult{
		Merchant:    merchantField(obj),
		TotalAmount: amountField(obj),
		Currency:    currencyField(obj),
		Date:        dateField(obj),
		RawText:     rawText,
	}

	result.MissingFields = missingFields(&result)
	if len(result.MissingFields) == 0 {
		result.Status = domain.StatusComplete
	} else {
		result.Status = domain.StatusIncomplete
	}

	return result
}

// fallbackResult is returned whenever rawText is not a JSON object.
func fallbackResult(rawText string) domain.ExtractionResult {
	return domain.ExtractionResult{
		MissingFields: append([]string(nil), domain.ExtractionFields...),
		Status:        domain.StatusError,
		RawText:       rawText,
	}
}

// merchantField keeps a non-empty trimmed string, else nil.
func merchantField(obj map[string]interface{}) *string {
	s, ok := obj["merchant"].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// amountField keeps a JSON number strictly greater than zero, else nil.
// Numeric strings are NOT coerced; zero and negative amounts are treated
// as absent rather than as valid amounts.
func amountField(obj map[string]interface{}) *float64 {
	f, ok := obj["total_amount"].(float64)
	if !ok || f <= 0 {
		return nil
	}
	return &f
}

// currencyField keeps trimmed, upper-cased text. Deliberately permissive:
// no length or format check beyond that.
func currencyField(obj map[string]interface{}) *string {
	s, ok := obj["currency"].(string)
	if !ok {
		return nil
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return &s
}

// dateField keeps the original (trimmed) string only if it parses as a
// valid calendar date. No reformatting.
func dateField(obj map[string]interface{}) *string {
	s, ok := obj["date"].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || !validCalendarDate(s) {
		return nil
	}
	return &s
}

// dateLayouts are the date formats the model has been observed to emit.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

func validCalendarDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// missingFields lists the null fields in the fixed order
// merchant, total_amount, currency, date.
func missingFields(r *domain.ExtractionResult) []string {
	missing := make([]string, 0, len(domain.ExtractionFields))
	if r.Merchant == nil {
		missing = append(missing, "merchant")
	}
	if r.TotalAmount == nil {
		missing = append(missing, "total_amount")
	}
	if r.Currency == nil {
		missing = append(missing, "currency")
	}
	if r.Date == nil {
		missing = append(missing, "date")
	}
	return missing
}
