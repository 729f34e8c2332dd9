package bigquery

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/receiptlog/internal/domain"
)

// UserRow maps to the users table. One row per Telegram user, created
// lazily on first contact.
type UserRow struct {
	UserID         string    `bigquery:"user_id"`
	TelegramUserID int64     `bigquery:"telegram_user_id"`
	CreatedTS      time.Time `bigquery:"created_ts"`
}

// ExpenseRow maps to the expenses table. Date keeps the extracted string
// untouched; DateParsed is a derived DATE column populated only when the
// string parses as ISO, so queries can still filter by date.
type ExpenseRow struct {
	ExpenseID     string               `bigquery:"expense_id"`
	UserID        string               `bigquery:"user_id"`
	Merchant      bigquery.NullString  `bigquery:"merchant"`
	TotalAmount   bigquery.NullFloat64 `bigquery:"total_amount"`
	Currency      string               `bigquery:"currency"`
	Date          bigquery.NullString  `bigquery:"date"`
	DateParsed    bigquery.NullDate    `bigquery:"date_parsed"`
	RawExtraction string               `bigquery:"raw_extraction"`
	ImagePath     string               `bigquery:"image_path"`
	CreatedTS     time.Time            `bigquery:"created_ts"`
}

// ExpenseRowFromDomain maps a validated expense to its table row.
// defaultCurrency is substituted here, at write time; normalization leaves
// the currency null on purpose.
func ExpenseRowFromDomain(e *domain.Expense, defaultCurrency string) *ExpenseRow {
	row := &ExpenseRow{
		ExpenseID: e.ID,
		UserID:    e.UserID,
		Currency:  defaultCurrency,
		ImagePath: e.ImagePath,
		CreatedTS: time.Now(),
	}

	if e.Merchant != nil {
		row.Merchant = bigquery.NullString{StringVal: *e.Merchant, Valid: true}
	}
	if e.TotalAmount != nil {
		row.TotalAmount = bigquery.NullFloat64{Float64: *e.TotalAmount, Valid: true}
	}
	if e.Currency != nil && *e.Currency != "" {
		row.Currency = *e.Currency
	}
	if e.Date != nil {
		row.Date = bigquery.NullString{StringVal: *e.Date, Valid: true}
		if parsed, err := time.Parse("2006-01-02", *e.Date); err == nil {
			row.DateParsed = bigquery.NullDate{Date: civil.DateOf(parsed), Valid: true}
		}
	}
	if e.RawExtraction != nil {
		if raw, err := json.Marshal(e.RawExtraction); err == nil {
			row.RawExtraction = string(raw)
		}
	}

	return row
}
