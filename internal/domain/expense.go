package domain

import (
	"time"
)

// ExtractionStatus describes how much of a receipt the model managed to read.
type ExtractionStatus string

const (
	// StatusComplete means all four expense fields were extracted and valid.
	StatusComplete ExtractionStatus = "complete"
	// StatusIncomplete means the model output parsed but one or more fields
	// were missing or rejected during normalization.
	StatusIncomplete ExtractionStatus = "incomplete"
	// StatusError means the raw model output could not be parsed as a JSON
	// object at all.
	StatusError ExtractionStatus = "error"
)

// ExtractionFields lists the expense fields the model is asked for, in the
// order they are reported in MissingFields.
var ExtractionFields = []string{"merchant", "total_amount", "currency", "date"}

// ExtractionResult is the normalized output of one model call.
// RawText is always populated, even when parsing failed; it is the only
// field guaranteed non-null on every code path.
type ExtractionResult struct {
	Merchant      *string          `json:"merchant"`
	TotalAmount   *float64         `json:"total_amount"`
	Currency      *string          `json:"currency"`
	Date          *string          `json:"date"`
	MissingFields []string         `json:"missing_fields"`
	Status        ExtractionStatus `json:"status"`
	RawText       string           `json:"raw_text"`
}

// Expense is one persistable expense built from a single receipt photo.
// It is created once per processed photo and never updated afterwards.
// ImagePath is a storage-relative object key ("receipts/{tgID}/{id}.jpg"),
// never an absolute URL; the persistence gate enforces that.
type Expense struct {
	ID            string
	UserID        string
	Merchant      *string
	TotalAmount   *float64
	Currency      *string
	Date          *string
	RawExtraction *ExtractionResult
	ImagePath     string
}

// User is a bot user, created lazily on first contact and looked up by the
// external Telegram identifier afterwards.
type User struct {
	ID             string
	TelegramUserID int64
	CreatedAt      time.Time
}
