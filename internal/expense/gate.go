package expense

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/receiptlog/internal/domain"
	infra "github.com/dvloznov/receiptlog/internal/infra/bigquery"
)

// Validation rejections. These indicate programming errors upstream (the
// image never reached storage, or extraction was skipped), not data-quality
// issues, so they are fatal to the insert attempt.
var (
	// ErrMissingImagePath: an expense must reference its uploaded image.
	ErrMissingImagePath = errors.New("expense: image_path is missing; image upload must succeed first")
	// ErrAbsoluteImageURL: object keys only. A signed URL would expire and
	// leave the stored row pointing at nothing.
	ErrAbsoluteImageURL = errors.New("expense: image_path must be a storage object key, not a URL")
	// ErrMissingExtraction: every stored row carries the raw model output,
	// even when all structured fields are null.
	ErrMissingExtraction = errors.New("expense: raw_extraction is missing; raw model output must be stored")
)

// Inserter is the slice of the record store the gate writes through.
type Inserter interface {
	InsertExpense(ctx context.Context, row *infra.ExpenseRow) error
}

// Gate performs precondition-checked expense inserts. No error ever crosses
// this boundary: rejections and storage failures are logged and reported as
// false, so the orchestrator's branching on the outcome stays explicit.
type Gate struct {
	store           Inserter
	defaultCurrency string
	log             zerolog.Logger
}

// NewGate creates a gate that substitutes defaultCurrency at write time when
// the extraction found none.
func NewGate(store Inserter, defaultCurrency string, log zerolog.Logger) *Gate {
	return &Gate{
		store:           store,
		defaultCurrency: defaultCurrency,
		log:             log,
	}
}

// AttemptInsert stores one expense: true = stored, false = rejected or
// failed. Preconditions are checked before any storage write is attempted.
func (g *Gate) AttemptInsert(ctx context.Context, e *domain.Expense) bool {
	if err := validate(e); err != nil {
		g.log.Error().
			Err(err).
			Str("expense_id", e.ID).
			Msg("Rejecting expense insert")
		return false
	}

	row := infra.ExpenseRowFromDomain(e, g.defaultCurrency)
	if err := g.store.InsertExpense(ctx, row); err != nil {
		g.log.Error().
			Err(err).
			Str("expense_id", e.ID).
			Str("user_id", e.UserID).
			Msg("Expense insert failed")
		return false
	}

	return true
}

// validate checks the invariants every stored row must satisfy.
func validate(e *domain.Expense) error {
	if e.ImagePath == "" {
		return ErrMissingImagePath
	}
	if strings.HasPrefix(e.ImagePath, "http://") || strings.HasPrefix(e.ImagePath, "https://") {
		return ErrAbsoluteImageURL
	}
	if e.RawExtraction == nil {
		return ErrMissingExtraction
	}
	return nil
}
