package expense

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/receiptlog/internal/domain"
	infra "github.com/dvloznov/receiptlog/internal/infra/bigquery"
	"github.com/dvloznov/receiptlog/internal/logger"
)

// mockInserter records inserted rows and can simulate store failures.
type mockInserter struct {
	rows      []*infra.ExpenseRow
	insertErr error
}

func (m *mockInserter) InsertExpense(ctx context.Context, row *infra.ExpenseRow) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows = append(m.rows, row)
	return nil
}

func validExpense() *domain.Expense {
	merchant := "Test Cafe"
	amount := 50000.0
	return &domain.Expense{
		ID:          "exp-1",
		UserID:      "user-1",
		Merchant:    &merchant,
		TotalAmount: &amount,
		RawExtraction: &domain.ExtractionResult{
			Status:  domain.StatusIncomplete,
			RawText: `{"merchant":"Test Cafe"}`,
		},
		ImagePath: "receipts/42/exp-1.jpg",
	}
}

func newTestGate(store Inserter) *Gate {
	return NewGate(store, "IDR", logger.NewWithWriter(discard{}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestGate_AttemptInsert_Success(t *testing.T) {
	store := &mockInserter{}
	gate := newTestGate(store)

	if !gate.AttemptInsert(context.Background(), validExpense()) {
		t.Fatal("AttemptInsert() = false, want true")
	}
	if len(store.rows) != 1 {
		t.Fatalf("stored %d rows, want 1", len(store.rows))
	}

	row := store.rows[0]
	if row.ExpenseID != "exp-1" || row.UserID != "user-1" {
		t.Errorf("row ids = %q/%q, want exp-1/user-1", row.ExpenseID, row.UserID)
	}
	if row.RawExtraction == "" {
		t.Error("raw_extraction must be stored on every row")
	}
}

func TestGate_AttemptInsert_RejectsBeforeWrite(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *domain.Expense)
	}{
		{
			name:   "missing image path",
			mutate: func(e *domain.Expense) { e.ImagePath = "" },
		},
		{
			name:   "http url as image path",
			mutate: func(e *domain.Expense) { e.ImagePath = "http://example.com/r.jpg" },
		},
		{
			name:   "https url as image path",
			mutate: func(e *domain.Expense) { e.ImagePath = "https://example.com/r.jpg" },
		},
		{
			name:   "missing raw extraction",
			mutate: func(e *domain.Expense) { e.RawExtraction = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockInserter{}
			gate := newTestGate(store)

			e := validExpense()
			tt.mutate(e)

			if gate.AttemptInsert(context.Background(), e) {
				t.Error("AttemptInsert() = true, want rejection")
			}
			if len(store.rows) != 0 {
				t.Error("store write attempted despite failed precondition")
			}
		})
	}
}

func TestGate_AttemptInsert_SwallowsStoreErrors(t *testing.T) {
	store := &mockInserter{insertErr: errors.New("constraint violation")}
	gate := newTestGate(store)

	// Must return false and must not panic or propagate the error.
	if gate.AttemptInsert(context.Background(), validExpense()) {
		t.Error("AttemptInsert() = true, want false on store failure")
	}
}

func TestGate_AttemptInsert_DefaultsCurrencyAtWriteTime(t *testing.T) {
	store := &mockInserter{}
	gate := newTestGate(store)

	e := validExpense()
	e.Currency = nil

	if !gate.AttemptInsert(context.Background(), e) {
		t.Fatal("AttemptInsert() = false, want true")
	}
	if got := store.rows[0].Currency; got != "IDR" {
		t.Errorf("stored currency = %q, want default IDR", got)
	}

	// The domain value stays untouched; the default is a storage concern.
	if e.Currency != nil {
		t.Error("AttemptInsert mutated the expense currency")
	}
}

func TestGate_AttemptInsert_KeepsExtractedCurrency(t *testing.T) {
	store := &mockInserter{}
	gate := newTestGate(store)

	currency := "USD"
	e := validExpense()
	e.Currency = &currency

	if !gate.AttemptInsert(context.Background(), e) {
		t.Fatal("AttemptInsert() = false, want true")
	}
	if got := store.rows[0].Currency; got != "USD" {
		t.Errorf("stored currency = %q, want USD", got)
	}
}
