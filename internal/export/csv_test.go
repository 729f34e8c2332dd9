package export

import (
	"context"
	"errors"
	"strings"
	"testing"

	bq "cloud.google.com/go/bigquery"

	"github.com/dvloznov/receiptlog/internal/infra/bigquery"
	"github.com/dvloznov/receiptlog/internal/logger"
)

func row(date, merchant string, amount float64, currency string) *bigquery.ExpenseRow {
	return &bigquery.ExpenseRow{
		Date:        bq.NullString{StringVal: date, Valid: date != ""},
		Merchant:    bq.NullString{StringVal: merchant, Valid: merchant != ""},
		TotalAmount: bq.NullFloat64{Float64: amount, Valid: amount != 0},
		Currency:    currency,
	}
}

func TestGenerateCSV_Empty(t *testing.T) {
	if got := GenerateCSV(nil); got != "date,merchant,total_amount,currency\n" {
		t.Errorf("GenerateCSV(nil) = %q, want header only", got)
	}
}

func TestGenerateCSV_Rows(t *testing.T) {
	rows := []*bigquery.ExpenseRow{
		row("2025-01-01", "Test Cafe", 50000, "IDR"),
		row("", "", 0, "IDR"),
		row("2025-02-14", "Corner Deli", 12.5, "USD"),
	}

	got := GenerateCSV(rows)
	want := "date,merchant,total_amount,currency\n" +
		"2025-01-01,Test Cafe,50000,IDR\n" +
		",,,IDR\n" +
		"2025-02-14,Corner Deli,12.5,USD\n"
	if got != want {
		t.Errorf("GenerateCSV() = %q, want %q", got, want)
	}
}

func TestEscapeCSVField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"has,comma", `"has,comma"`},
		{`has"quote`, `"has""quote"`},
		{"has\nnewline", "\"has\nnewline\""},
		{`Joe's, "Diner"`, `"Joe's, ""Diner"""`},
	}
	for _, tt := range tests {
		if got := escapeCSVField(tt.in); got != tt.want {
			t.Errorf("escapeCSVField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type stubReader struct {
	userID   string
	findErr  error
	rows     []*bigquery.ExpenseRow
	queryErr error
}

func (s *stubReader) FindUserByTelegramID(ctx context.Context, telegramUserID int64) (string, error) {
	return s.userID, s.findErr
}

func (s *stubReader) QueryExpensesByUser(ctx context.Context, userID string) ([]*bigquery.ExpenseRow, error) {
	return s.rows, s.queryErr
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestCSVForTelegramUser_UnknownUser(t *testing.T) {
	svc := NewService(&stubReader{userID: ""}, logger.NewWithWriter(discard{}))

	got, err := svc.CSVForTelegramUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("CSVForTelegramUser() error = %v", err)
	}
	if got != "date,merchant,total_amount,currency\n" {
		t.Errorf("unknown user export = %q, want header only", got)
	}
}

func TestCSVForTelegramUser_WithRows(t *testing.T) {
	svc := NewService(&stubReader{
		userID: "user-1",
		rows:   []*bigquery.ExpenseRow{row("2025-01-01", "Test Cafe", 50000, "IDR")},
	}, logger.NewWithWriter(discard{}))

	got, err := svc.CSVForTelegramUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("CSVForTelegramUser() error = %v", err)
	}
	if !strings.Contains(got, "2025-01-01,Test Cafe,50000,IDR") {
		t.Errorf("export missing expected row: %q", got)
	}
}

func TestCSVForTelegramUser_LookupError(t *testing.T) {
	svc := NewService(&stubReader{findErr: errors.New("bigquery down")}, logger.NewWithWriter(discard{}))

	if _, err := svc.CSVForTelegramUser(context.Background(), 42); err == nil {
		t.Error("CSVForTelegramUser() error = nil, want lookup failure")
	}
}
