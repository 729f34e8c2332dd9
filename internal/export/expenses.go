package export

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/receiptlog/internal/infra/bigquery"
)

// ExpenseReader is the slice of the warehouse client the exporter needs.
type ExpenseReader interface {
	FindUserByTelegramID(ctx context.Context, telegramUserID int64) (string, error)
	QueryExpensesByUser(ctx context.Context, userID string) ([]*bigquery.ExpenseRow, error)
}

// Service builds CSV exports of a user's expenses.
type Service struct {
	store ExpenseReader
	log   zerolog.Logger
}

func NewService(store ExpenseReader, log zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// CSVForTelegramUser returns the full expense history for a Telegram user
// as CSV. Unknown users get a header-only document rather than an error:
// from the requester's point of view there is simply nothing to export.
func (s *Service) CSVForTelegramUser(ctx context.Context, telegramUserID int64) (string, error) {
	userID, err := s.store.FindUserByTelegramID(ctx, telegramUserID)
	if err != nil {
		return "", fmt.Errorf("CSVForTelegramUser: find user: %w", err)
	}
	if userID == "" {
		s.log.Debug().Int64("telegram_user_id", telegramUserID).Msg("Export for unknown user")
		return GenerateCSV(nil), nil
	}

	rows, err := s.store.QueryExpensesByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("CSVForTelegramUser: query expenses: %w", err)
	}

	return GenerateCSV(rows), nil
}
