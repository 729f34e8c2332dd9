package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// FindUserByTelegramID returns the internal user id for a Telegram user,
// or "" when no such user exists.
func (c *Client) FindUserByTelegramID(ctx context.Context, telegramUserID int64) (string, error) {
	q := c.bq.Query(fmt.Sprintf(`
		SELECT user_id
		FROM %s.%s
		WHERE telegram_user_id = @telegram_user_id
		ORDER BY created_ts
		LIMIT 1
	`, c.dataset, usersTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "telegram_user_id", Value: telegramUserID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return "", fmt.Errorf("FindUserByTelegramID: query read: %w", err)
	}

	var row struct {
		UserID string `bigquery:"user_id"`
	}
	err = it.Next(&row)
	if err == iterator.Done {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("FindUserByTelegramID: iter next: %w", err)
	}

	return row.UserID, nil
}

// GetOrCreateUser looks up a user by Telegram id, creating one on first
// contact. The select-then-insert is not de-duplicated: two near-simultaneous
// first messages can each create a row. The query above picks the oldest row,
// so the duplicate is inert.
func (c *Client) GetOrCreateUser(ctx context.Context, telegramUserID int64) (string, error) {
	userID, err := c.FindUserByTelegramID(ctx, telegramUserID)
	if err != nil {
		return "", err
	}
	if userID != "" {
		return userID, nil
	}

	row := &UserRow{
		UserID:         uuid.NewString(),
		TelegramUserID: telegramUserID,
		CreatedTS:      time.Now(),
	}

	inserter := c.bq.DatasetInProject(c.project, c.dataset).Table(usersTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return "", fmt.Errorf("GetOrCreateUser: inserting row: %w", err)
	}

	return row.UserID, nil
}
