package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// InsertExpense streams one expense row into the expenses table.
// Rows are written at most once; there is no update path.
func (c *Client) InsertExpense(ctx context.Context, row *ExpenseRow) error {
	inserter := c.bq.DatasetInProject(c.project, c.dataset).Table(expensesTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertExpense: inserting row: %w", err)
	}
	return nil
}

// ListAllExpenses returns every expense row, oldest first. Used by the
// Notion sync job, which reconciles the whole table.
func (c *Client) ListAllExpenses(ctx context.Context) ([]*ExpenseRow, error) {
	q := c.bq.Query(fmt.Sprintf(`
		SELECT
			expense_id,
			user_id,
			merchant,
			total_amount,
			currency,
			date,
			date_parsed,
			raw_extraction,
			image_path,
			created_ts
		FROM %s.%s
		ORDER BY created_ts
	`, c.dataset, expensesTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAllExpenses: query read: %w", err)
	}

	var rows []*ExpenseRow
	for {
		var r ExpenseRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAllExpenses: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// QueryExpensesByUser returns all expenses for the given internal user id,
// oldest first.
func (c *Client) QueryExpensesByUser(ctx context.Context, userID string) ([]*ExpenseRow, error) {
	q := c.bq.Query(fmt.Sprintf(`
		SELECT
			expense_id,
			user_id,
			merchant,
			total_amount,
			currency,
			date,
			date_parsed,
			raw_extraction,
			image_path,
			created_ts
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY created_ts
	`, c.dataset, expensesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryExpensesByUser: query read: %w", err)
	}

	var rows []*ExpenseRow
	for {
		var r ExpenseRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryExpensesByUser: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
