package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/dvloznov/receiptlog/internal/infra/bigquery"
)

// ExpenseSource lists the expenses to mirror into Notion.
type ExpenseSource interface {
	ListAllExpenses(ctx context.Context) ([]*bigquery.ExpenseRow, error)
}

// SyncExpenses reconciles the Notion database against the expenses
// table: stale pages are archived, missing expenses get new pages,
// existing ones are left alone. Pages are matched by the Expense ID
// title. With dryRun set, changes are logged but not applied.
func SyncExpenses(ctx context.Context, source ExpenseSource, notion NotionService, databaseID string, dryRun bool, log zerolog.Logger) error {
	log.Info().Bool("dry_run", dryRun).Msg("Starting expense sync to Notion")

	expenses, err := source.ListAllExpenses(ctx)
	if err != nil {
		return fmt.Errorf("SyncExpenses: listing expenses: %w", err)
	}

	valid := make(map[string]bool, len(expenses))
	for _, row := range expenses {
		valid[row.ExpenseID] = true
	}

	pages, err := queryAllPages(ctx, notion, databaseID)
	if err != nil {
		return fmt.Errorf("SyncExpenses: querying notion: %w", err)
	}

	existing := make(map[string]bool, len(pages))
	var deleted int
	for _, page := range pages {
		id := extractExpenseID(page)
		if id != "" && valid[id] {
			existing[id] = true
			continue
		}

		// Page has no expense id, or its expense is gone.
		if dryRun {
			log.Info().Str("expense_id", id).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale page")
			deleted++
			continue
		}
		if err := notion.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale page")
			continue
		}
		deleted++
	}

	var created, skipped int
	for _, row := range expenses {
		if existing[row.ExpenseID] {
			skipped++
			continue
		}

		if dryRun {
			log.Info().Str("expense_id", row.ExpenseID).Msg("[DRY RUN] Would create page")
			created++
			continue
		}

		page, err := notion.CreatePage(ctx, databaseID, ExpenseToNotionProperties(row))
		if err != nil {
			log.Warn().Err(err).Str("expense_id", row.ExpenseID).Msg("Failed to create page")
			continue
		}
		log.Debug().Str("expense_id", row.ExpenseID).Str("page_id", string(page.ID)).Msg("Created page")
		created++
	}

	log.Info().
		Int("created", created).
		Int("deleted", deleted).
		Int("skipped", skipped).
		Int("total", len(expenses)).
		Msg("Expense sync completed")

	return nil
}

// queryAllPages pages through a Notion database.
func queryAllPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return all, nil
}

func extractExpenseID(page notionapi.Page) string {
	prop, ok := page.Properties["Expense ID"]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}
	return title.Title[0].PlainText
}
