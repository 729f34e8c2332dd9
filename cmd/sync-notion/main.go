package main

import (
	"context"
	"flag"

	"github.com/dvloznov/receiptlog/internal/config"
	infraBQ "github.com/dvloznov/receiptlog/internal/infra/bigquery"
	"github.com/dvloznov/receiptlog/internal/logger"
	"github.com/dvloznov/receiptlog/internal/notionsync"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "log what would change without touching Notion")
	flag.Parse()

	log := logger.New("sync-notion")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.NotionToken == "" || cfg.NotionDatabaseID == "" {
		log.Fatal().Msg("NOTION_TOKEN and NOTION_DATABASE_ID are required for sync")
	}

	ctx := context.Background()

	store, err := infraBQ.NewClient(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer store.Close()

	notion := notionsync.NewNotionClient(cfg.NotionToken)

	if err := notionsync.SyncExpenses(ctx, store, notion, cfg.NotionDatabaseID, *dryRun, log); err != nil {
		log.Fatal().Err(err).Msg("Expense sync failed")
	}
}
