package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/receiptlog/internal/config"
	"github.com/dvloznov/receiptlog/internal/expense"
	"github.com/dvloznov/receiptlog/internal/export"
	"github.com/dvloznov/receiptlog/internal/extraction"
	"github.com/dvloznov/receiptlog/internal/feedback"
	"github.com/dvloznov/receiptlog/internal/imagestore"
	infraBQ "github.com/dvloznov/receiptlog/internal/infra/bigquery"
	"github.com/dvloznov/receiptlog/internal/jobs"
	"github.com/dvloznov/receiptlog/internal/jobs/inmemory"
	"github.com/dvloznov/receiptlog/internal/logger"
	"github.com/dvloznov/receiptlog/internal/pipeline"
	"github.com/dvloznov/receiptlog/internal/telegram"
)

const msgWelcome = "👋 Welcome to ReceiptLog!\n\n" +
	"Send me a photo of a receipt and I’ll turn it into an expense you can export as CSV."

const msgReceiptReceived = "Receipt received! Processing..."

func main() {
	log := logger.New("bot")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.RequireBot(); err != nil {
		log.Fatal().Err(err).Msg("Missing configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tg, err := telegram.NewClient(cfg.TelegramBotToken, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram client")
	}

	store, err := infraBQ.NewClient(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer store.Close()

	images, err := imagestore.NewStore(ctx, cfg.GCSBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create image store")
	}
	defer images.Close()

	extractor, err := extraction.NewExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ExtractionTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extractor")
	}

	formatter := feedback.NewFormatter(cfg.DefaultCurrency)
	gate := expense.NewGate(store, cfg.DefaultCurrency, log)
	proc := pipeline.New(tg, store, images, extractor, gate, formatter, log)
	exporter := export.NewService(store, log)

	// Receipt photos run through the queue so a slow extraction never
	// blocks the update loop.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 5, jobStore)

	handler := func(ctx context.Context, job jobs.Job) error {
		receiptJob, ok := job.(*jobs.ProcessReceiptJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}
		return proc.ProcessPhoto(ctx, pipeline.PhotoMessage{
			ChatID:         receiptJob.ChatID,
			TelegramUserID: receiptJob.TelegramUserID,
			FileID:         receiptJob.FileID,
		})
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Str("bot", tg.Username()).Msg("Bot started, polling for updates")

	go func() {
		for update := range tg.Updates() {
			handleUpdate(ctx, update, tg, jobQueue, exporter, log)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down bot...")

	tg.StopPolling()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Bot exited")
}

func handleUpdate(
	ctx context.Context,
	update tgbotapi.Update,
	tg *telegram.Client,
	publisher jobs.Publisher,
	exporter *export.Service,
	log zerolog.Logger,
) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if len(msg.Photo) > 0 {
		if err := tg.SendText(ctx, msg.Chat.ID, msgReceiptReceived); err != nil {
			log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send ack message")
		}

		// Telegram sends each photo in several resolutions; keep the largest.
		best := msg.Photo[0]
		for _, p := range msg.Photo[1:] {
			if p.Width*p.Height > best.Width*best.Height {
				best = p
			}
		}

		job := &jobs.ProcessReceiptJob{
			ChatID:         msg.Chat.ID,
			TelegramUserID: msg.From.ID,
			FileID:         best.FileID,
		}
		if err := publisher.PublishProcessReceipt(ctx, job); err != nil {
			log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to enqueue receipt job")
			return
		}
		log.Info().Str("job_id", job.JobID).Int64("chat_id", job.ChatID).Msg("Receipt job enqueued")
		return
	}

	switch msg.Command() {
	case "start":
		if err := tg.SendText(ctx, msg.Chat.ID, msgWelcome); err != nil {
			log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send welcome message")
		}
	case "export":
		csv, err := exporter.CSVForTelegramUser(ctx, msg.From.ID)
		if err != nil {
			log.Error().Err(err).Int64("telegram_user_id", msg.From.ID).Msg("Failed to build export")
			if err := tg.SendText(ctx, msg.Chat.ID, "❌ Sorry, the export failed. Please try again."); err != nil {
				log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send export error")
			}
			return
		}
		if err := tg.SendDocument(ctx, msg.Chat.ID, "expenses.csv", []byte(csv)); err != nil {
			log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send export document")
		}
	}
}
