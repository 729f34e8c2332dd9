package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/receiptlog/internal/api/handlers"
	"github.com/dvloznov/receiptlog/internal/api/middleware"
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

func main() {
	log := logger.New("api")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.RequireBot(); err != nil {
		log.Fatal().Err(err).Msg("Missing configuration")
	}

	ctx := context.Background()

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

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 5, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
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

	if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	webhookHandler := handlers.NewWebhookHandler(jobQueue, tg, log)
	exportHandler := handlers.NewExportHandler(exporter, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			webhookHandler.HandleUpdate(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/export", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			exportHandler.HandleExport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(mux),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
