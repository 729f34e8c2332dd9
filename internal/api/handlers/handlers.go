package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/receiptlog/internal/api/middleware"
	"github.com/dvloznov/receiptlog/internal/export"
	"github.com/dvloznov/receiptlog/internal/jobs"
)

const msgReceiptReceived = "Receipt received! Processing..."

// Notifier is the slice of the Telegram client the webhook needs to
// acknowledge receipt of a photo.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// update mirrors the fields of a Telegram webhook update this service
// cares about; everything else in the payload is ignored.
type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From *struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Photo []struct {
			FileID string `json:"file_id"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"photo"`
	} `json:"message"`
}

// WebhookHandler receives Telegram webhook updates. It always returns
// 200 within the request — Telegram re-delivers anything else — and
// hands photo messages to the job queue for background processing.
type WebhookHandler struct {
	publisher jobs.Publisher
	notifier  Notifier
	log       zerolog.Logger
}

func NewWebhookHandler(publisher jobs.Publisher, notifier Notifier, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		publisher: publisher,
		notifier:  notifier,
		log:       log,
	}
}

// HandleUpdate handles POST /webhook.
func (h *WebhookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var u update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		// Malformed payloads are acknowledged too, or Telegram retries
		// them forever.
		h.log.Warn().Err(err).Msg("Undecodable webhook update")
		middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	if u.Message == nil || u.Message.From == nil || len(u.Message.Photo) == 0 {
		h.log.Debug().Int64("update_id", u.UpdateID).Msg("Discarding non-photo update")
		middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	// Telegram sends each photo in several resolutions; keep the largest.
	best := u.Message.Photo[0]
	for _, p := range u.Message.Photo[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}

	if err := h.notifier.SendText(ctx, u.Message.Chat.ID, msgReceiptReceived); err != nil {
		h.log.Error().Err(err).Int64("chat_id", u.Message.Chat.ID).Msg("Failed to send ack message")
	}

	job := &jobs.ProcessReceiptJob{
		ChatID:         u.Message.Chat.ID,
		TelegramUserID: u.Message.From.ID,
		FileID:         best.FileID,
	}
	if err := h.publisher.PublishProcessReceipt(ctx, job); err != nil {
		h.log.Error().Err(err).Int64("update_id", u.UpdateID).Msg("Failed to enqueue receipt job")
	} else {
		h.log.Info().Str("job_id", job.JobID).Int64("chat_id", job.ChatID).Msg("Receipt job enqueued")
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ExportHandler serves CSV exports over HTTP.
type ExportHandler struct {
	svc *export.Service
	log zerolog.Logger
}

func NewExportHandler(svc *export.Service, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{svc: svc, log: log}
}

// HandleExport handles GET /api/export?tid={telegram_user_id}.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tid, err := strconv.ParseInt(r.URL.Query().Get("tid"), 10, 64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "tid must be a Telegram user id")
		return
	}

	csv, err := h.svc.CSVForTelegramUser(ctx, tid)
	if err != nil {
		h.log.Error().Err(err).Int64("telegram_user_id", tid).Msg("Failed to build export")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build export")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(csv))
}

// JobsHandler exposes job state for debugging stuck receipts.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if tidStr := query.Get("tid"); tidStr != "" {
		if tid, err := strconv.ParseInt(tidStr, 10, 64); err == nil {
			filter.TelegramUserID = tid
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
