package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/receiptlog/internal/domain"
	"github.com/dvloznov/receiptlog/internal/extraction"
	"github.com/dvloznov/receiptlog/internal/feedback"
	"github.com/dvloznov/receiptlog/internal/imagestore"
	"github.com/dvloznov/receiptlog/internal/imaging"
)

const msgInvalidFormat = "❌ Invalid file format. Please send a JPG or PNG image."

// PhotoMessage is the unit of work: one receipt photo from one user.
type PhotoMessage struct {
	ChatID         int64
	TelegramUserID int64
	FileID         string
}

// Pipeline sequences one receipt photo through
// download -> compress -> upload -> extract -> persist -> notify.
// Stages are strictly sequential; the hosting process may run many
// pipelines concurrently for different photos.
type Pipeline struct {
	transport Transport
	users     UserStore
	images    ImageStore
	extractor Extractor
	gate      Gate
	formatter *feedback.Formatter
	log       zerolog.Logger
}

// New wires a pipeline from its collaborators.
func New(
	transport Transport,
	users UserStore,
	images ImageStore,
	extractor Extractor,
	gate Gate,
	formatter *feedback.Formatter,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		transport: transport,
		users:     users,
		images:    images,
		extractor: extractor,
		gate:      gate,
		formatter: formatter,
		log:       log,
	}
}

// ProcessPhoto runs the pipeline for a single photo. Any failure before the
// image is uploaded abandons the invocation with one generic failure
// notification; once the image is in storage, extraction failure does NOT
// abort — an all-null record is still persisted so the user keeps the image.
func (p *Pipeline) ProcessPhoto(ctx context.Context, msg PhotoMessage) error {
	log := p.log.With().
		Int64("telegram_user_id", msg.TelegramUserID).
		Str("file_id", msg.FileID).
		Logger()

	// 1. Resolve the user (created lazily on first contact).
	userID, err := p.users.GetOrCreateUser(ctx, msg.TelegramUserID)
	if err != nil {
		return p.abandon(ctx, msg.ChatID, log, fmt.Errorf("ProcessPhoto: resolve user: %w", err))
	}

	// 2. Download the photo from Telegram.
	original, err := p.transport.DownloadPhoto(ctx, msg.FileID)
	if err != nil {
		return p.abandon(ctx, msg.ChatID, log, fmt.Errorf("ProcessPhoto: download: %w", err))
	}

	// Only JPEG and PNG photos are accepted.
	if mime := http.DetectContentType(original); mime != "image/jpeg" && mime != "image/png" {
		log.Warn().Str("mime", mime).Msg("Unsupported photo format")
		p.notify(ctx, msg.ChatID, msgInvalidFormat, log)
		return nil
	}

	// 3. Compress for storage.
	compressed, err := imaging.Compress(original)
	if err != nil {
		return p.abandon(ctx, msg.ChatID, log, fmt.Errorf("ProcessPhoto: compress: %w", err))
	}

	// 4. Upload. This is the point of no return: image loss is fatal, so a
	// failed upload abandons the invocation with no record created.
	expenseID := uuid.NewString()
	imageKey := imagestore.ReceiptKey(msg.TelegramUserID, expenseID)
	if err := p.images.PutReceipt(ctx, imageKey, compressed); err != nil {
		return p.abandon(ctx, msg.ChatID, log, fmt.Errorf("ProcessPhoto: upload: %w", err))
	}

	// 5. Extract and normalize. The image is safe in storage now, so an
	// extraction failure (including a timed-out inference call) degrades to
	// the fallback result instead of aborting.
	rawText, err := p.extractor.Extract(ctx, compressed, "image/jpeg")
	if err != nil {
		log.Warn().Err(err).Msg("Extraction failed; persisting fallback result")
		rawText = ""
	}
	result := extraction.Normalize(rawText)

	exp := &domain.Expense{
		ID:            expenseID,
		UserID:        userID,
		Merchant:      result.Merchant,
		TotalAmount:   result.TotalAmount,
		Currency:      result.Currency,
		Date:          result.Date,
		RawExtraction: &result,
		ImagePath:     imageKey,
	}

	// 6. Persist through the gate.
	persisted := p.gate.AttemptInsert(ctx, exp)

	// 7. Classify the outcome and notify the user.
	tier := feedback.Classify(persisted, exp)

	var reply string
	switch tier {
	case feedback.TierSuccess:
		reply = p.formatter.Success(exp)
	case feedback.TierPartial:
		reply = p.formatter.Partial(exp, result.MissingFields)
	default:
		reply = p.formatter.Failure()
	}
	p.notify(ctx, msg.ChatID, reply, log)

	log.Info().
		Str("expense_id", expenseID).
		Str("status", string(result.Status)).
		Str("tier", string(tier)).
		Bool("persisted", persisted).
		Msg("Receipt processed")

	return nil
}

// abandon reports a pre-upload failure: one generic failure notification,
// no record created.
func (p *Pipeline) abandon(ctx context.Context, chatID int64, log zerolog.Logger, err error) error {
	log.Error().Err(err).Msg("Receipt pipeline abandoned")
	p.notify(ctx, chatID, p.formatter.Failure(), log)
	return err
}

// notify is fire-and-forget: send failures are logged, never retried and
// never propagated as pipeline failure.
func (p *Pipeline) notify(ctx context.Context, chatID int64, text string, log zerolog.Logger) {
	if err := p.transport.SendText(ctx, chatID, text); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send notification")
	}
}
