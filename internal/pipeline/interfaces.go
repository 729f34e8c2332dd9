package pipeline

import (
	"context"

	"github.com/dvloznov/receiptlog/internal/domain"
)

// Transport is the messaging boundary the pipeline talks back through.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string) error
	DownloadPhoto(ctx context.Context, fileID string) ([]byte, error)
}

// UserStore resolves Telegram users to internal ids, creating them lazily.
type UserStore interface {
	GetOrCreateUser(ctx context.Context, telegramUserID int64) (string, error)
}

// ImageStore archives compressed receipt images by object key.
type ImageStore interface {
	PutReceipt(ctx context.Context, key string, data []byte) error
}

// Extractor runs the vision model over an image and returns free text.
// No structured contract is enforced here; normalization does that.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Gate performs the precondition-checked insert. It reports success or
// failure and never signals an error.
type Gate interface {
	AttemptInsert(ctx context.Context, e *domain.Expense) bool
}
