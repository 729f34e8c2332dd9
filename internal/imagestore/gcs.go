package imagestore

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// Store archives compressed receipt images in a GCS bucket. Rows in the
// record store reference objects by their bucket-relative key, never by URL.
type Store struct {
	client *storage.Client
	bucket string
}

// NewStore creates a Store for the given bucket.
// It assumes Application Default Credentials are configured.
func NewStore(ctx context.Context, bucket string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewStore: create storage client: %w", err)
	}
	return &Store{
		client: client,
		bucket: bucket,
	}, nil
}

// Close releases the underlying storage client.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// ReceiptKey builds the object key for one receipt image:
// receipts/{telegramUserID}/{expenseID}.jpg
func ReceiptKey(telegramUserID int64, expenseID string) string {
	return fmt.Sprintf("receipts/%d/%s.jpg", telegramUserID, expenseID)
}

// PutReceipt uploads one compressed JPEG under the given key.
func (s *Store) PutReceipt(ctx context.Context, key string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "image/jpeg"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("PutReceipt: writing object %s: %w", key, err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("PutReceipt: finalize upload of %s: %w", key, err)
	}

	return nil
}

// GetReceipt downloads the image bytes stored under the given key.
func (s *Store) GetReceipt(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetReceipt: reading object %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("GetReceipt: reading bytes: %w", err)
	}

	return data, nil
}
