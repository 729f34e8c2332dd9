package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/dvloznov/receiptlog/internal/domain"
	"github.com/dvloznov/receiptlog/internal/feedback"
	"github.com/dvloznov/receiptlog/internal/logger"
)

type mockTransport struct {
	photo       []byte
	downloadErr error
	sent        []string
	sendErr     error
}

func (m *mockTransport) SendText(ctx context.Context, chatID int64, text string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, text)
	return nil
}

func (m *mockTransport) DownloadPhoto(ctx context.Context, fileID string) ([]byte, error) {
	if m.downloadErr != nil {
		return nil, m.downloadErr
	}
	return m.photo, nil
}

type mockUsers struct {
	userID string
	err    error
}

func (m *mockUsers) GetOrCreateUser(ctx context.Context, telegramUserID int64) (string, error) {
	return m.userID, m.err
}

type mockImages struct {
	keys   []string
	putErr error
}

func (m *mockImages) PutReceipt(ctx context.Context, key string, data []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.keys = append(m.keys, key)
	return nil
}

type mockExtractor struct {
	rawText string
	err     error
}

func (m *mockExtractor) Extract(ctx context.Context, image []byte, mimeType string) (string, error) {
	return m.rawText, m.err
}

type mockGate struct {
	expenses []*domain.Expense
	accept   bool
}

func (m *mockGate) AttemptInsert(ctx context.Context, e *domain.Expense) bool {
	m.expenses = append(m.expenses, e)
	return m.accept
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func photoBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 40))); err != nil {
		t.Fatalf("encoding test photo: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	transport *mockTransport
	users     *mockUsers
	images    *mockImages
	extractor *mockExtractor
	gate      *mockGate
	pipeline  *Pipeline
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		transport: &mockTransport{photo: photoBytes(t)},
		users:     &mockUsers{userID: "user-1"},
		images:    &mockImages{},
		extractor: &mockExtractor{rawText: `{"merchant":"Test Cafe","total_amount":50000,"currency":"idr","date":"2025-01-01"}`},
		gate:      &mockGate{accept: true},
	}
	f.pipeline = New(
		f.transport,
		f.users,
		f.images,
		f.extractor,
		f.gate,
		feedback.NewFormatter("IDR"),
		logger.NewWithWriter(discard{}),
	)
	return f
}

func msg() PhotoMessage {
	return PhotoMessage{ChatID: 7, TelegramUserID: 42, FileID: "file-1"}
}

func TestProcessPhoto_SuccessPath(t *testing.T) {
	f := newFixture(t)

	if err := f.pipeline.ProcessPhoto(context.Background(), msg()); err != nil {
		t.Fatalf("ProcessPhoto() error = %v", err)
	}

	if len(f.images.keys) != 1 {
		t.Fatalf("uploaded %d images, want 1", len(f.images.keys))
	}
	if !strings.HasPrefix(f.images.keys[0], "receipts/42/") || !strings.HasSuffix(f.images.keys[0], ".jpg") {
		t.Errorf("image key = %q, want receipts/42/{id}.jpg", f.images.keys[0])
	}

	if len(f.gate.expenses) != 1 {
		t.Fatalf("gate saw %d expenses, want 1", len(f.gate.expenses))
	}
	exp := f.gate.expenses[0]
	if exp.UserID != "user-1" {
		t.Errorf("expense user = %q, want user-1", exp.UserID)
	}
	if exp.RawExtraction == nil || exp.RawExtraction.Status != domain.StatusComplete {
		t.Error("expected complete extraction on the persisted expense")
	}
	if exp.ImagePath != f.images.keys[0] {
		t.Errorf("expense image path %q != uploaded key %q", exp.ImagePath, f.images.keys[0])
	}

	if len(f.transport.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(f.transport.sent))
	}
	if want := "Receipt saved: Test Cafe IDR 50.000"; f.transport.sent[0] != want {
		t.Errorf("notification = %q, want %q", f.transport.sent[0], want)
	}
}

func TestProcessPhoto_AbandonsBeforeUpload(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{
			name:  "user resolution failure",
			setup: func(f *fixture) { f.users.err = errors.New("bigquery down") },
		},
		{
			name:  "download failure",
			setup: func(f *fixture) { f.transport.downloadErr = errors.New("telegram 404") },
		},
		{
			name:  "upload failure",
			setup: func(f *fixture) { f.images.putErr = errors.New("gcs unavailable") },
		},
		{
			name:  "compression failure",
			setup: func(f *fixture) { f.transport.photo = append([]byte("\xff\xd8\xff\xe0"), bytes.Repeat([]byte{0}, 64)...) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			err := f.pipeline.ProcessPhoto(context.Background(), msg())
			if err == nil {
				t.Fatal("ProcessPhoto() error = nil, want failure")
			}

			// Image loss is fatal: no record may be created.
			if len(f.gate.expenses) != 0 {
				t.Error("expense persisted despite pre-upload failure")
			}
			if len(f.transport.sent) != 1 {
				t.Fatalf("sent %d messages, want 1 failure notification", len(f.transport.sent))
			}
			if !strings.Contains(f.transport.sent[0], "couldn’t save this receipt") {
				t.Errorf("notification = %q, want the generic failure message", f.transport.sent[0])
			}
		})
	}
}

func TestProcessPhoto_UnsupportedFormat(t *testing.T) {
	f := newFixture(t)
	f.transport.photo = []byte("%PDF-1.4 not a photo at all, just bytes")

	if err := f.pipeline.ProcessPhoto(context.Background(), msg()); err != nil {
		t.Fatalf("ProcessPhoto() error = %v, want nil", err)
	}

	if len(f.images.keys) != 0 {
		t.Error("uploaded an unsupported file")
	}
	if len(f.gate.expenses) != 0 {
		t.Error("persisted an expense for an unsupported file")
	}
	if len(f.transport.sent) != 1 || f.transport.sent[0] != msgInvalidFormat {
		t.Errorf("sent = %v, want [%q]", f.transport.sent, msgInvalidFormat)
	}
}

func TestProcessPhoto_ExtractionFailureStillPersists(t *testing.T) {
	f := newFixture(t)
	f.extractor.err = errors.New("deadline exceeded")

	if err := f.pipeline.ProcessPhoto(context.Background(), msg()); err != nil {
		t.Fatalf("ProcessPhoto() error = %v, want nil", err)
	}

	// The image made it to storage, so the record is still created.
	if len(f.gate.expenses) != 1 {
		t.Fatalf("gate saw %d expenses, want 1", len(f.gate.expenses))
	}
	exp := f.gate.expenses[0]
	if exp.RawExtraction == nil || exp.RawExtraction.Status != domain.StatusError {
		t.Error("expected fallback extraction with status error")
	}
	if exp.TotalAmount != nil || exp.Merchant != nil {
		t.Error("expected all-null fields on the fallback expense")
	}

	// Stored without an amount: the user hears the partial-amount message.
	if len(f.transport.sent) != 1 || !strings.Contains(f.transport.sent[0], "couldn’t find the total amount") {
		t.Errorf("sent = %v, want the missing-amount partial message", f.transport.sent)
	}
}

func TestProcessPhoto_UnparsableModelOutputStillPersists(t *testing.T) {
	f := newFixture(t)
	f.extractor.rawText = "INVALID JSON"

	if err := f.pipeline.ProcessPhoto(context.Background(), msg()); err != nil {
		t.Fatalf("ProcessPhoto() error = %v, want nil", err)
	}

	exp := f.gate.expenses[0]
	if exp.RawExtraction.Status != domain.StatusError {
		t.Errorf("status = %q, want error", exp.RawExtraction.Status)
	}
	if exp.RawExtraction.RawText != "INVALID JSON" {
		t.Errorf("raw_text = %q, want preserved model output", exp.RawExtraction.RawText)
	}
}

func TestProcessPhoto_GateRejectionIsFailedTier(t *testing.T) {
	f := newFixture(t)
	f.gate.accept = false

	if err := f.pipeline.ProcessPhoto(context.Background(), msg()); err != nil {
		t.Fatalf("ProcessPhoto() error = %v, want nil", err)
	}

	if len(f.transport.sent) != 1 || !strings.Contains(f.transport.sent[0], "couldn’t save this receipt") {
		t.Errorf("sent = %v, want the failure message", f.transport.sent)
	}
}

func TestProcessPhoto_NotificationFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.transport.sendErr = errors.New("chat not found")

	if err := f.pipeline.ProcessPhoto(context.Background(), msg()); err != nil {
		t.Fatalf("ProcessPhoto() error = %v, want nil despite send failure", err)
	}
	if len(f.gate.expenses) != 1 {
		t.Error("expense not persisted")
	}
}
