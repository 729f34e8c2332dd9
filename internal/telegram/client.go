package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Client is the process-wide messaging transport handle. One long-lived
// instance is created at startup and injected into everything that needs to
// talk to Telegram; it is not a hidden global.
type Client struct {
	api  *tgbotapi.BotAPI
	http *http.Client
	log  zerolog.Logger
}

// NewClient authenticates against the Bot API with the given token.
func NewClient(token string, log zerolog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("NewClient: bot api: %w", err)
	}

	return &Client{
		api:  api,
		http: &http.Client{Timeout: 60 * time.Second},
		log:  log,
	}, nil
}

// Username returns the bot account name, for startup logging.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// Updates returns the long-polling update channel.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	return c.api.GetUpdatesChan(cfg)
}

// StopPolling stops the long-polling loop.
func (c *Client) StopPolling() {
	c.api.StopReceivingUpdates()
}

// SendText sends a plain text message. Errors are returned so callers can
// decide whether the send matters; notification paths log and move on.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	if _, err := c.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("SendText: %w", err)
	}
	return nil
}

// SendDocument sends a file attachment built from in-memory bytes.
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename string, data []byte) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  filename,
		Bytes: data,
	})
	if _, err := c.api.Send(doc); err != nil {
		return fmt.Errorf("SendDocument: %w", err)
	}
	return nil
}

// DownloadPhoto fetches the raw bytes of a photo by its Telegram file id.
func (c *Client) DownloadPhoto(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("DownloadPhoto: file link: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("DownloadPhoto: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("DownloadPhoto: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DownloadPhoto: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("DownloadPhoto: reading body: %w", err)
	}

	return data, nil
}
