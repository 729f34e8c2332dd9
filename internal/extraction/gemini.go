package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Extractor sends receipt images to Gemini and returns the raw model text.
// It enforces no structured contract on the response; Normalize does that.
type Extractor struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewExtractor creates a Gemini-backed extractor. The timeout bounds each
// inference call; a hung call past the deadline is reported as an error and
// the caller falls back to the all-null result instead of aborting.
func NewExtractor(ctx context.Context, apiKey, model string, timeout time.Duration) (*Extractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewExtractor: create genai client: %w", err)
	}

	return &Extractor{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Extract runs one vision call for the given image bytes and returns the
// model's text with Markdown fences stripped.
func (e *Extractor) Extract(ctx context.Context, image []byte, mimeType string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Extract: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("Extract: empty response from model")
	}

	return cleanModelJSON(rawText), nil
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the prompt instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: if there's still junk around the JSON object,
	// try to keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
