// Package delivery ships finished reports to a messaging channel.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"aurum/pkg/backoff"
)

// DiscordMaxLength is the per-message content limit.
const DiscordMaxLength = 2000

// Header budget reserved on every chunk of a multi-part message so the
// "Part i/n" prefix never pushes a chunk over the limit.
const partHeaderReserve = 24

// Channel delivers a report to its destination.
type Channel interface {
	Send(ctx context.Context, text string) error
}

// DiscordWebhook posts messages to a Discord webhook, splitting long
// reports into parts on line boundaries.
type DiscordWebhook struct {
	webhookURL string
	maxLength  int
	client     *http.Client
	retry      backoff.Policy
	logger     *zap.Logger
}

// NewDiscordWebhook builds a webhook channel. maxLength <= 0 selects
// the Discord default.
func NewDiscordWebhook(webhookURL string, maxLength int, logger *zap.Logger) *DiscordWebhook {
	if maxLength <= 0 {
		maxLength = DiscordMaxLength
	}
	return &DiscordWebhook{
		webhookURL: webhookURL,
		maxLength:  maxLength,
		client:     &http.Client{Timeout: 10 * time.Second},
		retry:      backoff.Default(),
		logger:     logger,
	}
}

// Send implements Channel. A message within the limit goes out as one
// post; longer text is chunked and every chunk carries a part header.
// The send succeeds only when every chunk was accepted.
func (d *DiscordWebhook) Send(ctx context.Context, text string) error {
	if d.webhookURL == "" {
		return errors.New("discord: webhook URL is empty")
	}

	if len(text) <= d.maxLength {
		return d.sendChunk(ctx, text)
	}

	chunks := chunkText(text, d.maxLength-partHeaderReserve)
	for i, chunk := range chunks {
		msg := fmt.Sprintf("**Part %d/%d**\n\n%s", i+1, len(chunks), chunk)
		if err := d.sendChunk(ctx, msg); err != nil {
			return errors.Wrapf(err, "discord: send part %d/%d", i+1, len(chunks))
		}
	}
	d.logger.Info("report delivered", zap.Int("parts", len(chunks)))
	return nil
}

// chunkText splits text on line boundaries into pieces of at most limit
// bytes. A single line longer than the limit is hard-split.
func chunkText(text string, limit int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
			current.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if current.Len()+len(line)+1 <= limit {
			current.WriteString(line)
			current.WriteByte('\n')
			continue
		}
		flush()
		if len(line) > limit {
			for start := 0; start < len(line); start += limit {
				end := start + limit
				if end > len(line) {
					end = len(line)
				}
				chunks = append(chunks, line[start:end])
			}
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()
	return chunks
}

func (d *DiscordWebhook) sendChunk(ctx context.Context, content string) error {
	return d.retry.Retry(ctx, func(ctx context.Context) error {
		payload, err := json.Marshal(map[string]string{"content": content})
		if err != nil {
			return errors.Wrap(err, "marshal payload")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
		if err != nil {
			return errors.Wrap(err, "build request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			return errors.Wrap(err, "do request")
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			return errors.Errorf("status %d: %s", resp.StatusCode, string(body))
		}
		return nil
	})
}
