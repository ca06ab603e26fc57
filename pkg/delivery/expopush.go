package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dailyquote/pkg/db"
	"dailyquote/pkg/logger"

	"gorm.io/gorm"
)

const (
	expoPushEndpoint = "https://exp.host/--/api/v2/push/send"

	// Expo rejects batches larger than 100 messages.
	expoMaxBatchSize = 100
)

type expoMessage struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound"`
}

// ExpoPush fans the quote out to every registered device token, in batches.
// A failed batch is logged and the remaining batches are still attempted.
type ExpoPush struct {
	gdb      *gorm.DB
	endpoint string
	client   *http.Client
}

func NewExpoPush(gdb *gorm.DB) *ExpoPush {
	return &ExpoPush{gdb: gdb, endpoint: expoPushEndpoint, client: http.DefaultClient}
}

func (p *ExpoPush) Name() string { return "expo-push" }

// IsConfigured is true when at least one device token is registered. Expo
// needs no credentials, so the token list is the configuration.
func (p *ExpoPush) IsConfigured() bool {
	var count int64
	if err := p.gdb.Model(&db.PushToken{}).Count(&count).Error; err != nil {
		logger.Error("failed to count push tokens", "error", err)
		return false
	}
	return count > 0
}

func (p *ExpoPush) Send(ctx context.Context, text string) error {
	var tokens []string
	if err := p.gdb.Model(&db.PushToken{}).Order("id ASC").Pluck("token", &tokens).Error; err != nil {
		return &DeliveryError{Channel: p.Name(), Err: err}
	}
	if len(tokens) == 0 {
		return ErrNotConfigured
	}

	var firstErr error
	sent := 0
	for start := 0; start < len(tokens); start += expoMaxBatchSize {
		end := start + expoMaxBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		if err := p.sendBatch(ctx, tokens[start:end], text); err != nil {
			logger.Error("push batch failed", "batch_start", start, "batch_size", end-start, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent += end - start
	}

	if sent == 0 && firstErr != nil {
		return &DeliveryError{Channel: p.Name(), Err: firstErr}
	}
	logger.Info("push notifications sent", "recipients", sent, "total_tokens", len(tokens))
	return nil
}

func (p *ExpoPush) sendBatch(ctx context.Context, tokens []string, text string) error {
	messages := make([]expoMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, expoMessage{
			To:    token,
			Title: "Daily Quote",
			Body:  text,
			Sound: "default",
		})
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("expo responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
