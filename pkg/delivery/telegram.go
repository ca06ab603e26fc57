package delivery

import (
	"context"

	"dailyquote/pkg/config"
	"dailyquote/pkg/logger"

	"github.com/go-telegram/bot"
)

// Telegram delivers the quote as a direct message to a fixed chat.
type Telegram struct {
	cfg config.TelegramConfig
	b   *bot.Bot
}

func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	t := &Telegram{cfg: cfg}
	if cfg.Token == "" || cfg.ChatID == 0 {
		return t, nil
	}
	b, err := bot.New(cfg.Token, bot.WithSkipGetMe())
	if err != nil {
		return nil, err
	}
	t.b = b
	return t, nil
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) IsConfigured() bool {
	return t.b != nil
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	if !t.IsConfigured() {
		return ErrNotConfigured
	}
	_, err := t.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.cfg.ChatID,
		Text:   text,
	})
	if err != nil {
		return &DeliveryError{Channel: t.Name(), Err: err}
	}
	logger.Info("quote sent via telegram", "chat_id", t.cfg.ChatID)
	return nil
}
