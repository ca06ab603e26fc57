package delivery

import (
	"dailyquote/pkg/config"
	"dailyquote/pkg/logger"

	"gorm.io/gorm"
)

// NewFromConfig picks the delivery channel by which credentials are present:
// telegram, then twilio, then the email-to-SMS relay. When none of those is
// configured the push gateway is returned; it reports itself configured only
// while device tokens are registered, so a bare install soft-skips sends
// instead of failing.
func NewFromConfig(cfg config.DeliveryConfig, gdb *gorm.DB) Gateway {
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := NewTelegram(cfg.Telegram)
		if err != nil {
			logger.Error("failed to initialize telegram gateway, falling through", "error", err)
		} else {
			logger.Info("delivery gateway selected", "channel", tg.Name())
			return tg
		}
	}

	if tw := NewTwilio(cfg.Twilio); tw.IsConfigured() {
		logger.Info("delivery gateway selected", "channel", tw.Name())
		return tw
	}

	if es := NewEmailSMS(cfg.EmailSMS); es.IsConfigured() {
		logger.Info("delivery gateway selected", "channel", es.Name())
		return es
	}

	push := NewExpoPush(gdb)
	logger.Info("delivery gateway selected", "channel", push.Name())
	return push
}
