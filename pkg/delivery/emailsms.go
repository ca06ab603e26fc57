package delivery

import (
	"context"
	"fmt"
	"net/smtp"

	"dailyquote/pkg/config"
	"dailyquote/pkg/logger"
)

// EmailSMS relays the quote through a carrier's email-to-SMS gateway
// address (e.g. number@tmomail.net) over plain SMTP.
type EmailSMS struct {
	cfg config.EmailSMSConfig

	// sendMail is swappable in tests; defaults to smtp.SendMail.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailSMS(cfg config.EmailSMSConfig) *EmailSMS {
	return &EmailSMS{cfg: cfg, sendMail: smtp.SendMail}
}

func (e *EmailSMS) Name() string { return "email-sms" }

func (e *EmailSMS) IsConfigured() bool {
	return e.cfg.SMTPHost != "" && e.cfg.FromEmail != "" && e.cfg.GatewayAddress != ""
}

func (e *EmailSMS) Send(ctx context.Context, text string) error {
	if !e.IsConfigured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Channel: e.Name(), Err: err}
	}

	port := e.cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPHost, port)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.SMTPHost)
	}

	// SMS gateways ignore the subject; the body is the message.
	msg := []byte("From: " + e.cfg.FromEmail + "\r\n" +
		"To: " + e.cfg.GatewayAddress + "\r\n" +
		"\r\n" +
		text + "\r\n")

	done := make(chan error, 1)
	go func() {
		done <- e.sendMail(addr, auth, e.cfg.FromEmail, []string{e.cfg.GatewayAddress}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return &DeliveryError{Channel: e.Name(), Err: err}
		}
	case <-ctx.Done():
		return &DeliveryError{Channel: e.Name(), Err: ctx.Err()}
	}

	logger.Info("sms relayed via email gateway", "to", e.cfg.GatewayAddress)
	return nil
}
