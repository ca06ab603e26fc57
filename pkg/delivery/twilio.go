package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"dailyquote/pkg/config"
	"dailyquote/pkg/logger"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// Twilio sends the quote as a direct SMS through the Twilio Messages API.
type Twilio struct {
	cfg     config.TwilioConfig
	baseURL string
	client  *http.Client
}

func NewTwilio(cfg config.TwilioConfig) *Twilio {
	return &Twilio{cfg: cfg, baseURL: twilioAPIBase, client: http.DefaultClient}
}

func (t *Twilio) Name() string { return "twilio" }

func (t *Twilio) IsConfigured() bool {
	return t.cfg.AccountSID != "" && t.cfg.AuthToken != "" &&
		t.cfg.FromNumber != "" && t.cfg.ToNumber != ""
}

func (t *Twilio) Send(ctx context.Context, text string) error {
	if !t.IsConfigured() {
		return ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, t.cfg.AccountSID)
	form := url.Values{}
	form.Set("Body", text)
	form.Set("From", t.cfg.FromNumber)
	form.Set("To", t.cfg.ToNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &DeliveryError{Channel: t.Name(), Err: err}
	}
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return &DeliveryError{Channel: t.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DeliveryError{
			Channel: t.Name(),
			Err:     fmt.Errorf("twilio responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	logger.Info("sms sent via twilio", "to", t.cfg.ToNumber)
	return nil
}
