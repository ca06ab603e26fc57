package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"testing"

	"dailyquote/pkg/config"
	dbpkg "dailyquote/pkg/db"
	"dailyquote/pkg/internal/testutil"
)

func TestFormatMessage(t *testing.T) {
	if got := FormatMessage("Hello", ""); got != "Hello" {
		t.Fatalf("unexpected message without author: %q", got)
	}
	if got := FormatMessage("Hello", "Plato"); got != "Hello\n\n— Plato" {
		t.Fatalf("unexpected message with author: %q", got)
	}
}

func TestTwilioIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TwilioConfig
		want bool
	}{
		{"empty", config.TwilioConfig{}, false},
		{"missing to", config.TwilioConfig{AccountSID: "sid", AuthToken: "tok", FromNumber: "+1"}, false},
		{"complete", config.TwilioConfig{AccountSID: "sid", AuthToken: "tok", FromNumber: "+1", ToNumber: "+2"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewTwilio(tt.cfg).IsConfigured(); got != tt.want {
				t.Fatalf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTwilioSend(t *testing.T) {
	var gotBody, gotTo string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotBody = r.FormValue("Body")
		gotTo = r.FormValue("To")
		if _, _, ok := r.BasicAuth(); !ok {
			t.Error("expected basic auth")
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	tw := NewTwilio(config.TwilioConfig{AccountSID: "sid", AuthToken: "tok", FromNumber: "+1", ToNumber: "+2"})
	tw.baseURL = server.URL

	if err := tw.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotBody != "Hello" || gotTo != "+2" {
		t.Fatalf("unexpected request: body=%q to=%q", gotBody, gotTo)
	}
}

func TestTwilioSendReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid number"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	tw := NewTwilio(config.TwilioConfig{AccountSID: "sid", AuthToken: "tok", FromNumber: "+1", ToNumber: "+2"})
	tw.baseURL = server.URL

	err := tw.Send(context.Background(), "Hello")
	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
}

func TestEmailSMSSend(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	es := NewEmailSMS(config.EmailSMSConfig{
		SMTPHost:       "smtp.example.com",
		FromEmail:      "quotes@example.com",
		GatewayAddress: "4255550100@tmomail.net",
	})
	es.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo = addr, from, to
		return nil
	}

	if err := es.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Fatalf("unexpected addr %q", gotAddr)
	}
	if gotFrom != "quotes@example.com" || len(gotTo) != 1 || gotTo[0] != "4255550100@tmomail.net" {
		t.Fatalf("unexpected envelope from=%q to=%v", gotFrom, gotTo)
	}
}

func TestEmailSMSSendWrapsTransportError(t *testing.T) {
	es := NewEmailSMS(config.EmailSMSConfig{
		SMTPHost:       "smtp.example.com",
		FromEmail:      "quotes@example.com",
		GatewayAddress: "4255550100@tmomail.net",
	})
	es.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	err := es.Send(context.Background(), "Hello")
	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
}

func registerTokens(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		token := dbpkg.PushToken{Token: fmt.Sprintf("ExponentPushToken[%d]", i)}
		if err := dbpkg.DB.Create(&token).Error; err != nil {
			t.Fatalf("failed to register token %d: %v", i, err)
		}
	}
}

func TestExpoPushConfiguredByTokens(t *testing.T) {
	testutil.SetupTestDB(t)
	push := NewExpoPush(dbpkg.DB)

	if push.IsConfigured() {
		t.Fatal("expected unconfigured with no tokens")
	}
	registerTokens(t, 1)
	if !push.IsConfigured() {
		t.Fatal("expected configured with a token")
	}
}

func TestExpoPushChunksBatches(t *testing.T) {
	testutil.SetupTestDB(t)
	registerTokens(t, 150)

	var batchSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var messages []expoMessage
		if err := json.NewDecoder(r.Body).Decode(&messages); err != nil {
			t.Errorf("failed to decode batch: %v", err)
		}
		batchSizes = append(batchSizes, len(messages))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	push := NewExpoPush(dbpkg.DB)
	push.endpoint = server.URL

	if err := push.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(batchSizes) != 2 || batchSizes[0] != 100 || batchSizes[1] != 50 {
		t.Fatalf("unexpected batch sizes %v", batchSizes)
	}
}

func TestExpoPushContinuesAfterFailedBatch(t *testing.T) {
	testutil.SetupTestDB(t)
	registerTokens(t, 150)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	push := NewExpoPush(dbpkg.DB)
	push.endpoint = server.URL

	// The first batch fails but the second still goes out, so the send as a
	// whole is best-effort success.
	if err := push.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("expected best-effort success, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected both batches attempted, got %d calls", calls)
	}
}

func TestExpoPushFailsWhenAllBatchesFail(t *testing.T) {
	testutil.SetupTestDB(t)
	registerTokens(t, 10)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	defer server.Close()

	push := NewExpoPush(dbpkg.DB)
	push.endpoint = server.URL

	err := push.Send(context.Background(), "Hello")
	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("expected DeliveryError when every batch fails, got %v", err)
	}
}

func TestFactorySelection(t *testing.T) {
	testutil.SetupTestDB(t)

	gw := NewFromConfig(config.DeliveryConfig{
		Twilio: config.TwilioConfig{AccountSID: "sid", AuthToken: "tok", FromNumber: "+1", ToNumber: "+2"},
	}, dbpkg.DB)
	if gw.Name() != "twilio" {
		t.Fatalf("expected twilio gateway, got %s", gw.Name())
	}

	gw = NewFromConfig(config.DeliveryConfig{
		EmailSMS: config.EmailSMSConfig{SMTPHost: "smtp", FromEmail: "a@b", GatewayAddress: "c@d"},
	}, dbpkg.DB)
	if gw.Name() != "email-sms" {
		t.Fatalf("expected email-sms gateway, got %s", gw.Name())
	}

	gw = NewFromConfig(config.DeliveryConfig{}, dbpkg.DB)
	if gw.Name() != "expo-push" {
		t.Fatalf("expected expo-push fallback, got %s", gw.Name())
	}
	if gw.IsConfigured() {
		t.Fatal("expected fallback gateway unconfigured without tokens")
	}
}
