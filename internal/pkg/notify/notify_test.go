package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leoarenas/smarttasks/internal/config"
	"github.com/leoarenas/smarttasks/internal/model"
)

func TestResendMailer_Send(t *testing.T) {
	var got resendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	m := NewResendMailer(srv.URL, "re_key", "noreply@example.com", nil)
	err := m.SendVerification(context.Background(), VerificationEmail{
		To:      "user@example.com",
		AppName: "SmartTasks",
		Link:    "http://app.test/verify?token=abc",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if auth != "Bearer re_key" {
		t.Fatalf("expected bearer auth, got %q", auth)
	}
	if got.From != "noreply@example.com" || len(got.To) != 1 || got.To[0] != "user@example.com" {
		t.Fatalf("unexpected envelope %+v", got)
	}
	if !strings.Contains(got.HTML, "http://app.test/verify?token=abc") {
		t.Fatalf("link missing from body")
	}
	if !strings.Contains(got.Subject, "SmartTasks") {
		t.Fatalf("app name missing from subject: %q", got.Subject)
	}
}

func TestResendMailer_ErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"validation_error","message":"domain not verified"}`))
	}))
	defer srv.Close()

	m := NewResendMailer(srv.URL, "re_key", "noreply@example.com", nil)
	err := m.SendVerification(context.Background(), VerificationEmail{To: "user@example.com", AppName: "X", Link: "l"})
	if err == nil || !strings.Contains(err.Error(), "domain not verified") {
		t.Fatalf("expected provider message, got %v", err)
	}
}

func TestSelector_For(t *testing.T) {
	smtp := config.EmailConfig{SMTPHost: "smtp.test", SMTPPort: 587, SMTPUser: "u", FromEmail: "from@test"}

	sel := NewSelector(smtp, nil)
	if m := sel.For(model.AppConfig{ResendAPIKey: "re_key", SenderEmail: "a@b.c"}); m == nil || m.Name() != "resend" {
		t.Fatalf("expected resend mailer, got %v", m)
	}
	if m := sel.For(model.AppConfig{}); m == nil || m.Name() != "smtp" {
		t.Fatalf("expected smtp fallback, got %v", m)
	}

	empty := NewSelector(config.EmailConfig{}, nil)
	if m := empty.For(model.AppConfig{ResendAPIKey: "re_key"}); m != nil {
		t.Fatalf("expected nil mailer without sender, got %v", m.Name())
	}
	if empty.Configured(model.AppConfig{}) {
		t.Fatalf("expected unconfigured")
	}
	if !empty.Configured(model.AppConfig{ResendAPIKey: "k", SenderEmail: "s@t.u"}) {
		t.Fatalf("expected resend to count as configured")
	}
}

func TestSMTPMailer_MissingConfig(t *testing.T) {
	m := NewSMTPMailer(&config.EmailConfig{}, nil)
	if err := m.SendVerification(context.Background(), VerificationEmail{To: "a@b.c"}); err == nil {
		t.Fatalf("expected error for missing smtp config")
	}
}

func TestVerificationHTML_EscapesInput(t *testing.T) {
	body := verificationHTML(VerificationEmail{AppName: "<b>App</b>", Link: "http://x/?a=1&b=2"})
	if strings.Contains(body, "<b>App</b>") {
		t.Fatalf("app name not escaped")
	}
	if !strings.Contains(body, "http://x/?a=1&amp;b=2") {
		t.Fatalf("link not escaped: %s", body)
	}
}
