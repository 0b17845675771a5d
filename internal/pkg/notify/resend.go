package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultResendURL = "https://api.resend.com"

// ResendMailer 通过 Resend HTTP API 发送验证邮件。
type ResendMailer struct {
	client *resty.Client
	from   string
	logger *slog.Logger
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// NewResendMailer 创建 Resend 客户端，baseURL 为空时使用官方地址。
func NewResendMailer(baseURL, apiKey, from string, logger *slog.Logger) *ResendMailer {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultResendURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &ResendMailer{client: client, from: from, logger: logger}
}

// Name implements Mailer.
func (r *ResendMailer) Name() string { return "resend" }

// SendVerification 发送邮箱验证链接。
func (r *ResendMailer) SendVerification(ctx context.Context, msg VerificationEmail) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("empty recipient")
	}

	var out resendResponse
	var apiErr resendError
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(resendRequest{
			From:    r.from,
			To:      []string{msg.To},
			Subject: verificationSubject(msg.AppName),
			HTML:    verificationHTML(msg),
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return fmt.Errorf("resend: status %d: %s", resp.StatusCode(), apiErr.Message)
		}
		return fmt.Errorf("resend: status %d", resp.StatusCode())
	}

	if r.logger != nil {
		r.logger.Info("verification email sent",
			slog.String("to", msg.To),
			slog.String("provider", r.Name()),
			slog.String("message_id", out.ID),
		)
	}
	return nil
}
