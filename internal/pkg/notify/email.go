package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/leoarenas/smarttasks/internal/config"

	"gopkg.in/gomail.v2"
)

// SMTPMailer 通过 SMTP 发送验证邮件。
type SMTPMailer struct {
	cfg    *config.EmailConfig
	logger *slog.Logger
}

// NewSMTPMailer 创建一个新的 SMTP 发信器。
func NewSMTPMailer(cfg *config.EmailConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		logger: logger,
	}
}

// Name implements Mailer.
func (n *SMTPMailer) Name() string { return "smtp" }

// SendVerification 发送邮箱验证链接。
func (n *SMTPMailer) SendVerification(ctx context.Context, msg VerificationEmail) error {
	if n.cfg.SMTPHost == "" || n.cfg.SMTPUser == "" || n.cfg.FromEmail == "" {
		return fmt.Errorf("email config missing")
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := n.buildMessage(msg)
	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	if n.logger != nil {
		n.logger.Info("verification email sent", slog.String("to", msg.To), slog.String("provider", n.Name()))
	}
	return nil
}

func (n *SMTPMailer) buildMessage(msg VerificationEmail) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", verificationSubject(msg.AppName))
	m.SetBody("text/html", verificationHTML(msg))
	return m
}

func verificationSubject(appName string) string {
	return fmt.Sprintf("Verify your email - %s", appName)
}

func verificationHTML(msg VerificationEmail) string {
	name := html.EscapeString(msg.AppName)
	link := html.EscapeString(msg.Link)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8" /></head>
<body style="font-family: Arial, sans-serif; background: #f6f7fb; color: #1f2937;">
  <div style="max-width: 520px; margin: 24px auto; background: #ffffff; border: 1px solid #e5e7eb; border-radius: 12px; padding: 20px;">
    <h2>Welcome to %s</h2>
    <p>Confirm your email address and choose a password to activate your account.</p>
    <p style="text-align: center; margin: 24px 0;">
      <a href="%s" style="display: inline-block; padding: 12px 20px; background: #2563eb; color: #fff; text-decoration: none; border-radius: 8px; font-weight: bold;">Verify email</a>
    </p>
    <p style="font-size: 12px; color: #6b7280;">This link expires in 24 hours. If you did not sign up, ignore this message.</p>
  </div>
</body>
</html>`, name, link)
}
