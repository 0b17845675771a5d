package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/leoarenas/smarttasks/internal/config"
	"github.com/leoarenas/smarttasks/internal/model"
)

// VerificationEmail 是一封邮箱验证邮件的内容。
type VerificationEmail struct {
	To      string
	AppName string
	Link    string
}

// Mailer 定义验证邮件的发送接口。
type Mailer interface {
	// SendVerification 发送验证链接。
	SendVerification(ctx context.Context, msg VerificationEmail) error
	// Name 返回提供方名称（resend / smtp），用于日志与指标。
	Name() string
}

// Selector 按当前应用配置选择发信器。
//
// 管理员保存的 Resend 凭证优先于静态 SMTP 配置。
type Selector struct {
	smtp   config.EmailConfig
	logger *slog.Logger
}

// NewSelector 基于静态 SMTP 配置创建选择器。
func NewSelector(smtp config.EmailConfig, logger *slog.Logger) *Selector {
	return &Selector{smtp: smtp, logger: logger}
}

// For 返回可用的发信器，均未配置时返回 nil。
func (s *Selector) For(appCfg model.AppConfig) Mailer {
	if appCfg.ResendConfigured() {
		return NewResendMailer(s.smtp.ResendURL, appCfg.ResendAPIKey, appCfg.SenderEmail, s.logger)
	}
	if s.smtpConfigured() {
		return NewSMTPMailer(&s.smtp, s.logger)
	}
	return nil
}

// Configured 判断 appCfg 下是否有可用的发信渠道。
func (s *Selector) Configured(appCfg model.AppConfig) bool {
	return appCfg.ResendConfigured() || s.smtpConfigured()
}

func (s *Selector) smtpConfigured() bool {
	return strings.TrimSpace(s.smtp.SMTPHost) != "" &&
		strings.TrimSpace(s.smtp.SMTPUser) != "" &&
		strings.TrimSpace(s.smtp.FromEmail) != ""
}
