package api

import (
	"context"
	"log/slog"
	"strings"
)

// SeedAppConfig 初始化应用配置行。
//
// Resend credentials from the static config are copied into the row only
// while the row has none, so values saved by an admin are never overwritten.
func (s *Server) SeedAppConfig(ctx context.Context) error {
	cfg, err := s.settings.AppConfig(ctx)
	if err != nil {
		return err
	}

	updates := map[string]any{}
	if cfg.ResendAPIKey == "" && strings.TrimSpace(s.cfg.Email.ResendAPIKey) != "" {
		updates["resend_api_key"] = strings.TrimSpace(s.cfg.Email.ResendAPIKey)
	}
	if cfg.SenderEmail == "" && strings.TrimSpace(s.cfg.Email.ResendSender) != "" {
		updates["sender_email"] = strings.TrimSpace(s.cfg.Email.ResendSender)
	}
	if len(updates) > 0 {
		if cfg, err = s.settings.UpdateAppConfig(ctx, updates); err != nil {
			return err
		}
		s.logger.Info("app config seeded from environment", slog.Int("fields", len(updates)))
	}

	configured := s.email != nil && s.email.Configured(*cfg)
	if !configured {
		s.logger.Warn("email provider not configured, verification links will not be emailed",
			slog.Bool("expose_link", s.cfg.App.ExposeVerificationLink))
	}
	return nil
}
