package api

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
)

type updateConfigRequest struct {
	ResendAPIKey *string `json:"resend_api_key"`
	SenderEmail  *string `json:"sender_email"`
	AppName      *string `json:"app_name"`
}

// handleGetConfig 返回应用配置，API Key 做掩码处理。
//
// GET /api/config (admin)
func (s *Server) handleGetConfig(c *gin.Context) {
	cfg, err := s.settings.AppConfig(c.Request.Context())
	if err != nil {
		s.logger.Error("load app config failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load config failed"})
		return
	}
	c.JSON(http.StatusOK, cfg.Masked())
}

// handleUpdateConfig 更新应用配置中非空的字段。
//
// PUT /api/config (admin)
func (s *Server) handleUpdateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := map[string]any{}
	if req.ResendAPIKey != nil {
		fields["resend_api_key"] = strings.TrimSpace(*req.ResendAPIKey)
	}
	if req.SenderEmail != nil {
		sender := strings.TrimSpace(*req.SenderEmail)
		if sender != "" {
			if _, err := mail.ParseAddress(sender); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sender email"})
				return
			}
		}
		fields["sender_email"] = sender
	}
	if req.AppName != nil {
		fields["app_name"] = strings.TrimSpace(*req.AppName)
	}

	cfg, err := s.settings.UpdateAppConfig(c.Request.Context(), fields)
	if err != nil {
		s.logger.Error("update app config failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update config failed"})
		return
	}

	if user, ok := currentUser(c); ok {
		s.logger.Info("app config updated", slog.String("by", user.Email), slog.Int("fields", len(fields)))
	}
	c.JSON(http.StatusOK, gin.H{"message": "configuration updated", "config": cfg.Masked()})
}

// handleConfigStatus 公开接口：邮件是否已配置以及应用名称。
//
// GET /api/config/status
func (s *Server) handleConfigStatus(c *gin.Context) {
	cfg, err := s.settings.AppConfig(c.Request.Context())
	if err != nil {
		s.logger.Error("load app config failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load config failed"})
		return
	}
	configured := false
	if s.email != nil {
		configured = s.email.Configured(*cfg)
	}
	c.JSON(http.StatusOK, gin.H{
		"email_configured": configured,
		"app_name":         cfg.DisplayName(),
	})
}
