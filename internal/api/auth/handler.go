package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leoarenas/smarttasks/internal/api/middleware"
)

// Handler 提供注册、验证与登录接口。
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler 创建 Auth Handler。
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type registerRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register 创建新用户并发送验证邮件。
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.svc.Register(c.Request.Context(), req.Email)
	if err != nil {
		h.writeError(c, "register failed", err)
		return
	}

	resp := gin.H{
		"message":  "user registered, please verify your email",
		"user_id":  res.UserID,
		"is_admin": res.IsAdmin,
	}
	if res.VerificationLink != "" {
		resp["verification_link"] = res.VerificationLink
		resp["note"] = "email is not configured; use the verification link directly"
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyEmail 校验验证链接并设置密码。
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.svc.VerifyEmail(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		h.writeError(c, "verify email failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "email verified",
		"token":   sess.Token,
		"user":    sess.User,
	})
}

// Login 校验用户并返回 JWT。
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, "login failed", err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Me 返回当前会话用户。
func (h *Handler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user.Summary())
}

func (h *Handler) writeError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, ErrEmailExists),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrWeakPassword),
		errors.Is(err, ErrPasswordTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrNotVerified):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		if h.logger != nil {
			h.logger.Error(msg, slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
