package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/leoarenas/smarttasks/internal/model"
	"github.com/leoarenas/smarttasks/internal/pkg/metrics"
	"github.com/leoarenas/smarttasks/internal/pkg/notify"
	"github.com/leoarenas/smarttasks/internal/pkg/session"
	"github.com/leoarenas/smarttasks/internal/store"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid verification token")
	ErrTokenExpired       = errors.New("verification token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

const (
	minPasswordLen = 6
	// bcrypt 只接受 72 字节以内的输入
	maxPasswordLen = 72
)

// Store 是认证流程需要的持久化接口。
type Store interface {
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, user *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	MarkUserVerified(ctx context.Context, id, passwordHash string) error
	CreateToken(ctx context.Context, token *model.VerificationToken) error
	TokenByValue(ctx context.Context, token string) (*model.VerificationToken, error)
	DeleteToken(ctx context.Context, id string) error
	AppConfig(ctx context.Context) (*model.AppConfig, error)
}

// MailerSource 按当前应用配置选择发信器，返回 nil 表示未配置邮件。
type MailerSource interface {
	For(appCfg model.AppConfig) notify.Mailer
}

// Options 控制验证链接的生成与暴露。
type Options struct {
	FrontendURL     string
	VerificationTTL time.Duration
	// ExposeLink 未发出邮件时在响应中返回验证链接
	ExposeLink bool
}

// RegisterResult 注册结果。
type RegisterResult struct {
	UserID           string
	IsAdmin          bool
	EmailSent        bool
	VerificationLink string
}

// Session 会话令牌及其所属用户。
type Session struct {
	Token string            `json:"token"`
	User  model.UserSummary `json:"user"`
}

// Service 实现注册、邮箱验证与登录。
type Service struct {
	store  Store
	issuer *session.Issuer
	mail   MailerSource
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// NewService 创建认证服务。
func NewService(st Store, issuer *session.Issuer, mail MailerSource, opts Options, logger *slog.Logger) *Service {
	if opts.VerificationTTL <= 0 {
		opts.VerificationTTL = 24 * time.Hour
	}
	opts.FrontendURL = strings.TrimRight(opts.FrontendURL, "/")
	return &Service{
		store:  st,
		issuer: issuer,
		mail:   mail,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Register 创建未验证用户和验证令牌。
//
// 系统中的第一个用户自动成为管理员。
func (s *Service) Register(ctx context.Context, email string) (*RegisterResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := s.store.UserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("query user: %w", err)
	}

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	user := &model.User{Email: email, IsAdmin: count == 0}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	token := &model.VerificationToken{
		UserID:    user.ID,
		ExpiresAt: s.now().UTC().Add(s.opts.VerificationTTL),
	}
	if err := s.store.CreateToken(ctx, token); err != nil {
		return nil, err
	}

	link := s.verificationLink(token.Token)
	res := &RegisterResult{UserID: user.ID, IsAdmin: user.IsAdmin}
	res.EmailSent = s.sendVerification(ctx, email, link)

	if !res.EmailSent && s.opts.ExposeLink {
		res.VerificationLink = link
		if s.logger != nil {
			s.logger.Warn("verification link exposed in response", slog.String("email", email))
		}
	}
	if s.logger != nil {
		s.logger.Info("user registered",
			slog.String("email", email),
			slog.Bool("is_admin", user.IsAdmin),
			slog.Bool("email_sent", res.EmailSent),
		)
	}
	return res, nil
}

// sendVerification 返回邮件是否发出，失败只记录日志。
func (s *Service) sendVerification(ctx context.Context, email, link string) bool {
	appCfg, err := s.store.AppConfig(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("load app config failed", slog.String("error", err.Error()))
		}
		return false
	}
	if s.mail == nil {
		return false
	}
	mailer := s.mail.For(*appCfg)
	if mailer == nil {
		if s.logger != nil {
			s.logger.Info("email not configured, skip verification email", slog.String("email", email))
		}
		return false
	}

	err = mailer.SendVerification(ctx, notify.VerificationEmail{
		To:      email,
		AppName: appCfg.DisplayName(),
		Link:    link,
	})
	if err != nil {
		metrics.EmailSendTotal.WithLabelValues(mailer.Name(), "error").Inc()
		if s.logger != nil {
			s.logger.Warn("send verification email failed",
				slog.String("email", email),
				slog.String("provider", mailer.Name()),
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	metrics.EmailSendTotal.WithLabelValues(mailer.Name(), "ok").Inc()
	return true
}

func (s *Service) verificationLink(token string) string {
	return s.opts.FrontendURL + "/verify-email?token=" + url.QueryEscape(token)
}

// VerifyEmail 兑换验证令牌、设置密码并返回会话。
func (s *Service) VerifyEmail(ctx context.Context, token, password string) (*Session, error) {
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if len(password) > maxPasswordLen {
		return nil, ErrPasswordTooLong
	}

	row, err := s.store.TokenByValue(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if row.Expired(s.now()) {
		return nil, ErrTokenExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 两次独立写入，中途失败时令牌仍然有效
	if err := s.store.MarkUserVerified(ctx, row.UserID, string(hash)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if err := s.store.DeleteToken(ctx, row.ID); err != nil {
		return nil, err
	}

	user, err := s.store.UserByID(ctx, row.UserID)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("email verified", slog.String("email", user.Email))
	}
	return s.newSession(user)
}

// Login 校验已验证用户的密码。
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsVerified {
		return nil, ErrNotVerified
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if s.logger != nil {
		s.logger.Info("user logged in", slog.String("email", user.Email))
	}
	return s.newSession(user)
}

func (s *Service) newSession(user *model.User) (*Session, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user.Summary()}, nil
}
