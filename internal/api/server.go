package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/leoarenas/smarttasks/internal/advisor"
	"github.com/leoarenas/smarttasks/internal/api/auth"
	"github.com/leoarenas/smarttasks/internal/api/middleware"
	"github.com/leoarenas/smarttasks/internal/config"
	"github.com/leoarenas/smarttasks/internal/model"
	"github.com/leoarenas/smarttasks/internal/pkg/metrics"
	"github.com/leoarenas/smarttasks/internal/pkg/notify"
	"github.com/leoarenas/smarttasks/internal/pkg/ratelimit"
	"github.com/leoarenas/smarttasks/internal/pkg/session"
	"github.com/leoarenas/smarttasks/internal/store"
)

// Version 由 GET /api/ 返回。
const Version = "1.0.0"

// Server 封装了 API 服务所需的依赖和路由处理。
//
// 它持有数据库、可选的 Redis 限流器、决策顾问以及 Gin 路由引擎。
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *store.Store
	rdb      *redis.Client
	router   *gin.Engine
	issuer   *session.Issuer
	auth     *auth.Handler
	users    middleware.UserLookup
	limiter  middleware.Limiter
	tasks    TaskStore
	settings SettingsStore
	analyzer Analyzer
	email    EmailStatus
}

// TaskStore 是任务接口需要的持久化操作，所有操作按 user_id 过滤。
type TaskStore interface {
	ListTasks(ctx context.Context, userID string) ([]model.Task, error)
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, userID, id string) (*model.Task, error)
	UpdateTask(ctx context.Context, userID, id string, fields map[string]any) (*model.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
}

// SettingsStore 读写应用配置行。
type SettingsStore interface {
	AppConfig(ctx context.Context) (*model.AppConfig, error)
	UpdateAppConfig(ctx context.Context, fields map[string]any) (*model.AppConfig, error)
}

// Analyzer 为任务生成决策。
type Analyzer interface {
	Analyze(ctx context.Context, task *model.Task) (*advisor.Analysis, error)
}

// EmailStatus 判断验证邮件能否发出。
type EmailStatus interface {
	Configured(appCfg model.AppConfig) bool
}

// NewServer 初始化 API 服务器。
//
// 它负责：
// 1. 连接数据库并执行自动迁移
// 2. 连接 Redis（配置了地址时）用于认证接口限流
// 3. 创建决策顾问、发信器与会话签发器
// 4. 初始化 Gin 路由引擎
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	gdb, err := store.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	st := store.New(gdb)
	if err := st.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}

	var rdb *redis.Client
	var limiter middleware.Limiter
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		limiter = ratelimit.NewRedisRateLimiter(rdb, logger, "", cfg.RateLimit.Rate, cfg.RateLimit.Burst)
	} else {
		logger.Warn("redis not configured, rate limiting disabled")
	}

	chat, err := advisor.NewFromConfig(cfg.LLM)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		logger.Warn("llm api key not set, task analysis disabled")
	}

	issuer := session.NewIssuer(cfg.Security.JWTSecret, cfg.Security.SessionTTL)
	mailers := notify.NewSelector(cfg.Email, logger)
	authSvc := auth.NewService(st, issuer, mailers, auth.Options{
		FrontendURL:     cfg.App.FrontendURL,
		VerificationTTL: cfg.Security.VerificationTTL,
		ExposeLink:      cfg.App.ExposeVerificationLink,
	}, logger)

	// 初始化 Prometheus 指标
	metrics.InitMetrics()

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		db:       st,
		rdb:      rdb,
		issuer:   issuer,
		auth:     auth.NewHandler(authSvc, logger),
		users:    st,
		limiter:  limiter,
		tasks:    st,
		settings: st,
		analyzer: advisor.New(chat, logger),
		email:    mailers,
	}
	s.router = s.newRouter()
	return s, nil
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// Close 关闭数据库与缓存连接。
func (s *Server) Close() error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Server) newRouter() *gin.Engine {
	if s.cfg.App.Env == "local" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.CORS(s.cfg.App.CORSOrigins))
	s.registerRoutes(r)
	return r
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes(r *gin.Engine) {
	// Prometheus metrics 端点
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.handleHealthz)

	api := r.Group("/api")
	api.GET("/", s.handleRoot)
	api.GET("/config/status", s.handleConfigStatus)

	authLimit := middleware.RateLimit(s.limiter, "auth", s.logger)
	api.POST("/auth/register", authLimit, s.auth.Register)
	api.POST("/auth/verify-email", authLimit, s.auth.VerifyEmail)
	api.POST("/auth/login", authLimit, s.auth.Login)

	authed := api.Group("/")
	authed.Use(middleware.AuthMiddleware(s.issuer, s.users))
	authed.GET("/auth/me", s.auth.Me)

	authed.GET("/tasks", s.handleListTasks)
	authed.POST("/tasks", s.handleCreateTask)
	analyzeLimit := middleware.RateLimit(s.limiter, "analyze", s.logger)
	authed.POST("/tasks/analyze-all", analyzeLimit, s.handleAnalyzeAll)
	authed.GET("/tasks/:id", s.handleGetTask)
	authed.PUT("/tasks/:id", s.handleUpdateTask)
	authed.DELETE("/tasks/:id", s.handleDeleteTask)
	authed.POST("/tasks/:id/analyze", analyzeLimit, s.handleAnalyzeTask)
	authed.GET("/report", s.handleReport)

	admin := authed.Group("/config")
	admin.Use(middleware.RequireAdmin())
	admin.GET("", s.handleGetConfig)
	admin.PUT("", s.handleUpdateConfig)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "SmartTasks API", "version": Version})
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := s.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "component": "database"})
		return
	}
	if s.rdb != nil {
		if err := s.rdb.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "component": "redis"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func currentUser(c *gin.Context) (*model.User, bool) {
	return middleware.CurrentUser(c)
}

func currentUserID(c *gin.Context) string {
	user, ok := currentUser(c)
	if !ok {
		return ""
	}
	return user.ID
}
