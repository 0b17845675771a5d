package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Config 保存应用程序配置。
type Config struct {
	App       AppConfig       `json:"app"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Email     EmailConfig     `json:"email"`
	Security  SecurityConfig  `json:"security"`
	LLM       LLMConfig       `json:"llm"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// AppConfig 应用程序基础配置。
type AppConfig struct {
	Env         string   `json:"env"`          // 运行环境: local / prod
	LogLevel    string   `json:"log_level"`    // 日志级别: debug / info / warn / error
	HTTPAddr    string   `json:"http_addr"`    // API 服务监听地址
	FrontendURL string   `json:"frontend_url"` // 验证链接指向的前端地址
	CORSOrigins []string `json:"cors_origins"` // 允许的跨域来源，"*" 表示全部

	// ExposeVerificationLink 邮件未发出时在注册响应中返回验证链接，仅用于本地调试。
	ExposeVerificationLink bool `json:"expose_verification_link"`
}

// DatabaseConfig 数据库配置。
type DatabaseConfig struct {
	Driver string `json:"driver"` // mysql / postgres
	DSN    string `json:"dsn"`    // 数据库连接字符串
}

// RedisConfig Redis 配置。Addr 为空时关闭限流。
type RedisConfig struct {
	Addr     string `json:"addr"`     // Redis 地址 (host:port)
	Password string `json:"password"` // Redis 密码
}

// EmailConfig SMTP 发信配置，Resend 凭证不可用时作为备选。
type EmailConfig struct {
	SMTPHost  string `json:"smtp_host"`
	SMTPPort  int    `json:"smtp_port"`
	SMTPUser  string `json:"smtp_user"`
	SMTPPass  string `json:"smtp_pass"`
	FromEmail string `json:"from_email"`
	ResendURL string `json:"resend_url"` // Resend API 地址

	// 首次启动时写入应用配置表的 Resend 凭证，之后以管理员修改为准。
	ResendAPIKey string `json:"resend_api_key"`
	ResendSender string `json:"resend_sender"`
}

// SecurityConfig 安全相关配置。
type SecurityConfig struct {
	JWTSecret       string        `json:"jwt_secret"`       // JWT 签名密钥
	SessionTTL      time.Duration `json:"session_ttl"`      // 会话有效期（如 "24h"）
	VerificationTTL time.Duration `json:"verification_ttl"` // 验证链接有效期（如 "24h"）
}

// LLMConfig 决策顾问使用的模型配置。APIKey 为空时分析接口返回错误。
type LLMConfig struct {
	Provider    string        `json:"provider"` // openai（或兼容 OpenAI 协议的服务）
	Model       string        `json:"model"`
	APIKey      string        `json:"api_key"`
	BaseURL     string        `json:"base_url"`
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"timeout"`
}

// RateLimitConfig 认证接口的限流配置。
type RateLimitConfig struct {
	Rate  float64 `json:"rate"`  // 限流速率（token/s）
	Burst float64 `json:"burst"` // 限流桶容量
}

// Load 从 JSON 文件加载配置。
//
// 它会尝试读取 configs/config.json 文件，如果不存在则使用默认值。
// 环境变量总是覆盖文件中的值。
func Load(configPath ...string) (*Config, error) {
	path := "configs/config.json"
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// 先填充默认值，文件中的字段覆盖默认值
	cfg := getDefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// getDefaultConfig 返回默认配置。
func getDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:                    "local",
			LogLevel:               "info",
			HTTPAddr:               ":8001",
			FrontendURL:            "http://localhost:3000",
			CORSOrigins:            []string{"*"},
			ExposeVerificationLink: false,
		},
		Database: DatabaseConfig{
			Driver: "mysql",
			DSN:    "root:password@tcp(localhost:3306)/smarttasks?parseTime=true&loc=UTC",
		},
		Redis: RedisConfig{
			Addr:     "",
			Password: "",
		},
		Email: EmailConfig{
			SMTPHost:  "",
			SMTPPort:  587,
			ResendURL: "https://api.resend.com",
		},
		Security: SecurityConfig{
			JWTSecret:       "default-secret-key",
			SessionTTL:      24 * time.Hour,
			VerificationTTL: 24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Rate:  1,
			Burst: 10,
		},
	}
}

// applyDefaults 对未设置的字段应用默认值。
func applyDefaults(cfg *Config) {
	defaults := getDefaultConfig()

	if cfg.App.Env == "" {
		cfg.App.Env = defaults.App.Env
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = defaults.App.LogLevel
	}
	if cfg.App.HTTPAddr == "" {
		cfg.App.HTTPAddr = defaults.App.HTTPAddr
	}
	if cfg.App.FrontendURL == "" {
		cfg.App.FrontendURL = defaults.App.FrontendURL
	}
	if len(cfg.App.CORSOrigins) == 0 {
		cfg.App.CORSOrigins = defaults.App.CORSOrigins
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = defaults.Database.Driver
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = defaults.Database.DSN
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = defaults.Email.SMTPPort
	}
	if cfg.Email.ResendURL == "" {
		cfg.Email.ResendURL = defaults.Email.ResendURL
	}
	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = defaults.Security.JWTSecret
	}
	if cfg.Security.SessionTTL == 0 {
		cfg.Security.SessionTTL = defaults.Security.SessionTTL
	}
	if cfg.Security.VerificationTTL == 0 {
		cfg.Security.VerificationTTL = defaults.Security.VerificationTTL
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaults.LLM.Provider
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaults.LLM.Model
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = defaults.LLM.Timeout
	}
	if cfg.RateLimit.Rate == 0 {
		cfg.RateLimit.Rate = defaults.RateLimit.Rate
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = defaults.RateLimit.Burst
	}
}

func applyEnvOverrides(cfg *Config) {
	viper.AutomaticEnv()

	_ = viper.BindEnv("db_host", "DB_HOST")
	_ = viper.BindEnv("db_password", "DB_PASSWORD")
	_ = viper.BindEnv("redis_addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = viper.BindEnv("smtp_pass", "SMTP_PASS")
	_ = viper.BindEnv("jwt_secret", "JWT_SECRET")
	_ = viper.BindEnv("llm_api_key", "LLM_API_KEY", "OPENAI_API_KEY")

	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("APP_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("APP_HTTP_ADDR"); v != "" {
		cfg.App.HTTPAddr = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.App.FrontendURL = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.App.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("APP_EXPOSE_VERIFICATION_LINK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.App.ExposeVerificationLink = b
		}
	}

	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.Database.DSN = v
	} else if cfg.Database.Driver == "mysql" && (hasAnyEnv("DB_PORT", "DB_USER", "DB_NAME") || viper.GetString("db_host") != "" || viper.GetString("db_password") != "") {
		parsed := parseMySQLDSN(cfg.Database.DSN)
		if v := viper.GetString("db_host"); v != "" {
			host := v
			port := getenvDefault("DB_PORT", parsed.Addr, "3306")
			parsed.Addr = host + ":" + port
		} else if v := os.Getenv("DB_PORT"); v != "" {
			host := parsed.Addr
			if strings.Contains(host, ":") {
				host = strings.Split(host, ":")[0]
			}
			parsed.Addr = host + ":" + v
		}
		if v := os.Getenv("DB_USER"); v != "" {
			parsed.User = v
		}
		if v := viper.GetString("db_password"); v != "" {
			parsed.Passwd = v
		}
		if v := os.Getenv("DB_NAME"); v != "" {
			parsed.DBName = v
		}
		cfg.Database.DSN = parsed.FormatDSN()
	}

	if v := viper.GetString("redis_addr"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := viper.GetString("redis_password"); v != "" {
		cfg.Redis.Password = v
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Email.SMTPPort = i
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.Email.SMTPUser = v
	}
	if v := viper.GetString("smtp_pass"); v != "" {
		cfg.Email.SMTPPass = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		cfg.Email.FromEmail = v
	}
	if v := os.Getenv("RESEND_API_URL"); v != "" {
		cfg.Email.ResendURL = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Email.ResendAPIKey = v
	}
	if v := os.Getenv("RESEND_SENDER_EMAIL"); v != "" {
		cfg.Email.ResendSender = v
	}

	if v := viper.GetString("jwt_secret"); v != "" {
		cfg.Security.JWTSecret = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Security.SessionTTL = d
		}
	}
	if v := os.Getenv("VERIFICATION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Security.VerificationTTL = d
		}
	}

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("llm_api_key"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = d
		}
	}

	if v := os.Getenv("APP_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.Rate = f
		}
	}
	if v := os.Getenv("APP_RATE_BURST"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.Burst = f
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasAnyEnv(keys ...string) bool {
	for _, key := range keys {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

func getenvDefault(envKey, fallbackAddr, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if fallbackAddr == "" {
		return defaultValue
	}
	if strings.Contains(fallbackAddr, ":") {
		parts := strings.Split(fallbackAddr, ":")
		if len(parts) == 2 && parts[1] != "" {
			return parts[1]
		}
	}
	return defaultValue
}

func parseMySQLDSN(dsn string) *mysql.Config {
	fallback := func() *mysql.Config {
		c := mysql.NewConfig()
		c.User = "root"
		c.Net = "tcp"
		c.Addr = "localhost:3306"
		c.DBName = "smarttasks"
		c.ParseTime = true
		return c
	}
	if dsn == "" {
		return fallback()
	}
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return fallback()
	}
	return parsed
}

// UnmarshalJSON 自定义 JSON 解析，支持时间 Duration 字符串。
func (s *SecurityConfig) UnmarshalJSON(data []byte) error {
	type Alias SecurityConfig
	aux := &struct {
		SessionTTL      string `json:"session_ttl"`
		VerificationTTL string `json:"verification_ttl"`
		*Alias
	}{
		Alias: (*Alias)(s),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.SessionTTL != "" {
		d, err := time.ParseDuration(aux.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid session_ttl format: %w", err)
		}
		s.SessionTTL = d
	}
	if aux.VerificationTTL != "" {
		d, err := time.ParseDuration(aux.VerificationTTL)
		if err != nil {
			return fmt.Errorf("invalid verification_ttl format: %w", err)
		}
		s.VerificationTTL = d
	}
	return nil
}

// MarshalJSON 自定义 JSON 序列化，将 Duration 转为字符串。
func (s SecurityConfig) MarshalJSON() ([]byte, error) {
	type Alias SecurityConfig
	return json.Marshal(&struct {
		SessionTTL      string `json:"session_ttl"`
		VerificationTTL string `json:"verification_ttl"`
		*Alias
	}{
		SessionTTL:      s.SessionTTL.String(),
		VerificationTTL: s.VerificationTTL.String(),
		Alias:           (*Alias)(&s),
	})
}

// UnmarshalJSON 自定义 JSON 解析，支持 timeout 字符串。
func (l *LLMConfig) UnmarshalJSON(data []byte) error {
	type Alias LLMConfig
	aux := &struct {
		Timeout string `json:"timeout"`
		*Alias
	}{
		Alias: (*Alias)(l),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Timeout != "" {
		d, err := time.ParseDuration(aux.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout format: %w", err)
		}
		l.Timeout = d
	}
	return nil
}
