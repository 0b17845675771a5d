package model

import (
	"strings"
	"time"
)

// AppConfigID 是唯一配置行的主键。
const AppConfigID = "app_config"

// DefaultAppName 管理员修改前使用的应用名称。
const DefaultAppName = "SmartTasks"

// AppConfig 保存管理员可修改的运行时设置（发信凭证与应用名称）。
type AppConfig struct {
	ID           string    `gorm:"type:varchar(32);primaryKey" json:"id"`
	ResendAPIKey string    `gorm:"type:varchar(255)" json:"resend_api_key"`
	SenderEmail  string    `gorm:"type:varchar(191)" json:"sender_email"`
	AppName      string    `gorm:"type:varchar(128)" json:"app_name"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultAppConfig 返回首次读取时创建的配置行。
func DefaultAppConfig() AppConfig {
	return AppConfig{
		ID:      AppConfigID,
		AppName: DefaultAppName,
	}
}

// ResendConfigured 判断 Resend 凭证是否齐全。
func (c AppConfig) ResendConfigured() bool {
	return strings.TrimSpace(c.ResendAPIKey) != "" && strings.TrimSpace(c.SenderEmail) != ""
}

// DisplayName 返回应用名称，未设置时使用默认值。
func (c AppConfig) DisplayName() string {
	if strings.TrimSpace(c.AppName) == "" {
		return DefaultAppName
	}
	return c.AppName
}

// Masked 返回掩码后的副本：API Key 只保留前 8 位和后 4 位。
func (c AppConfig) Masked() AppConfig {
	out := c
	out.ResendAPIKey = MaskSecret(c.ResendAPIKey)
	return out
}

// MaskSecret 隐藏密钥中间部分，12 个字符以内的密钥全部隐藏。
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 12 {
		return "****"
	}
	return s[:8] + "..." + s[len(s)-4:]
}
