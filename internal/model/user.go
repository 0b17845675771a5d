package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 表示系统用户。
//
// PasswordHash stays empty until the email address is verified.
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(72)" json:"-"`
	IsVerified   bool      `gorm:"not null" json:"is_verified"`
	IsAdmin      bool      `gorm:"not null" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeCreate 未设置 ID 时生成 UUID。
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserSummary 是认证接口返回的用户公开信息。
type UserSummary struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Summary 返回 u 的公开信息。
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}
}

// VerificationToken 是一次性的邮箱验证凭证。
type VerificationToken struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);index;not null"`
	Token     string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index;not null"`
}

// BeforeCreate 生成行 ID 与随机令牌。
func (t *VerificationToken) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Token == "" {
		t.Token = uuid.NewString()
	}
	return nil
}

// Expired 判断令牌在 now 时刻是否已过期。
func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
