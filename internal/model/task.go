package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Decision 是顾问给出的任务处理建议。
type Decision string

const (
	DecisionKeep      Decision = "Keep"
	DecisionDelegate  Decision = "Delegate"
	DecisionAutomate  Decision = "Automate"
	DecisionEliminate Decision = "Eliminate"
)

// ParseDecision 规范化决策标签。
//
// 支持任意大小写的英文全称、西语名称以及旧提示词使用的单字母代码（C, D, A, E）。
func ParseDecision(s string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep", "c", "conservar":
		return DecisionKeep, true
	case "delegate", "d", "delegar":
		return DecisionDelegate, true
	case "automate", "a", "automatizar":
		return DecisionAutomate, true
	case "eliminate", "e", "eliminar":
		return DecisionEliminate, true
	}
	return "", false
}

// 保密级别。
const (
	ConfidentialityLow    = "Low"
	ConfidentialityMedium = "Medium"
	ConfidentialityHigh   = "High"
)

// ParseConfidentiality 规范化保密级别，兼容西语标签（Baja, Media, Alta）。
func ParseConfidentiality(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "baja":
		return ConfidentialityLow, true
	case "medium", "media":
		return ConfidentialityMedium, true
	case "high", "alta":
		return ConfidentialityHigh, true
	}
	return "", false
}

// Task 表示用户清单中的一项业务任务。
//
// The decision fields (Decision, DecisionJustification, SuggestedProfile,
// SuggestedHours, AnalyzedAt) are written only by the decision advisor.
type Task struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Frequency   string `gorm:"type:varchar(64)" json:"frequency"`
	Duration    string `gorm:"type:varchar(64)" json:"duration"`

	Impact          *int    `json:"impact"` // 1-5
	Risk            *int    `json:"risk"`   // 1-5
	Effort          *int    `json:"effort"` // 1-5
	Confidentiality *string `gorm:"type:varchar(16)" json:"confidentiality"`

	Decision              *string    `gorm:"type:varchar(16)" json:"decision"`
	DecisionJustification *string    `gorm:"type:text" json:"decision_justification"`
	SuggestedProfile      *string    `gorm:"type:varchar(255)" json:"suggested_profile"`
	SuggestedHours        *string    `gorm:"type:varchar(64)" json:"suggested_hours"`
	AnalyzedAt            *time.Time `json:"analyzed_at"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate 未设置 ID 时生成 UUID。
func (t *Task) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Analyzed 判断任务是否已有顾问决策。
func (t *Task) Analyzed() bool {
	return t.Decision != nil && *t.Decision != ""
}
