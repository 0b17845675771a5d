// Package advisor 调用外部对话模型，为任务给出 Keep / Delegate / Automate / Eliminate 建议。
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leoarenas/smarttasks/internal/model"
	"github.com/leoarenas/smarttasks/internal/pkg/metrics"
)

var (
	// ErrNotConfigured 未配置模型时返回。
	ErrNotConfigured = errors.New("AI provider not configured")
	// ErrMalformedResponse 模型回复不符合约定的 JSON 格式时返回。
	ErrMalformedResponse = errors.New("could not parse AI response")
	// ErrProvider 包装网络与模型服务错误。
	ErrProvider = errors.New("AI provider error")
)

// ChatModel 是一次系统提示 + 用户提示的对话补全。
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Analysis 是校验通过的顾问结论。
type Analysis struct {
	Impact           int
	Risk             int
	Effort           int
	Confidentiality  string
	Decision         model.Decision
	Justification    string
	SuggestedProfile *string
	SuggestedHours   *string
}

// Fields 返回需要写回任务的字段，analyzed_at 取 now。
func (a *Analysis) Fields(now time.Time) map[string]any {
	return map[string]any{
		"impact":                 a.Impact,
		"risk":                   a.Risk,
		"effort":                 a.Effort,
		"confidentiality":        a.Confidentiality,
		"decision":               string(a.Decision),
		"decision_justification": a.Justification,
		"suggested_profile":      a.SuggestedProfile,
		"suggested_hours":        a.SuggestedHours,
		"analyzed_at":            now.UTC(),
	}
}

// Advisor 负责构造提示词、调用模型并解析结果。
type Advisor struct {
	model  ChatModel
	logger *slog.Logger
}

// New 创建决策顾问。chatModel 为 nil 时每次调用都返回 ErrNotConfigured。
func New(chatModel ChatModel, logger *slog.Logger) *Advisor {
	return &Advisor{model: chatModel, logger: logger}
}

// Configured 判断是否已配置模型。
func (a *Advisor) Configured() bool {
	return a != nil && a.model != nil
}

// Analyze 请求模型给出任务决策，不修改 task 本身。
func (a *Advisor) Analyze(ctx context.Context, task *model.Task) (*Analysis, error) {
	if !a.Configured() {
		metrics.AnalysisTotal.WithLabelValues("not_configured").Inc()
		return nil, ErrNotConfigured
	}

	start := time.Now()
	reply, err := a.model.Complete(ctx, SystemPrompt, BuildPrompt(task))
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalysisTotal.WithLabelValues("provider_error").Inc()
		a.warn("advisor call failed", task, err)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	analysis, err := ParseResponse(reply)
	if err != nil {
		metrics.AnalysisTotal.WithLabelValues("parse_error").Inc()
		a.warn("advisor reply rejected", task, err)
		return nil, err
	}

	metrics.AnalysisTotal.WithLabelValues("ok").Inc()
	if a.logger != nil {
		a.logger.Info("task analyzed",
			slog.String("task_id", task.ID),
			slog.String("decision", string(analysis.Decision)),
			slog.Duration("latency", time.Since(start)),
		)
	}
	return analysis, nil
}

func (a *Advisor) warn(msg string, task *model.Task, err error) {
	if a.logger == nil {
		return
	}
	a.logger.Warn(msg, slog.String("task_id", task.ID), slog.String("error", err.Error()))
}
