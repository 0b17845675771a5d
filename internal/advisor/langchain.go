package advisor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/leoarenas/smarttasks/internal/config"
)

// LangChainModel adapts a langchaingo model to ChatModel.
type LangChainModel struct {
	llm         llms.Model
	temperature float64
}

// NewLangChainModel 包装 llm。
func NewLangChainModel(llm llms.Model, temperature float64) *LangChainModel {
	return &LangChainModel{llm: llm, temperature: temperature}
}

// NewFromConfig 按配置创建模型。
//
// 未设置 API Key 时返回 nil, nil，顾问保持未配置状态。
func NewFromConfig(cfg config.LLMConfig) (ChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return NewLangChainModel(llm, cfg.Temperature), nil
}

// Complete implements ChatModel.
func (m *LangChainModel) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, user),
	}
	var options []llms.CallOption
	if m.temperature > 0 {
		options = append(options, llms.WithTemperature(m.temperature))
	}

	resp, err := m.llm.GenerateContent(ctx, messages, options...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Choices[0].Content, nil
}
