package advisor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/leoarenas/smarttasks/internal/model"
)

type rawAnalysis struct {
	Impact           json.RawMessage `json:"impact"`
	Risk             json.RawMessage `json:"risk"`
	Effort           json.RawMessage `json:"effort"`
	Confidentiality  string          `json:"confidentiality"`
	Decision         string          `json:"decision"`
	Justification    string          `json:"decision_justification"`
	SuggestedProfile json.RawMessage `json:"suggested_profile"`
	SuggestedHours   json.RawMessage `json:"suggested_hours"`
}

// ParseResponse 从模型回复中提取并校验 JSON 对象。
//
// 所有失败都包装 ErrMalformedResponse。
func ParseResponse(reply string) (*Analysis, error) {
	obj, ok := extractObject(reply)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	decision, ok := model.ParseDecision(raw.Decision)
	if !ok {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrMalformedResponse, raw.Decision)
	}
	conf, ok := model.ParseConfidentiality(raw.Confidentiality)
	if !ok {
		return nil, fmt.Errorf("%w: unknown confidentiality %q", ErrMalformedResponse, raw.Confidentiality)
	}

	out := &Analysis{
		Confidentiality: conf,
		Decision:        decision,
		Justification:   strings.TrimSpace(raw.Justification),
	}
	scores := []struct {
		name string
		raw  json.RawMessage
		dst  *int
	}{
		{"impact", raw.Impact, &out.Impact},
		{"risk", raw.Risk, &out.Risk},
		{"effort", raw.Effort, &out.Effort},
	}
	for _, s := range scores {
		v, err := parseScore(s.raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, s.name, err)
		}
		*s.dst = v
	}

	out.SuggestedProfile = optionalText(raw.SuggestedProfile)
	out.SuggestedHours = optionalText(raw.SuggestedHours)
	return out, nil
}

// extractObject 去掉 Markdown 代码块，返回第一个 '{' 到最后一个 '}' 之间的文本。
func extractObject(reply string) (string, bool) {
	s := strings.TrimSpace(reply)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		s = rest
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func parseScore(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("missing")
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("not a number")
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number")
		}
		f = parsed
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	if f < 1 || f > 5 {
		return 0, fmt.Errorf("out of range: %v", f)
	}
	return int(f), nil
}

// optionalText 接受字符串、数字或 null。
func optionalText(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
		return nil
	}
	return &s
}
