package advisor

import (
	"errors"
	"testing"

	"github.com/leoarenas/smarttasks/internal/model"
)

func TestParseResponse(t *testing.T) {
	cases := []struct {
		name     string
		reply    string
		decision model.Decision
		conf     string
		profile  string
		wantErr  bool
	}{
		{
			name:     "plain object",
			reply:    `{"impact":5,"risk":4,"effort":2,"confidentiality":"High","decision":"Keep","decision_justification":"Critical.","suggested_profile":null,"suggested_hours":null}`,
			decision: model.DecisionKeep,
			conf:     "High",
		},
		{
			name:     "fenced with prose",
			reply:    "Here is my analysis:\n```json\n{\"impact\":2,\"risk\":1,\"effort\":1,\"confidentiality\":\"Low\",\"decision\":\"Automate\",\"decision_justification\":\"Repetitive.\"}\n```\nThanks!",
			decision: model.DecisionAutomate,
			conf:     "Low",
		},
		{
			name:     "letter code and spanish label",
			reply:    `{"impact":"3","risk":2,"effort":4,"confidentiality":"Media","decision":"D","decision_justification":"x","suggested_profile":"Agencia externa","suggested_hours":8}`,
			decision: model.DecisionDelegate,
			conf:     "Medium",
			profile:  "Agencia externa",
		},
		{
			name:    "unknown decision",
			reply:   `{"impact":3,"risk":2,"effort":4,"confidentiality":"Low","decision":"Outsource"}`,
			wantErr: true,
		},
		{
			name:    "score out of range",
			reply:   `{"impact":7,"risk":2,"effort":4,"confidentiality":"Low","decision":"Keep"}`,
			wantErr: true,
		},
		{
			name:    "fractional score",
			reply:   `{"impact":2.5,"risk":2,"effort":4,"confidentiality":"Low","decision":"Keep"}`,
			wantErr: true,
		},
		{
			name:    "missing score",
			reply:   `{"risk":2,"effort":4,"confidentiality":"Low","decision":"Keep"}`,
			wantErr: true,
		},
		{
			name:    "unknown confidentiality",
			reply:   `{"impact":3,"risk":2,"effort":4,"confidentiality":"Secret","decision":"Keep"}`,
			wantErr: true,
		},
		{
			name:    "broken json",
			reply:   `{"impact":3,"risk":`,
			wantErr: true,
		},
		{
			name:    "no object",
			reply:   "Keep it.",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseResponse(tc.reply)
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Fatalf("expected ErrMalformedResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got.Decision != tc.decision {
				t.Fatalf("decision = %q, want %q", got.Decision, tc.decision)
			}
			if got.Confidentiality != tc.conf {
				t.Fatalf("confidentiality = %q, want %q", got.Confidentiality, tc.conf)
			}
			if tc.profile != "" && (got.SuggestedProfile == nil || *got.SuggestedProfile != tc.profile) {
				t.Fatalf("profile = %v, want %q", got.SuggestedProfile, tc.profile)
			}
		})
	}
}

func TestParseResponse_NumericHours(t *testing.T) {
	got, err := ParseResponse(`{"impact":3,"risk":2,"effort":4,"confidentiality":"Low","decision":"Delegate","suggested_hours":8}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.SuggestedHours == nil || *got.SuggestedHours != "8" {
		t.Fatalf("expected hours \"8\", got %v", got.SuggestedHours)
	}
	if got.SuggestedProfile != nil {
		t.Fatalf("expected nil profile, got %q", *got.SuggestedProfile)
	}
}

func TestExtractObject_NestedBraces(t *testing.T) {
	got, ok := extractObject("prefix {\"a\": {\"b\": 1}} suffix")
	if !ok || got != `{"a": {"b": 1}}` {
		t.Fatalf("unexpected extraction %q ok=%v", got, ok)
	}
}
