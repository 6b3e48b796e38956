package analysis

import (
	"encoding/json"
	"testing"
)

func TestParseFullBlob(t *testing.T) {
	raw := json.RawMessage(`{
		"version": 2,
		"classification": "Abnormal",
		"findings": [{"label": "lesion", "severity": "moderate"}],
		"usage": {
			"input_tokens": 700,
			"output_tokens": 300,
			"total_tokens": 1000,
			"estimated_cost_usd": 0.0066,
			"api_calls": 2,
			"processing_time_ms": 4200
		}
	}`)

	res, warnings := Parse(raw)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if res.Version != 2 {
		t.Errorf("version = %d, want 2", res.Version)
	}
	if res.Classification != ClassAbnormal {
		t.Errorf("classification = %q, want abnormal", res.Classification)
	}
	if len(res.Findings) != 1 || res.Findings[0].Label != "lesion" {
		t.Errorf("findings not carried through: %+v", res.Findings)
	}
	if res.Usage == nil || res.Usage.TotalTokens != 1000 || res.Usage.APICalls != 2 {
		t.Errorf("usage not carried through: %+v", res.Usage)
	}
}

func TestParseAbsenceAndRepairs(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantWarnings int
		check        func(t *testing.T, res *Result)
	}{
		{
			name:         "empty blob",
			raw:          "",
			wantWarnings: 1,
			check: func(t *testing.T, res *Result) {
				if res.Usage != nil || res.Classification != "" {
					t.Errorf("expected empty result, got %+v", res)
				}
			},
		},
		{
			name:         "json null",
			raw:          "null",
			wantWarnings: 1,
			check:        func(t *testing.T, res *Result) {},
		},
		{
			name:         "malformed json never panics or errors",
			raw:          `{"usage": [`,
			wantWarnings: 1,
			check:        func(t *testing.T, res *Result) {},
		},
		{
			name:         "unknown classification warned and dropped",
			raw:          `{"classification": "severe"}`,
			wantWarnings: 1,
			check: func(t *testing.T, res *Result) {
				if res.Classification != "" {
					t.Errorf("classification = %q, want empty", res.Classification)
				}
			},
		},
		{
			name: "missing total derived from parts",
			raw:  `{"usage": {"input_tokens": 700, "output_tokens": 300}}`,
			check: func(t *testing.T, res *Result) {
				if res.Usage.TotalTokens != 1000 {
					t.Errorf("total = %d, want 1000", res.Usage.TotalTokens)
				}
			},
		},
		{
			name:         "negative tokens zeroed with warning",
			raw:          `{"usage": {"input_tokens": -5, "total_tokens": 10}}`,
			wantWarnings: 1,
			check: func(t *testing.T, res *Result) {
				if res.Usage.InputTokens != 0 {
					t.Errorf("input = %d, want 0", res.Usage.InputTokens)
				}
				if res.Usage.TotalTokens != 10 {
					t.Errorf("total = %d, want 10", res.Usage.TotalTokens)
				}
			},
		},
		{
			name:         "missing version defaults to 1",
			raw:          `{}`,
			wantWarnings: 0,
			check: func(t *testing.T, res *Result) {
				if res.Version != 1 {
					t.Errorf("version = %d, want 1", res.Version)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, warnings := Parse(json.RawMessage(tt.raw))
			if len(warnings) != tt.wantWarnings {
				t.Errorf("warnings = %v, want %d of them", warnings, tt.wantWarnings)
			}
			tt.check(t, res)
		})
	}
}
