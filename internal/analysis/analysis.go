package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Classification values a report's analysis may carry. Severity order is
// critical > abnormal > normal.
const (
	ClassNormal   = "normal"
	ClassAbnormal = "abnormal"
	ClassCritical = "critical"
)

type Usage struct {
	InputTokens      int     `json:"input_tokens"`
	OutputTokens     int     `json:"output_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	APICalls         int     `json:"api_calls"`
	ProcessingTimeMs int     `json:"processing_time_ms"`
}

type Finding struct {
	Label    string `json:"label"`
	Detail   string `json:"detail,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// Result is the validated view of the producer's ai_analysis blob. Every
// field the producer may omit is explicitly optional: Usage is nil when
// no usage was reported, Classification is empty when absent. Parse once
// at the boundary; downstream code never touches the raw JSON again.
type Result struct {
	Version        int       `json:"version"`
	Classification string    `json:"classification,omitempty"`
	Findings       []Finding `json:"findings,omitempty"`
	Usage          *Usage    `json:"usage,omitempty"`
}

// Parse validates a raw analysis blob. It never fails: malformed or
// missing optional fields become defaults, and each repair is reported on
// the warnings slice so one bad record cannot abort an aggregate.
func Parse(raw json.RawMessage) (*Result, []string) {
	var warnings []string
	res := &Result{}

	if len(raw) == 0 || string(raw) == "null" {
		return res, []string{"analysis blob absent"}
	}

	var doc struct {
		Version        *int      `json:"version"`
		Classification *string   `json:"classification"`
		Findings       []Finding `json:"findings"`
		Usage          *rawUsage `json:"usage"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return res, []string{fmt.Sprintf("analysis blob unreadable: %v", err)}
	}

	if doc.Version != nil {
		res.Version = *doc.Version
	} else {
		res.Version = 1
	}

	if doc.Classification != nil {
		c := strings.ToLower(strings.TrimSpace(*doc.Classification))
		switch c {
		case ClassNormal, ClassAbnormal, ClassCritical:
			res.Classification = c
		case "":
		default:
			warnings = append(warnings, fmt.Sprintf("unknown classification %q ignored", *doc.Classification))
		}
	}

	res.Findings = doc.Findings

	if doc.Usage != nil {
		usage, w := doc.Usage.validate()
		warnings = append(warnings, w...)
		res.Usage = usage
	}

	return res, warnings
}

type rawUsage struct {
	InputTokens      *int     `json:"input_tokens"`
	OutputTokens     *int     `json:"output_tokens"`
	TotalTokens      *int     `json:"total_tokens"`
	EstimatedCostUSD *float64 `json:"estimated_cost_usd"`
	APICalls         *int     `json:"api_calls"`
	ProcessingTimeMs *int     `json:"processing_time_ms"`
}

func (r *rawUsage) validate() (*Usage, []string) {
	var warnings []string
	u := &Usage{}

	u.InputTokens, warnings = nonNegative(r.InputTokens, "input_tokens", warnings)
	u.OutputTokens, warnings = nonNegative(r.OutputTokens, "output_tokens", warnings)
	u.TotalTokens, warnings = nonNegative(r.TotalTokens, "total_tokens", warnings)
	u.APICalls, warnings = nonNegative(r.APICalls, "api_calls", warnings)
	u.ProcessingTimeMs, warnings = nonNegative(r.ProcessingTimeMs, "processing_time_ms", warnings)

	if r.TotalTokens == nil {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
	if r.EstimatedCostUSD != nil {
		if *r.EstimatedCostUSD < 0 {
			warnings = append(warnings, "negative estimated_cost_usd treated as zero")
		} else {
			u.EstimatedCostUSD = *r.EstimatedCostUSD
		}
	}

	return u, warnings
}

func nonNegative(v *int, field string, warnings []string) (int, []string) {
	if v == nil {
		return 0, warnings
	}
	if *v < 0 {
		return 0, append(warnings, fmt.Sprintf("negative %s treated as zero", field))
	}
	return *v, warnings
}
