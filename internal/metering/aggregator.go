package metering

import (
	"math"
	"sort"
	"time"

	"github.com/muaina/portal/internal/analysis"
	"github.com/muaina/portal/internal/models"
)

// Published Muaina rates, USD per million tokens. The cost breakdown is
// recomputed from these rather than trusting stored estimated_cost_usd,
// so a summary stays reproducible even if historical per-call rates
// changed. The stored estimates are still totaled for reconciliation.
const (
	InputUSDPerMillionTokens  = 3.0
	OutputUSDPerMillionTokens = 15.0
)

type DayUsage struct {
	Reports      int     `json:"reports"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	APICalls     int     `json:"api_calls"`
	CostUSD      float64 `json:"cost_usd"`
}

type Summary struct {
	WindowDays            int                 `json:"window_days"`
	TotalReports          int                 `json:"total_reports"`
	TotalInputTokens      int                 `json:"total_input_tokens"`
	TotalOutputTokens     int                 `json:"total_output_tokens"`
	TotalTokens           int                 `json:"total_tokens"`
	TotalAPICalls         int                 `json:"total_api_calls"`
	TotalProcessingTimeMs int                 `json:"total_processing_time_ms"`
	TotalCostUSD          float64             `json:"total_cost_usd"`
	InputCostUSD          float64             `json:"input_cost_usd"`
	OutputCostUSD         float64             `json:"output_cost_usd"`
	AvgTokensPerReport    int                 `json:"avg_tokens_per_report"`
	AvgCostPerReport      float64             `json:"avg_cost_per_report"`
	AvgProcessingTimeMs   int                 `json:"avg_processing_time_ms"`
	ProjectedMonthlyCost  float64             `json:"projected_monthly_cost_usd"`
	ByDay                 map[string]DayUsage `json:"by_day"`
	Warnings              []string            `json:"warnings,omitempty"`
}

// Aggregate folds per-report usage into one summary. Reports outside the
// window or without a usage record are skipped. The fold accumulates
// integer token counts and micro-dollars, and warnings are sorted and
// deduplicated, so the whole result is identical for any input ordering.
func Aggregate(reports []models.Report, windowDays int, now time.Time) Summary {
	if windowDays <= 0 {
		windowDays = 30
	}
	cutoff := now.AddDate(0, 0, -windowDays)

	s := Summary{
		WindowDays: windowDays,
		ByDay:      make(map[string]DayUsage),
	}
	var costMicros int64

	for _, r := range reports {
		if r.CreatedAt.Before(cutoff) {
			continue
		}

		res, warnings := analysis.Parse(r.AIAnalysis)
		s.Warnings = append(s.Warnings, warnings...)
		if res.Usage == nil {
			continue
		}
		u := res.Usage

		s.TotalReports++
		s.TotalInputTokens += u.InputTokens
		s.TotalOutputTokens += u.OutputTokens
		s.TotalTokens += u.TotalTokens
		s.TotalAPICalls += u.APICalls
		s.TotalProcessingTimeMs += u.ProcessingTimeMs
		costMicros += toMicros(u.EstimatedCostUSD)

		day := r.CreatedAt.UTC().Format("2006-01-02")
		d := s.ByDay[day]
		d.Reports++
		d.InputTokens += u.InputTokens
		d.OutputTokens += u.OutputTokens
		d.TotalTokens += u.TotalTokens
		d.APICalls += u.APICalls
		s.ByDay[day] = d
	}

	for day, d := range s.ByDay {
		d.CostUSD = tokenCost(d.InputTokens, d.OutputTokens)
		s.ByDay[day] = d
	}

	s.TotalCostUSD = fromMicros(costMicros)
	s.InputCostUSD = round6(float64(s.TotalInputTokens) / 1_000_000 * InputUSDPerMillionTokens)
	s.OutputCostUSD = round6(float64(s.TotalOutputTokens) / 1_000_000 * OutputUSDPerMillionTokens)

	if s.TotalReports > 0 {
		s.AvgTokensPerReport = int(math.Round(float64(s.TotalTokens) / float64(s.TotalReports)))
		s.AvgCostPerReport = round6(s.TotalCostUSD / float64(s.TotalReports))
		s.AvgProcessingTimeMs = int(math.Round(float64(s.TotalProcessingTimeMs) / float64(s.TotalReports)))
	}
	s.ProjectedMonthlyCost = round2(s.TotalCostUSD / float64(windowDays) * 30)

	sort.Strings(s.Warnings)
	s.Warnings = compact(s.Warnings)

	return s
}

func compact(sorted []string) []string {
	out := sorted[:0]
	for _, w := range sorted {
		if len(out) == 0 || out[len(out)-1] != w {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func tokenCost(inputTokens, outputTokens int) float64 {
	in := float64(inputTokens) / 1_000_000 * InputUSDPerMillionTokens
	out := float64(outputTokens) / 1_000_000 * OutputUSDPerMillionTokens
	return round6(in + out)
}

// Stored estimates accumulate as integer micro-dollars so that float
// addition order cannot perturb the total.
func toMicros(usd float64) int64 {
	return int64(math.Round(usd * 1_000_000))
}

func fromMicros(m int64) float64 {
	return float64(m) / 1_000_000
}

func round6(v float64) float64 {
	return math.Round(v*1_000_000) / 1_000_000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
