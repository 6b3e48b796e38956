package metering

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/muaina/portal/internal/models"
)

func usageReport(createdAt time.Time, input, output, total int, cost float64) models.Report {
	raw, _ := json.Marshal(map[string]interface{}{
		"usage": map[string]interface{}{
			"input_tokens":       input,
			"output_tokens":      output,
			"total_tokens":       total,
			"estimated_cost_usd": cost,
			"api_calls":          1,
			"processing_time_ms": 1500,
		},
	})
	return models.Report{
		ID:         uuid.New(),
		AIAnalysis: raw,
		CreatedAt:  createdAt,
	}
}

func TestAggregateTotalsAndDerivedMetrics(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	reports := []models.Report{
		usageReport(now.AddDate(0, 0, -1), 700, 300, 1000, 0.006),
		usageReport(now.AddDate(0, 0, -2), 1400, 600, 2000, 0.012),
		usageReport(now.AddDate(0, 0, -3), 2100, 900, 3000, 0.018),
	}

	s := Aggregate(reports, 30, now)

	if s.TotalReports != 3 {
		t.Fatalf("TotalReports = %d, want 3", s.TotalReports)
	}
	if s.TotalTokens != 6000 {
		t.Errorf("TotalTokens = %d, want 6000", s.TotalTokens)
	}
	if s.AvgTokensPerReport != 2000 {
		t.Errorf("AvgTokensPerReport = %d, want 2000", s.AvgTokensPerReport)
	}
	// 4200 input tokens at $3/M, independent of stored estimates.
	if s.InputCostUSD != 0.0126 {
		t.Errorf("InputCostUSD = %v, want 0.0126", s.InputCostUSD)
	}
	if s.OutputCostUSD != 0.027 {
		t.Errorf("OutputCostUSD = %v, want 0.027", s.OutputCostUSD)
	}
	if s.TotalCostUSD != 0.036 {
		t.Errorf("TotalCostUSD = %v, want 0.036", s.TotalCostUSD)
	}
	if s.AvgCostPerReport != 0.012 {
		t.Errorf("AvgCostPerReport = %v, want 0.012", s.AvgCostPerReport)
	}
	if s.AvgProcessingTimeMs != 1500 {
		t.Errorf("AvgProcessingTimeMs = %d, want 1500", s.AvgProcessingTimeMs)
	}
	// 0.036 / 30 * 30, two decimals.
	if s.ProjectedMonthlyCost != 0.04 {
		t.Errorf("ProjectedMonthlyCost = %v, want 0.04", s.ProjectedMonthlyCost)
	}
	if len(s.ByDay) != 3 {
		t.Errorf("ByDay has %d buckets, want 3", len(s.ByDay))
	}
	day := now.AddDate(0, 0, -1).Format("2006-01-02")
	if d := s.ByDay[day]; d.TotalTokens != 1000 || d.Reports != 1 {
		t.Errorf("bucket %s = %+v", day, d)
	}
}

func TestAggregateWindowFilterAndMissingUsage(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	inWindow := usageReport(now.AddDate(0, 0, -5), 100, 50, 150, 0.001)
	tooOld := usageReport(now.AddDate(0, 0, -40), 9999, 9999, 19998, 9.99)
	noUsage := models.Report{ID: uuid.New(), AIAnalysis: json.RawMessage(`{}`), CreatedAt: now}
	noBlob := models.Report{ID: uuid.New(), CreatedAt: now}

	s := Aggregate([]models.Report{inWindow, tooOld, noUsage, noBlob}, 30, now)

	if s.TotalReports != 1 {
		t.Errorf("TotalReports = %d, want 1", s.TotalReports)
	}
	if s.TotalTokens != 150 {
		t.Errorf("TotalTokens = %d, want 150", s.TotalTokens)
	}
	if len(s.Warnings) == 0 {
		t.Error("expected a warning for the absent analysis blob")
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	s := Aggregate(nil, 30, time.Now())
	if s.TotalReports != 0 || s.AvgTokensPerReport != 0 || s.AvgCostPerReport != 0 {
		t.Errorf("zero-report summary should have zero averages: %+v", s)
	}
	if s.ProjectedMonthlyCost != 0 {
		t.Errorf("ProjectedMonthlyCost = %v, want 0", s.ProjectedMonthlyCost)
	}
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	var reports []models.Report
	for i := 0; i < 50; i++ {
		reports = append(reports, usageReport(
			now.AddDate(0, 0, -(i%10)),
			100+i, 40+i, 140+2*i,
			0.000123*float64(i+1),
		))
	}

	want := Aggregate(reports, 30, now)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]models.Report, len(reports))
		copy(shuffled, reports)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := Aggregate(shuffled, 30, now)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("trial %d: shuffled summary differs:\n got %+v\nwant %+v", trial, got, want)
		}
	}
}

func TestAggregateWarningsDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	bogus := models.Report{ID: uuid.New(), AIAnalysis: json.RawMessage(`{"classification":"bogus"}`), CreatedAt: now}
	absent := models.Report{ID: uuid.New(), CreatedAt: now}
	absent2 := models.Report{ID: uuid.New(), CreatedAt: now}
	good := usageReport(now, 10, 5, 15, 0.001)

	a := Aggregate([]models.Report{bogus, absent, good, absent2}, 30, now)
	b := Aggregate([]models.Report{absent2, good, absent, bogus}, 30, now)

	if !reflect.DeepEqual(a, b) {
		t.Fatalf("summaries differ by input order:\n a %+v\n b %+v", a, b)
	}
	if !sort.StringsAreSorted(a.Warnings) {
		t.Errorf("warnings not sorted: %v", a.Warnings)
	}
	for i := 1; i < len(a.Warnings); i++ {
		if a.Warnings[i] == a.Warnings[i-1] {
			t.Errorf("duplicate warning survived: %q", a.Warnings[i])
		}
	}
}

func TestAggregateRounding(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	// 1 input token = $0.000003 exactly at 6 decimals.
	s := Aggregate([]models.Report{usageReport(now, 1, 1, 2, 0.0000049)}, 7, now)

	if s.InputCostUSD != 0.000003 {
		t.Errorf("InputCostUSD = %v, want 0.000003", s.InputCostUSD)
	}
	if s.OutputCostUSD != 0.000015 {
		t.Errorf("OutputCostUSD = %v, want 0.000015", s.OutputCostUSD)
	}
	if s.TotalCostUSD != 0.000005 {
		t.Errorf("TotalCostUSD = %v, want stored estimate rounded to 6 decimals", s.TotalCostUSD)
	}
	if got := fmt.Sprintf("%.2f", s.ProjectedMonthlyCost); got != "0.00" {
		t.Errorf("ProjectedMonthlyCost = %v, want 0.00", s.ProjectedMonthlyCost)
	}
}
