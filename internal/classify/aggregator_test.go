package classify

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/muaina/portal/internal/models"
)

func classifiedReport(name, classification string, createdAt time.Time) models.Report {
	var raw json.RawMessage
	if classification != "" {
		raw = json.RawMessage(fmt.Sprintf(`{"classification": %q}`, classification))
	}
	return models.Report{
		ID:          uuid.New(),
		PatientInfo: models.PatientInfo{Name: name},
		AIAnalysis:  raw,
		CreatedAt:   createdAt,
	}
}

func TestSeverityRollup(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	reports := []models.Report{
		classifiedReport("Ali Khan", "normal", base),
		classifiedReport("Ali Khan", "abnormal", base.AddDate(0, 0, 1)),
		classifiedReport("Ali Khan", "normal", base.AddDate(0, 0, 2)),
	}

	out := Aggregate(reports, "")
	if len(out) != 1 {
		t.Fatalf("got %d summaries, want 1", len(out))
	}
	if out[0].OverallClassification != "abnormal" {
		t.Errorf("overall = %q, want abnormal", out[0].OverallClassification)
	}
	if out[0].ReportCount != 3 {
		t.Errorf("report count = %d, want 3", out[0].ReportCount)
	}
	if !out[0].LatestReportDate.Equal(base.AddDate(0, 0, 2)) {
		t.Errorf("latest date = %v", out[0].LatestReportDate)
	}

	t.Run("one critical report dominates", func(t *testing.T) {
		reports := append(reports, classifiedReport("Ali Khan", "critical", base))
		out := Aggregate(reports, "")
		if out[0].OverallClassification != "critical" {
			t.Errorf("overall = %q, want critical", out[0].OverallClassification)
		}
	})
}

func TestMissingClassificationDefaultsToNormal(t *testing.T) {
	out := Aggregate([]models.Report{
		classifiedReport("Sara Malik", "", time.Now()),
	}, "")
	if len(out) != 1 || out[0].OverallClassification != "normal" {
		t.Fatalf("got %+v, want one normal summary", out)
	}
}

func TestGroupingIsCaseSensitiveFilterIsNot(t *testing.T) {
	now := time.Now()
	reports := []models.Report{
		classifiedReport("Ali Khan", "normal", now),
		classifiedReport("ali khan", "critical", now),
		classifiedReport("Omar Shaikh", "abnormal", now),
	}

	out := Aggregate(reports, "ALI")
	if len(out) != 2 {
		t.Fatalf("got %d groups, want 2 (grouping key is case-sensitive)", len(out))
	}
	for _, s := range out {
		if s.PatientName == "Omar Shaikh" {
			t.Error("filter should have excluded Omar Shaikh")
		}
	}
}

func TestNamelessReportsAreDropped(t *testing.T) {
	out := Aggregate([]models.Report{
		classifiedReport("", "critical", time.Now()),
		classifiedReport("Zoya Iqbal", "normal", time.Now()),
	}, "")
	if len(out) != 1 || out[0].PatientName != "Zoya Iqbal" {
		t.Fatalf("got %+v, want only Zoya Iqbal", out)
	}
}

func TestSortedByLatestReportDescending(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	reports := []models.Report{
		classifiedReport("Old Patient", "normal", base),
		classifiedReport("New Patient", "normal", base.AddDate(0, 0, 10)),
		classifiedReport("Mid Patient", "normal", base.AddDate(0, 0, 5)),
	}

	out := Aggregate(reports, "")
	want := []string{"New Patient", "Mid Patient", "Old Patient"}
	for i, name := range want {
		if out[i].PatientName != name {
			t.Errorf("position %d = %q, want %q", i, out[i].PatientName, name)
		}
	}
}
