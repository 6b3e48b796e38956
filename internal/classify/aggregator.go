package classify

import (
	"sort"
	"strings"
	"time"

	"github.com/muaina/portal/internal/analysis"
	"github.com/muaina/portal/internal/models"
)

// severityRank orders classifications for the rollup: the highest rank
// present among a patient's reports wins.
var severityRank = map[string]int{
	analysis.ClassNormal:   0,
	analysis.ClassAbnormal: 1,
	analysis.ClassCritical: 2,
}

type PatientSummary struct {
	PatientName           string    `json:"patient_name"`
	ReportCount           int       `json:"report_count"`
	LatestReportDate      time.Time `json:"latest_report_date"`
	Classifications       []string  `json:"classifications"`
	OverallClassification string    `json:"overall_classification"`
}

// Aggregate groups one organization's reports by exact patient name and
// rolls their classifications up to the dominant severity. nameFilter is
// a case-insensitive substring match; the grouping key stays
// case-sensitive. Reports without a patient name are the only ones
// dropped. Output is sorted by latest report date, newest first.
func Aggregate(reports []models.Report, nameFilter string) []PatientSummary {
	filter := strings.ToLower(strings.TrimSpace(nameFilter))
	groups := make(map[string]*PatientSummary)

	for _, r := range reports {
		name := r.PatientInfo.Name
		if name == "" {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(name), filter) {
			continue
		}

		res, _ := analysis.Parse(r.AIAnalysis)
		class := res.Classification
		if class == "" {
			class = analysis.ClassNormal
		}

		g, ok := groups[name]
		if !ok {
			g = &PatientSummary{PatientName: name}
			groups[name] = g
		}
		g.ReportCount++
		if r.CreatedAt.After(g.LatestReportDate) {
			g.LatestReportDate = r.CreatedAt
		}
		if !contains(g.Classifications, class) {
			g.Classifications = append(g.Classifications, class)
		}
	}

	out := make([]PatientSummary, 0, len(groups))
	for _, g := range groups {
		sort.Slice(g.Classifications, func(i, j int) bool {
			return severityRank[g.Classifications[i]] > severityRank[g.Classifications[j]]
		})
		g.OverallClassification = g.Classifications[0]
		out = append(out, *g)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LatestReportDate.Equal(out[j].LatestReportDate) {
			return out[i].LatestReportDate.After(out[j].LatestReportDate)
		}
		return out[i].PatientName < out[j].PatientName
	})
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
