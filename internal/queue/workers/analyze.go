package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/muaina/portal/internal/analysis"
	"github.com/muaina/portal/internal/queue"
	"github.com/muaina/portal/internal/report"
)

// AnalyzeWorker hands an uploaded report to the external AI producer and
// stores whatever blobs come back. The pipeline itself lives behind the
// Producer interface.
type AnalyzeWorker struct {
	reports  *report.Service
	producer analysis.Producer
}

func NewAnalyzeWorker(reports *report.Service, producer analysis.Producer) *AnalyzeWorker {
	return &AnalyzeWorker{reports: reports, producer: producer}
}

func (w *AnalyzeWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ReportAnalyzePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	reportID, err := uuid.Parse(payload.ReportID)
	if err != nil {
		return fmt.Errorf("parse report ID: %w", err)
	}

	slog.Info("analyzing report", "report_id", reportID)

	r, err := w.reports.ForAnalysis(ctx, reportID)
	if err != nil {
		return fmt.Errorf("get report: %w", err)
	}

	out, err := w.producer.Analyze(ctx, r.OriginalFile, r.PatientInfo)
	if err != nil {
		return fmt.Errorf("analysis producer: %w", err)
	}

	// Validate once at the boundary; repairs are logged, not fatal.
	if _, warnings := analysis.Parse(out.Analysis); len(warnings) > 0 {
		slog.Warn("producer blob needed repairs", "report_id", reportID, "warnings", warnings)
	}

	if err := w.reports.AttachAnalysis(ctx, reportID, report.AnalysisBlobs{
		Analysis:       out.Analysis,
		Interpretation: out.Interpretation,
	}); err != nil {
		return fmt.Errorf("store analysis: %w", err)
	}

	slog.Info("report analyzed", "report_id", reportID)
	return nil
}
