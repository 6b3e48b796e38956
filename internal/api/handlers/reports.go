package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/muaina/portal/internal/analysis"
	"github.com/muaina/portal/internal/audit"
	"github.com/muaina/portal/internal/models"
	"github.com/muaina/portal/internal/obs"
	"github.com/muaina/portal/internal/pdf"
	"github.com/muaina/portal/internal/principal"
	"github.com/muaina/portal/internal/queue"
	"github.com/muaina/portal/internal/report"
)

type ReportHandler struct {
	reports       *report.Service
	renderer      *pdf.Renderer
	queue         *queue.Client
	exportTimeout time.Duration
}

func NewReportHandler(reports *report.Service, renderer *pdf.Renderer, qc *queue.Client, exportTimeout time.Duration) *ReportHandler {
	return &ReportHandler{
		reports:       reports,
		renderer:      renderer,
		queue:         qc,
		exportTimeout: exportTimeout,
	}
}

func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())

	var req struct {
		OriginalFile string             `json:"original_file"`
		PatientInfo  models.PatientInfo `json:"patient_info"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OriginalFile == "" {
		writeError(w, http.StatusBadRequest, "original_file required")
		return
	}

	rpt, err := h.reports.Create(r.Context(), user, req.OriginalFile, req.PatientInfo)
	if err != nil {
		auditDenial(h.queue, user, err, r)
		writeServiceError(w, err)
		return
	}

	if err := h.queue.EnqueueReportAnalyze(queue.ReportAnalyzePayload{
		ReportID:       rpt.ID.String(),
		OrganizationID: rpt.OrganizationID.String(),
	}); err != nil {
		slog.Error("analyze dispatch failed", "report_id", rpt.ID, "error", err)
	}

	dispatchAudit(h.queue, user, audit.ActionReportUpload, "report", rpt.ID.String(), nil, r)
	writeJSON(w, http.StatusCreated, rpt)
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	reports, err := h.reports.List(r.Context(), user, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	rpt, err := h.reports.Get(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpt)
}

// Review applies an approve/reject decision. The service enforces the
// reviewer capability and the optimistic pending-only precondition.
func (h *ReportHandler) Review(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "action required")
		return
	}

	rpt, err := h.reports.Transition(r.Context(), user, id, req.Action)
	if err != nil {
		obs.ReviewTransitions.WithLabelValues(req.Action, "denied").Inc()
		auditDenial(h.queue, user, err, r)
		writeServiceError(w, err)
		return
	}
	obs.ReviewTransitions.WithLabelValues(req.Action, "applied").Inc()

	action := audit.ActionReviewApprove
	if req.Action == report.ActionReject {
		action = audit.ActionReviewReject
	}
	dispatchAudit(h.queue, user, action, "report", rpt.ID.String(), nil, r)

	writeJSON(w, http.StatusOK, rpt)
}

// Export renders the PDF under a hard deadline. Approval is re-checked
// at generation time by ForExport; an earlier check is never trusted.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.exportTimeout)
	defer cancel()

	rpt, err := h.reports.ForExport(ctx, user, id)
	if err != nil {
		auditDenial(h.queue, user, err, r)
		writeServiceError(w, err)
		return
	}

	res, _ := analysis.Parse(rpt.AIAnalysis)
	data, err := h.renderer.Render(ctx, rpt, res)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			writeServiceError(w, context.DeadlineExceeded)
			return
		}
		writeServiceError(w, err)
		return
	}

	dispatchAudit(h.queue, user, audit.ActionReportExport, "report", rpt.ID.String(), nil, r)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="report-`+rpt.ID.String()+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	if err := h.reports.Delete(r.Context(), user, id); err != nil {
		auditDenial(h.queue, user, err, r)
		writeServiceError(w, err)
		return
	}

	dispatchAudit(h.queue, user, audit.ActionReportDelete, "report", id.String(), nil, r)
	w.WriteHeader(http.StatusNoContent)
}
