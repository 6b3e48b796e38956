package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/muaina/portal/internal/authz"
	"github.com/muaina/portal/internal/models"
	"github.com/muaina/portal/internal/principal"
	"github.com/muaina/portal/internal/queue"
	"github.com/muaina/portal/internal/registry"
)

type DoctorHandler struct {
	registry *registry.Service
	queue    *queue.Client
}

func NewDoctorHandler(reg *registry.Service, qc *queue.Client) *DoctorHandler {
	return &DoctorHandler{registry: reg, queue: qc}
}

func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())
	if err := authz.Authorize(user, authz.CapReferenceRead, nil); err != nil {
		auditDenial(h.queue, user, err, r)
		writeServiceError(w, err)
		return
	}

	doctors, err := h.registry.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if doctors == nil {
		doctors = []models.Doctor{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"doctors": doctors})
}

func (h *DoctorHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())
	if err := authz.Authorize(user, authz.CapReferenceWrite, nil); err != nil {
		auditDenial(h.queue, user, err, r)
		writeServiceError(w, err)
		return
	}

	var req struct {
		Name      string `json:"name"`
		Specialty string `json:"specialty"`
		LicenseNo string `json:"license_no"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	d, err := h.registry.Create(r.Context(), req.Name, req.Specialty, req.LicenseNo, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *DoctorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())
	if err := authz.Authorize(user, authz.CapReferenceWrite, nil); err != nil {
		auditDenial(h.queue, user, err, r)
		writeServiceError(w, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid doctor ID")
		return
	}

	if err := h.registry.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
