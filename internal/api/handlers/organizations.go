package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/muaina/portal/internal/authz"
	"github.com/muaina/portal/internal/models"
	"github.com/muaina/portal/internal/org"
	"github.com/muaina/portal/internal/principal"
	"github.com/muaina/portal/internal/queue"
)

type OrganizationHandler struct {
	orgs  *org.Service
	queue *queue.Client
}

func NewOrganizationHandler(orgs *org.Service, qc *queue.Client) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, queue: qc}
}

// List is public: prospective users pick their organization at signup.
// Only active organizations are disclosed.
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.orgs.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if orgs == nil {
		orgs = []models.Organization{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"organizations": orgs})
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := principal.UserFromContext(r.Context())
	if err := authz.Authorize(user, authz.CapOrgManage, nil); err != nil {
		auditDenial(h.queue, user, err, r)
		writeServiceError(w, err)
		return
	}

	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.Slug == "" {
		writeError(w, http.StatusBadRequest, "name and slug required")
		return
	}

	o, err := h.orgs.Create(r.Context(), req.Name, req.Slug)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}
