package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"photodoctor/internal/service"
)

// IncidentHandler serves the operator incident listing
type IncidentHandler struct {
	svc *service.IncidentService
	log *zap.Logger
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(svc *service.IncidentService, logger *zap.Logger) *IncidentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncidentHandler{svc: svc, log: logger}
}

// List handles GET /v1/incidents?limit=N
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	incidents, err := h.svc.List(r.Context(), limit)
	if err != nil {
		h.log.Error("[Incidents] list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list incidents")
		return
	}
	writeJSON(w, http.StatusOK, incidents)
}

// Get handles GET /v1/incidents/{id}
func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	inc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.log.Error("[Incidents] get failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load incident")
		return
	}
	if inc == nil {
		writeError(w, http.StatusNotFound, "incident not found")
		return
	}
	writeJSON(w, http.StatusOK, inc)
}
