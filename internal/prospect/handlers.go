package prospect

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matijepekovic/pricer-api/internal/common"
)

// Handler exposes prospect endpoints.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/prospects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	prospects, err := h.Service.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": prospects})
}

// Create handles POST /api/v1/prospects.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	p, err := h.Service.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": p})
}

// Get handles GET /api/v1/prospects/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Update handles PATCH /api/v1/prospects/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	p, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Delete handles DELETE /api/v1/prospects/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPhase handles PUT /api/v1/prospects/{id}/phase.
func (h *Handler) SetPhase(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phase Phase `json:"phase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	p, err := h.Service.SetPhase(r.Context(), chi.URLParam(r, "id"), body.Phase)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// AttachQuote handles POST /api/v1/prospects/{id}/quotes.
func (h *Handler) AttachQuote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QuoteID string `json:"quoteId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.QuoteID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "quoteId is required", nil)
		return
	}
	p, err := h.Service.AttachQuote(r.Context(), chi.URLParam(r, "id"), body.QuoteID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// AddReminder handles POST /api/v1/prospects/{id}/reminders.
func (h *Handler) AddReminder(w http.ResponseWriter, r *http.Request) {
	var in ReminderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	p, err := h.Service.AddReminder(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": p})
}
