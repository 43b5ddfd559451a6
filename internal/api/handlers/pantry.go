package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/plateful/gate/internal/api/middleware"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/service"
)

type PantryHandler struct {
	svc *service.PantryService
}

func NewPantryHandler(svc *service.PantryService) *PantryHandler {
	return &PantryHandler{svc: svc}
}

type pantryItemRequest struct {
	Name      string     `json:"name"`
	Quantity  float64    `json:"quantity"`
	Unit      string     `json:"unit,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func tenantIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func (h *PantryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tenantID, err := tenantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	var req pantryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	item := &domain.PantryItem{
		TenantID:  tenantID,
		Name:      req.Name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		ExpiresAt: req.ExpiresAt,
	}
	if err := h.svc.Create(r.Context(), user, item); err != nil {
		if errors.Is(err, service.ErrPantryItemNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create pantry item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *PantryHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tenantID, err := tenantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	items, err := h.svc.List(r.Context(), user, tenantID)
	if err != nil {
		if errors.Is(err, service.ErrPantryItemNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list pantry items")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *PantryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tenantID, err := tenantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.svc.GetByID(r.Context(), user, itemID, tenantID)
	if err != nil {
		if errors.Is(err, service.ErrPantryItemNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get pantry item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *PantryHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tenantID, err := tenantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req pantryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	item := &domain.PantryItem{
		ID:        itemID,
		TenantID:  tenantID,
		Name:      req.Name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		ExpiresAt: req.ExpiresAt,
	}
	if err := h.svc.Update(r.Context(), user, item); err != nil {
		if errors.Is(err, service.ErrPantryItemNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update pantry item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *PantryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tenantID, err := tenantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.svc.Delete(r.Context(), user, itemID, tenantID); err != nil {
		if errors.Is(err, service.ErrPantryItemNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete pantry item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
