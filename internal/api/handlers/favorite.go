package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/plateful/gate/internal/api/middleware"
	"github.com/plateful/gate/internal/service"
)

type FavoriteHandler struct {
	svc *service.FavoriteService
}

func NewFavoriteHandler(svc *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{svc: svc}
}

type createFavoriteRequest struct {
	RecipeID string `json:"recipe_id"`
}

func (h *FavoriteHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req createFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	recipeID, err := uuid.Parse(req.RecipeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	f, err := h.svc.Create(r.Context(), user, tenantID, recipeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFavoriteNotFound), errors.Is(err, service.ErrRecipeNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrFavoriteConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create favorite")
		}
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
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

	favorites, err := h.svc.List(r.Context(), user, tenantID)
	if err != nil {
		if errors.Is(err, service.ErrFavoriteNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list favorites")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": favorites})
}

func (h *FavoriteHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	favoriteID, err := uuid.Parse(chi.URLParam(r, "favoriteID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid favorite id")
		return
	}

	if err := h.svc.Delete(r.Context(), user, favoriteID, tenantID); err != nil {
		if errors.Is(err, service.ErrFavoriteNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
