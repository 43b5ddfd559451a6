package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/plateful/gate/internal/api/middleware"
	"github.com/plateful/gate/internal/config"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/service"
)

type FlagHandler struct {
	svc *service.FlagService
}

func NewFlagHandler(svc *service.FlagService) *FlagHandler {
	return &FlagHandler{svc: svc}
}

// environmentParam reads the environment query parameter, defaulting to the
// deployment environment.
func environmentParam(r *http.Request) (domain.Environment, bool) {
	env := domain.Environment(r.URL.Query().Get("environment"))
	if env == "" {
		return config.Environment(), true
	}
	if !env.Valid() || env == domain.EnvAll {
		return "", false
	}
	return env, true
}

type evaluateResponse struct {
	Flag    string `json:"flag"`
	Enabled bool   `json:"enabled"`
}

// Evaluate decides one flag for the acting user. Evaluation is read-only:
// no audit entry is ever written here.
func (h *FlagHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	env, ok := environmentParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid environment")
		return
	}

	name := chi.URLParam(r, "name")
	on, err := h.svc.Evaluate(r.Context(), name, &user.ID, env)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to evaluate flag")
		return
	}
	writeJSON(w, http.StatusOK, evaluateResponse{Flag: name, Enabled: on})
}

// EvaluateAll returns every active, environment-matching flag for the acting
// user in one round trip.
func (h *FlagHandler) EvaluateAll(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	env, ok := environmentParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid environment")
		return
	}

	flags, err := h.svc.EvaluateAll(r.Context(), &user.ID, env)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to evaluate flags")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flags": flags})
}

type flagRequest struct {
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	Enabled           bool               `json:"enabled"`
	RolloutPercentage int                `json:"rollout_percentage"`
	Environment       domain.Environment `json:"target_environment,omitempty"`
	AllowedUsers      []uuid.UUID        `json:"allowed_users,omitempty"`
	Conditions        map[string]any     `json:"conditions,omitempty"`
	ExpiresAt         *time.Time         `json:"expires_at,omitempty"`
	Reason            string             `json:"reason,omitempty"`
}

func (req *flagRequest) toFlag() *domain.FeatureFlag {
	return &domain.FeatureFlag{
		Name:              req.Name,
		Description:       req.Description,
		Enabled:           req.Enabled,
		RolloutPercentage: req.RolloutPercentage,
		Environment:       req.Environment,
		AllowedUsers:      req.AllowedUsers,
		Conditions:        req.Conditions,
		ExpiresAt:         req.ExpiresAt,
	}
}

// requireOperator gates flag administration to operator-level identities.
func requireOperator(w http.ResponseWriter, r *http.Request) *domain.User {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil
	}
	if !user.IsSuperAdmin() {
		writeError(w, http.StatusForbidden, "operator access required")
		return nil
	}
	return user
}

func (h *FlagHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := requireOperator(w, r)
	if user == nil {
		return
	}

	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	f := req.toFlag()
	if err := h.svc.Create(r.Context(), f, user.ID.String(), req.Reason); err != nil {
		switch {
		case errors.Is(err, service.ErrFlagConflict):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrFlagInvalidRollout), errors.Is(err, service.ErrFlagInvalidEnv):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create flag")
		}
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *FlagHandler) Get(w http.ResponseWriter, r *http.Request) {
	if user := requireOperator(w, r); user == nil {
		return
	}

	f, err := h.svc.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, service.ErrFlagNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get flag")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FlagHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := requireOperator(w, r)
	if user == nil {
		return
	}

	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f := req.toFlag()
	f.Name = chi.URLParam(r, "name")
	if err := h.svc.Update(r.Context(), f, user.ID.String(), req.Reason); err != nil {
		switch {
		case errors.Is(err, service.ErrFlagNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrFlagInvalidRollout), errors.Is(err, service.ErrFlagInvalidEnv):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update flag")
		}
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FlagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := requireOperator(w, r)
	if user == nil {
		return
	}

	reason := r.URL.Query().Get("reason")
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "name"), user.ID.String(), reason); err != nil {
		if errors.Is(err, service.ErrFlagNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete flag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AuditTrail returns the flag's mutation history, newest first.
func (h *FlagHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	if user := requireOperator(w, r); user == nil {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.svc.AuditTrail(r.Context(), chi.URLParam(r, "name"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
