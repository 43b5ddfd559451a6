package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/plateful/gate/internal/api/middleware"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/service"
)

type UserHandler struct {
	svc         *service.UserService
	memberships *service.MembershipService
}

func NewUserHandler(svc *service.UserService, memberships *service.MembershipService) *UserHandler {
	return &UserHandler{svc: svc, memberships: memberships}
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type registerResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	APIKey string `json:"api_key"`
}

// Register is the unauthenticated bootstrap endpoint: it creates a principal
// and mints its first API key.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	user := &domain.User{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		GlobalRole:  domain.GlobalMember,
	}
	if err := h.svc.Register(r.Context(), user); err != nil {
		if errors.Is(err, service.ErrUserConflict) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}
	if _, err := h.svc.CreateAPIKey(r.Context(), user, "default", middleware.HashAPIKey(apiKey)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create API key")
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:     user.ID.String(),
		Email:  user.Email,
		APIKey: apiKey,
	})
}

// MyTenants exposes the membership resolver: the set of tenants the acting
// user belongs to. An empty list is a normal response.
func (h *UserHandler) MyTenants(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	set, err := h.memberships.UserTenants(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve memberships")
		return
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenant_ids": ids})
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	profile, err := h.svc.GetProfile(r.Context(), user, id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.svc.UpdateProfile(r.Context(), user, id, req.DisplayName)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type createKeyRequest struct {
	Name string `json:"name"`
}

type createKeyResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

func (h *UserHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}

	key, err := h.svc.CreateAPIKey(r.Context(), user, req.Name, middleware.HashAPIKey(apiKey))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create API key")
		return
	}

	writeJSON(w, http.StatusCreated, createKeyResponse{
		ID:     key.ID.String(),
		Name:   key.Name,
		APIKey: apiKey,
	})
}

func (h *UserHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	if err := h.svc.RevokeAPIKey(r.Context(), user, id); err != nil {
		if errors.Is(err, service.ErrKeyNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to revoke API key")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "gk_" + hex.EncodeToString(b), nil
}
