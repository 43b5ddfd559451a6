package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/store"
)

type stubKeyStore struct {
	keys map[string]*domain.APIKey
}

func (s *stubKeyStore) Create(ctx context.Context, k *domain.APIKey, actor string) error {
	s.keys[k.KeyHash] = k
	return nil
}

func (s *stubKeyStore) GetByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	k, ok := s.keys[keyHash]
	if !ok || k.RevokedAt != nil {
		return nil, store.ErrNotFound
	}
	return k, nil
}

func (s *stubKeyStore) Revoke(ctx context.Context, id uuid.UUID, userID uuid.UUID, actor string) error {
	for _, k := range s.keys {
		if k.ID == id && k.UserID == userID {
			now := time.Now()
			k.RevokedAt = &now
			return nil
		}
	}
	return store.ErrNotFound
}

type stubUserStore struct {
	users map[uuid.UUID]*domain.User
}

func (s *stubUserStore) Create(ctx context.Context, u *domain.User) error {
	s.users[u.ID] = u
	return nil
}

func (s *stubUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *stubUserStore) Update(ctx context.Context, u *domain.User) error {
	s.users[u.ID] = u
	return nil
}

func newAuthFixture() (*stubKeyStore, *stubUserStore, *domain.User, string) {
	user := &domain.User{ID: uuid.New(), Email: "a@example.com"}
	plaintext := "gk_testkey"
	keys := &stubKeyStore{keys: map[string]*domain.APIKey{
		HashAPIKey(plaintext): {ID: uuid.New(), UserID: user.ID, KeyHash: HashAPIKey(plaintext)},
	}}
	users := &stubUserStore{users: map[uuid.UUID]*domain.User{user.ID: user}}
	return keys, users, user, plaintext
}

func TestAPIKeyAuth(t *testing.T) {
	keys, users, user, plaintext := newAuthFixture()

	var captured *domain.User
	handler := APIKeyAuth(keys, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid key", "Bearer " + plaintext, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token " + plaintext, http.StatusUnauthorized},
		{"unknown key", "Bearer gk_unknown", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured = nil
			req := httptest.NewRequest(http.MethodGet, "/v1/me/tenants", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK {
				if captured == nil || captured.ID != user.ID {
					t.Fatal("expected principal in request context")
				}
			} else if captured != nil {
				t.Fatal("handler must not run without a principal")
			}
		})
	}
}

func TestAPIKeyAuth_RevokedKey(t *testing.T) {
	keys, users, user, plaintext := newAuthFixture()

	for _, k := range keys.keys {
		if err := keys.Revoke(context.Background(), k.ID, user.ID, "test"); err != nil {
			t.Fatal(err)
		}
	}

	handler := APIKeyAuth(keys, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a revoked key")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/me/tenants", nil)
	req.Header.Set("Authorization", "Bearer "+plaintext)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked key, got %d", rec.Code)
	}
}
