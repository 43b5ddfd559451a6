package domain

import (
	"time"

	"github.com/google/uuid"
)

// GlobalRole is a principal-level capability, independent of any tenant
// membership. Super admins bypass tenant scoping on administrative tables.
type GlobalRole string

const (
	GlobalMember     GlobalRole = "member"
	GlobalSuperAdmin GlobalRole = "super_admin"
)

// User is an authenticated principal. The profile row doubles as the user's
// own tenant-scoped resource: a user may always read their own row even
// without a membership (the self-row exception).
type User struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	GlobalRole  GlobalRole `json:"global_role"`
	// TenantID is the user's home tenant, claimed by the first tenant the
	// user creates or joins. It is nullable: freshly registered users and
	// rows predating the multi-tenant migration have no tenant yet and fall
	// under the read carve-out.
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsSuperAdmin reports whether the principal holds the super-admin
// capability. This is evaluated on the principal itself, never via
// membership.
func (u *User) IsSuperAdmin() bool {
	return u != nil && u.GlobalRole == GlobalSuperAdmin
}

// APIKey is a credential bound to a user. Only the hash is persisted.
type APIKey struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Name      string     `json:"name"`
	KeyHash   string     `json:"-"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
