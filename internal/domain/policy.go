package domain

import (
	"context"

	"github.com/google/uuid"
)

// Action is the operation a principal wants to perform on a resource. The
// policy engine is a pure boolean predicate over (principal, action,
// resource); there is no ranking between rules.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionManage Action = "manage" // tenant settings, memberships
)

// ResourceRef identifies the row a policy decision is about. TenantID is
// nil for rows that predate the tenant migration; SubjectID is set when the
// row is about a specific user (profiles), enabling the self-row read
// exception.
type ResourceRef struct {
	Kind      string
	TenantID  *uuid.UUID
	SubjectID *uuid.UUID
}

// Resource kinds with dedicated policy behavior.
const (
	KindProfile    = "profile"
	KindPantryItem = "pantry_item"
	KindRecipe     = "recipe"
	KindFavorite   = "favorite"
	KindTenant     = "tenant"
	KindFlag       = "feature_flag"
)

// Authorizer decides whether a principal may perform an action on a
// resource. Implementations must fail closed: no membership means deny, and
// absence of a row is indistinguishable from denial at the API boundary.
type Authorizer interface {
	Authorize(ctx context.Context, user *User, action Action, ref ResourceRef) error
}
