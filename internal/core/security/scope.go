// Package security provides authorization and access control.
package security

import (
	"context"
	"fmt"

	"poscore/internal/core/apperror"
	appctx "poscore/internal/core/context"
)

// Permission defines available permissions in the system.
type Permission string

const (
	// CRUD permissions
	PermissionRead   Permission = "read"
	PermissionCreate Permission = "create"
	PermissionUpdate Permission = "update"
	PermissionDelete Permission = "delete"

	// Operational permissions
	PermissionOpenCycle  Permission = "open_cycle"
	PermissionCloseCycle Permission = "close_cycle"
	PermissionOpenShift  Permission = "open_shift"
	PermissionCloseShift Permission = "close_shift"
	PermissionReverse    Permission = "reverse"

	// Admin permissions
	PermissionAdmin Permission = "admin"
	PermissionAudit Permission = "audit"
)

// Role defines a set of permissions.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
	RoleViewer  Role = "viewer"
)

// PermissionsForRole flattens a role into its permission set.
func PermissionsForRole(role Role) []Permission {
	switch role {
	case RoleOwner, RoleAdmin:
		return []Permission{
			PermissionRead, PermissionCreate, PermissionUpdate, PermissionDelete,
			PermissionOpenCycle, PermissionCloseCycle,
			PermissionOpenShift, PermissionCloseShift,
			PermissionReverse, PermissionAdmin, PermissionAudit,
		}
	case RoleManager:
		return []Permission{
			PermissionRead, PermissionCreate, PermissionUpdate,
			PermissionOpenCycle, PermissionCloseCycle,
			PermissionOpenShift, PermissionCloseShift,
			PermissionReverse,
		}
	case RoleCashier:
		return []Permission{
			PermissionRead, PermissionCreate,
			PermissionOpenShift, PermissionCloseShift,
		}
	case RoleViewer:
		return []Permission{PermissionRead}
	}
	return nil
}

// AccessScope defines the boundaries of data visibility for current request.
// In Database-per-Business architecture this scope is used for authorization
// decisions (e.g. area access) and for consistent logging/audit context.
type AccessScope struct {
	// BusinessID is the current business (from request/JWT).
	BusinessID string

	// UserID is the authenticated user
	UserID string

	// IsOwner bypasses area filtering
	IsOwner bool

	// AllowedAreaIDs limits access to specific areas
	// Empty = no area restrictions
	AllowedAreaIDs []string

	// Permissions available to user
	Permissions map[string][]Permission
}

// NewAccessScope creates AccessScope from context.
func NewAccessScope(ctx context.Context) *AccessScope {
	user := appctx.GetUser(ctx)
	if user == nil {
		return &AccessScope{}
	}

	return &AccessScope{
		BusinessID:     user.BusinessID,
		UserID:         user.UserID,
		IsOwner:        user.IsOwner,
		AllowedAreaIDs: user.AreaIDs,
	}
}

// CanAccessArea checks if user can access area. Users without an
// explicit area assignment are unrestricted.
func (s *AccessScope) CanAccessArea(areaID string) bool {
	if s.IsOwner || len(s.AllowedAreaIDs) == 0 {
		return true
	}
	for _, id := range s.AllowedAreaIDs {
		if id == areaID {
			return true
		}
	}
	return false
}

// HasPermission checks if user has permission on entity.
func (s *AccessScope) HasPermission(entity string, perm Permission) bool {
	if s.IsOwner {
		return true
	}
	if perms, ok := s.Permissions[entity]; ok {
		for _, p := range perms {
			if p == perm {
				return true
			}
		}
	}
	return false
}

// RequirePermission returns error if permission is missing.
func (s *AccessScope) RequirePermission(entity string, perm Permission) error {
	if !s.HasPermission(entity, perm) {
		return apperror.NewForbidden(
			fmt.Sprintf("permission %s on %s required", perm, entity),
		).WithDetail("entity", entity).WithDetail("permission", perm)
	}
	return nil
}

// FilterAreaIDs returns intersection of requested and allowed area IDs.
// Used to safely filter queries by area.
func (s *AccessScope) FilterAreaIDs(requestedAreas []string) []string {
	if s.IsOwner {
		return requestedAreas
	}

	if len(requestedAreas) == 0 {
		return s.AllowedAreaIDs
	}

	allowed := make(map[string]bool, len(s.AllowedAreaIDs))
	for _, id := range s.AllowedAreaIDs {
		allowed[id] = true
	}

	var result []string
	for _, id := range requestedAreas {
		if allowed[id] {
			result = append(result, id)
		}
	}
	return result
}

// --- Context-based scope access ---

type scopeKey struct{}

// WithScope adds AccessScope to context.
func WithScope(ctx context.Context, scope *AccessScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// GetScope returns AccessScope from context.
func GetScope(ctx context.Context) *AccessScope {
	if v, ok := ctx.Value(scopeKey{}).(*AccessScope); ok {
		return v
	}
	return NewAccessScope(ctx)
}
