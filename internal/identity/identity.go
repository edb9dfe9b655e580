// Package identity carries the authenticated caller through a request.
// It is resolved once by the auth middleware and passed explicitly to
// services, so no layer below the handler re-derives who is calling.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Roles a user can hold inside a business.
const (
	RoleOwner    = "owner"
	RoleEmployee = "employee"
	RoleCustomer = "customer"
)

// Permission names, matching the boolean flags stored on BusinessMember.
const (
	PermPOS      = "pos"
	PermProducts = "products"
	PermReports  = "reports"
	PermSettings = "settings"
)

// Permissions mirrors the member's permission flags.
type Permissions struct {
	POS      bool `json:"pos"`
	Products bool `json:"products"`
	Reports  bool `json:"reports"`
	Settings bool `json:"settings"`
}

// Has reports whether the named permission is granted.
func (p Permissions) Has(name string) bool {
	switch name {
	case PermPOS:
		return p.POS
	case PermProducts:
		return p.Products
	case PermReports:
		return p.Reports
	case PermSettings:
		return p.Settings
	}
	return false
}

// Identity is the per-request authenticated caller.
type Identity struct {
	UserID           uuid.UUID
	BusinessID       uuid.UUID
	BusinessMemberID *uuid.UUID
	Role             string
	Permissions      Permissions
}

// IsOwner reports whether the caller owns the business; owners bypass permission checks.
func (id Identity) IsOwner() bool { return id.Role == RoleOwner }

// Can reports whether the caller may use the named capability.
func (id Identity) Can(perm string) bool {
	return id.IsOwner() || id.Permissions.Has(perm)
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
