// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted access: sees every report and person, manages accounts
	RoleAdmin UserRole = "admin"

	// Default role: records outreach and sees only their own data
	RoleEvangelist UserRole = "evangelist"
)

// IsAdmin reports whether the role grants unrestricted access.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// Valid reports whether the role is a recognized member of the enum.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleEvangelist
}

// # Authenticated Identity

// Principal is the authenticated user attached to the request context.
//
// # Freshness
//
// Unlike claim-only identities, the Principal is loaded from the database on
// every authenticated request, so role changes take effect immediately
// without waiting for token expiry.
type Principal struct {
	ID       string
	Email    string
	FullName string
	Role     UserRole
	IsActive bool
}

// Owns reports whether the principal may act on a resource owned by ownerID.
// Admins own everything.
func (p *Principal) Owns(ownerID string) bool {
	return p.Role.IsAdmin() || p.ID == ownerID
}

// Visibility returns the data-visibility predicate for this principal.
func (p *Principal) Visibility() Visibility {
	return Visibility{SubjectID: p.ID, Admin: p.Role.IsAdmin()}
}

// # Data Visibility

// Visibility scopes storage queries to what a principal is allowed to see.
//
// Repositories apply it uniformly to list and lookup queries: admins see
// every row, everyone else sees only rows they own.
type Visibility struct {
	SubjectID string
	Admin     bool
}
