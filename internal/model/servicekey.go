// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// Scope constants for service key authorization.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// ValidScopes contains all valid scope values.
var ValidScopes = []string{ScopeRead, ScopeWrite, ScopeAdmin}

// ServiceKey represents a machine credential for the management API.
// End-user identity lives with the external auth provider; service keys are
// how its backend (the dashboard) talks to this service, scoped to one org.
type ServiceKey struct {
	ID        string     `json:"id"`
	OrgID     string     `json:"org_id"`
	KeyHash   string     `json:"-"` // Never serialize
	KeyPrefix string     `json:"key_prefix"`
	Scopes    []string   `json:"scopes"`
	Name      string     `json:"name,omitempty"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsRevoked returns true if the key has been revoked.
func (k *ServiceKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// HasScope checks if the key has a specific scope.
// Admin scope implies all other scopes.
func (k *ServiceKey) HasScope(scope string) bool {
	if slices.Contains(k.Scopes, ScopeAdmin) {
		return true
	}
	return slices.Contains(k.Scopes, scope)
}

// AuthContext holds authenticated request context.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	KeyID     string
	KeyPrefix string
	OrgID     string
	Scopes    []string
}

// HasScope checks if the auth context has a specific scope.
func (a *AuthContext) HasScope(scope string) bool {
	if slices.Contains(a.Scopes, ScopeAdmin) {
		return true
	}
	return slices.Contains(a.Scopes, scope)
}
