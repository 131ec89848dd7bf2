// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

/*
Package auth implements the user identity and access management layer.

It defines the core domain entities (User, ResetToken) and logic for
authentication, token rotation, and credential recovery.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import (
	"time"

	"github.com/harvestapp/harvest/internal/platform/sec"
)

// # Domain Entities

// User represents a registered account on the Harvest platform.
//
// Accounts are never hard-deleted; admins deactivate them via IsActive.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	FullName     string       `json:"full_name"`
	Phone        *string      `json:"phone,omitempty"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	Role         sec.UserRole `json:"role"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Principal maps the account to its request-scoped identity.
func (user *User) Principal() *sec.Principal {
	return &sec.Principal{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
		IsActive: user.IsActive,
	}
}

// ResetToken is one pending password-reset grant.
//
// The ledger is keyed by email: issuing a new token for the same address
// replaces the previous one, so only the latest link works.
type ResetToken struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the grant's validity window has passed.
func (token *ResetToken) Expired() bool {
	return time.Now().After(token.ExpiresAt)
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail           = "email"
	FieldFullName        = "full_name"
	FieldPhone           = "phone"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldToken           = "token"
	FieldRole            = "role"
	FieldRefreshToken    = "refresh_token"
)
