// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate email, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		List returns one page of accounts plus the total count.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*User: Page of accounts, newest first
		  - int: Total account count
		  - error: Retrieval failures
	*/
	List(context context.Context, limit, offset int) ([]*User, int, error)

	/*
		UpdateRole replaces only the user's role.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - role: string

		Returns:
		  - error: Persistence failures
	*/
	UpdateRole(context context.Context, userID, role string) error

	/*
		UpdateStatus replaces only the user's active flag.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - isActive: bool

		Returns:
		  - error: Persistence failures
	*/
	UpdateStatus(context context.Context, userID string, isActive bool) error

	/*
		UpdatePassword replaces only the user's password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID, newHash string) error
}

// # Reset Token Ledger

// ResetTokenRepository defines the contract for the password-reset ledger.
//
// The ledger holds at most one pending token per email address.
type ResetTokenRepository interface {

	/*
		Upsert stores a reset token for the email, replacing any pending one.

		Parameters:
		  - context: context.Context
		  - email: string
		  - token: string
		  - expiresAt: time.Time

		Returns:
		  - error: Persistence failures
	*/
	Upsert(context context.Context, email, token string, expiresAt time.Time) error

	/*
		FindByToken returns the ledger entry holding the given token value.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - *ResetToken: Hydrated entry (possibly expired)
		  - error: apperr.NotFound if absent, or retrieval failures
	*/
	FindByToken(context context.Context, token string) (*ResetToken, error)

	/*
		Consume atomically applies a password change and spends its token.

		The password update and the ledger delete commit in one transaction:
		a token can never survive the change it authorized, and a change can
		never apply without spending its token.

		Parameters:
		  - context: context.Context
		  - token: string
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	Consume(context context.Context, token, userID, newHash string) error
}

// # Refresh Token Revocation

// RevocationList tracks refresh-token IDs that were rotated out.
//
// Entries carry a TTL equal to the token's remaining validity: once the
// token would have expired anyway, the entry self-cleans.
type RevocationList interface {

	/*
		Revoke marks a refresh token's jti as spent.

		Parameters:
		  - context: context.Context
		  - jti: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Revoke(context context.Context, jti string, ttl time.Duration) error

	/*
		IsRevoked reports whether the jti was already rotated out.

		Parameters:
		  - context: context.Context
		  - jti: string

		Returns:
		  - bool: true when the token must be refused
		  - error: Lookup failures
	*/
	IsRevoked(context context.Context, jti string) (bool, error)
}
