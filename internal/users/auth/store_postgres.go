// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

// PostgreSQL implementations of the auth domain repositories.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/harvestapp/harvest/internal/platform/apperr"
	"github.com/harvestapp/harvest/internal/platform/dberr"
	"github.com/harvestapp/harvest/internal/platform/postgres"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	db *postgres.DB
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(db *postgres.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, email, full_name, phone, password_hash, role, is_active, created_at, updated_at`

// scanUser hydrates one User from a row.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the users table.

Description: Deep-persists account metadata, ensuring timestamps are initialized
if not provided. A duplicate email surfaces as apperr.Conflict.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (
			id, email, full_name, phone, password_hash, role, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.db.Exec(context, query,
		user.ID,
		user.Email,
		user.FullName,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`

	user, err := scanUser(repository.db.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByID retrieves a user record by their unique ID.

Description: Primary key resolution for user accounts; backs the per-request
principal load in the authorization guard.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`

	user, err := scanUser(repository.db.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
List returns one page of accounts plus the total count, newest first.

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*User: Page of accounts
  - int: Total account count
  - error: Execution errors
*/
func (repository *PostgresUserRepository) List(context context.Context, limit, offset int) ([]*User, int, error) {
	const countQuery = `SELECT COUNT(*) FROM users`

	var total int
	if err := repository.db.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_count_failed: %w", err)
	}

	const query = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.db.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_list_failed: %w", err)
	}
	defer rows.Close()

	users := make([]*User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_user_repo_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_rows_failed: %w", err)
	}

	return users, total, nil
}

/*
UpdateRole replaces only the role of a specific user.

Parameters:
  - context: context.Context
  - userID: string
  - role: string

Returns:
  - error: apperr.NotFound when no row matched, or execution errors
*/
func (repository *PostgresUserRepository) UpdateRole(context context.Context, userID, role string) error {
	const query = `
		UPDATE users
		SET role = $2, updated_at = $3
		WHERE id = $1`

	tag, err := repository.db.Exec(context, query, userID, role, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_role_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
UpdateStatus replaces only the active flag of a specific user.

Parameters:
  - context: context.Context
  - userID: string
  - isActive: bool

Returns:
  - error: apperr.NotFound when no row matched, or execution errors
*/
func (repository *PostgresUserRepository) UpdateStatus(context context.Context, userID string, isActive bool) error {
	const query = `
		UPDATE users
		SET is_active = $2, updated_at = $3
		WHERE id = $1`

	tag, err := repository.db.Exec(context, query, userID, isActive, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_status_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
UpdatePassword updates only the password hash for a specific user.

Parameters:
  - context: context.Context
  - userID: string
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $2, updated_at = $3
		WHERE id = $1`

	tag, err := repository.db.Exec(context, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// # Reset Token Repository

// PostgresResetTokenRepository implements the ResetTokenRepository using pgx.
type PostgresResetTokenRepository struct {
	db *postgres.DB
}

// NewResetTokenRepository creates a new PostgreSQL implementation of the ResetTokenRepository.
func NewResetTokenRepository(db *postgres.DB) *PostgresResetTokenRepository {
	return &PostgresResetTokenRepository{db: db}
}

/*
Upsert stores a reset token for the email, replacing any pending one.

Description: The ledger is keyed by email; ON CONFLICT makes the last-issued
token win, so only the newest reset link stays redeemable.

Parameters:
  - context: context.Context
  - email: string
  - token: string
  - expiresAt: time.Time

Returns:
  - error: Execution errors
*/
func (repository *PostgresResetTokenRepository) Upsert(context context.Context, email, token string, expiresAt time.Time) error {
	const query = `
		INSERT INTO password_reset_tokens (email, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email)
		DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at`

	if _, err := repository.db.Exec(context, query, email, token, expiresAt); err != nil {
		return fmt.Errorf("postgres_reset_token_upsert_failed: %w", err)
	}

	return nil
}

/*
FindByToken returns the ledger entry holding the given token value.

Description: Expiry is NOT filtered here; the service distinguishes an absent
token from an expired one to return distinct client messages.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *ResetToken: Hydrated entry
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresResetTokenRepository) FindByToken(context context.Context, token string) (*ResetToken, error) {
	const query = `
		SELECT email, token, expires_at
		FROM password_reset_tokens
		WHERE token = $1`

	entry := &ResetToken{}
	err := repository.db.QueryRow(context, query, token).Scan(
		&entry.Email,
		&entry.Token,
		&entry.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Reset token")
		}
		return nil, fmt.Errorf("postgres_reset_token_find_failed: %w", err)
	}

	return entry, nil
}

/*
Consume atomically applies a password change and spends its token.

Description: The hash update and the ledger delete run in one transaction.
Either both commit or neither does, so a concurrent redemption of the same
token can only succeed once.

Parameters:
  - context: context.Context
  - token: string
  - userID: string
  - newHash: string

Returns:
  - error: Transaction failures
*/
func (repository *PostgresResetTokenRepository) Consume(context context.Context, token, userID, newHash string) error {
	tx, err := repository.db.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_reset_token_consume_begin_failed: %w", err)
	}
	defer func() { _ = tx.Rollback(context) }()

	const updateQuery = `
		UPDATE users
		SET password_hash = $2, updated_at = $3
		WHERE id = $1`

	if _, err := tx.Exec(context, updateQuery, userID, newHash, time.Now()); err != nil {
		return fmt.Errorf("postgres_reset_token_consume_update_failed: %w", err)
	}

	const deleteQuery = `DELETE FROM password_reset_tokens WHERE token = $1`

	tag, err := tx.Exec(context, deleteQuery, token)
	if err != nil {
		return fmt.Errorf("postgres_reset_token_consume_delete_failed: %w", err)
	}
	// The token vanished between lookup and redemption: someone else spent it.
	if tag.RowsAffected() == 0 {
		return apperr.ValidationError("Invalid or expired reset token")
	}

	if err := tx.Commit(context); err != nil {
		return fmt.Errorf("postgres_reset_token_consume_commit_failed: %w", err)
	}

	return nil
}
