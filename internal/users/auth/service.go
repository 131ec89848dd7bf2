// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

/*
Package auth implements the core identity and access management system.

It handles everything from user registration and secure password hashing to
token rotation (JWT access/refresh pairs) and password recovery.

Architecture:

  - Service: Orchestrates business logic (Register, Login, Rotate, Reset).
  - Repository: Abstracted interfaces for Postgres (Users, Reset ledger)
    and Redis (Revocation list).
  - Security: Leverages bcrypt hashing and HS256-signed JWTs.

The package ensures that identity data remains consistent and secure
throughout the platform's lifecycle.
*/
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/harvestapp/harvest/internal/platform/apperr"
	"github.com/harvestapp/harvest/internal/platform/mail"
	"github.com/harvestapp/harvest/internal/platform/sec"
	uuidgen "github.com/harvestapp/harvest/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing and verifying JWTs.
//
// Satisfied by [*sec.TokenService]; abstracted so service tests can inject
// a deterministic fake.
type TokenProvider interface {
	// IssuePair creates a fresh access/refresh token pair for the subject.
	IssuePair(subject string) (*sec.TokenPair, error)

	// VerifyStrict validates signature, structure, kind, and expiry.
	VerifyStrict(tokenString string, kind sec.TokenKind) (*sec.Claims, error)

	// RemainingSeconds reports the seconds of validity a token has left.
	RemainingSeconds(tokenString string) (int64, error)
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or rotation logic must be reviewed carefully.
type Service struct {
	userRepository       UserRepository
	resetTokenRepository ResetTokenRepository
	revocationList       RevocationList
	tokenProvider        TokenProvider
	mailer               mail.Sender
	resetBaseURL         string
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	resetRepo ResetTokenRepository,
	revocations RevocationList,
	tokenProv TokenProvider,
	mailer mail.Sender,
	resetBaseURL string,
) *Service {
	return &Service{
		userRepository:       userRepo,
		resetTokenRepository: resetRepo,
		revocationList:       revocations,
		tokenProvider:        tokenProv,
		mailer:               mailer,
		resetBaseURL:         resetBaseURL,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new evangelist.
type RegisterInput struct {
	FullName string
	Email    string
	Phone    *string
	Password string
	// Role is what the caller asked for; anything but evangelist is refused.
	Role string
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Self-service enrollment always yields an active evangelist.
Privileged accounts are created only through the admin surface, so a request
naming the admin role is refused outright rather than silently downgraded.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: Forbidden (admin role requested), Conflict (email taken), or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Self-registration never grants privilege.
	if input.Role == string(sec.RoleAdmin) {
		return nil, apperr.Forbidden("Cannot self-register an admin account")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidgen.New(),
		Email:        input.Email,
		FullName:     input.FullName,
		Phone:        input.Phone,
		PasswordHash: hashedPassword,
		Role:         sec.RoleEvangelist,
		IsActive:     true,
	}

	// Persist the user; a duplicate email surfaces as a client-safe Conflict.
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	return user, nil
}

// # Authentication Flow

// LoginSession represents a successfully established user session.
type LoginSession struct {
	Tokens *sec.TokenPair
	User   *User
}

/*
Login validates user credentials and issues a token pair.

Description: Verifies identity with constant-time password comparison. Every
failure mode (unknown email, wrong password) collapses into one generic
message so account existence cannot be probed.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *LoginSession: Transport-ready token pair plus profile
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, email, password string) (*LoginSession, error) {
	user, err := service.userRepository.FindByEmail(context, email)

	// Generic message to prevent enumeration.
	if err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	// bcrypt comparison is constant-time.
	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	tokens, err := service.tokenProvider.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	return &LoginSession{Tokens: tokens, User: user}, nil
}

// # Token Rotation

/*
Rotate exchanges a live refresh token for a fresh access/refresh pair.

Description: The presented token must pass strict verification as a refresh
token and must not appear on the revocation list. Its jti is then revoked for
the remainder of its validity window before the new pair is issued, so each
refresh token is redeemable exactly once.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *sec.TokenPair: Fresh pair for the same subject
  - error: Unauthorized for any rejected token, or internal failures
*/
func (service *Service) Rotate(context context.Context, refreshToken string) (*sec.TokenPair, error) {
	claims, err := service.tokenProvider.VerifyStrict(refreshToken, sec.KindRefresh)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	revoked, err := service.revocationList.IsRevoked(context, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_revocation_lookup_failed: %w", err)
	}
	if revoked {
		return nil, apperr.Unauthorized("Refresh token has already been used")
	}

	// Revoke BEFORE issuing: if issuance fails the worst case is a burned
	// token, never a replayable one.
	remaining, err := service.tokenProvider.RemainingSeconds(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	if err := service.revocationList.Revoke(context, claims.ID, time.Duration(remaining)*time.Second); err != nil {
		return nil, fmt.Errorf("auth_service_revocation_failed: %w", err)
	}

	tokens, err := service.tokenProvider.IssuePair(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	return tokens, nil
}

// # Password Recovery

/*
ForgotPassword issues a reset token and mails the reset link.

Description: The ledger keeps one pending token per email (upsert), valid for
[ResetTokenTTL]. Re-requesting invalidates the previous link.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: apperr.NotFound when no account exists, or delivery failures
*/
func (service *Service) ForgotPassword(context context.Context, email string) error {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		return apperr.NotFound("User")
	}

	token := uuidgen.NewRandom()
	expiresAt := time.Now().Add(ResetTokenTTL)

	if err := service.resetTokenRepository.Upsert(context, user.Email, token, expiresAt); err != nil {
		return fmt.Errorf("auth_service_reset_token_store_failed: %w", err)
	}

	subject := "Reset your Harvest password"
	body := fmt.Sprintf(
		"Hi %s,\n\nA password reset was requested for your account.\n\n"+
			"Open the link below within %d minutes to choose a new password:\n\n%s?token=%s\n\n"+
			"If you did not request this, you can ignore this message.",
		user.FullName, int(ResetTokenTTL.Minutes()), service.resetBaseURL, token,
	)

	if err := service.mailer.Send(context, user.Email, subject, body); err != nil {
		return fmt.Errorf("auth_service_reset_mail_failed: %w", err)
	}

	return nil
}

/*
ResetPassword redeems a reset token and replaces the account password.

Description: Distinguishes an unknown token (400 invalid-or-expired) from a
known-but-expired one (400 expired). Redemption is transactional: the hash
update and the ledger delete commit together.

Parameters:
  - context: context.Context
  - token: string
  - password: string
  - confirmPassword: string

Returns:
  - error: Validation, NotFound, or storage failures
*/
func (service *Service) ResetPassword(context context.Context, token, password, confirmPassword string) error {
	if password != confirmPassword {
		return apperr.ValidationError("Passwords do not match")
	}

	entry, err := service.resetTokenRepository.FindByToken(context, token)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.ValidationError("Invalid or expired reset token")
		}
		return err
	}

	if entry.Expired() {
		return apperr.ValidationError("Reset token has expired")
	}

	user, err := service.userRepository.FindByEmail(context, entry.Email)
	if err != nil {
		return apperr.NotFound("User")
	}

	newHash, err := sec.HashPassword(password)
	if err != nil {
		return err
	}

	return service.resetTokenRepository.Consume(context, token, user.ID, newHash)
}

/*
ChangePassword verifies the current password and installs a new one.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Validation or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword string) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.ValidationError("Current password is incorrect")
	}

	newHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return service.userRepository.UpdatePassword(context, userID, newHash)
}

// # Profile & Guard Support

// GetProfile returns the account behind the authenticated principal.
func (service *Service) GetProfile(context context.Context, userID string) (*User, error) {
	return service.userRepository.FindByID(context, userID)
}

// VerifyAccessToken implements [middleware.TokenVerifier].
//
// It strictly validates the access token and returns its subject.
func (service *Service) VerifyAccessToken(tokenStr string) (string, error) {
	claims, err := service.tokenProvider.VerifyStrict(tokenStr, sec.KindAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// LoadPrincipal implements [middleware.PrincipalLoader].
//
// The user row is reloaded on every request so role changes apply
// immediately. Deactivated accounts are still resolved: the active flag
// gates nothing at this layer.
func (service *Service) LoadPrincipal(context context.Context, userID string) (*sec.Principal, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	return user.Principal(), nil
}
