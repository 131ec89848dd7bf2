// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestapp/harvest/internal/platform/apperr"
	"github.com/harvestapp/harvest/internal/platform/sec"
	"github.com/harvestapp/harvest/internal/users/auth"
)

// # In-Memory Fakes

type fakeUserRepository struct {
	mu    sync.Mutex
	users map[string]*auth.User // keyed by ID
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[string]*auth.User)}
}

func (repo *fakeUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if user, ok := repo.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) Create(_ context.Context, user *auth.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, existing := range repo.users {
		if existing.Email == user.Email {
			return apperr.Conflict("Email is already registered")
		}
	}
	clone := *user
	repo.users[user.ID] = &clone
	return nil
}

func (repo *fakeUserRepository) List(_ context.Context, limit, offset int) ([]*auth.User, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	all := make([]*auth.User, 0, len(repo.users))
	for _, user := range repo.users {
		clone := *user
		all = append(all, &clone)
	}
	total := len(all)
	if offset > total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (repo *fakeUserRepository) UpdateRole(_ context.Context, userID, role string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Role = sec.UserRole(role)
	return nil
}

func (repo *fakeUserRepository) UpdateStatus(_ context.Context, userID string, isActive bool) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.IsActive = isActive
	return nil
}

func (repo *fakeUserRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = newHash
	return nil
}

type fakeResetTokenRepository struct {
	mu      sync.Mutex
	byEmail map[string]*auth.ResetToken
	users   *fakeUserRepository
}

func newFakeResetTokenRepository(users *fakeUserRepository) *fakeResetTokenRepository {
	return &fakeResetTokenRepository{byEmail: make(map[string]*auth.ResetToken), users: users}
}

func (repo *fakeResetTokenRepository) Upsert(_ context.Context, email, token string, expiresAt time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.byEmail[email] = &auth.ResetToken{Email: email, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (repo *fakeResetTokenRepository) FindByToken(_ context.Context, token string) (*auth.ResetToken, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, entry := range repo.byEmail {
		if entry.Token == token {
			clone := *entry
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Reset token")
}

func (repo *fakeResetTokenRepository) Consume(ctx context.Context, token, userID, newHash string) error {
	repo.mu.Lock()
	var email string
	for _, entry := range repo.byEmail {
		if entry.Token == token {
			email = entry.Email
		}
	}
	if email == "" {
		repo.mu.Unlock()
		return apperr.ValidationError("Invalid or expired reset token")
	}
	delete(repo.byEmail, email)
	repo.mu.Unlock()

	return repo.users.UpdatePassword(ctx, userID, newHash)
}

type fakeRevocationList struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newFakeRevocationList() *fakeRevocationList {
	return &fakeRevocationList{revoked: make(map[string]bool)}
}

func (list *fakeRevocationList) Revoke(_ context.Context, jti string, _ time.Duration) error {
	list.mu.Lock()
	defer list.mu.Unlock()
	list.revoked[jti] = true
	return nil
}

func (list *fakeRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	list.mu.Lock()
	defer list.mu.Unlock()
	return list.revoked[jti], nil
}

type capturedMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []capturedMail
}

func (mailer *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	mailer.sent = append(mailer.sent, capturedMail{To: to, Subject: subject, Body: body})
	return nil
}

// # Fixture

type fixture struct {
	service *auth.Service
	users   *fakeUserRepository
	resets  *fakeResetTokenRepository
	tokens  *sec.TokenService
	mailer  *fakeMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := sec.NewTokenService("unit-test-signing-secret", "harvest.app", 30*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	users := newFakeUserRepository()
	resets := newFakeResetTokenRepository(users)
	mailer := &fakeMailer{}

	service := auth.NewService(users, resets, newFakeRevocationList(), tokens, mailer, "https://harvest.app/reset-password")
	return &fixture{service: service, users: users, resets: resets, tokens: tokens, mailer: mailer}
}

func (f *fixture) register(t *testing.T, email, password string) *auth.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), auth.RegisterInput{
		FullName: "Test Evangelist",
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

// # Registration

/*
TestRegister_ForcesEvangelistRole checks that self-service enrollment always
yields an active evangelist, whatever role string was sent.
*/
func TestRegister_ForcesEvangelistRole(t *testing.T) {
	f := newFixture(t)

	user, err := f.service.Register(context.Background(), auth.RegisterInput{
		FullName: "Paul",
		Email:    "paul@harvest.app",
		Password: "longenough",
		Role:     "evangelist",
	})
	require.NoError(t, err)

	assert.Equal(t, sec.RoleEvangelist, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "longenough", user.PasswordHash, "hash must not be plain text")
}

/*
TestRegister_AdminRoleRefused checks that requesting the admin role is
refused outright, not silently downgraded.
*/
func TestRegister_AdminRoleRefused(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		FullName: "Mallory",
		Email:    "mallory@harvest.app",
		Password: "longenough",
		Role:     "admin",
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "FORBIDDEN", ae.Code)
}

/*
TestRegister_DuplicateEmail checks the Conflict mapping.
*/
func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "paul@harvest.app", "longenough")

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		FullName: "Other Paul",
		Email:    "paul@harvest.app",
		Password: "alsolongenough",
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
}

// # Login

/*
TestLogin checks success plus the single generic failure message for both
unknown accounts and wrong passwords.
*/
func TestLogin(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "paul@harvest.app", "longenough")

	// Success
	session, err := f.service.Login(context.Background(), "paul@harvest.app", "longenough")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
	assert.NotEmpty(t, session.Tokens.AccessToken)
	assert.NotEmpty(t, session.Tokens.RefreshToken)

	// Wrong password and unknown email must be indistinguishable.
	_, wrongPassErr := f.service.Login(context.Background(), "paul@harvest.app", "wrong")
	_, unknownErr := f.service.Login(context.Background(), "nobody@harvest.app", "longenough")

	require.Error(t, wrongPassErr)
	require.Error(t, unknownErr)
	assert.Equal(t, wrongPassErr.Error(), unknownErr.Error())
	assert.Equal(t, "UNAUTHORIZED", apperr.As(wrongPassErr).Code)
}

// # Rotation

/*
TestRotate_SingleUse checks that a refresh token yields a fresh pair exactly
once: the second redemption hits the revocation list.
*/
func TestRotate_SingleUse(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "paul@harvest.app", "longenough")

	session, err := f.service.Login(context.Background(), "paul@harvest.app", "longenough")
	require.NoError(t, err)

	pair, err := f.service.Rotate(context.Background(), session.Tokens.RefreshToken)
	require.NoError(t, err)

	// The new pair belongs to the same subject.
	claims, err := f.tokens.VerifyStrict(pair.AccessToken, sec.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)

	// Replaying the spent token is refused.
	_, err = f.service.Rotate(context.Background(), session.Tokens.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	// The replacement still works.
	_, err = f.service.Rotate(context.Background(), pair.RefreshToken)
	assert.NoError(t, err)
}

/*
TestRotate_RejectsWrongInputs checks that access tokens, garbage, and expired
refresh tokens are all refused with 401.
*/
func TestRotate_RejectsWrongInputs(t *testing.T) {
	f := newFixture(t)
	f.register(t, "paul@harvest.app", "longenough")

	session, err := f.service.Login(context.Background(), "paul@harvest.app", "longenough")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"access_token_not_accepted", session.Tokens.AccessToken},
		{"garbage", "not-a-jwt"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Rotate(context.Background(), tt.token)
			require.Error(t, err)
			assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
		})
	}
}

// # Password Recovery

/*
TestForgotPassword checks issuance, the 404 for unknown accounts, and that
re-requesting replaces the pending token (last-issued wins).
*/
func TestForgotPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "paul@harvest.app", "longenough")

	// Unknown account
	err := f.service.ForgotPassword(context.Background(), "nobody@harvest.app")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	// First issuance
	require.NoError(t, f.service.ForgotPassword(context.Background(), "paul@harvest.app"))
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "paul@harvest.app", f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].Body, "token=")

	firstToken := f.resets.byEmail["paul@harvest.app"].Token

	// Reissue replaces the pending token
	require.NoError(t, f.service.ForgotPassword(context.Background(), "paul@harvest.app"))
	secondToken := f.resets.byEmail["paul@harvest.app"].Token

	assert.NotEqual(t, firstToken, secondToken)
	assert.Len(t, f.mailer.sent, 2)
}

/*
TestResetPassword walks the redemption matrix: confirmation mismatch, unknown
token, expired token, success, and single-use enforcement.
*/
func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "paul@harvest.app", "longenough")

	require.NoError(t, f.service.ForgotPassword(context.Background(), "paul@harvest.app"))
	token := f.resets.byEmail["paul@harvest.app"].Token

	// Confirmation mismatch
	err := f.service.ResetPassword(context.Background(), token, "newpassword", "different")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	// Unknown token
	err = f.service.ResetPassword(context.Background(), "no-such-token", "newpassword", "newpassword")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid or expired")

	// Expired token carries a distinct message
	f.resets.byEmail["paul@harvest.app"].ExpiresAt = time.Now().Add(-time.Minute)
	err = f.service.ResetPassword(context.Background(), token, "newpassword", "newpassword")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")

	// Fresh token succeeds and rotates the credential
	require.NoError(t, f.service.ForgotPassword(context.Background(), "paul@harvest.app"))
	token = f.resets.byEmail["paul@harvest.app"].Token

	require.NoError(t, f.service.ResetPassword(context.Background(), token, "newpassword", "newpassword"))

	_, err = f.service.Login(context.Background(), "paul@harvest.app", "longenough")
	assert.Error(t, err, "old password must stop working")
	_, err = f.service.Login(context.Background(), "paul@harvest.app", "newpassword")
	assert.NoError(t, err)

	// The spent token cannot be redeemed again
	err = f.service.ResetPassword(context.Background(), token, "anotherpass", "anotherpass")
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "invalid or expired")
}

/*
TestChangePassword checks the current-password gate.
*/
func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "paul@harvest.app", "longenough")

	err := f.service.ChangePassword(context.Background(), user.ID, "wrong-current", "newpassword")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	require.NoError(t, f.service.ChangePassword(context.Background(), user.ID, "longenough", "newpassword"))

	_, err = f.service.Login(context.Background(), "paul@harvest.app", "newpassword")
	assert.NoError(t, err)
}

// # Guard Support

/*
TestGuardSupport checks the middleware-facing adapters: access verification
and fresh principal loading.
*/
func TestGuardSupport(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "paul@harvest.app", "longenough")

	session, err := f.service.Login(context.Background(), "paul@harvest.app", "longenough")
	require.NoError(t, err)

	subject, err := f.service.VerifyAccessToken(session.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	// Refresh tokens are not valid at the guard.
	_, err = f.service.VerifyAccessToken(session.Tokens.RefreshToken)
	assert.Error(t, err)

	principal, err := f.service.LoadPrincipal(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleEvangelist, principal.Role)

	// Role changes apply on the next load, without reissuing tokens.
	require.NoError(t, f.users.UpdateRole(context.Background(), user.ID, "admin"))
	principal, err = f.service.LoadPrincipal(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleAdmin, principal.Role)

	_, err = f.service.LoadPrincipal(context.Background(), "missing-user")
	assert.Error(t, err)
}
