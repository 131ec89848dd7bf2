// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestapp/harvest/internal/platform/sec"
)

func newTestTokenService(t *testing.T) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService("test-secret-with-enough-entropy", "harvest.app", 30*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return service
}

/*
TestTokenService_IssueAndVerify checks that a freshly issued token passes
strict verification and carries the expected subject and kind.
*/
func TestTokenService_IssueAndVerify(t *testing.T) {
	service := newTestTokenService(t)

	token, err := service.Issue("user-123", sec.KindAccess, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.VerifyStrict(token, sec.KindAccess)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, sec.KindAccess, claims.Kind)
	assert.NotEmpty(t, claims.ID, "every token must carry a jti")
}

/*
TestTokenService_KindMismatch checks that a refresh token is rejected when an
access token is expected, and vice versa.
*/
func TestTokenService_KindMismatch(t *testing.T) {
	service := newTestTokenService(t)

	refreshToken, err := service.Issue("user-123", sec.KindRefresh, time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyStrict(refreshToken, sec.KindAccess)
	assert.Error(t, err)

	accessToken, err := service.Issue("user-123", sec.KindAccess, time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyStrict(accessToken, sec.KindRefresh)
	assert.Error(t, err)
}

/*
TestTokenService_ExpiredToken checks the split between strict verification
(rejects expired) and plain verification (accepts expired for inspection).
*/
func TestTokenService_ExpiredToken(t *testing.T) {
	service := newTestTokenService(t)

	expired, err := service.Issue("user-123", sec.KindAccess, -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyStrict(expired, sec.KindAccess)
	assert.Error(t, err, "strict verification must reject expired tokens")

	claims, err := service.Verify(expired, sec.KindAccess)
	require.NoError(t, err, "non-strict verification must tolerate expiry")
	assert.Equal(t, "user-123", claims.Subject)
}

/*
TestTokenService_TamperedToken checks that signature tampering is detected.
*/
func TestTokenService_TamperedToken(t *testing.T) {
	service := newTestTokenService(t)

	token, err := service.Issue("user-123", sec.KindAccess, time.Minute)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = service.VerifyStrict(tampered, sec.KindAccess)
	assert.Error(t, err)

	_, err = service.Verify(tampered, sec.KindAccess)
	assert.Error(t, err, "tampering must fail even without expiry validation")
}

/*
TestTokenService_WrongSecret checks that tokens signed under a different
secret are rejected.
*/
func TestTokenService_WrongSecret(t *testing.T) {
	service := newTestTokenService(t)
	other, err := sec.NewTokenService("a-completely-different-secret", "harvest.app", time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := other.Issue("user-123", sec.KindAccess, time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyStrict(token, sec.KindAccess)
	assert.Error(t, err)
}

/*
TestTokenService_IssuePair checks that login token pairs contain two distinct,
individually verifiable tokens for the same subject.
*/
func TestTokenService_IssuePair(t *testing.T) {
	service := newTestTokenService(t)

	pair, err := service.IssuePair("user-123")
	require.NoError(t, err)
	require.NotNil(t, pair)

	assert.Equal(t, "bearer", pair.TokenType)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	accessClaims, err := service.VerifyStrict(pair.AccessToken, sec.KindAccess)
	require.NoError(t, err)
	refreshClaims, err := service.VerifyStrict(pair.RefreshToken, sec.KindRefresh)
	require.NoError(t, err)

	assert.Equal(t, "user-123", accessClaims.Subject)
	assert.Equal(t, "user-123", refreshClaims.Subject)
	assert.NotEqual(t, accessClaims.ID, refreshClaims.ID, "jti must be unique per token")
}

/*
TestTokenService_RemainingSeconds checks remaining-validity reporting,
including the zero clamp for expired tokens.
*/
func TestTokenService_RemainingSeconds(t *testing.T) {
	service := newTestTokenService(t)

	live, err := service.Issue("user-123", sec.KindAccess, 10*time.Minute)
	require.NoError(t, err)

	remaining, err := service.RemainingSeconds(live)
	require.NoError(t, err)
	assert.Greater(t, remaining, int64(9*60))
	assert.LessOrEqual(t, remaining, int64(10*60))

	expired, err := service.Issue("user-123", sec.KindAccess, -time.Minute)
	require.NoError(t, err)

	remaining, err = service.RemainingSeconds(expired)
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)

	_, err = service.RemainingSeconds("not-a-token")
	assert.Error(t, err)
}

/*
TestTokenService_IsExpired checks that the expiry probe fails closed on
garbage input.
*/
func TestTokenService_IsExpired(t *testing.T) {
	service := newTestTokenService(t)

	live, err := service.Issue("user-123", sec.KindAccess, time.Minute)
	require.NoError(t, err)
	assert.False(t, service.IsExpired(live))

	expired, err := service.Issue("user-123", sec.KindAccess, -time.Minute)
	require.NoError(t, err)
	assert.True(t, service.IsExpired(expired))

	assert.True(t, service.IsExpired("garbage"), "undecodable input counts as expired")
}

/*
TestNewTokenService_EmptySecret checks that a service cannot be built without
a signing secret.
*/
func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := sec.NewTokenService("", "harvest.app", time.Minute, time.Hour)
	assert.Error(t, err)
}
