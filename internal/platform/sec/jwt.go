// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces defined at the call sites.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/harvestapp/harvest/internal/platform/constants"
	uuidgen "github.com/harvestapp/harvest/pkg/uuid"
)

// TokenKind distinguishes short-lived access tokens from long-lived refresh
// tokens. A token of one kind is never accepted where the other is expected.
type TokenKind string

const (
	// KindAccess marks tokens presented on every authenticated API call.
	KindAccess TokenKind = constants.TokenKindAccess

	// KindRefresh marks tokens redeemable only at the rotation endpoint.
	KindRefresh TokenKind = constants.TokenKindRefresh
)

// Claims is the payload embedded inside every Harvest JWT.
//
// Beyond the registered claims (sub, iss, iat, exp, jti), the only custom
// claim is the token kind. Identity attributes are deliberately NOT embedded:
// the authorization guard reloads the user from the database on every
// request, so role and status changes apply immediately.
type Claims struct {
	jwt.RegisteredClaims

	// Kind is "access" or "refresh".
	Kind TokenKind `json:"type"`
}

// TokenService handles generation and verification of JWT tokens using HS256.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// TokenPair bundles the two tokens issued at login and rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// NewTokenService creates a new TokenService signing with the shared secret.
func NewTokenService(secret, issuer string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: JWT secret must not be empty")
	}

	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// Issue creates a signed JWT of the given kind for the subject.
//
// Every token carries a fresh random jti so that individual refresh tokens
// can be revoked after rotation.
func (service *TokenService) Issue(subject string, kind TokenKind, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
			ID:        uuidgen.NewRandom(),
		},
		Kind: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// IssuePair creates a fresh access/refresh token pair for the subject using
// the TTLs the service was constructed with.
func (service *TokenService) IssuePair(subject string) (*TokenPair, error) {
	accessToken, err := service.Issue(subject, KindAccess, service.accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := service.Issue(subject, KindRefresh, service.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

// Verify checks the signature, structure, and kind of a JWT string WITHOUT
// enforcing expiry.
//
// It exists for inspection flows that need the claims of a possibly-expired
// token (e.g. computing remaining validity). Gate-keeping callers must use
// [TokenService.VerifyStrict] instead.
func (service *TokenService) Verify(tokenString string, expectedKind TokenKind) (*Claims, error) {
	return service.parse(tokenString, expectedKind, jwt.WithoutClaimsValidation())
}

// VerifyStrict checks signature, structure, kind, AND expiry of a JWT string.
//
// Any failure yields an error: callers treat every error as an invalid token.
func (service *TokenService) VerifyStrict(tokenString string, expectedKind TokenKind) (*Claims, error) {
	return service.parse(tokenString, expectedKind)
}

// parse is the shared verification core behind Verify and VerifyStrict.
func (service *TokenService) parse(tokenString string, expectedKind TokenKind, options ...jwt.ParserOption) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	}, options...)

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	if claims.Kind != expectedKind {
		return nil, fmt.Errorf("sec: token kind mismatch: expected %q", expectedKind)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("sec: token has no subject")
	}

	return claims, nil
}

// RemainingSeconds reports how many seconds of validity a token has left,
// clamped at zero for already-expired tokens.
//
// The token's expiry is NOT enforced during decoding; expired tokens simply
// report zero. An error is returned only when the token cannot be decoded or
// carries no expiry at all.
func (service *TokenService) RemainingSeconds(tokenString string) (int64, error) {
	claims, err := service.decodeAnyKind(tokenString)
	if err != nil {
		return 0, err
	}

	if claims.ExpiresAt == nil {
		return 0, fmt.Errorf("sec: token has no expiry")
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 0 {
		return 0, nil
	}
	return int64(remaining.Seconds()), nil
}

// IsExpired reports whether a token's expiry has passed.
//
// Undecodable tokens and tokens without an expiry are reported as expired:
// the inspection API fails closed.
func (service *TokenService) IsExpired(tokenString string) bool {
	claims, err := service.decodeAnyKind(tokenString)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return time.Now().After(claims.ExpiresAt.Time)
}

// decodeAnyKind verifies the signature but skips expiry and kind checks.
func (service *TokenService) decodeAnyKind(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	}, jwt.WithoutClaimsValidation())

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}

// RefreshTTL exposes the configured refresh-token lifetime.
func (service *TokenService) RefreshTTL() time.Duration {
	return service.refreshTTL
}
