// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/harvestapp/harvest/internal/platform/apperr"
)

// HashPassword hashes a plain-text password using the bcrypt algorithm.
//
// An empty password is rejected before hashing: a blank credential must
// never become a storable hash.
func HashPassword(plainTextPassword string) (string, error) {
	if plainTextPassword == "" {
		return "", apperr.ValidationError("Password must not be empty")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
//
// It returns false for any mismatch, including empty or malformed hashes.
// The underlying bcrypt comparison is constant-time.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}
