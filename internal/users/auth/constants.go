// Copyright (c) 2026 Harvest. All rights reserved.
// Author: engineering@harvest.app

package auth

import "time"

// # Authentication Constraints

const (
	// ResetTokenTTL is the duration a password reset link remains valid.
	// Short-lived (15m) so leaked links age out quickly.
	ResetTokenTTL = 15 * time.Minute

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
)
