// Copyright (c) 2026 Phoenix PME. All rights reserved.

package auth

import "time"

// # Authentication Constraints

const (
	// LockoutThreshold is the number of failed logins within [LockoutWindow]
	// that locks an account.
	LockoutThreshold = 5

	// LockoutWindow is the trailing period over which failed logins are counted.
	// The lock clears itself once the oldest failure ages out of the window.
	LockoutWindow = 1 * time.Hour

	// TOTPSkewSteps is the number of 30-second steps of clock drift tolerated
	// when verifying an authenticator code.
	TOTPSkewSteps = 1

	// RecoveryCodeCount is how many single-use codes are issued per enrollment.
	RecoveryCodeCount = 8

	// RecoveryCodeTTL is how long a recovery code batch stays redeemable.
	RecoveryCodeTTL = 30 * 24 * time.Hour

	// ResetTokenTTL is the duration a password reset token remains valid.
	// Short-lived (1 hour) for security.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32

	// PasswordMinLength is the minimum accepted password length.
	PasswordMinLength = 8

	// PasswordMaxLength guards against absurdly large hashing inputs.
	PasswordMaxLength = 128
)
