// Copyright (c) 2026 Phoenix PME. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"math"
	"time"
)

// # Lockout Guard

// LockoutGuard derives the account-lock state from the login attempt audit trail.
//
// # Design
//
// No "locked" flag is ever stored. An account is locked exactly while the
// trailing [LockoutWindow] contains at least [LockoutThreshold] failed
// attempts, so the lock releases itself as old failures age out. That keeps
// the lock consistent across processes without coordination.
type LockoutGuard struct {
	attempts  LoginAttemptRepository
	threshold int
	window    time.Duration
}

// NewLockoutGuard constructs a guard with the platform's default policy.
func NewLockoutGuard(attempts LoginAttemptRepository) *LockoutGuard {
	return &LockoutGuard{
		attempts:  attempts,
		threshold: LockoutThreshold,
		window:    LockoutWindow,
	}
}

/*
Check reports whether the email is currently locked out.

Description: Counts failed attempts in the trailing window. When locked, it
also computes how many seconds remain until the oldest failure ages out and
the account unlocks.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - bool: true when the account is locked
  - int: Retry hint in seconds (0 when not locked)
  - error: Storage failures
*/
func (guard *LockoutGuard) Check(context context.Context, email string) (bool, int, error) {
	cutoff := time.Now().Add(-guard.window)

	failedCount, err := guard.attempts.CountFailedSince(context, email, cutoff)
	if err != nil {
		return false, 0, fmt.Errorf("auth_guard_count_failed: %w", err)
	}

	if failedCount < guard.threshold {
		return false, 0, nil
	}

	// The lock releases when the oldest in-window failure crosses the cutoff.
	oldest, err := guard.attempts.OldestFailedSince(context, email, cutoff)
	if err != nil {
		return false, 0, fmt.Errorf("auth_guard_oldest_failed: %w", err)
	}

	retryAfter := int(math.Ceil(guard.window.Seconds()))
	if oldest != nil {
		remaining := time.Until(oldest.Add(guard.window))
		if remaining > 0 {
			retryAfter = int(math.Ceil(remaining.Seconds()))
		} else {
			retryAfter = 1
		}
	}

	return true, retryAfter, nil
}

/*
Record appends one attempt to the audit trail.

Description: Recording is best effort from the caller's perspective, but the
error is still surfaced so the login flow can decide whether to fail closed.

Parameters:
  - context: context.Context
  - attempt: *LoginAttempt

Returns:
  - error: Persistence failures
*/
func (guard *LockoutGuard) Record(context context.Context, attempt *LoginAttempt) error {
	if err := guard.attempts.Create(context, attempt); err != nil {
		return fmt.Errorf("auth_guard_record_failed: %w", err)
	}
	return nil
}
