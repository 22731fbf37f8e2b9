// Copyright (c) 2026 Phoenix PME. All rights reserved.

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
		FindByEmail returns the account with the given email (case-insensitive).

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
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		Update persists changes to mutable profile fields.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, user *User) error

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

	/*
		UpdateTwoFactor replaces the user's TOTP enrollment state.

		An empty secret with enabled=false clears the enrollment entirely.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - secret: string
		  - enabled: bool

		Returns:
		  - error: Persistence failures
	*/
	UpdateTwoFactor(context context.Context, userID, secret string, enabled bool) error

	/*
		TouchLastActive stamps the account's last successful authentication.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	TouchLastActive(context context.Context, userID string) error
}

// # Refresh Token Data Access

// RefreshTokenRepository defines the data access contract for tracked refresh tokens.
type RefreshTokenRepository interface {

	/*
		Create persists a new tracking record for an authenticated login.

		Parameters:
		  - context: context.Context
		  - token: *RefreshToken

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, token *RefreshToken) error

	/*
		FindByTokenID returns the record matching the given token identifier ("jti").

		Parameters:
		  - context: context.Context
		  - tokenID: string

		Returns:
		  - *RefreshToken: Hydrated entity (possibly expired or revoked)
		  - error: Database retrieval failures
	*/
	FindByTokenID(context context.Context, tokenID string) (*RefreshToken, error)

	/*
		FindActiveByUser lists every non-revoked, non-expired session of the user,
		newest first.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []*RefreshToken: Active sessions
		  - error: Database retrieval failures
	*/
	FindActiveByUser(context context.Context, userID string) ([]*RefreshToken, error)

	/*
		Revoke marks a specific token as permanently invalidated.
		Revoking an already-revoked token is a no-op.

		Parameters:
		  - context: context.Context
		  - tokenID: string

		Returns:
		  - error: Persistence failures
	*/
	Revoke(context context.Context, tokenID string) error

	/*
		RevokeAll revokes every active token belonging to the userID.
		Already-revoked rows keep their original RevokedAt timestamp.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	RevokeAll(context context.Context, userID string) error

	/*
		RevokeOthers revokes all tokens belonging to the userID except the given one.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - keepTokenID: string

		Returns:
		  - error: Persistence failures
	*/
	RevokeOthers(context context.Context, userID, keepTokenID string) error

	/*
		TouchLastUsed stamps the token's most recent redemption.

		Parameters:
		  - context: context.Context
		  - tokenID: string

		Returns:
		  - error: Persistence failures
	*/
	TouchLastUsed(context context.Context, tokenID string) error

	/*
		CountActive returns the number of live sessions for the user.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - int: Active session count
		  - error: Database retrieval failures
	*/
	CountActive(context context.Context, userID string) (int, error)

	/*
		DeleteExpired physically removes tokens that are expired or revoked.
		Used by the background sweep, never by request handlers.

		Parameters:
		  - context: context.Context

		Returns:
		  - int: Number of rows removed
		  - error: Persistence failures
	*/
	DeleteExpired(context context.Context) (int, error)
}

// # Login Attempt Data Access

// LoginAttemptRepository defines the contract for the credential-check audit trail.
type LoginAttemptRepository interface {

	/*
		Create appends one attempt record. Attempts are immutable once written.

		Parameters:
		  - context: context.Context
		  - attempt: *LoginAttempt

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, attempt *LoginAttempt) error

	/*
		CountFailedSince counts failed attempts for the email after the cutoff.

		Parameters:
		  - context: context.Context
		  - email: string
		  - since: time.Time

		Returns:
		  - int: Failed attempt count inside the window
		  - error: Database retrieval failures
	*/
	CountFailedSince(context context.Context, email string, since time.Time) (int, error)

	/*
		OldestFailedSince returns the creation time of the oldest failed attempt
		after the cutoff. Used to compute the lockout retry hint.

		Parameters:
		  - context: context.Context
		  - email: string
		  - since: time.Time

		Returns:
		  - *time.Time: nil when no failed attempt exists in the window
		  - error: Database retrieval failures
	*/
	OldestFailedSince(context context.Context, email string, since time.Time) (*time.Time, error)
}

// # Recovery Code Data Access

// RecoveryCodeRepository defines the contract for single-use two-factor fallback codes.
type RecoveryCodeRepository interface {

	/*
		ReplaceForUser atomically deletes the user's existing batch and inserts
		a fresh one.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - codes: []string
		  - expiresAt: time.Time

		Returns:
		  - error: Persistence failures
	*/
	ReplaceForUser(context context.Context, userID string, codes []string, expiresAt time.Time) error

	/*
		Redeem marks the matching unused, unexpired code as consumed.
		The check and the update happen in a single statement so a code can
		never be redeemed twice, even under concurrent requests.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - code: string

		Returns:
		  - bool: true when a code was consumed
		  - error: Persistence failures
	*/
	Redeem(context context.Context, userID, code string) (bool, error)

	/*
		DeleteForUser removes every code belonging to the user.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	DeleteForUser(context context.Context, userID string) error
}

// # Volatile Data Access

// ResetTokenRepository defines the contract for storing volatile password reset tokens.
type ResetTokenRepository interface {

	/*
		Set stores a reset token associated with a userID for a limited duration.

		Parameters:
		  - context: context.Context
		  - token: string
		  - userID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, userID string, ttl time.Duration) error

	/*
		Get retrieves the userID associated with a given reset token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: UserID
		  - error: Retrieval failures
	*/
	Get(context context.Context, token string) (string, error)

	/*
		Delete removes a reset token after successful use.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}
