// Copyright (c) 2026 Phoenix PME. All rights reserved.

// PostgreSQL implementations of the auth storage contracts.
//
// # Architecture
//
// Repositories in this file are strictly separated from domain logic. They
// implement domain-defined interfaces (e.g., [UserRepository]) using the
// [pgxpool.Pool] connection manager.
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
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/apperr"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/dberr"
	"github.com/PhoenixPME/phoenix-pme/pkg/uuid"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// userSelectColumns is shared by every account lookup so the Scan order has a
// single source of truth.
const userSelectColumns = `
	id, email, passwordhash, name, role, walletaddress, phonenumber, country,
	kycstatus, status, twofactorenabled, twofactorsecret, lastactiveat, createdat, updatedat`

// scanUser hydrates one account row into the domain entity.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&user.WalletAddress,
		&user.PhoneNumber,
		&user.Country,
		&user.KYCStatus,
		&user.Status,
		&user.TwoFactorEnabled,
		&user.TwoFactorSecret,
		&user.LastActiveAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the users.account table.

Description: Deep-persists account metadata, ensuring timestamps are initialized
if not provided.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, email, passwordhash, name, role, walletaddress, phonenumber, country,
			kycstatus, status, twofactorenabled, twofactorsecret, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.WalletAddress,
		user.PhoneNumber,
		user.Country,
		user.KYCStatus,
		user.Status,
		user.TwoFactorEnabled,
		user.TwoFactorSecret,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		// A concurrent registration can race past the service's existence
		// check; the partial unique index on the email is the authority.
		if dberr.IsUniqueViolation(err) {
			return apperr.BadRequest(CodeDuplicateEmail, "Email is already registered")
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Description: Performs a lookup on the account table, filtering out soft-deleted users.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT ` + userSelectColumns + `
		FROM users.account
		WHERE LOWER(email) = LOWER($1) AND deletedat IS NULL`

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
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

Description: Primary key resolution for user accounts.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: Not found or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT ` + userSelectColumns + `
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL`

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
Update persists changes to a user's mutable profile fields.

Description: Synchronizes the in-memory user state with the database,
refreshing the updatedat timestamp. Identity and credential columns are
deliberately excluded; they have dedicated update paths.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Update failures
*/
func (repository *PostgresUserRepository) Update(context context.Context, user *User) error {
	const query = `
		UPDATE users.account
		SET name = $2, walletaddress = $3, phonenumber = $4, country = $5,
		    kycstatus = $6, status = $7, updatedat = $8
		WHERE id = $1 AND deletedat IS NULL`

	user.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Name,
		user.WalletAddress,
		user.PhoneNumber,
		user.Country,
		user.KYCStatus,
		user.Status,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_failed: %w", err)
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
		UPDATE users.account
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}

	return nil
}

/*
UpdateTwoFactor replaces the user's TOTP enrollment state.

Parameters:
  - context: context.Context
  - userID: string
  - secret: string
  - enabled: bool

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdateTwoFactor(context context.Context, userID, secret string, enabled bool) error {
	const query = `
		UPDATE users.account
		SET twofactorsecret = $2, twofactorenabled = $3, updatedat = $4
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, secret, enabled, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_two_factor_failed: %w", err)
	}

	return nil
}

/*
TouchLastActive stamps the account's most recent successful authentication.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) TouchLastActive(context context.Context, userID string) error {
	const query = "UPDATE users.account SET lastactiveat = NOW() WHERE id = $1"
	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_touch_last_active_failed: %w", err)
	}
	return nil
}

// # Refresh Token Repository

// PostgresRefreshTokenRepository implements the RefreshTokenRepository interface.
type PostgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository creates a new PostgreSQL implementation of RefreshTokenRepository.
func NewRefreshTokenRepository(pool *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{pool: pool}
}

const refreshTokenSelectColumns = `
	id, tokenid, userid, useragent, ipaddress, isrevoked, expiresat, revokedat, lastusedat, createdat`

func scanRefreshToken(row pgx.Row) (*RefreshToken, error) {
	token := &RefreshToken{}
	err := row.Scan(
		&token.ID,
		&token.TokenID,
		&token.UserID,
		&token.UserAgent,
		&token.IPAddress,
		&token.IsRevoked,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.LastUsedAt,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return token, nil
}

/*
Create persists a new tracking record into the users.refreshtoken table.

Description: Records a successful authentication session in persistent storage.

Parameters:
  - context: context.Context
  - token: *RefreshToken

Returns:
  - error: Storage failures
*/
func (repository *PostgresRefreshTokenRepository) Create(context context.Context, token *RefreshToken) error {
	const query = `
		INSERT INTO users.refreshtoken (
			id, tokenid, userid, useragent, ipaddress, isrevoked, expiresat, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		token.ID,
		token.TokenID,
		token.UserID,
		token.UserAgent,
		token.IPAddress,
		token.IsRevoked,
		token.ExpiresAt,
		token.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_refresh_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByTokenID retrieves a tracking record by its token identifier ("jti").

Description: The row is returned even when revoked or expired; the domain
layer decides what an invalid record means for each flow.

Parameters:
  - context: context.Context
  - tokenID: string

Returns:
  - *RefreshToken: Hydrated session metadata
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRefreshTokenRepository) FindByTokenID(context context.Context, tokenID string) (*RefreshToken, error) {
	const query = `
		SELECT ` + refreshTokenSelectColumns + `
		FROM users.refreshtoken
		WHERE tokenid = $1`

	token, err := scanRefreshToken(repository.pool.QueryRow(context, query, tokenID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_refresh_repo_find_failed: %w", err)
	}

	return token, nil
}

/*
FindActiveByUser lists the user's live sessions, newest first.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []*RefreshToken: Active sessions
  - error: Execution errors
*/
func (repository *PostgresRefreshTokenRepository) FindActiveByUser(context context.Context, userID string) ([]*RefreshToken, error) {
	const query = `
		SELECT ` + refreshTokenSelectColumns + `
		FROM users.refreshtoken
		WHERE userid = $1 AND isrevoked = FALSE AND expiresat > NOW()
		ORDER BY createdat DESC`

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_refresh_repo_find_active_failed: %w", err)
	}
	defer rows.Close()

	tokens := make([]*RefreshToken, 0)
	for rows.Next() {
		token, err := scanRefreshToken(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_refresh_repo_scan_failed: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_refresh_repo_rows_failed: %w", err)
	}

	return tokens, nil
}

/*
Revoke marks a specific token as revoked.

Description: The isrevoked filter keeps the original revokedat timestamp when
the operation is repeated, making revocation idempotent.

Parameters:
  - context: context.Context
  - tokenID: string

Returns:
  - error: Revocation failures
*/
func (repository *PostgresRefreshTokenRepository) Revoke(context context.Context, tokenID string) error {
	const query = `
		UPDATE users.refreshtoken
		SET isrevoked = TRUE, revokedat = NOW()
		WHERE tokenid = $1 AND isrevoked = FALSE`

	_, err := repository.pool.Exec(context, query, tokenID)
	if err != nil {
		return fmt.Errorf("postgres_refresh_repo_revoke_failed: %w", err)
	}
	return nil
}

/*
RevokeAll marks all active tokens for a user as revoked.

Description: Security nuking of every active session for a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Batch revocation failures
*/
func (repository *PostgresRefreshTokenRepository) RevokeAll(context context.Context, userID string) error {
	const query = `
		UPDATE users.refreshtoken
		SET isrevoked = TRUE, revokedat = NOW()
		WHERE userid = $1 AND isrevoked = FALSE`

	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_refresh_repo_revoke_all_failed: %w", err)
	}
	return nil
}

/*
RevokeOthers marks all active tokens for a user as revoked, except for one.

Parameters:
  - context: context.Context
  - userID: string
  - keepTokenID: string

Returns:
  - error: Filtered revocation failures
*/
func (repository *PostgresRefreshTokenRepository) RevokeOthers(context context.Context, userID, keepTokenID string) error {
	const query = `
		UPDATE users.refreshtoken
		SET isrevoked = TRUE, revokedat = NOW()
		WHERE userid = $1 AND tokenid != $2 AND isrevoked = FALSE`

	_, err := repository.pool.Exec(context, query, userID, keepTokenID)
	if err != nil {
		return fmt.Errorf("postgres_refresh_repo_revoke_others_failed: %w", err)
	}
	return nil
}

/*
TouchLastUsed stamps the token's most recent redemption.

Parameters:
  - context: context.Context
  - tokenID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresRefreshTokenRepository) TouchLastUsed(context context.Context, tokenID string) error {
	const query = "UPDATE users.refreshtoken SET lastusedat = NOW() WHERE tokenid = $1"
	_, err := repository.pool.Exec(context, query, tokenID)
	if err != nil {
		return fmt.Errorf("postgres_refresh_repo_touch_failed: %w", err)
	}
	return nil
}

/*
CountActive returns the number of live sessions for a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - int: Active session count
  - error: Execution errors
*/
func (repository *PostgresRefreshTokenRepository) CountActive(context context.Context, userID string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM users.refreshtoken
		WHERE userid = $1 AND isrevoked = FALSE AND expiresat > NOW()`

	var count int
	if err := repository.pool.QueryRow(context, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_refresh_repo_count_failed: %w", err)
	}
	return count, nil
}

/*
DeleteExpired permanently removes tokens that are expired or revoked.

Description: Cleanup task to reclaim storage from stale sessions. Revoked rows
are kept for a day so session listings do not flicker during support cases.

Parameters:
  - context: context.Context

Returns:
  - int: Number of rows removed
  - error: Cleanup failures
*/
func (repository *PostgresRefreshTokenRepository) DeleteExpired(context context.Context) (int, error) {
	const query = `
		DELETE FROM users.refreshtoken
		WHERE expiresat <= NOW()
		   OR (isrevoked = TRUE AND revokedat <= NOW() - INTERVAL '1 day')`

	tag, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_refresh_repo_delete_expired_failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// # Login Attempt Repository

// PostgresLoginAttemptRepository implements the LoginAttemptRepository interface.
type PostgresLoginAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewLoginAttemptRepository creates a new PostgreSQL implementation of LoginAttemptRepository.
func NewLoginAttemptRepository(pool *pgxpool.Pool) *PostgresLoginAttemptRepository {
	return &PostgresLoginAttemptRepository{pool: pool}
}

/*
Create appends one credential-check record to the audit trail.

Parameters:
  - context: context.Context
  - attempt: *LoginAttempt

Returns:
  - error: Storage failures
*/
func (repository *PostgresLoginAttemptRepository) Create(context context.Context, attempt *LoginAttempt) error {
	const query = `
		INSERT INTO users.loginattempt (
			id, email, userid, ipaddress, useragent, succeeded, createdat
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)`

	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		attempt.ID,
		attempt.Email,
		attempt.UserID,
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.Succeeded,
		attempt.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_attempt_repo_create_failed: %w", err)
	}

	return nil
}

/*
CountFailedSince counts failed attempts for an email after the cutoff.

Parameters:
  - context: context.Context
  - email: string
  - since: time.Time

Returns:
  - int: Failed attempt count inside the window
  - error: Execution errors
*/
func (repository *PostgresLoginAttemptRepository) CountFailedSince(context context.Context, email string, since time.Time) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM users.loginattempt
		WHERE LOWER(email) = LOWER($1) AND succeeded = FALSE AND createdat > $2`

	var count int
	if err := repository.pool.QueryRow(context, query, email, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_attempt_repo_count_failed: %w", err)
	}
	return count, nil
}

/*
OldestFailedSince returns the creation time of the oldest failed attempt after the cutoff.

Parameters:
  - context: context.Context
  - email: string
  - since: time.Time

Returns:
  - *time.Time: nil when no failed attempt exists in the window
  - error: Execution errors
*/
func (repository *PostgresLoginAttemptRepository) OldestFailedSince(context context.Context, email string, since time.Time) (*time.Time, error) {
	const query = `
		SELECT MIN(createdat)
		FROM users.loginattempt
		WHERE LOWER(email) = LOWER($1) AND succeeded = FALSE AND createdat > $2`

	var oldest *time.Time
	if err := repository.pool.QueryRow(context, query, email, since).Scan(&oldest); err != nil {
		return nil, fmt.Errorf("postgres_attempt_repo_oldest_failed: %w", err)
	}
	return oldest, nil
}

// # Recovery Code Repository

// PostgresRecoveryCodeRepository implements the RecoveryCodeRepository interface.
type PostgresRecoveryCodeRepository struct {
	pool *pgxpool.Pool
}

// NewRecoveryCodeRepository creates a new PostgreSQL implementation of RecoveryCodeRepository.
func NewRecoveryCodeRepository(pool *pgxpool.Pool) *PostgresRecoveryCodeRepository {
	return &PostgresRecoveryCodeRepository{pool: pool}
}

/*
ReplaceForUser atomically swaps the user's recovery code batch.

Description: The delete and bulk insert run inside a single transaction so a
crash can never leave the user with a partial batch.

Parameters:
  - context: context.Context
  - userID: string
  - codes: []string
  - expiresAt: time.Time

Returns:
  - error: Transaction failures
*/
func (repository *PostgresRecoveryCodeRepository) ReplaceForUser(context context.Context, userID string, codes []string, expiresAt time.Time) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_recovery_repo_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	if _, err := transaction.Exec(context, "DELETE FROM users.recoverycode WHERE userid = $1", userID); err != nil {
		return fmt.Errorf("postgres_recovery_repo_clear_failed: %w", err)
	}

	const insertQuery = `
		INSERT INTO users.recoverycode (id, userid, code, isused, expiresat, createdat)
		VALUES ($1, $2, $3, FALSE, $4, $5)`

	now := time.Now()
	for _, code := range codes {
		if _, err := transaction.Exec(context, insertQuery, uuid.New(), userID, code, expiresAt, now); err != nil {
			return fmt.Errorf("postgres_recovery_repo_insert_failed: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_recovery_repo_commit_failed: %w", err)
	}

	return nil
}

/*
Redeem consumes the matching unused, unexpired code.

Description: Check and update happen in one statement; under concurrent
requests at most one caller observes a row update.

Parameters:
  - context: context.Context
  - userID: string
  - code: string

Returns:
  - bool: true when a code was consumed
  - error: Execution errors
*/
func (repository *PostgresRecoveryCodeRepository) Redeem(context context.Context, userID, code string) (bool, error) {
	const query = `
		UPDATE users.recoverycode
		SET isused = TRUE, usedat = NOW()
		WHERE userid = $1 AND code = $2 AND isused = FALSE AND expiresat > NOW()`

	tag, err := repository.pool.Exec(context, query, userID, code)
	if err != nil {
		return false, fmt.Errorf("postgres_recovery_repo_redeem_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

/*
DeleteForUser removes every code belonging to the user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresRecoveryCodeRepository) DeleteForUser(context context.Context, userID string) error {
	const query = "DELETE FROM users.recoverycode WHERE userid = $1"
	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_recovery_repo_delete_failed: %w", err)
	}
	return nil
}
