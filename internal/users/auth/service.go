// Copyright (c) 2026 Phoenix PME. All rights reserved.

/*
Package auth implements the core identity and access management (IAM) system.

It handles everything from user registration and secure password hashing to
session lifecycle management via signed JWT pairs and a tracked refresh-token
store, with TOTP-based two-factor authentication on top.

Architecture:

  - Service: Orchestrates business logic (Register, Login, MFA, Recovery).
  - Repository: Abstracted interfaces for Postgres (Users, Tokens) and Redis (Reset).
  - Security: PBKDF2-hashed credentials and HMAC-signed JWTs via the sec package.

The package ensures that identity data remains consistent and secure throughout
the platform's lifecycle.
*/
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/apperr"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/sec"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/validate"
	"github.com/PhoenixPME/phoenix-pme/pkg/uuid"
)

// # Error Codes
//
// Machine codes fixed by the API contract for flows that need more than the
// generic taxonomy.
const (
	CodeDuplicateEmail    = "DUPLICATE_EMAIL"
	CodeTwoFactorRequired = "TWO_FACTOR_REQUIRED"
	CodeInvalidResetToken = "INVALID_RESET_TOKEN"
	CodeTwoFactorInvalid  = "INVALID_TWO_FACTOR_CODE"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing and checking security tokens.
//
// [sec.TokenService] is the production implementation; tests may substitute
// a deterministic fake.
type TokenProvider interface {
	// IssueAccessToken creates a signed, short-lived JWT for the identity.
	IssueAccessToken(identity sec.Identity) (string, error)

	// IssueRefreshToken creates a signed, long-lived JWT whose "jti" claim is tokenID.
	IssueRefreshToken(userID, tokenID, userAgent, ipAddress string) (string, error)

	// VerifyRefreshToken checks signature and expiry. Returns nil on any failure.
	VerifyRefreshToken(tokenString string) *sec.RefreshClaims

	// Decode extracts access-token claims WITHOUT verifying the signature.
	// Only for flows that destroy state (logout); never for authorization.
	Decode(tokenString string) *sec.AuthClaims

	// AccessTokenTTL reports the configured access-token lifetime.
	AccessTokenTTL() time.Duration

	// RefreshTokenTTL reports the configured refresh-token lifetime.
	RefreshTokenTTL() time.Duration
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, lockout,
// or login logic must be reviewed by the security team.
type Service struct {
	userRepository         UserRepository
	refreshTokenRepository RefreshTokenRepository
	recoveryCodeRepository RecoveryCodeRepository
	resetTokenRepository   ResetTokenRepository
	guard                  *LockoutGuard
	tokenProvider          TokenProvider
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	refreshRepo RefreshTokenRepository,
	recoveryRepo RecoveryCodeRepository,
	resetRepo ResetTokenRepository,
	guard *LockoutGuard,
	tokenProv TokenProvider,
) *Service {
	return &Service{
		userRepository:         userRepo,
		refreshTokenRepository: refreshRepo,
		recoveryCodeRepository: recoveryRepo,
		resetTokenRepository:   resetRepo,
		guard:                  guard,
		tokenProvider:          tokenProv,
	}
}

// TokenPair is the transport-ready result of a successful authentication.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // Access-token lifetime in seconds.
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email         string
	Password      string
	Name          string
	Role          string
	WalletAddress string
	PhoneNumber   string
	Country       string
	UserAgent     string
	IPAddress     string
}

// RegisterResult bundles the created account with its first session tokens.
type RegisterResult struct {
	User   *User
	Tokens TokenPair
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Deep-enrollment of a new member. Only buyer and seller roles are
self-assignable; elevated roles are granted by an admin after the fact. The
new account is signed in immediately.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *RegisterResult: Created entity plus session tokens
  - error: DUPLICATE_EMAIL (400), validation, or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*RegisterResult, error) {

	// Normalize identity fields before any lookups.
	email := strings.ToLower(strings.TrimSpace(input.Email))
	role := input.Role
	if role == "" {
		role = string(sec.RoleBuyer)
	}

	// Validate the payload in one pass.
	v := &validate.Validator{}
	v.Required(FieldEmail, email).Email(FieldEmail, email)
	v.Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, PasswordMinLength).
		MaxLen(FieldPassword, input.Password, PasswordMaxLength)
	v.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 120)
	v.OneOf(FieldRole, role, string(sec.RoleBuyer), string(sec.RoleSeller))
	if input.WalletAddress != "" {
		v.WalletAddress(FieldWalletAddress, input.WalletAddress)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	// Verify email uniqueness. Fixed 400 code per the API contract.
	if _, err := service.userRepository.FindByEmail(context, email); err == nil {
		return nil, apperr.BadRequest(CodeDuplicateEmail, "Email is already registered")
	}

	// Prevent storing plain-text passwords.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  hashedPassword,
		Name:          strings.TrimSpace(input.Name),
		Role:          sec.UserRole(role),
		WalletAddress: input.WalletAddress,
		PhoneNumber:   input.PhoneNumber,
		Country:       input.Country,
		KYCStatus:     sec.KYCNotStarted,
		Status:        sec.StatusActive,
	}

	// Persist the user to the database
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// Sign the new member in immediately.
	tokens, err := service.establishSession(context, user, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	return &RegisterResult{User: user, Tokens: tokens}, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email         string
	Password      string
	TwoFactorCode string
	UserAgent     string
	IPAddress     string
}

// LoginResult represents a successfully established user session.
type LoginResult struct {
	User   *User
	Tokens TokenPair
}

/*
Login validates user credentials and issues security tokens.

Description: Enforces the lockout window before touching credentials, performs
constant-time password comparison, walks the two-factor challenge when the
account has TOTP enabled, and finally establishes a tracked session.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Transport-ready session identifiers
  - error: ACCOUNT_LOCKED (423), TWO_FACTOR_REQUIRED (400), Unauthorized, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// Lockout gate FIRST: a locked account rejects even correct passwords, so
	// the lock state leaks nothing about credential validity.
	locked, retryAfter, err := service.guard.Check(context, email)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, apperr.Locked("Account temporarily locked due to repeated failed logins", retryAfter)
	}

	// Look up the account. Generic message to prevent enumeration.
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		service.recordAttempt(context, email, "", input, false)
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	// Verify password hash using constant-time comparison to prevent timing attacks.
	if !sec.VerifyPassword(input.Password, user.PasswordHash) {
		service.recordAttempt(context, email, user.ID, input, false)
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	// Suspended, banned, and soft-deleted accounts cannot sign in even with
	// valid credentials. Not counted as a failed attempt.
	if !user.Status.CanAuthenticate() {
		return nil, apperr.Forbidden("Account is " + string(user.Status))
	}

	// Two-factor challenge for enrolled accounts.
	if user.TwoFactorEnabled {
		if strings.TrimSpace(input.TwoFactorCode) == "" {
			// Password was correct. The client must retry with a code.
			return nil, apperr.BadRequest(CodeTwoFactorRequired, "Two-factor authentication code required")
		}
		if err := service.checkSecondFactor(context, user, input.TwoFactorCode); err != nil {
			service.recordAttempt(context, email, user.ID, input, false)
			return nil, err
		}
	}

	// Success bookkeeping before the tokens are minted.
	service.recordAttempt(context, email, user.ID, input, true)
	_ = service.userRepository.TouchLastActive(context, user.ID)

	tokens, err := service.establishSession(context, user, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Tokens: tokens}, nil
}

/*
Refresh exchanges a valid refresh token for a fresh access token.

Description: Verifies the refresh token's signature, confirms its tracked
record is still live, re-checks the account status, and mints a new access
token. The refresh token itself is NOT rotated; it stays valid until its
own expiry or revocation.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *TokenPair: New access token alongside the original refresh token
  - error: Unauthorized on any verification failure
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*TokenPair, error) {

	// Signature and expiry check. Nil means the token is garbage.
	claims := service.tokenProvider.VerifyRefreshToken(refreshToken)
	if claims == nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// The tracked record is the revocation authority.
	record, err := service.refreshTokenRepository.FindByTokenID(context, claims.TokenID())
	if err != nil || !record.Valid() {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// Re-check the account: a suspension must cut off refresh immediately.
	user, err := service.userRepository.FindByID(context, record.UserID)
	if err != nil || !user.Status.CanAuthenticate() {
		return nil, apperr.Unauthorized("Account is not active")
	}

	accessToken, err := service.tokenProvider.IssueAccessToken(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_access_token_failed: %w", err)
	}

	_ = service.refreshTokenRepository.TouchLastUsed(context, record.TokenID)

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(service.tokenProvider.AccessTokenTTL().Seconds()),
	}, nil
}

/*
Logout signs the user out of every device.

Description: Idempotent. The access token is decoded WITHOUT signature or
expiry validation, so even a stale token still identifies the account to
sign out; no trust in the token is needed because revocation only destroys
sessions. An undecodable token is a successful no-op.

Parameters:
  - context: context.Context
  - accessToken: string

Returns:
  - error: Revocation failures
*/
func (service *Service) Logout(context context.Context, accessToken string) error {
	claims := service.tokenProvider.Decode(accessToken)
	if claims == nil || claims.UserID == "" {
		return nil
	}

	if err := service.refreshTokenRepository.RevokeAll(context, claims.UserID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

/*
LogoutAll revokes every active session belonging to the user.

Description: The authenticated access token keeps working until its short
expiry, but no session can be refreshed afterwards.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Revocation failures
*/
func (service *Service) LogoutAll(context context.Context, userID string) error {
	if err := service.refreshTokenRepository.RevokeAll(context, userID); err != nil {
		return fmt.Errorf("auth_service_logout_all_failed: %w", err)
	}
	return nil
}

/*
LogoutOthers revokes every session except the one presented.

Description: "Sign out other devices". The kept session is identified by the
caller's own refresh token, which must verify and belong to the user.

Parameters:
  - context: context.Context
  - userID: string
  - refreshToken: string

Returns:
  - error: Unauthorized when the presented token is not the user's, revocation failures
*/
func (service *Service) LogoutOthers(context context.Context, userID, refreshToken string) error {
	claims := service.tokenProvider.VerifyRefreshToken(refreshToken)
	if claims == nil || claims.UserID != userID {
		return apperr.Unauthorized("Invalid or expired refresh token")
	}

	if err := service.refreshTokenRepository.RevokeOthers(context, userID, claims.TokenID()); err != nil {
		return fmt.Errorf("auth_service_logout_others_failed: %w", err)
	}

	return nil
}

// # Session Management

/*
ListSessions returns the user's active sessions, newest first.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []*RefreshToken: Active sessions
  - error: Retrieval failures
*/
func (service *Service) ListSessions(context context.Context, userID string) ([]*RefreshToken, error) {
	sessions, err := service.refreshTokenRepository.FindActiveByUser(context, userID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_list_sessions_failed: %w", err)
	}
	return sessions, nil
}

/*
RevokeSession revokes one specific session owned by the user.

Description: Ownership is enforced; attempting to revoke another user's
session yields NOT_FOUND rather than FORBIDDEN to avoid confirming the
session exists.

Parameters:
  - context: context.Context
  - userID: string
  - tokenID: string

Returns:
  - error: NotFound or revocation failures
*/
func (service *Service) RevokeSession(context context.Context, userID, tokenID string) error {
	record, err := service.refreshTokenRepository.FindByTokenID(context, tokenID)
	if err != nil || record.UserID != userID {
		return apperr.NotFound("Session")
	}

	if err := service.refreshTokenRepository.Revoke(context, tokenID); err != nil {
		return fmt.Errorf("auth_service_revoke_session_failed: %w", err)
	}

	return nil
}

// # Password Recovery

/*
ChangePassword allows an authenticated user to update their credentials.

Description: Verifies the current password, stores the new hash, and revokes
EVERY session so stolen refresh tokens die with the old password.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword string) error {

	v := &validate.Validator{}
	v.Required(FieldNewPassword, newPassword).
		MinLen(FieldNewPassword, newPassword, PasswordMinLength).
		MaxLen(FieldNewPassword, newPassword, PasswordMaxLength)
	if err := v.Err(); err != nil {
		return err
	}

	// Fetch user by ID
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	// Verify the current password before allowing change
	if !sec.VerifyPassword(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	// Hash the brand new password
	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	// Update the database with the new hash
	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	// Security Side Effect: Revoke all sessions to force re-login on every device
	_ = service.refreshTokenRepository.RevokeAll(context, userID)

	return nil
}

/*
ForgotPassword initiates the forgot-password flow.

Description: Generates a secure token and saves it to Redis with a short TTL.
NOTE: An unknown email returns success with an empty token to prevent user
enumeration.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Reset token ("" when the email is unknown)
  - error: Generation errors
*/
func (service *Service) ForgotPassword(context context.Context, email string) (string, error) {
	user, err := service.userRepository.FindByEmail(context, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil
	}

	token := sec.GenerateSecureToken(ResetTokenLength)

	// Save to Redis
	if err := service.resetTokenRepository.Set(context, token, user.ID, ResetTokenTTL); err != nil {
		return "", fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	// TODO: hand the token to the notification service once email sending lands
	return token, nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Resolves the token, hashes the new password, updates the DB,
revokes all active sessions, and burns the token.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - error: INVALID_RESET_TOKEN (400) or update failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {

	v := &validate.Validator{}
	v.Required(FieldNewPassword, newPassword).
		MinLen(FieldNewPassword, newPassword, PasswordMinLength).
		MaxLen(FieldNewPassword, newPassword, PasswordMaxLength)
	if err := v.Err(); err != nil {
		return err
	}

	// Retrieve the userID associated with the reset token from Redis
	userID, err := service.resetTokenRepository.Get(context, token)
	if err != nil || userID == "" {
		return apperr.BadRequest(CodeInvalidResetToken, "Invalid or expired reset token")
	}

	// Hash the new password securely
	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	// Update the user's password in persistent storage
	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// Security Cleanup: Revoke EVERY active session for this user
	_ = service.refreshTokenRepository.RevokeAll(context, userID)

	// Delete the used token from Redis
	_ = service.resetTokenRepository.Delete(context, token)

	return nil
}

// # Internal Helpers

// establishSession mints a token pair and persists the tracking record.
func (service *Service) establishSession(context context.Context, user *User, userAgent, ipAddress string) (TokenPair, error) {
	accessToken, err := service.tokenProvider.IssueAccessToken(user.Identity())
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	tokenID := sec.NewTokenID()
	refreshToken, err := service.tokenProvider.IssueRefreshToken(user.ID, tokenID, userAgent, ipAddress)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	record := &RefreshToken{
		ID:        uuid.New(),
		TokenID:   tokenID,
		UserID:    user.ID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: time.Now().Add(service.tokenProvider.RefreshTokenTTL()),
	}

	if err := service.refreshTokenRepository.Create(context, record); err != nil {
		return TokenPair{}, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(service.tokenProvider.AccessTokenTTL().Seconds()),
	}, nil
}

// recordAttempt appends to the audit trail. Best effort; an audit write
// failure must not mask the real login outcome.
func (service *Service) recordAttempt(context context.Context, email, userID string, input LoginInput, succeeded bool) {
	_ = service.guard.Record(context, &LoginAttempt{
		ID:        uuid.New(),
		Email:     email,
		UserID:    userID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Succeeded: succeeded,
	})
}
