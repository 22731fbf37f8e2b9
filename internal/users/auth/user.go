// Copyright (c) 2026 Phoenix PME. All rights reserved.

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, RefreshToken, LoginAttempt,
RecoveryCode) and logic for authentication, authorization, and account lifecycle.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import (
	"time"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the Phoenix PME marketplace.
type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	PasswordHash     string         `json:"-"` // Explicitly omitted from JSON for security.
	Name             string         `json:"name"`
	Role             sec.UserRole   `json:"role"`
	WalletAddress    string         `json:"walletAddress,omitempty"`
	PhoneNumber      string         `json:"phoneNumber,omitempty"`
	Country          string         `json:"country,omitempty"`
	KYCStatus        sec.KYCStatus  `json:"kycStatus"`
	Status           sec.UserStatus `json:"status"`
	TwoFactorEnabled bool           `json:"twoFactorEnabled"`
	TwoFactorSecret  string         `json:"-"` // Shared TOTP secret. Omitted for security.
	LastActiveAt     *time.Time     `json:"lastActiveAt,omitempty"`
	DeletedAt        *time.Time     `json:"-"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Identity maps the user to the principal embedded in access tokens.
func (u *User) Identity() sec.Identity {
	return sec.Identity{
		UserID:        u.ID,
		Email:         u.Email,
		Role:          u.Role,
		WalletAddress: u.WalletAddress,
		KYCStatus:     u.KYCStatus,
	}
}

// RefreshToken represents one tracked refresh-token session.
//
// The TokenID matches the "jti" claim of the signed refresh JWT; the signed
// token itself is never stored.
type RefreshToken struct {
	ID         string     `json:"id"`
	TokenID    string     `json:"tokenId"`
	UserID     string     `json:"userId"`
	UserAgent  string     `json:"userAgent,omitempty"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	IsRevoked  bool       `json:"isRevoked"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Valid reports whether this session may still be redeemed.
func (t *RefreshToken) Valid() bool {
	return !t.IsRevoked && time.Now().Before(t.ExpiresAt)
}

// LoginAttempt is one audit record of a credential check.
//
// Failed attempts drive the account lockout window; the email is recorded even
// when no matching account exists so probing unknown addresses is visible.
type LoginAttempt struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	UserID    string    `json:"userId,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Succeeded bool      `json:"succeeded"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecoveryCode is a single-use fallback credential for two-factor recovery.
type RecoveryCode struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Code      string     `json:"code"`
	IsUsed    bool       `json:"isUsed"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldName            = "name"
	FieldRole            = "role"
	FieldWalletAddress   = "walletAddress"
	FieldPhoneNumber     = "phoneNumber"
	FieldCountry         = "country"
	FieldTwoFactorCode   = "twoFactorCode"
	FieldRefreshToken    = "refreshToken"
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
	FieldCode            = "code"
	FieldSecret          = "secret"
	FieldToken           = "token"
	FieldAccessToken     = "accessToken"
	FieldExpiresIn       = "expiresIn"
	FieldUser            = "user"
	FieldMessage         = "message"
)
