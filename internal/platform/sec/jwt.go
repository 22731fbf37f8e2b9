// Copyright (c) 2026 Phoenix PME. All rights reserved.

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, Token Signing, TOTP)
// from the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces ([TokenProvider] in the auth domain).
package sec

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/constants"
)

// Identity is the authenticated principal embedded inside an access token.
//
// # Why carry the full identity?
//
// By embedding the role, wallet and KYC stage directly inside the JWT, the
// authentication middleware can reconstruct the active user context WITHOUT
// querying the database on every single API request.
type Identity struct {
	UserID        string
	Email         string
	Role          UserRole
	WalletAddress string
	KYCStatus     KYCStatus
}

// AuthClaims represents the payload embedded inside a JWT Access Token.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID        string `json:"uid"`
	Email         string `json:"eml"`
	Role          string `json:"rol"`
	WalletAddress string `json:"wlt,omitempty"`
	KYCStatus     string `json:"kyc"`
}

// Identity converts the raw claim strings back into a typed [Identity].
func (c *AuthClaims) Identity() Identity {
	return Identity{
		UserID:        c.UserID,
		Email:         c.Email,
		Role:          UserRole(c.Role),
		WalletAddress: c.WalletAddress,
		KYCStatus:     KYCStatus(c.KYCStatus),
	}
}

// RefreshClaims represents the payload embedded inside a JWT Refresh Token.
//
// The token identifier lives in the registered "jti" claim and is the lookup
// key for the persisted refresh-token record.
type RefreshClaims struct {
	jwt.RegisteredClaims

	UserID    string `json:"uid"`
	UserAgent string `json:"ua,omitempty"`
	IPAddress string `json:"ip,omitempty"`
}

// TokenID returns the unique identifier of this refresh token.
func (c *RefreshClaims) TokenID() string { return c.ID }

// # Token Service

// TokenService issues and verifies HMAC-SHA256 signed access and refresh tokens.
//
// Access and refresh tokens are signed with DISTINCT secrets so that the
// compromise of one class of token does not compromise the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService creates a TokenService from the configured signing secrets.
//
// # Fallback Secrets
//
// An empty secret is replaced with a fresh random one and a loud warning is
// logged: generated secrets invalidate every outstanding token across process
// restarts and must never be relied on in production.
func NewTokenService(accessSecret, refreshSecret, issuer string, accessTTL, refreshTTL time.Duration, logger *slog.Logger) *TokenService {
	if accessSecret == "" {
		accessSecret = GenerateSecureToken(32)
		logger.Warn("jwt_access_secret_generated",
			slog.String("hint", "set JWT_ACCESS_SECRET; generated secrets invalidate all tokens on restart"),
		)
	}
	if refreshSecret == "" {
		refreshSecret = GenerateSecureToken(32)
		logger.Warn("jwt_refresh_secret_generated",
			slog.String("hint", "set JWT_REFRESH_SECRET; generated secrets invalidate all tokens on restart"),
		)
	}

	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTokenTTL returns the configured access-token lifetime.
func (service *TokenService) AccessTokenTTL() time.Duration { return service.accessTTL }

// RefreshTokenTTL returns the configured refresh-token lifetime.
func (service *TokenService) RefreshTokenTTL() time.Duration { return service.refreshTTL }

// IssueAccessToken creates a short-lived signed access token for an identity.
func (service *TokenService) IssueAccessToken(identity Identity) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.accessTTL)),
		},
		UserID:        identity.UserID,
		Email:         identity.Email,
		Role:          string(identity.Role),
		WalletAddress: identity.WalletAddress,
		KYCStatus:     string(identity.KYCStatus),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign access token: %w", err)
	}

	return signedToken, nil
}

// IssueRefreshToken creates a long-lived signed refresh token.
//
// The caller supplies the tokenID (see [NewTokenID]) so the same identifier
// can be persisted in the refresh-token store before or after signing.
func (service *TokenService) IssueRefreshToken(userID, tokenID, userAgent, ipAddress string) (string, error) {
	currentTime := time.Now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.refreshTTL)),
		},
		UserID:    userID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign refresh token: %w", err)
	}

	return signedToken, nil
}

// VerifyAccessToken checks signature and expiry of an access token.
//
// # Contract
//
// Returns nil on ANY failure (bad signature, wrong algorithm, expired,
// malformed). Verification never propagates an error to the caller.
func (service *TokenService) VerifyAccessToken(tokenString string) *AuthClaims {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.accessSecret, nil
	})

	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok {
		return nil
	}

	return claims
}

// VerifyRefreshToken checks signature and expiry of a refresh token against
// the refresh secret. Same nil-on-failure contract as [VerifyAccessToken].
func (service *TokenService) VerifyRefreshToken(tokenString string) *RefreshClaims {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.refreshSecret, nil
	})

	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(*RefreshClaims)
	if !ok {
		return nil
	}

	return claims
}

// Decode extracts the access-token payload WITHOUT verifying the signature.
//
// # Security
//
// Only for deriving identifiers from a token that is being invalidated
// (e.g. logout). Never use the result for an authorization decision.
func (service *TokenService) Decode(tokenString string) *AuthClaims {
	claims := &AuthClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return claims
}

// ExtractFromHeader parses a "Bearer <token>" Authorization header value.
// It returns the bare token, or "" if the scheme prefix is missing or malformed.
func ExtractFromHeader(headerValue string) string {
	scheme, token, found := strings.Cut(headerValue, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return ""
	}
	return token
}

// IsExpired reports whether the embedded expiry of a token has passed.
// Undecodable tokens and tokens without an expiry count as expired.
func (service *TokenService) IsExpired(tokenString string) bool {
	claims := service.Decode(tokenString)
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Before(time.Now())
}

// # Secure Random Generators

// NewTokenID generates a fresh random 16-byte hex refresh-token identifier.
func NewTokenID() string {
	return GenerateSecureToken(16)
}

// NewAPIKey generates a machine credential in the platform's "phx_" format.
func NewAPIKey() string {
	return constants.APIKeyPrefix + GenerateSecureToken(32)
}

// NewRecoveryCode generates a single high-entropy uppercase recovery code.
func NewRecoveryCode() string {
	return strings.ToUpper(GenerateSecureToken(8))
}

// GenerateSecureToken returns length random bytes, hex encoded, from the
// operating system's CSPRNG.
func GenerateSecureToken(length int) string {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		// entropy failure is an unrecoverable system-level error
		panic("sec: failed to read random bytes: " + err.Error())
	}
	return hex.EncodeToString(raw)
}
