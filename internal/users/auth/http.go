// Copyright (c) 2026 Phoenix PME. All rights reserved.

/*
HTTP delivery layer for the authentication lifecycle.

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Handles JWT pair orchestration and session revocation endpoints.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/constants"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/middleware"
	requestutil "github.com/PhoenixPME/phoenix-pme/internal/platform/request"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/respond"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/sec"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages everything related to the user lifecycle entry points
// (Registration, Login, Token Refresh, Password Recovery, Sessions, MFA).
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register       : Creates a new account and signs it in.
//   - POST /login          : Authenticates and returns a JWT pair.
//   - POST /refresh-token  : Exchanges a refresh token for a new access token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh-token", handler.refresh)
	router.Post("/logout", handler.logout)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout-all", handler.logoutAll)
		r.Post("/logout-others", handler.logoutOthers)
		r.Post("/change-password", handler.changePassword)
		r.Get("/validate", handler.validateToken)
		r.Get("/sessions", handler.listSessions)
		r.Delete("/sessions/{tokenID}", handler.revokeSession)

		r.Post("/2fa/setup", handler.setupTwoFactor)
		r.Post("/2fa/verify", handler.verifyTwoFactor)
		r.Post("/2fa/disable", handler.disableTwoFactor)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	WalletAddress string `json:"walletAddress"`
	PhoneNumber   string `json:"phoneNumber"`
	Country       string `json:"country"`
}

type loginRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	TwoFactorCode string `json:"twoFactorCode"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// sessionEnvelope bundles the signed-in user with their token pair.
type sessionEnvelope struct {
	User   *User     `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input, checks for identity conflicts, persists a new
user profile, and signs the new member in immediately.

Request:
  - Body: registerRequest (Email, Password, Name, Role, WalletAddress, PhoneNumber, Country)

Response:
  - 201: sessionEnvelope: Created user profile plus token pair
  - 400: DUPLICATE_EMAIL / VALIDATION_ERROR: Bad input or duplicate identity
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	result, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:         input.Email,
		Password:      input.Password,
		Name:          input.Name,
		Role:          input.Role,
		WalletAddress: input.WalletAddress,
		PhoneNumber:   input.PhoneNumber,
		Country:       input.Country,
		UserAgent:     request.UserAgent(),
		IPAddress:     requestutil.ClientIP(request),
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, sessionEnvelope{User: result.User, Tokens: result.Tokens})
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, walks the two-factor challenge if the
account is enrolled, and returns a signed JWT pair.

Request:
  - Body: loginRequest (Email, Password, TwoFactorCode)

Response:
  - 200: sessionEnvelope: Token pair and user profile
  - 400: TWO_FACTOR_REQUIRED: Password accepted, code missing (requires2FA: true)
  - 401: UNAUTHORIZED: Invalid credentials or bad two-factor code
  - 423: ACCOUNT_LOCKED: Too many failed attempts (retryAfter hint)
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Login(request.Context(), LoginInput{
		Email:         input.Email,
		Password:      input.Password,
		TwoFactorCode: input.TwoFactorCode,
		UserAgent:     request.UserAgent(),
		IPAddress:     requestutil.ClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessionEnvelope{User: result.User, Tokens: result.Tokens})
}

/*
Refresh issues a new access token using a valid refresh token.

POST /api/v1/auth/refresh-token

Description: Validates the refresh token against its tracked record and
issues a fresh access token. The refresh token itself is not rotated.

Request:
  - Body: refreshRequest (RefreshToken)

Response:
  - 200: TokenPair: New access token credentials
  - 401: UNAUTHORIZED: Missing, invalid, revoked, or expired refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "This field is required"))
		return
	}

	tokens, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, tokens)
}

/*
Logout revokes every refresh token belonging to the caller's account.

POST /api/v1/auth/logout

Description: Idempotent. The route is public so that a client with an
expired access token can still sign out; the header is parsed here and the
token is decoded without verification to identify the account. A missing or
garbage token still yields 200 so clients can always discard local state.

Response:
  - 200: Success: All sessions revoked (or none existed)
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	accessToken := sec.ExtractFromHeader(request.Header.Get(constants.HeaderAuthorization))

	if accessToken != "" {
		if err := handler.authService.Logout(request.Context(), accessToken); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Logged out successfully",
	})
}

/*
LogoutAll revokes every active session of the authenticated user.

POST /api/v1/auth/logout-all

Response:
  - 204: No Content: All sessions revoked
  - 401: UNAUTHORIZED: Authentication required
*/
func (handler *Handler) logoutAll(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.LogoutAll(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
LogoutOthers revokes every session except the caller's current one.

POST /api/v1/auth/logout-others

Description: "Sign out other devices". The session to keep is identified by
the refresh token in the body, which must belong to the authenticated user.

Request:
  - Body: refreshRequest (RefreshToken)

Response:
  - 204: No Content: Other sessions revoked
  - 401: UNAUTHORIZED: Token missing, invalid, or not the caller's
*/
func (handler *Handler) logoutOthers(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "This field is required"))
		return
	}

	if err := handler.authService.LogoutOthers(request.Context(), userID, input.RefreshToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ValidateToken echoes the verified identity of the presented access token.

GET /api/v1/auth/validate

Description: Lets API consumers and edge proxies confirm a token without
parsing JWTs themselves.

Response:
  - 200: Claims-derived identity
  - 401: UNAUTHORIZED: Missing or invalid token
*/
func (handler *Handler) validateToken(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, claims.Identity())
}

/*
ListSessions returns the authenticated user's active sessions.

GET /api/v1/auth/sessions

Response:
  - 200: []RefreshToken: Active sessions, newest first
  - 401: UNAUTHORIZED: Authentication required
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.authService.ListSessions(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

/*
RevokeSession revokes one specific session owned by the authenticated user.

DELETE /api/v1/auth/sessions/{tokenID}

Response:
  - 204: No Content: Session revoked
  - 404: NOT_FOUND: Unknown session or not owned by the caller
*/
func (handler *Handler) revokeSession(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	tokenID := requestutil.Param(request, "tokenID")
	if err := handler.authService.RevokeSession(request.Context(), userID, tokenID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/auth/forgot-password

Description: Stores a short-lived reset token if the account exists. The
response is identical for known and unknown emails.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Success: Generic security message
  - 400: VALIDATION_ERROR: Invalid email format
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	_, err := handler.authService.ForgotPassword(request.Context(), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "If this email is registered, a reset link has been sent.",
	})
}

/*
ResetPassword completes the password recovery flow.

POST /api/v1/auth/reset-password

Description: Validates the reset token, updates the password, and revokes
every active session of the account.

Request:
  - Body: resetPasswordRequest (Token, NewPassword)

Response:
  - 200: Success: Password updated
  - 400: INVALID_RESET_TOKEN / VALIDATION_ERROR: Bad token or weak password
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldToken, input.Token)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password updated successfully",
	})
}

/*
ChangePassword updates the authenticated user's password.

POST /api/v1/auth/change-password

Description: Verifies the current password before applying the new one. All
sessions are revoked on success; the client must sign in again.

Request:
  - Body: changePasswordRequest (CurrentPassword, NewPassword)

Response:
  - 200: Success: Password changed
  - 401: UNAUTHORIZED: Current password incorrect or authentication required
  - 400: VALIDATION_ERROR: Weak password or validation failure
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ChangePassword(
		request.Context(),
		claims.UserID,
		input.CurrentPassword,
		input.NewPassword,
	)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password changed successfully",
	})
}
