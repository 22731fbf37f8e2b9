// Copyright (c) 2026 Phoenix PME. All rights reserved.

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/middleware"
	requestutil "github.com/PhoenixPME/phoenix-pme/internal/platform/request"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/respond"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/sec"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/validate"
	"github.com/PhoenixPME/phoenix-pme/internal/users/auth"
	"github.com/PhoenixPME/phoenix-pme/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements profile and account-lifecycle HTTP endpoints.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with account routes.
//
// # Endpoints
//   - GET  /me          : Authenticated user's profile.
//   - PUT  /me          : Update mutable profile fields.
//   - PUT  /me/wallet   : Link a wallet (KYC verified only).
//   - POST /me/kyc      : Submit identity verification.
//   - Admin subtree under /users with role gates.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Member endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.profile)
		r.Put("/me", handler.updateProfile)
		r.Post("/me/kyc", handler.submitKYC)
		r.Delete("/me", handler.deleteAccount)

		// Wallet linking requires a verified identity.
		r.With(middleware.RequireKYC(sec.KYCVerified)).Put("/me/wallet", handler.linkWallet)
	})

	// Admin endpoints
	router.Route("/users", func(r chi.Router) {
		r.With(middleware.RequireRole(sec.RoleModerator)).Get("/", handler.listUsers)
		r.With(middleware.RequireRole(sec.RoleModerator)).Post("/{userID}/kyc/approve", handler.approveKYC)
		r.With(middleware.RequireRole(sec.RoleModerator)).Post("/{userID}/kyc/reject", handler.rejectKYC)
		r.With(middleware.RequireRole(sec.RoleAdmin)).Post("/{userID}/suspend", handler.suspendUser)
		r.With(middleware.RequireRole(sec.RoleAdmin)).Post("/{userID}/activate", handler.activateUser)
		r.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{userID}", handler.deleteUser)
	})

	return router
}

// # Request Payloads

type updateProfileRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Country     string `json:"country"`
}

type linkWalletRequest struct {
	WalletAddress string `json:"walletAddress"`
}

/*
Profile returns the authenticated user's account.

GET /api/v1/account/me

Response:
  - 200: auth.User: Hydrated profile
  - 401: UNAUTHORIZED: Authentication required
*/
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UpdateProfile applies changes to the authenticated user's mutable fields.

PUT /api/v1/account/me

Request:
  - Body: updateProfileRequest (Name, PhoneNumber, Country)

Response:
  - 200: auth.User: Updated profile
  - 400: VALIDATION_ERROR: Invalid fields
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		Name:        input.Name,
		PhoneNumber: input.PhoneNumber,
		Country:     input.Country,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
LinkWallet attaches an on-chain wallet address to the account.

PUT /api/v1/account/me/wallet

Request:
  - Body: linkWalletRequest (WalletAddress)

Response:
  - 200: auth.User: Updated profile
  - 403: FORBIDDEN: Identity not verified
*/
func (handler *Handler) linkWallet(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input linkWalletRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, err := handler.accountService.LinkWallet(request.Context(), userID, input.WalletAddress)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
SubmitKYC places the account in the verification queue.

POST /api/v1/account/me/kyc

Response:
  - 200: auth.User: Profile with kycStatus pending
  - 409: CONFLICT: Already pending or verified
*/
func (handler *Handler) submitKYC(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.SubmitKYC(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DeleteAccount soft-deletes the authenticated user's own account.

DELETE /api/v1/account/me

Response:
  - 204: No Content: Account deleted and sessions revoked
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Delete(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Admin Endpoints

/*
ListUsers returns a filtered, paginated account listing.

GET /api/v1/account/users?role=&status=&kycStatus=&search=&page=&limit=

Response:
  - 200: Paginated []auth.User
  - 403: FORBIDDEN: Moderator role required
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	query := request.URL.Query()

	users, meta, err := handler.accountService.List(request.Context(), ListFilter{
		Role:      query.Get(auth.FieldRole),
		Status:    query.Get("status"),
		KYCStatus: query.Get("kycStatus"),
		Search:    query.Get("search"),
	}, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, meta)
}

func (handler *Handler) approveKYC(writer http.ResponseWriter, request *http.Request) {
	handler.reviewKYC(writer, request, true)
}

func (handler *Handler) rejectKYC(writer http.ResponseWriter, request *http.Request) {
	handler.reviewKYC(writer, request, false)
}

/*
reviewKYC resolves a pending verification request.

POST /api/v1/account/users/{userID}/kyc/approve
POST /api/v1/account/users/{userID}/kyc/reject

Response:
  - 200: auth.User: Updated account
  - 409: CONFLICT: No pending request
*/
func (handler *Handler) reviewKYC(writer http.ResponseWriter, request *http.Request, approve bool) {
	targetID := requestutil.Param(request, "userID")

	user, err := handler.accountService.ReviewKYC(request.Context(), targetID, approve)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
SuspendUser blocks an account and revokes its sessions.

POST /api/v1/account/users/{userID}/suspend

Response:
  - 200: auth.User: Suspended account
  - 403: FORBIDDEN: Admin role required
*/
func (handler *Handler) suspendUser(writer http.ResponseWriter, request *http.Request) {
	targetID := requestutil.Param(request, "userID")

	user, err := handler.accountService.Suspend(request.Context(), targetID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
ActivateUser restores a suspended account.

POST /api/v1/account/users/{userID}/activate

Response:
  - 200: auth.User: Reactivated account
  - 409: CONFLICT: Account not suspended
*/
func (handler *Handler) activateUser(writer http.ResponseWriter, request *http.Request) {
	targetID := requestutil.Param(request, "userID")

	user, err := handler.accountService.Activate(request.Context(), targetID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DeleteUser soft-deletes an account on behalf of an admin.

DELETE /api/v1/account/users/{userID}

Response:
  - 204: No Content: Account deleted
  - 404: NOT_FOUND: Unknown account
*/
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	targetID := requestutil.Param(request, "userID")

	if err := handler.accountService.Delete(request.Context(), targetID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
