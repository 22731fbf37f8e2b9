// Copyright (c) 2026 Phoenix PME. All rights reserved.

package auth

import (
	"net/http"

	requestutil "github.com/PhoenixPME/phoenix-pme/internal/platform/request"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/respond"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/validate"
)

// # Two-Factor Payloads

type twoFactorCodeRequest struct {
	Code string `json:"code"`
}

type twoFactorVerifyRequest struct {
	Code   string `json:"code"`
	Secret string `json:"secret"`
}

/*
SetupTwoFactor starts TOTP enrollment for the authenticated user.

POST /api/v1/auth/2fa/setup

Description: Returns the shared secret, an otpauth:// provisioning URI for QR
rendering, and the single-use recovery codes. Shown exactly once; the secret
is not persisted until the client verifies it.

Response:
  - 200: TwoFactorSetup: Secret, URI and recovery codes
  - 409: CONFLICT: Two-factor already enabled
*/
func (handler *Handler) setupTwoFactor(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setup, err := handler.authService.SetupTwoFactor(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, setup)
}

/*
VerifyTwoFactor completes enrollment with the secret from setup and a live code.

POST /api/v1/auth/2fa/verify

Description: Turns two-factor enforcement on once the user proves their
authenticator holds the secret returned by setup.

Request:
  - Body: twoFactorVerifyRequest (Code, Secret)

Response:
  - 200: Success: Two-factor enabled
  - 400: INVALID_TWO_FACTOR_CODE: Wrong code for the submitted secret
  - 409: CONFLICT: Two-factor already enabled
*/
func (handler *Handler) verifyTwoFactor(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input twoFactorVerifyRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldSecret, input.Secret)
	v.Required(FieldCode, input.Code).TOTPCode(FieldCode, input.Code)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.VerifyTwoFactorSetup(request.Context(), userID, input.Secret, input.Code); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Two-factor authentication enabled",
	})
}

/*
DisableTwoFactor turns two-factor enforcement off.

POST /api/v1/auth/2fa/disable

Description: Accepts a current authenticator code OR an unused recovery code,
so a lost device cannot lock the user out of their own settings.

Request:
  - Body: twoFactorCodeRequest (Code)

Response:
  - 200: Success: Two-factor disabled
  - 401: UNAUTHORIZED: Bad code
  - 409: CONFLICT: Two-factor not enabled
*/
func (handler *Handler) disableTwoFactor(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input twoFactorCodeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Code == "" {
		respond.Error(writer, request, validate.RequiredError(FieldCode, "This field is required"))
		return
	}

	if err := handler.authService.DisableTwoFactor(request.Context(), userID, input.Code); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Two-factor authentication disabled",
	})
}
