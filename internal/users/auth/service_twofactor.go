// Copyright (c) 2026 Phoenix PME. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/apperr"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/constants"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/sec"
)

// # Two-Factor Authentication

// TwoFactorSetup is the enrollment material returned by [Service.SetupTwoFactor].
//
// Recovery codes are shown exactly once; only this response ever carries them
// in the clear.
type TwoFactorSetup struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioningUri"`
	RecoveryCodes   []string `json:"recoveryCodes"`
}

/*
SetupTwoFactor starts TOTP enrollment for the user.

Description: Generates a fresh shared secret, its otpauth:// provisioning URI,
and a batch of single-use recovery codes. Nothing is written to the account:
the client holds the secret and proves possession via
[Service.VerifyTwoFactorSetup], which is the only path that persists it. The
account therefore never carries a secret without enforcement being on.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *TwoFactorSetup: Secret, URI and recovery codes for one-time display
  - error: Conflict when already enabled, or storage failures
*/
func (service *Service) SetupTwoFactor(context context.Context, userID string) (*TwoFactorSetup, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if user.TwoFactorEnabled {
		return nil, apperr.Conflict("Two-factor authentication is already enabled")
	}

	enrollment, err := sec.NewTOTPSecret(constants.TOTPIssuer, user.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_totp_secret_failed: %w", err)
	}

	// Mint a fresh recovery batch, replacing any prior one. The codes live in
	// their own table and stay inert until enforcement is on.
	codes := make([]string, RecoveryCodeCount)
	for i := range codes {
		codes[i] = sec.NewRecoveryCode()
	}

	expiresAt := time.Now().Add(RecoveryCodeTTL)
	if err := service.recoveryCodeRepository.ReplaceForUser(context, userID, codes, expiresAt); err != nil {
		return nil, fmt.Errorf("auth_service_recovery_codes_failed: %w", err)
	}

	return &TwoFactorSetup{
		Secret:          enrollment.Secret,
		ProvisioningURI: enrollment.ProvisioningURI,
		RecoveryCodes:   codes,
	}, nil
}

/*
VerifyTwoFactorSetup completes enrollment and turns enforcement on.

Description: The user submits the secret from setup together with a current
code, proving their authenticator holds it. Secret and flag land in one
write, so the account is never half enrolled.

Parameters:
  - context: context.Context
  - userID: string
  - secret: string
  - code: string

Returns:
  - error: INVALID_TWO_FACTOR_CODE (400), Conflict when already enabled, or storage failures
*/
func (service *Service) VerifyTwoFactorSetup(context context.Context, userID, secret, code string) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if user.TwoFactorEnabled {
		return apperr.Conflict("Two-factor authentication is already enabled")
	}

	if strings.TrimSpace(secret) == "" || !sec.VerifyTOTP(secret, code, TOTPSkewSteps) {
		return apperr.BadRequest(CodeTwoFactorInvalid, "Invalid two-factor code")
	}

	if err := service.userRepository.UpdateTwoFactor(context, userID, secret, true); err != nil {
		return fmt.Errorf("auth_service_totp_enable_failed: %w", err)
	}

	return nil
}

/*
DisableTwoFactor turns two-factor enforcement off.

Description: Accepts either a current authenticator code or an unused recovery
code, so a lost device does not lock the user out of their own settings. The
shared secret and every recovery code are destroyed on success.

Parameters:
  - context: context.Context
  - userID: string
  - code: string

Returns:
  - error: Unauthorized on a bad code, or storage failures
*/
func (service *Service) DisableTwoFactor(context context.Context, userID, code string) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if !user.TwoFactorEnabled {
		return apperr.Conflict("Two-factor authentication is not enabled")
	}

	if err := service.checkSecondFactor(context, user, code); err != nil {
		return err
	}

	if err := service.userRepository.UpdateTwoFactor(context, userID, "", false); err != nil {
		return fmt.Errorf("auth_service_totp_disable_failed: %w", err)
	}

	// The recovery batch belongs to the destroyed enrollment.
	_ = service.recoveryCodeRepository.DeleteForUser(context, userID)

	return nil
}

// checkSecondFactor accepts a TOTP code or, failing that, redeems a recovery
// code. Recovery redemption is single-use and atomic at the storage layer.
func (service *Service) checkSecondFactor(context context.Context, user *User, code string) error {
	trimmed := strings.TrimSpace(code)

	if sec.VerifyTOTP(user.TwoFactorSecret, trimmed, TOTPSkewSteps) {
		return nil
	}

	redeemed, err := service.recoveryCodeRepository.Redeem(context, user.ID, strings.ToUpper(trimmed))
	if err != nil {
		return fmt.Errorf("auth_service_recovery_redeem_failed: %w", err)
	}
	if !redeemed {
		return apperr.Unauthorized("Invalid two-factor code")
	}

	return nil
}
