// Copyright (c) 2026 Phoenix PME. All rights reserved.

package auth_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/apperr"
	"github.com/PhoenixPME/phoenix-pme/internal/users/auth"
)

// totpNow computes the current 6-digit code for a base32 secret, mirroring
// what an authenticator app would display.
func totpNow(t *testing.T, secretBase32 string) string {
	t.Helper()

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	secret, err := enc.DecodeString(strings.ToUpper(secretBase32))
	require.NoError(t, err)

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(time.Now().Unix()/30))

	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	return fmt.Sprintf("%06d", bin%1000000)
}

/*
TestSetupTwoFactor_Enrollment checks the enrollment material and that the
account itself stays untouched until verification.
*/
func TestSetupTwoFactor_Enrollment(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "enroll@example.com", "str0ng-passphrase")
	ctx := context.Background()

	setup, err := env.service.SetupTwoFactor(ctx, registered.User.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, setup.Secret)
	assert.True(t, strings.HasPrefix(setup.ProvisioningURI, "otpauth://totp/"))
	assert.Len(t, setup.RecoveryCodes, auth.RecoveryCodeCount)

	// Codes are uppercase and unique.
	seen := make(map[string]bool)
	for _, code := range setup.RecoveryCodes {
		assert.Equal(t, strings.ToUpper(code), code)
		assert.False(t, seen[code])
		seen[code] = true
	}

	// The secret is held by the client only: the stored account carries a
	// secret exactly when enforcement is on.
	stored, err := env.users.FindByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.False(t, stored.TwoFactorEnabled)
	assert.Empty(t, stored.TwoFactorSecret)

	// Logins do not require a code yet.
	_, err = env.service.Login(ctx, auth.LoginInput{
		Email:    "enroll@example.com",
		Password: "str0ng-passphrase",
	})
	assert.NoError(t, err)
}

/*
TestSetupTwoFactor_AlreadyEnabled rejects re-enrollment with 409.
*/
func TestSetupTwoFactor_AlreadyEnabled(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "enabled@example.com", "str0ng-passphrase")
	env.enableTwoFactor(t, registered.User.ID, "AABBCCDDEEFF0011")

	_, err := env.service.SetupTwoFactor(context.Background(), registered.User.ID)
	require.Error(t, err)
	assert.Equal(t, 409, apperr.As(err).HTTPStatus)
}

/*
TestVerifyTwoFactorSetup_Success completes the enrollment loop: the secret
from setup plus a live code turn enforcement on in one write.
*/
func TestVerifyTwoFactorSetup_Success(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "enable@example.com", "str0ng-passphrase")
	ctx := context.Background()

	setup, err := env.service.SetupTwoFactor(ctx, registered.User.ID)
	require.NoError(t, err)

	require.NoError(t, env.service.VerifyTwoFactorSetup(ctx, registered.User.ID, setup.Secret, totpNow(t, setup.Secret)))

	stored, err := env.users.FindByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.TwoFactorEnabled)
	assert.Equal(t, setup.Secret, stored.TwoFactorSecret)

	// Logins now demand a second factor.
	_, err = env.service.Login(ctx, auth.LoginInput{
		Email:    "enable@example.com",
		Password: "str0ng-passphrase",
	})
	require.Error(t, err)
	assert.Equal(t, auth.CodeTwoFactorRequired, apperr.As(err).Code)
}

/*
TestVerifyTwoFactorSetup_Failures covers a missing secret, a wrong code,
and re-verification of an already-enabled account.
*/
func TestVerifyTwoFactorSetup_Failures(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "verify@example.com", "str0ng-passphrase")
	ctx := context.Background()

	// No secret submitted.
	err := env.service.VerifyTwoFactorSetup(ctx, registered.User.ID, "", "123456")
	require.Error(t, err)
	assert.Equal(t, auth.CodeTwoFactorInvalid, apperr.As(err).Code)

	// The code does not match the submitted secret.
	setup, err := env.service.SetupTwoFactor(ctx, registered.User.ID)
	require.NoError(t, err)

	err = env.service.VerifyTwoFactorSetup(ctx, registered.User.ID, setup.Secret, "000000")
	require.Error(t, err)
	assert.Equal(t, auth.CodeTwoFactorInvalid, apperr.As(err).Code)

	// Enforcement stays off and no secret was stored.
	stored, err := env.users.FindByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.False(t, stored.TwoFactorEnabled)
	assert.Empty(t, stored.TwoFactorSecret)

	// An enabled account rejects a second enrollment.
	env.enableTwoFactor(t, registered.User.ID, "AABBCCDDEEFF0011")
	err = env.service.VerifyTwoFactorSetup(ctx, registered.User.ID, setup.Secret, totpNow(t, setup.Secret))
	require.Error(t, err)
	assert.Equal(t, 409, apperr.As(err).HTTPStatus)
}

/*
TestDisableTwoFactor_WithRecoveryCode turns enforcement off using a
recovery code and destroys the enrollment.
*/
func TestDisableTwoFactor_WithRecoveryCode(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "disable@example.com", "str0ng-passphrase")
	env.enableTwoFactor(t, registered.User.ID, "AABBCCDDEEFF0011")
	ctx := context.Background()

	require.NoError(t, env.service.DisableTwoFactor(ctx, registered.User.ID, "AABBCCDDEEFF0011"))

	stored, err := env.users.FindByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.False(t, stored.TwoFactorEnabled)
	assert.Empty(t, stored.TwoFactorSecret)

	// Logins no longer require a second factor.
	_, err = env.service.Login(ctx, auth.LoginInput{
		Email:    "disable@example.com",
		Password: "str0ng-passphrase",
	})
	assert.NoError(t, err)
}

/*
TestDisableTwoFactor_Failures covers the not-enabled conflict and a bad
code.
*/
func TestDisableTwoFactor_Failures(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "disable@example.com", "str0ng-passphrase")
	ctx := context.Background()

	// Not enabled yet.
	err := env.service.DisableTwoFactor(ctx, registered.User.ID, "123456")
	require.Error(t, err)
	assert.Equal(t, 409, apperr.As(err).HTTPStatus)

	// Enabled, but the code is neither a valid TOTP nor a recovery code.
	env.enableTwoFactor(t, registered.User.ID, "AABBCCDDEEFF0011")

	err = env.service.DisableTwoFactor(ctx, registered.User.ID, "999999")
	require.Error(t, err)
	assert.Equal(t, 401, apperr.As(err).HTTPStatus)

	stored, err := env.users.FindByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.TwoFactorEnabled)
}
