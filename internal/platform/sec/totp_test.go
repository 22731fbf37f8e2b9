// Copyright (c) 2026 Phoenix PME. All rights reserved.

package sec

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rfcSecret is the ASCII secret "12345678901234567890" from RFC 6238
// Appendix B, base32 encoded.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

/*
TestVerifyTOTP_RFCVectors validates generated codes against the published
RFC 6238 test vectors (truncated to 6 digits).
*/
func TestVerifyTOTP_RFCVectors(t *testing.T) {
	tests := []struct {
		name string
		unix int64
		code string
	}{
		{"t_59", 59, "287082"},
		{"t_1111111109", 1111111109, "081804"},
		{"t_1111111111", 1111111111, "050471"},
		{"t_1234567890", 1234567890, "005924"},
		{"t_2000000000", 2000000000, "279037"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Unix(tt.unix, 0)
			assert.True(t, verifyTOTPAt(rfcSecret, tt.code, 0, now))
		})
	}
}

/*
TestVerifyTOTP_SkewWindow checks that codes from adjacent 30s steps are
accepted only when skew tolerance allows them.
*/
func TestVerifyTOTP_SkewWindow(t *testing.T) {
	// Unix 59 is counter 1. Counter 0 produces "755224", counter 2 "359152"
	// (RFC 4226 Appendix D).
	now := time.Unix(59, 0)

	// Zero skew accepts only the current step.
	assert.True(t, verifyTOTPAt(rfcSecret, "287082", 0, now))
	assert.False(t, verifyTOTPAt(rfcSecret, "755224", 0, now))
	assert.False(t, verifyTOTPAt(rfcSecret, "359152", 0, now))

	// One step of skew accepts the previous and next step.
	assert.True(t, verifyTOTPAt(rfcSecret, "755224", 1, now))
	assert.True(t, verifyTOTPAt(rfcSecret, "359152", 1, now))
}

/*
TestVerifyTOTP_RejectsMalformedInput covers bad codes and bad secrets.
*/
func TestVerifyTOTP_RejectsMalformedInput(t *testing.T) {
	now := time.Unix(59, 0)

	tests := []struct {
		name   string
		secret string
		code   string
	}{
		{"empty_code", rfcSecret, ""},
		{"short_code", rfcSecret, "28708"},
		{"long_code", rfcSecret, "2870820"},
		{"alpha_code", rfcSecret, "28708a"},
		{"empty_secret", "", "287082"},
		{"invalid_base32_secret", "not base32!!", "287082"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, verifyTOTPAt(tt.secret, tt.code, 1, now))
		})
	}
}

/*
TestVerifyTOTP_TrimsWhitespace verifies that user-pasted codes with
surrounding spaces still verify.
*/
func TestVerifyTOTP_TrimsWhitespace(t *testing.T) {
	now := time.Unix(59, 0)
	assert.True(t, verifyTOTPAt(rfcSecret, " 287082 ", 0, now))
}

/*
TestNewTOTPSecret checks enrollment material generation.
*/
func TestNewTOTPSecret(t *testing.T) {
	enrollment, err := NewTOTPSecret("PhoenixPME", "trader@example.com")
	require.NoError(t, err)

	// 20 random bytes base32 encode to 32 characters without padding.
	assert.Len(t, enrollment.Secret, 32)
	assert.NotContains(t, enrollment.Secret, "=")

	assert.True(t, strings.HasPrefix(enrollment.ProvisioningURI, "otpauth://totp/"))
	assert.Contains(t, enrollment.ProvisioningURI, "issuer=PhoenixPME")
	assert.Contains(t, enrollment.ProvisioningURI, "secret="+enrollment.Secret)
	assert.Contains(t, enrollment.ProvisioningURI, "digits=6")
	assert.Contains(t, enrollment.ProvisioningURI, "period=30")
}
