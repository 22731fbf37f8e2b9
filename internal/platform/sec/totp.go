// Copyright (c) 2026 Phoenix PME. All rights reserved.

package sec

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// # TOTP (RFC 6238)

// TOTP parameters fixed to the values every mainstream authenticator app uses.
const (
	totpSecretBytes = 20
	totpDigits      = 6
	totpPeriod      = 30
)

// TOTPEnrollment is the material handed to a user when enrolling a device.
type TOTPEnrollment struct {
	// Secret is the shared secret, base32 encoded without padding.
	Secret string

	// ProvisioningURI is the otpauth:// URL embeddable as a QR code.
	ProvisioningURI string
}

// NewTOTPSecret generates a random shared secret and its provisioning URI
// for the given account label (typically the user's email).
func NewTOTPSecret(issuer, accountLabel string) (TOTPEnrollment, error) {
	raw := make([]byte, totpSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return TOTPEnrollment{}, fmt.Errorf("sec: failed to generate totp secret: %w", err)
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	secret := enc.EncodeToString(raw)

	label := url.PathEscape(issuer + ":" + accountLabel)
	values := url.Values{}
	values.Set("secret", secret)
	values.Set("issuer", issuer)
	values.Set("period", strconv.Itoa(totpPeriod))
	values.Set("digits", strconv.Itoa(totpDigits))
	values.Set("algorithm", "SHA1")

	return TOTPEnrollment{
		Secret:          secret,
		ProvisioningURI: "otpauth://totp/" + label + "?" + values.Encode(),
	}, nil
}

// VerifyTOTP validates a 6-digit time-based code against a base32 secret.
//
// skewSteps is the number of 30-second steps of clock skew tolerated on each
// side of the current step (1 is the interoperable default). Malformed codes
// and undecodable secrets verify as false; the digit comparison is constant
// time.
func VerifyTOTP(secretBase32, candidateCode string, skewSteps int) bool {
	return verifyTOTPAt(secretBase32, candidateCode, skewSteps, time.Now())
}

// verifyTOTPAt is the clock-injectable core of [VerifyTOTP].
func verifyTOTPAt(secretBase32, candidateCode string, skewSteps int, now time.Time) bool {
	trimmed := strings.TrimSpace(candidateCode)
	if len(trimmed) != totpDigits || !isDigits(trimmed) {
		return false
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	secret, err := enc.DecodeString(strings.ToUpper(strings.TrimRight(secretBase32, "=")))
	if err != nil || len(secret) == 0 {
		return false
	}

	baseCounter := now.Unix() / totpPeriod
	for step := -skewSteps; step <= skewSteps; step++ {
		counter := baseCounter + int64(step)
		if counter < 0 {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(hotpCode(secret, counter)), []byte(trimmed)) == 1 {
			return true
		}
	}

	return false
}

// hotpCode computes the RFC 4226 HMAC-SHA1 truncated code for one counter value.
func hotpCode(secret []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation per RFC 4226 §5.3.
	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < totpDigits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", totpDigits, bin%mod)
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
