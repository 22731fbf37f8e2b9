// Copyright (c) 2026 Phoenix PME. All rights reserved.

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/sec"
)

/*
TestHashPassword_Format verifies the "salt:hash" hex storage format.
*/
func TestHashPassword_Format(t *testing.T) {
	stored, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	parts := strings.Split(stored, ":")
	require.Len(t, parts, 2)

	// 16-byte salt and 64-byte key, both hex encoded.
	assert.Len(t, parts[0], 32)
	assert.Len(t, parts[1], 128)
}

/*
TestHashPassword_UniqueSalt verifies that hashing the same password twice
yields different stored values.
*/
func TestHashPassword_UniqueSalt(t *testing.T) {
	first, err := sec.HashPassword("same-password")
	require.NoError(t, err)

	second, err := sec.HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	// Both must still verify.
	assert.True(t, sec.VerifyPassword("same-password", first))
	assert.True(t, sec.VerifyPassword("same-password", second))
}

/*
TestVerifyPassword covers the accept and reject paths.
*/
func TestVerifyPassword(t *testing.T) {
	stored, err := sec.HashPassword("s3cret-Phrase!")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		stored   string
		want     bool
	}{
		{"correct_password", "s3cret-Phrase!", stored, true},
		{"wrong_password", "not-the-password", stored, false},
		{"empty_password", "", stored, false},
		{"empty_stored_hash", "s3cret-Phrase!", "", false},
		{"missing_separator", "s3cret-Phrase!", "deadbeef", false},
		{"non_hex_salt", "s3cret-Phrase!", "zzzz:deadbeef", false},
		{"non_hex_hash", "s3cret-Phrase!", "deadbeef:zzzz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sec.VerifyPassword(tt.password, tt.stored))
		})
	}
}
