// Copyright (c) 2026 Phoenix PME. All rights reserved.

package sec

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// # Password Hashing Parameters

const (
	// passwordSaltBytes is the length of the random salt prepended to every hash.
	passwordSaltBytes = 16

	// passwordKeyBytes is the length of the derived key.
	passwordKeyBytes = 64

	// passwordIterations is the PBKDF2 work factor. Tuned for ~100ms on
	// current server hardware; raising it does not invalidate stored hashes
	// created with the old value only if they are re-hashed on next login,
	// so treat changes as a migration.
	passwordIterations = 120_000
)

// HashPassword derives a salted PBKDF2-HMAC-SHA512 hash of a plain-text password.
//
// The stored format is "salt:hash" with both parts hex-encoded. A fresh random
// salt is generated for every call, so hashing the same password twice yields
// different stored values.
func HashPassword(plainTextPassword string) (string, error) {
	salt := make([]byte, passwordSaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("sec: failed to generate password salt: %w", err)
	}

	derived := pbkdf2.Key([]byte(plainTextPassword), salt, passwordIterations, passwordKeyBytes, sha512.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(derived), nil
}

// VerifyPassword compares a plain-text password against a stored "salt:hash" value.
//
// # Failure Mode
//
// A malformed or truncated stored hash is treated as a verification failure,
// never an error. The comparison is constant time.
func VerifyPassword(plainTextPassword, storedHash string) bool {
	saltHex, hashHex, found := strings.Cut(storedHash, ":")
	if !found {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) == 0 {
		return false
	}

	expected, err := hex.DecodeString(hashHex)
	if err != nil || len(expected) == 0 {
		return false
	}

	derived := pbkdf2.Key([]byte(plainTextPassword), salt, passwordIterations, len(expected), sha512.New)
	return subtle.ConstantTimeCompare(derived, expected) == 1
}
