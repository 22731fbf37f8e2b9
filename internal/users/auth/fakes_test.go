// Copyright (c) 2026 Phoenix PME. All rights reserved.

package auth_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/apperr"
	"github.com/PhoenixPME/phoenix-pme/internal/users/auth"
)

// In-memory repository fakes backing the service tests. They implement the
// same contracts as the Postgres and Redis repositories, including the
// behaviors the service relies on (case-insensitive email lookup, single-use
// recovery redemption, revocation timestamps).

// # User Repository Fake

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*auth.User
	createErr error // forced result of the next Create when set
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*auth.User)}
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) && user.DeletedAt == nil {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (f *fakeUserRepo) Create(_ context.Context, user *auth.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	copied := *user
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *auth.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[user.ID]
	if !ok {
		return apperr.NotFound("User")
	}
	stored.Name = user.Name
	stored.WalletAddress = user.WalletAddress
	stored.PhoneNumber = user.PhoneNumber
	stored.Country = user.Country
	stored.KYCStatus = user.KYCStatus
	stored.Status = user.Status
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, userID, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	stored.PasswordHash = newHash
	return nil
}

func (f *fakeUserRepo) UpdateTwoFactor(_ context.Context, userID, secret string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	stored.TwoFactorSecret = secret
	stored.TwoFactorEnabled = enabled
	return nil
}

func (f *fakeUserRepo) TouchLastActive(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.users[userID]; ok {
		now := time.Now()
		stored.LastActiveAt = &now
	}
	return nil
}

// # Refresh Token Repository Fake

type fakeRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]*auth.RefreshToken
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: make(map[string]*auth.RefreshToken)}
}

func (f *fakeRefreshRepo) Create(_ context.Context, token *auth.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *token
	copied.CreatedAt = time.Now()
	f.tokens[token.TokenID] = &copied
	return nil
}

func (f *fakeRefreshRepo) FindByTokenID(_ context.Context, tokenID string) (*auth.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token, ok := f.tokens[tokenID]
	if !ok {
		return nil, apperr.NotFound("Refresh token")
	}
	copied := *token
	return &copied, nil
}

func (f *fakeRefreshRepo) FindActiveByUser(_ context.Context, userID string) ([]*auth.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	active := make([]*auth.RefreshToken, 0)
	for _, token := range f.tokens {
		if token.UserID == userID && !token.IsRevoked && time.Now().Before(token.ExpiresAt) {
			copied := *token
			active = append(active, &copied)
		}
	}
	return active, nil
}

func (f *fakeRefreshRepo) Revoke(_ context.Context, tokenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token, ok := f.tokens[tokenID]; ok && !token.IsRevoked {
		now := time.Now()
		token.IsRevoked = true
		token.RevokedAt = &now
	}
	return nil
}

func (f *fakeRefreshRepo) RevokeAll(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, token := range f.tokens {
		if token.UserID == userID && !token.IsRevoked {
			now := time.Now()
			token.IsRevoked = true
			token.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeRefreshRepo) RevokeOthers(_ context.Context, userID, keepTokenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, token := range f.tokens {
		if token.UserID == userID && token.TokenID != keepTokenID && !token.IsRevoked {
			now := time.Now()
			token.IsRevoked = true
			token.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeRefreshRepo) TouchLastUsed(_ context.Context, tokenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token, ok := f.tokens[tokenID]; ok {
		now := time.Now()
		token.LastUsedAt = &now
	}
	return nil
}

func (f *fakeRefreshRepo) CountActive(_ context.Context, userID string) (int, error) {
	active, _ := f.FindActiveByUser(context.Background(), userID)
	return len(active), nil
}

func (f *fakeRefreshRepo) DeleteExpired(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for id, token := range f.tokens {
		if token.IsRevoked || time.Now().After(token.ExpiresAt) {
			delete(f.tokens, id)
			removed++
		}
	}
	return removed, nil
}

// # Login Attempt Repository Fake

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts []*auth.LoginAttempt
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{}
}

// seedFailure plants a failed attempt at a specific point in time.
func (f *fakeAttemptRepo) seedFailure(email string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, &auth.LoginAttempt{
		Email:     email,
		Succeeded: false,
		CreatedAt: at,
	})
}

func (f *fakeAttemptRepo) Create(_ context.Context, attempt *auth.LoginAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *attempt
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	f.attempts = append(f.attempts, &copied)
	return nil
}

func (f *fakeAttemptRepo) CountFailedSince(_ context.Context, email string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, attempt := range f.attempts {
		if strings.EqualFold(attempt.Email, email) && !attempt.Succeeded && attempt.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeAttemptRepo) OldestFailedSince(_ context.Context, email string, since time.Time) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var oldest *time.Time
	for _, attempt := range f.attempts {
		if strings.EqualFold(attempt.Email, email) && !attempt.Succeeded && attempt.CreatedAt.After(since) {
			if oldest == nil || attempt.CreatedAt.Before(*oldest) {
				at := attempt.CreatedAt
				oldest = &at
			}
		}
	}
	return oldest, nil
}

// lastAttempt returns the most recently recorded attempt, or nil.
func (f *fakeAttemptRepo) lastAttempt() *auth.LoginAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.attempts) == 0 {
		return nil
	}
	return f.attempts[len(f.attempts)-1]
}

// # Recovery Code Repository Fake

type fakeRecoveryRepo struct {
	mu    sync.Mutex
	codes map[string]map[string]bool // userID -> code -> used
}

func newFakeRecoveryRepo() *fakeRecoveryRepo {
	return &fakeRecoveryRepo{codes: make(map[string]map[string]bool)}
}

func (f *fakeRecoveryRepo) ReplaceForUser(_ context.Context, userID string, codes []string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make(map[string]bool, len(codes))
	for _, code := range codes {
		batch[code] = false
	}
	f.codes[userID] = batch
	return nil
}

func (f *fakeRecoveryRepo) Redeem(_ context.Context, userID, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch, ok := f.codes[userID]
	if !ok {
		return false, nil
	}
	used, exists := batch[code]
	if !exists || used {
		return false, nil
	}
	batch[code] = true
	return true, nil
}

func (f *fakeRecoveryRepo) DeleteForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.codes, userID)
	return nil
}

// # Reset Token Repository Fake

type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]string)}
}

func (f *fakeResetRepo) Set(_ context.Context, token, userID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = userID
	return nil
}

func (f *fakeResetRepo) Get(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.tokens[token]
	if !ok {
		return "", apperr.NotFound("Reset token")
	}
	return userID, nil
}

func (f *fakeResetRepo) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}
