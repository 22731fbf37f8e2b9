// Copyright (c) 2026 Phoenix PME. All rights reserved.

package account_test

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/apperr"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/sec"
	"github.com/PhoenixPME/phoenix-pme/internal/users/account"
	"github.com/PhoenixPME/phoenix-pme/internal/users/auth"
	"github.com/PhoenixPME/phoenix-pme/pkg/pagination"
	"github.com/PhoenixPME/phoenix-pme/pkg/uuid"
)

// memoryStore is a single in-memory backend implementing both the auth user
// repository and the account store, mirroring how both hit the same table in
// production.
type memoryStore struct {
	users map[string]*auth.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[string]*auth.User)}
}

// seed inserts a user directly and returns its ID.
func (m *memoryStore) seed(user auth.User) string {
	if user.ID == "" {
		user.ID = uuid.New()
	}
	if user.Status == "" {
		user.Status = sec.StatusActive
	}
	if user.KYCStatus == "" {
		user.KYCStatus = sec.KYCNotStarted
	}
	m.users[user.ID] = &user
	return user.ID
}

// # auth.UserRepository

func (m *memoryStore) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := m.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	return &copied, nil
}

func (m *memoryStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) && user.DeletedAt == nil {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (m *memoryStore) Create(_ context.Context, user *auth.User) error {
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memoryStore) Update(_ context.Context, user *auth.User) error {
	stored, ok := m.users[user.ID]
	if !ok {
		return apperr.NotFound("User")
	}
	stored.Name = user.Name
	stored.WalletAddress = user.WalletAddress
	stored.PhoneNumber = user.PhoneNumber
	stored.Country = user.Country
	stored.KYCStatus = user.KYCStatus
	stored.Status = user.Status
	return nil
}

func (m *memoryStore) UpdatePassword(_ context.Context, userID, newHash string) error {
	if stored, ok := m.users[userID]; ok {
		stored.PasswordHash = newHash
	}
	return nil
}

func (m *memoryStore) UpdateTwoFactor(_ context.Context, userID, secret string, enabled bool) error {
	if stored, ok := m.users[userID]; ok {
		stored.TwoFactorSecret = secret
		stored.TwoFactorEnabled = enabled
	}
	return nil
}

func (m *memoryStore) TouchLastActive(_ context.Context, userID string) error {
	return nil
}

// # account.Store

func (m *memoryStore) List(_ context.Context, filter account.ListFilter, params pagination.Params) ([]*auth.User, int, error) {
	matched := make([]*auth.User, 0)
	for _, user := range m.users {
		if user.DeletedAt != nil {
			continue
		}
		if filter.Role != "" && string(user.Role) != filter.Role {
			continue
		}
		if filter.Status != "" && string(user.Status) != filter.Status {
			continue
		}
		if filter.KYCStatus != "" && string(user.KYCStatus) != filter.KYCStatus {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(user.Email), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(user.Name), strings.ToLower(filter.Search)) {
			continue
		}
		copied := *user
		matched = append(matched, &copied)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	offset := params.Offset()
	if offset > total {
		offset = total
	}
	end := offset + params.Limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *memoryStore) SoftDelete(_ context.Context, userID string) error {
	stored, ok := m.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	now := time.Now()
	stored.Status = sec.StatusDeleted
	stored.DeletedAt = &now
	return nil
}

// # auth.RefreshTokenRepository (revocation tracking only)

type sessionTracker struct {
	revokedFor map[string]bool
}

func newSessionTracker() *sessionTracker {
	return &sessionTracker{revokedFor: make(map[string]bool)}
}

func (s *sessionTracker) Create(_ context.Context, _ *auth.RefreshToken) error { return nil }
func (s *sessionTracker) FindByTokenID(_ context.Context, _ string) (*auth.RefreshToken, error) {
	return nil, apperr.NotFound("Refresh token")
}
func (s *sessionTracker) FindActiveByUser(_ context.Context, _ string) ([]*auth.RefreshToken, error) {
	return nil, nil
}
func (s *sessionTracker) Revoke(_ context.Context, _ string) error { return nil }
func (s *sessionTracker) RevokeAll(_ context.Context, userID string) error {
	s.revokedFor[userID] = true
	return nil
}
func (s *sessionTracker) RevokeOthers(_ context.Context, _, _ string) error  { return nil }
func (s *sessionTracker) TouchLastUsed(_ context.Context, _ string) error    { return nil }
func (s *sessionTracker) CountActive(_ context.Context, _ string) (int, error) { return 0, nil }
func (s *sessionTracker) DeleteExpired(_ context.Context) (int, error)       { return 0, nil }

func newAccountService() (*account.Service, *memoryStore, *sessionTracker) {
	store := newMemoryStore()
	sessions := newSessionTracker()
	return account.NewService(store, store, sessions), store, sessions
}

// # Profile

/*
TestUpdateProfile applies mutable fields and leaves identity untouched.
*/
func TestUpdateProfile(t *testing.T) {
	service, store, _ := newAccountService()
	userID := store.seed(auth.User{Email: "member@example.com", Name: "Before"})

	updated, err := service.UpdateProfile(context.Background(), userID, account.UpdateProfileInput{
		Name:        "  After  ",
		PhoneNumber: "+81-90-0000-0000",
		Country:     "JP",
	})
	require.NoError(t, err)

	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "+81-90-0000-0000", updated.PhoneNumber)
	assert.Equal(t, "JP", updated.Country)
	assert.Equal(t, "member@example.com", updated.Email)
}

/*
TestUpdateProfile_Validation rejects an empty name.
*/
func TestUpdateProfile_Validation(t *testing.T) {
	service, store, _ := newAccountService()
	userID := store.seed(auth.User{Email: "member@example.com", Name: "Before"})

	_, err := service.UpdateProfile(context.Background(), userID, account.UpdateProfileInput{Name: ""})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

/*
TestLinkWallet enforces the KYC gate regardless of transport middleware.
*/
func TestLinkWallet(t *testing.T) {
	service, store, _ := newAccountService()
	wallet := "0x00112233445566778899aabbccddeeff00112233"

	t.Run("unverified_forbidden", func(t *testing.T) {
		userID := store.seed(auth.User{Email: "new@example.com", Name: "New", KYCStatus: sec.KYCNotStarted})

		_, err := service.LinkWallet(context.Background(), userID, wallet)
		require.Error(t, err)
		assert.Equal(t, 403, apperr.As(err).HTTPStatus)
	})

	t.Run("verified_succeeds", func(t *testing.T) {
		userID := store.seed(auth.User{Email: "kyc@example.com", Name: "Verified", KYCStatus: sec.KYCVerified})

		updated, err := service.LinkWallet(context.Background(), userID, wallet)
		require.NoError(t, err)
		assert.Equal(t, wallet, updated.WalletAddress)
	})

	t.Run("malformed_address", func(t *testing.T) {
		userID := store.seed(auth.User{Email: "kyc2@example.com", Name: "Verified", KYCStatus: sec.KYCVerified})

		_, err := service.LinkWallet(context.Background(), userID, "0x-not-hex")
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

// # KYC Lifecycle

/*
TestKYCLifecycle walks submit, approve, and reject transitions including
the conflict guards.
*/
func TestKYCLifecycle(t *testing.T) {
	service, store, _ := newAccountService()
	ctx := context.Background()

	t.Run("submit_then_approve", func(t *testing.T) {
		userID := store.seed(auth.User{Email: "a@example.com", Name: "A"})

		user, err := service.SubmitKYC(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, sec.KYCPending, user.KYCStatus)

		// Double submission conflicts.
		_, err = service.SubmitKYC(ctx, userID)
		require.Error(t, err)
		assert.Equal(t, 409, apperr.As(err).HTTPStatus)

		user, err = service.ReviewKYC(ctx, userID, true)
		require.NoError(t, err)
		assert.Equal(t, sec.KYCVerified, user.KYCStatus)

		// Verified accounts cannot resubmit.
		_, err = service.SubmitKYC(ctx, userID)
		require.Error(t, err)
		assert.Equal(t, 409, apperr.As(err).HTTPStatus)
	})

	t.Run("submit_then_reject_then_resubmit", func(t *testing.T) {
		userID := store.seed(auth.User{Email: "b@example.com", Name: "B"})

		_, err := service.SubmitKYC(ctx, userID)
		require.NoError(t, err)

		user, err := service.ReviewKYC(ctx, userID, false)
		require.NoError(t, err)
		assert.Equal(t, sec.KYCRejected, user.KYCStatus)

		// A rejected account may try again.
		user, err = service.SubmitKYC(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, sec.KYCPending, user.KYCStatus)
	})

	t.Run("review_without_submission", func(t *testing.T) {
		userID := store.seed(auth.User{Email: "c@example.com", Name: "C"})

		_, err := service.ReviewKYC(ctx, userID, true)
		require.Error(t, err)
		assert.Equal(t, 409, apperr.As(err).HTTPStatus)
	})
}

// # Admin Lifecycle

/*
TestSuspendActivate covers the suspension round trip and its session
side effect.
*/
func TestSuspendActivate(t *testing.T) {
	service, store, sessions := newAccountService()
	ctx := context.Background()
	userID := store.seed(auth.User{Email: "target@example.com", Name: "Target"})

	user, err := service.Suspend(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, sec.StatusSuspended, user.Status)
	assert.True(t, sessions.revokedFor[userID], "suspension must revoke sessions")

	user, err = service.Activate(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, sec.StatusActive, user.Status)

	// Activating an already-active account conflicts.
	_, err = service.Activate(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, 409, apperr.As(err).HTTPStatus)
}

/*
TestSuspend_TerminalStates rejects suspension of banned accounts.
*/
func TestSuspend_TerminalStates(t *testing.T) {
	service, store, _ := newAccountService()
	userID := store.seed(auth.User{Email: "banned@example.com", Name: "Banned", Status: sec.StatusBanned})

	_, err := service.Suspend(context.Background(), userID)
	require.Error(t, err)
	assert.Equal(t, 409, apperr.As(err).HTTPStatus)
}

/*
TestDelete soft-deletes and revokes sessions; the profile then 404s.
*/
func TestDelete(t *testing.T) {
	service, store, sessions := newAccountService()
	ctx := context.Background()
	userID := store.seed(auth.User{Email: "gone@example.com", Name: "Gone"})

	require.NoError(t, service.Delete(ctx, userID))
	assert.True(t, sessions.revokedFor[userID])

	_, err := service.Profile(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, 404, apperr.As(err).HTTPStatus)

	// Deleting twice 404s.
	err = service.Delete(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, 404, apperr.As(err).HTTPStatus)
}

// # Listing

/*
TestList checks filtering and pagination metadata.
*/
func TestList(t *testing.T) {
	service, store, _ := newAccountService()
	ctx := context.Background()

	store.seed(auth.User{Email: "buyer1@example.com", Name: "Buyer One", Role: sec.RoleBuyer})
	store.seed(auth.User{Email: "buyer2@example.com", Name: "Buyer Two", Role: sec.RoleBuyer})
	store.seed(auth.User{Email: "seller@example.com", Name: "Seller", Role: sec.RoleSeller})

	t.Run("filter_by_role", func(t *testing.T) {
		users, meta, err := service.List(ctx, account.ListFilter{Role: "buyer"}, pagination.Params{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Equal(t, 2, meta.Total)
	})

	t.Run("search", func(t *testing.T) {
		users, _, err := service.List(ctx, account.ListFilter{Search: "seller"}, pagination.Params{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, "seller@example.com", users[0].Email)
	})

	t.Run("pagination_meta", func(t *testing.T) {
		users, meta, err := service.List(ctx, account.ListFilter{}, pagination.Params{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Equal(t, 3, meta.Total)
		assert.Equal(t, 2, meta.TotalPages)
	})
}
