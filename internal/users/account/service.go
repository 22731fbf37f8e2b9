// Copyright (c) 2026 Phoenix PME. All rights reserved.

/*
Package account implements profile and account-lifecycle management on top of
the auth domain's identity entities.

It covers the member-facing profile surface (view/update profile, wallet
linking, KYC submission) and the admin surface (listing, KYC review,
suspension, reactivation, soft deletion).

# Architecture

The package deliberately reuses the [auth.User] entity and the auth storage
contracts instead of duplicating them; it adds only the operations the auth
flows themselves never need.
*/
package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/apperr"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/sec"
	"github.com/PhoenixPME/phoenix-pme/internal/platform/validate"
	"github.com/PhoenixPME/phoenix-pme/internal/users/auth"
	"github.com/PhoenixPME/phoenix-pme/pkg/pagination"
)

// # Contracts & Types

// ListFilter narrows the admin user listing.
type ListFilter struct {
	Role      string
	Status    string
	KYCStatus string
	Search    string // Matches against email and name.
}

// Store defines the account-specific data access contract that the auth
// repositories do not cover.
type Store interface {

	/*
		List returns a page of accounts matching the filter plus the total count.

		Parameters:
		  - context: context.Context
		  - filter: ListFilter
		  - params: pagination.Params

		Returns:
		  - []*auth.User: Page of accounts
		  - int: Total matching rows
		  - error: Database retrieval failures
	*/
	List(context context.Context, filter ListFilter, params pagination.Params) ([]*auth.User, int, error)

	/*
		SoftDelete marks the account as deleted without removing the row.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	SoftDelete(context context.Context, userID string) error
}

// Service implements profile and account lifecycle use cases.
type Service struct {
	users    auth.UserRepository
	store    Store
	sessions auth.RefreshTokenRepository
}

// NewService constructs a new account [Service] with necessary dependencies.
func NewService(users auth.UserRepository, store Store, sessions auth.RefreshTokenRepository) *Service {
	return &Service{users: users, store: store, sessions: sessions}
}

// # Member Profile

/*
Profile returns the account of the given user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: Hydrated account
  - error: NotFound or retrieval failures
*/
func (service *Service) Profile(context context.Context, userID string) (*auth.User, error) {
	return service.users.FindByID(context, userID)
}

// UpdateProfileInput holds the mutable profile fields a member may change.
type UpdateProfileInput struct {
	Name        string
	PhoneNumber string
	Country     string
}

/*
UpdateProfile applies the member's profile changes.

Description: Identity fields (email, role) and security state are immutable
through this path; they have dedicated flows.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: Updated account
  - error: Validation or persistence failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {
	v := &validate.Validator{}
	v.Required(auth.FieldName, input.Name).MaxLen(auth.FieldName, input.Name, 120)
	v.MaxLen(auth.FieldPhoneNumber, input.PhoneNumber, 32)
	v.MaxLen(auth.FieldCountry, input.Country, 64)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(input.Name)
	user.PhoneNumber = input.PhoneNumber
	user.Country = input.Country

	if err := service.users.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_profile_failed: %w", err)
	}

	return user, nil
}

/*
LinkWallet attaches an on-chain wallet address to the account.

Description: The route is KYC-gated, but the service re-checks the stage so
the invariant holds for every caller.

Parameters:
  - context: context.Context
  - userID: string
  - walletAddress: string

Returns:
  - *auth.User: Updated account
  - error: Forbidden before KYC verification, validation, or persistence failures
*/
func (service *Service) LinkWallet(context context.Context, userID, walletAddress string) (*auth.User, error) {
	v := &validate.Validator{}
	v.Required(auth.FieldWalletAddress, walletAddress).
		WalletAddress(auth.FieldWalletAddress, walletAddress)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if !user.KYCStatus.AtLeast(sec.KYCVerified) {
		return nil, apperr.Forbidden("Identity verification required before linking a wallet")
	}

	user.WalletAddress = walletAddress
	if err := service.users.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_link_wallet_failed: %w", err)
	}

	return user, nil
}

// # KYC Lifecycle

/*
SubmitKYC moves the account into the pending verification queue.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: Updated account
  - error: Conflict when already verified or pending, persistence failures
*/
func (service *Service) SubmitKYC(context context.Context, userID string) (*auth.User, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	switch user.KYCStatus {
	case sec.KYCVerified:
		return nil, apperr.Conflict("Identity is already verified")
	case sec.KYCPending:
		return nil, apperr.Conflict("A verification request is already pending")
	}

	user.KYCStatus = sec.KYCPending
	if err := service.users.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_submit_kyc_failed: %w", err)
	}

	return user, nil
}

/*
ReviewKYC resolves a pending verification request.

Description: Moderator/admin operation. Approval moves the account to
verified; rejection to rejected. Only pending requests can be reviewed.

Parameters:
  - context: context.Context
  - userID: string
  - approve: bool

Returns:
  - *auth.User: Updated account
  - error: Conflict when no review is pending, persistence failures
*/
func (service *Service) ReviewKYC(context context.Context, userID string, approve bool) (*auth.User, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if user.KYCStatus != sec.KYCPending {
		return nil, apperr.Conflict("No pending verification request for this account")
	}

	if approve {
		user.KYCStatus = sec.KYCVerified
	} else {
		user.KYCStatus = sec.KYCRejected
	}

	if err := service.users.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_review_kyc_failed: %w", err)
	}

	return user, nil
}

// # Admin Lifecycle

/*
Suspend blocks the account and kills every active session.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: Updated account
  - error: Conflict on terminal states, persistence failures
*/
func (service *Service) Suspend(context context.Context, userID string) (*auth.User, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if user.Status == sec.StatusBanned || user.Status == sec.StatusDeleted {
		return nil, apperr.Conflict("Account is " + string(user.Status))
	}

	user.Status = sec.StatusSuspended
	if err := service.users.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_suspend_failed: %w", err)
	}

	// A suspended account must not be able to refresh its way back in.
	_ = service.sessions.RevokeAll(context, userID)

	return user, nil
}

/*
Activate restores a suspended account to active.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: Updated account
  - error: Conflict unless currently suspended, persistence failures
*/
func (service *Service) Activate(context context.Context, userID string) (*auth.User, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if user.Status != sec.StatusSuspended {
		return nil, apperr.Conflict("Only suspended accounts can be reactivated")
	}

	user.Status = sec.StatusActive
	if err := service.users.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_activate_failed: %w", err)
	}

	return user, nil
}

/*
Delete soft-deletes the account and revokes all sessions.

Description: Retention-friendly; the row remains for audit and settlement
history, but the account can never authenticate again.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Persistence failures
*/
func (service *Service) Delete(context context.Context, userID string) error {
	if _, err := service.users.FindByID(context, userID); err != nil {
		return err
	}

	if err := service.store.SoftDelete(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	_ = service.sessions.RevokeAll(context, userID)

	return nil
}

/*
List returns a filtered, paginated page of accounts for the admin console.

Parameters:
  - context: context.Context
  - filter: ListFilter
  - params: pagination.Params

Returns:
  - []*auth.User: Page of accounts
  - pagination.Meta: Metadata for the response envelope
  - error: Retrieval failures
*/
func (service *Service) List(context context.Context, filter ListFilter, params pagination.Params) ([]*auth.User, pagination.Meta, error) {
	users, total, err := service.store.List(context, filter, params)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_service_list_failed: %w", err)
	}

	return users, pagination.NewMeta(params.Page, params.Limit, total), nil
}
