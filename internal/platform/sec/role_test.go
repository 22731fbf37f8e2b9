// Copyright (c) 2026 Phoenix PME. All rights reserved.

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/sec"
)

/*
TestUserRole_AtLeast checks the role hierarchy ordering.
*/
func TestUserRole_AtLeast(t *testing.T) {
	tests := []struct {
		name   string
		role   sec.UserRole
		target sec.UserRole
		want   bool
	}{
		{"admin_over_moderator", sec.RoleAdmin, sec.RoleModerator, true},
		{"moderator_over_seller", sec.RoleModerator, sec.RoleSeller, true},
		{"seller_over_buyer", sec.RoleSeller, sec.RoleBuyer, true},
		{"buyer_meets_buyer", sec.RoleBuyer, sec.RoleBuyer, true},
		{"buyer_under_seller", sec.RoleBuyer, sec.RoleSeller, false},
		{"seller_under_admin", sec.RoleSeller, sec.RoleAdmin, false},
		{"unknown_under_buyer", sec.UserRole("ghost"), sec.RoleBuyer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.AtLeast(tt.target))
		})
	}
}

/*
TestUserRole_IsValid checks membership in the known role set.
*/
func TestUserRole_IsValid(t *testing.T) {
	assert.True(t, sec.RoleBuyer.IsValid())
	assert.True(t, sec.RoleAdmin.IsValid())
	assert.False(t, sec.UserRole("superuser").IsValid())
	assert.False(t, sec.UserRole("").IsValid())
}

/*
TestKYCStatus_AtLeast verifies the verification ladder, including the
rejected state ranking below not_started.
*/
func TestKYCStatus_AtLeast(t *testing.T) {
	assert.True(t, sec.KYCVerified.AtLeast(sec.KYCVerified))
	assert.True(t, sec.KYCVerified.AtLeast(sec.KYCPending))
	assert.True(t, sec.KYCPending.AtLeast(sec.KYCNotStarted))
	assert.False(t, sec.KYCNotStarted.AtLeast(sec.KYCPending))
	assert.False(t, sec.KYCRejected.AtLeast(sec.KYCNotStarted))
	assert.False(t, sec.KYCRejected.AtLeast(sec.KYCVerified))
}

/*
TestUserStatus_CanAuthenticate verifies only active accounts may sign in.
*/
func TestUserStatus_CanAuthenticate(t *testing.T) {
	assert.True(t, sec.StatusActive.CanAuthenticate())
	assert.False(t, sec.StatusPending.CanAuthenticate())
	assert.False(t, sec.StatusSuspended.CanAuthenticate())
	assert.False(t, sec.StatusBanned.CanAuthenticate())
	assert.False(t, sec.StatusDeleted.CanAuthenticate())
}
