// Copyright (c) 2026 Phoenix PME. All rights reserved.

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Can review KYC submissions and moderate marketplace activity
	RoleModerator UserRole = "moderator"

	// Can list precious-metal lots for auction
	RoleSeller UserRole = "seller"

	// Default role for standard registered users
	RoleBuyer UserRole = "buyer"
)

// IsValid reports whether the role is one of the known marketplace roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleSeller, RoleBuyer:
		return true
	}
	return false
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-40) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 40
	case RoleModerator:
		return 30
	case RoleSeller:
		return 20
	case RoleBuyer:
		return 10
	default:
		return 0
	}
}

// # KYC Status

// KYCStatus represents the identity verification stage of an account.
type KYCStatus string

const (
	KYCNotStarted KYCStatus = "not_started"
	KYCPending    KYCStatus = "pending"
	KYCVerified   KYCStatus = "verified"
	KYCRejected   KYCStatus = "rejected"
)

// AtLeast checks if the current KYC stage meets or exceeds the target stage.
//
// Rejected accounts rank below not_started so that gates requiring any
// progress also exclude them.
func (s KYCStatus) AtLeast(target KYCStatus) bool {
	return s.level() >= target.level()
}

func (s KYCStatus) level() int {
	switch s {
	case KYCVerified:
		return 2
	case KYCPending:
		return 1
	case KYCNotStarted:
		return 0
	default:
		return -1
	}
}

// # Account Status

// UserStatus represents the lifecycle state of an account.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusPending   UserStatus = "pending"
	StatusSuspended UserStatus = "suspended"
	StatusBanned    UserStatus = "banned"
	StatusDeleted   UserStatus = "deleted"
)

// CanAuthenticate reports whether an account in this state may hold a session.
func (s UserStatus) CanAuthenticate() bool {
	return s == StatusActive
}
