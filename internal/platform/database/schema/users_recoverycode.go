// Copyright (c) 2026 Phoenix PME. All rights reserved.

package schema

// UserRecoveryCodeTable represents the 'users.recoverycode' table
type UserRecoveryCodeTable struct {
	Table     string
	ID        string
	UserID    string
	Code      string
	IsUsed    string
	UsedAt    string
	ExpiresAt string
	CreatedAt string
}

// UserRecoveryCode is the schema definition for users.recoverycode
var UserRecoveryCode = UserRecoveryCodeTable{
	Table:     "users.recoverycode",
	ID:        "id",
	UserID:    "userid",
	Code:      "code",
	IsUsed:    "isused",
	UsedAt:    "usedat",
	ExpiresAt: "expiresat",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t UserRecoveryCodeTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Code, t.IsUsed, t.UsedAt, t.ExpiresAt, t.CreatedAt,
	}
}
