// Copyright (c) 2026 Phoenix PME. All rights reserved.

package schema

// UserLoginAttemptTable represents the 'users.loginattempt' table
type UserLoginAttemptTable struct {
	Table     string
	ID        string
	Email     string
	UserID    string
	IPAddress string
	UserAgent string
	Succeeded string
	CreatedAt string
}

// UserLoginAttempt is the schema definition for users.loginattempt
var UserLoginAttempt = UserLoginAttemptTable{
	Table:     "users.loginattempt",
	ID:        "id",
	Email:     "email",
	UserID:    "userid",
	IPAddress: "ipaddress",
	UserAgent: "useragent",
	Succeeded: "succeeded",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t UserLoginAttemptTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.UserID, t.IPAddress, t.UserAgent, t.Succeeded, t.CreatedAt,
	}
}
