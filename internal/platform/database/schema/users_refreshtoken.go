// Copyright (c) 2026 Phoenix PME. All rights reserved.

package schema

// UserRefreshTokenTable represents the 'users.refreshtoken' table
type UserRefreshTokenTable struct {
	Table      string
	ID         string
	TokenID    string
	UserID     string
	UserAgent  string
	IPAddress  string
	IsRevoked  string
	ExpiresAt  string
	RevokedAt  string
	LastUsedAt string
	CreatedAt  string
}

// UserRefreshToken is the schema definition for users.refreshtoken
var UserRefreshToken = UserRefreshTokenTable{
	Table:      "users.refreshtoken",
	ID:         "id",
	TokenID:    "tokenid",
	UserID:     "userid",
	UserAgent:  "useragent",
	IPAddress:  "ipaddress",
	IsRevoked:  "isrevoked",
	ExpiresAt:  "expiresat",
	RevokedAt:  "revokedat",
	LastUsedAt: "lastusedat",
	CreatedAt:  "createdat",
}

// Columns returns all standard column names
func (t UserRefreshTokenTable) Columns() []string {
	return []string{
		t.ID, t.TokenID, t.UserID, t.UserAgent, t.IPAddress, t.IsRevoked, t.ExpiresAt, t.RevokedAt, t.LastUsedAt, t.CreatedAt,
	}
}
