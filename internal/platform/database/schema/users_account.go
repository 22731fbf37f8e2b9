// Copyright (c) 2026 Phoenix PME. All rights reserved.

// Package schema declares table descriptors for every relation the
// application queries. Keeping column names in one place lets repositories
// build SQL without scattering string literals.
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table            string
	ID               string
	Email            string
	PasswordHash     string
	Name             string
	Role             string
	WalletAddress    string
	PhoneNumber      string
	Country          string
	KYCStatus        string
	Status           string
	TwoFactorEnabled string
	TwoFactorSecret  string
	LastActiveAt     string
	DeletedAt        string
	CreatedAt        string
	UpdatedAt        string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:            "users.account",
	ID:               "id",
	Email:            "email",
	PasswordHash:     "passwordhash",
	Name:             "name",
	Role:             "role",
	WalletAddress:    "walletaddress",
	PhoneNumber:      "phonenumber",
	Country:          "country",
	KYCStatus:        "kycstatus",
	Status:           "status",
	TwoFactorEnabled: "twofactorenabled",
	TwoFactorSecret:  "twofactorsecret",
	LastActiveAt:     "lastactiveat",
	DeletedAt:        "deletedat",
	CreatedAt:        "createdat",
	UpdatedAt:        "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.PasswordHash, t.Name, t.Role, t.WalletAddress, t.PhoneNumber, t.Country,
		t.KYCStatus, t.Status, t.TwoFactorEnabled, t.TwoFactorSecret, t.LastActiveAt, t.DeletedAt, t.CreatedAt, t.UpdatedAt,
	}
}
