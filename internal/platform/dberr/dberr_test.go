// Copyright (c) 2026 Phoenix PME. All rights reserved.

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/dberr"
)

/*
TestIsUniqueViolation classifies SQLSTATE codes, including errors wrapped
by repository context.
*/
func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "account_email_unique"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct", unique, true},
		{"wrapped", fmt.Errorf("postgres_user_repo_create_failed: %w", unique), true},
		{"other_sqlstate", &pgconn.PgError{Code: "23503"}, false},
		{"plain_error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dberr.IsUniqueViolation(tt.err))
		})
	}
}
