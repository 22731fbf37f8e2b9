// Copyright (c) 2026 Phoenix PME. All rights reserved.

// Package dberr classifies low-level PostgreSQL errors so repositories can
// map them to application errors without leaking driver details.
package dberr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// sqlstateUniqueViolation is the SQLSTATE raised when an insert or update
// collides with a unique index.
const sqlstateUniqueViolation = "23505"

// IsUniqueViolation reports whether err carries a unique-constraint violation
// anywhere in its chain, e.g. a concurrent insert racing past an existence
// check in the service layer.
func IsUniqueViolation(err error) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == sqlstateUniqueViolation
}
