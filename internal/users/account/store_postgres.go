// Copyright (c) 2026 Phoenix PME. All rights reserved.

package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PhoenixPME/phoenix-pme/internal/platform/database/schema"
	"github.com/PhoenixPME/phoenix-pme/internal/users/auth"
	"github.com/PhoenixPME/phoenix-pme/pkg/pagination"
)

// # Account Store

// PostgresStore implements the account [Store] interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a new PostgreSQL implementation of the account Store.
func NewStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
List returns a filtered, paginated page of accounts plus the total count.

Description: Filters are combined with AND. The query is assembled from the
[schema.UserAccount] descriptor so column names stay in one place; every
user-supplied value travels as a bind parameter.

Parameters:
  - context: context.Context
  - filter: ListFilter
  - params: pagination.Params

Returns:
  - []*auth.User: Page of accounts
  - int: Total matching rows
  - error: Execution errors
*/
func (store *PostgresStore) List(context context.Context, filter ListFilter, params pagination.Params) ([]*auth.User, int, error) {
	table := schema.UserAccount

	conditions := []string{table.DeletedAt + " IS NULL"}
	arguments := []any{}

	appendCondition := func(column, value string) {
		if value == "" {
			return
		}
		arguments = append(arguments, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(arguments)))
	}

	appendCondition(table.Role, filter.Role)
	appendCondition(table.Status, filter.Status)
	appendCondition(table.KYCStatus, filter.KYCStatus)

	if filter.Search != "" {
		arguments = append(arguments, "%"+filter.Search+"%")
		placeholder := len(arguments)
		conditions = append(conditions, fmt.Sprintf("(%s ILIKE $%d OR %s ILIKE $%d)",
			table.Email, placeholder, table.Name, placeholder))
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	// Total count for the pagination envelope.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", table.Table, whereClause)
	var total int
	if err := store.pool.QueryRow(context, countQuery, arguments...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_store_count_failed: %w", err)
	}

	// Page query. Newest accounts first (UUIDv7 IDs sort by creation time).
	pageQuery := fmt.Sprintf(
		"SELECT %s FROM %s %s ORDER BY %s DESC LIMIT $%d OFFSET $%d",
		strings.Join(table.Columns(), ", "),
		table.Table,
		whereClause,
		table.ID,
		len(arguments)+1,
		len(arguments)+2,
	)
	arguments = append(arguments, params.Limit, params.Offset())

	rows, err := store.pool.Query(context, pageQuery, arguments...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_store_list_failed: %w", err)
	}
	defer rows.Close()

	users := make([]*auth.User, 0, params.Limit)
	for rows.Next() {
		user := &auth.User{}
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.Name,
			&user.Role,
			&user.WalletAddress,
			&user.PhoneNumber,
			&user.Country,
			&user.KYCStatus,
			&user.Status,
			&user.TwoFactorEnabled,
			&user.TwoFactorSecret,
			&user.LastActiveAt,
			&user.DeletedAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_store_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_store_rows_failed: %w", err)
	}

	return users, total, nil
}

/*
SoftDelete marks an account as deleted using its ID.

Description: Retention-friendly deletion by setting deletedat and flipping
the lifecycle status.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (store *PostgresStore) SoftDelete(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET status = 'deleted', deletedat = $2, updatedat = $2
		WHERE id = $1 AND deletedat IS NULL`

	_, err := store.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_store_soft_delete_failed: %w", err)
	}
	return nil
}
