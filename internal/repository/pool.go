package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxPool is the subset of *pgxpool.Pool used by the repositories.
type pgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var _ pgxPool = (*pgxpool.Pool)(nil)

func nullStringToPtr(value sql.NullString) *string {
	if value.Valid {
		val := value.String
		return &val
	}
	return nil
}

func nullInt64ToPtr(value sql.NullInt64) *int64 {
	if value.Valid {
		val := value.Int64
		return &val
	}
	return nil
}

// stringOrNil maps nil and empty strings to SQL NULL.
func stringOrNil(value *string) any {
	if value == nil || *value == "" {
		return nil
	}
	return *value
}

// accountIDOrNil maps nil and non-positive ids to SQL NULL.
func accountIDOrNil(value *int64) any {
	if value == nil || *value <= 0 {
		return nil
	}
	return *value
}

func orderDirection(order string, fallback string) string {
	switch order {
	case "asc":
		return "ASC"
	case "desc":
		return "DESC"
	}
	return fallback
}
