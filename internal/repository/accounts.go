package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/entity"
)

// ErrAccountNotFound is returned when no account matches the given id.
var ErrAccountNotFound = errors.New("account not found")

// AccountsRepository describes persistence operations for accounts.
type AccountsRepository interface {
	Create(ctx context.Context, input dto.AccountInput) (*entity.Account, error)
	BulkCreate(ctx context.Context, inputs []dto.AccountInput) (int, error)
	Get(ctx context.Context, id int64) (*entity.Account, error)
	List(ctx context.Context, filter dto.ListFilter) ([]entity.Account, error)
	Options(ctx context.Context) ([]entity.AccountOption, error)
	Update(ctx context.Context, id int64, patch dto.AccountPatch) (*entity.Account, error)
	Delete(ctx context.Context, id int64) error
	SetState(ctx context.Context, id int64, state entity.AccountState) error
}

// PGXAccountsRepository implements AccountsRepository using pgx.
type PGXAccountsRepository struct {
	pool pgxPool
}

// NewPGXAccountsRepository wires a pgx backed repository.
func NewPGXAccountsRepository(pool *pgxpool.Pool) *PGXAccountsRepository {
	return &PGXAccountsRepository{pool: pool}
}

const accountColumns = `id, name, industry, website, notes, state, created_at`

var accountSortColumns = map[string]string{
	"created_at": "created_at",
	"name":       "LOWER(name)",
	"industry":   "industry",
	"state":      "state",
	"id":         "id",
}

// Create inserts an account in the idle state.
func (r *PGXAccountsRepository) Create(ctx context.Context, input dto.AccountInput) (*entity.Account, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO accounts (name, industry, website, notes, state)
        VALUES ($1, $2, $3, $4, 0)
        RETURNING `+accountColumns,
		input.Name,
		stringOrNil(input.Industry),
		stringOrNil(input.Website),
		stringOrNil(input.Notes),
	)

	account, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

// BulkCreate inserts every account in one transaction and returns the number of rows written.
func (r *PGXAccountsRepository) BulkCreate(ctx context.Context, inputs []dto.AccountInput) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("start bulk insert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, input := range inputs {
		_, err := tx.Exec(ctx, `INSERT INTO accounts (name, industry, website, notes, state) VALUES ($1, $2, $3, $4, 0)`,
			input.Name,
			stringOrNil(input.Industry),
			stringOrNil(input.Website),
			stringOrNil(input.Notes),
		)
		if err != nil {
			return 0, fmt.Errorf("bulk insert account %q: %w", input.Name, err)
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit bulk insert tx: %w", err)
	}
	return inserted, nil
}

// Get fetches an account by id.
func (r *PGXAccountsRepository) Get(ctx context.Context, id int64) (*entity.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("query account by id: %w", err)
	}
	return account, nil
}

// List returns one page of accounts in the requested order.
func (r *PGXAccountsRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.Account, error) {
	column, ok := accountSortColumns[filter.Sort]
	if !ok {
		column = accountSortColumns["created_at"]
	}
	fallback := "ASC"
	if column == "created_at" {
		fallback = "DESC"
	}
	direction := orderDirection(filter.Order, fallback)

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = dto.DefaultPerPage
	}

	query := fmt.Sprintf(`SELECT %s FROM accounts ORDER BY %s %s NULLS LAST, id %s LIMIT $1 OFFSET $2`,
		accountColumns, column, direction, direction)

	rows, err := r.pool.Query(ctx, query, perPage, filter.Offset())
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]entity.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// Options returns the id and name of every account ordered by name.
func (r *PGXAccountsRepository) Options(ctx context.Context) ([]entity.AccountOption, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM accounts ORDER BY LOWER(name) ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list account options: %w", err)
	}
	defer rows.Close()

	options := make([]entity.AccountOption, 0)
	for rows.Next() {
		var option entity.AccountOption
		if err := rows.Scan(&option.ID, &option.Name); err != nil {
			return nil, fmt.Errorf("scan account option: %w", err)
		}
		options = append(options, option)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account options: %w", err)
	}
	return options, nil
}

// Update patches the fields present in patch. Empty optional values become NULL.
func (r *PGXAccountsRepository) Update(ctx context.Context, id int64, patch dto.AccountPatch) (*entity.Account, error) {
	setClauses := make([]string, 0, 4)
	args := make([]any, 0, 5)
	idx := 1

	if patch.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", idx))
		args = append(args, *patch.Name)
		idx++
	}
	if patch.Industry != nil {
		setClauses = append(setClauses, fmt.Sprintf("industry = $%d", idx))
		args = append(args, stringOrNil(patch.Industry))
		idx++
	}
	if patch.Website != nil {
		setClauses = append(setClauses, fmt.Sprintf("website = $%d", idx))
		args = append(args, stringOrNil(patch.Website))
		idx++
	}
	if patch.Notes != nil {
		setClauses = append(setClauses, fmt.Sprintf("notes = $%d", idx))
		args = append(args, stringOrNil(patch.Notes))
		idx++
	}

	if len(setClauses) == 0 {
		return r.Get(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE accounts SET %s WHERE id = $%d RETURNING %s`, strings.Join(setClauses, ", "), idx, accountColumns)

	account, err := scanAccount(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return account, nil
}

// Delete removes an account; its contacts go with it through the foreign key.
func (r *PGXAccountsRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// SetState overwrites the enrichment state of an account.
func (r *PGXAccountsRepository) SetState(ctx context.Context, id int64, state entity.AccountState) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE accounts SET state = $1 WHERE id = $2`, int16(state), id)
	if err != nil {
		return fmt.Errorf("set account state: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var (
		account  entity.Account
		industry sql.NullString
		website  sql.NullString
		notes    sql.NullString
		state    int16
	)
	if err := row.Scan(&account.ID, &account.Name, &industry, &website, &notes, &state, &account.CreatedAt); err != nil {
		return nil, err
	}
	account.Industry = nullStringToPtr(industry)
	account.Website = nullStringToPtr(website)
	account.Notes = nullStringToPtr(notes)
	account.State = entity.AccountState(state)
	return &account, nil
}
