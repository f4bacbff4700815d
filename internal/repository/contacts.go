package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/entity"
)

// ErrContactNotFound is returned when no contact matches the given id.
var ErrContactNotFound = errors.New("contact not found")

// ContactsRepository describes persistence operations for contacts.
type ContactsRepository interface {
	Create(ctx context.Context, input dto.ContactInput) (*entity.Contact, error)
	Get(ctx context.Context, id int64) (*entity.Contact, error)
	List(ctx context.Context, filter dto.ListFilter) ([]entity.Contact, error)
	ListByAccount(ctx context.Context, accountID int64) ([]entity.Contact, error)
	Update(ctx context.Context, id int64, patch dto.ContactPatch) (*entity.Contact, error)
	Delete(ctx context.Context, id int64) error
}

// PGXContactsRepository implements ContactsRepository using pgx.
type PGXContactsRepository struct {
	pool pgxPool
}

// NewPGXContactsRepository wires a pgx backed repository.
func NewPGXContactsRepository(pool *pgxpool.Pool) *PGXContactsRepository {
	return &PGXContactsRepository{pool: pool}
}

// contactSelect reads contacts from the relation c joined with their account name.
const contactSelect = `
        SELECT c.id, c.account_id, a.name, c.first_name, c.last_name, c.title,
               c.email, c.phone, c.linkedin, c.notes, c.created_at
        FROM %s c
        LEFT JOIN accounts a ON a.id = c.account_id`

var contactSortColumns = map[string]string{
	"created_at": "c.created_at",
	"last_name":  "LOWER(c.last_name)",
	"first_name": "LOWER(c.first_name)",
	"email":      "c.email",
	"id":         "c.id",
}

// Create inserts a contact. An account_id without a matching account yields ErrAccountNotFound.
func (r *PGXContactsRepository) Create(ctx context.Context, input dto.ContactInput) (*entity.Contact, error) {
	query := `
        WITH inserted AS (
            INSERT INTO contacts (account_id, first_name, last_name, title, email, phone, linkedin, notes)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING *
        )` + fmt.Sprintf(contactSelect, "inserted")

	row := r.pool.QueryRow(ctx, query,
		accountIDOrNil(input.AccountID),
		input.FirstName,
		input.LastName,
		stringOrNil(input.Title),
		stringOrNil(input.Email),
		stringOrNil(input.Phone),
		stringOrNil(input.LinkedIn),
		stringOrNil(input.Notes),
	)

	contact, err := scanContact(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrAccountNotFound, err)
		}
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	return contact, nil
}

// Get fetches a contact by id.
func (r *PGXContactsRepository) Get(ctx context.Context, id int64) (*entity.Contact, error) {
	query := fmt.Sprintf(contactSelect, "contacts") + ` WHERE c.id = $1`

	contact, err := scanContact(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("query contact by id: %w", err)
	}
	return contact, nil
}

// List returns one page of contacts, optionally restricted to one account.
func (r *PGXContactsRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.Contact, error) {
	column, ok := contactSortColumns[filter.Sort]
	if !ok {
		column = contactSortColumns["created_at"]
	}
	fallback := "ASC"
	if column == "c.created_at" {
		fallback = "DESC"
	}
	direction := orderDirection(filter.Order, fallback)

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = dto.DefaultPerPage
	}

	query := strings.Builder{}
	query.WriteString(fmt.Sprintf(contactSelect, "contacts"))

	args := make([]any, 0, 3)
	idx := 1
	if filter.AccountID != nil {
		query.WriteString(fmt.Sprintf(" WHERE c.account_id = $%d", idx))
		args = append(args, *filter.AccountID)
		idx++
	}
	query.WriteString(fmt.Sprintf(" ORDER BY %s %s NULLS LAST, c.id %s LIMIT $%d OFFSET $%d", column, direction, direction, idx, idx+1))
	args = append(args, perPage, filter.Offset())

	return r.query(ctx, query.String(), args...)
}

// ListByAccount returns every contact of an account ordered by last then first name.
func (r *PGXContactsRepository) ListByAccount(ctx context.Context, accountID int64) ([]entity.Contact, error) {
	query := fmt.Sprintf(contactSelect, "contacts") + ` WHERE c.account_id = $1 ORDER BY c.last_name, c.first_name, c.id`
	return r.query(ctx, query, accountID)
}

// Update patches the fields present in patch. An account_id of 0 detaches the contact.
func (r *PGXContactsRepository) Update(ctx context.Context, id int64, patch dto.ContactPatch) (*entity.Contact, error) {
	setClauses := make([]string, 0, 8)
	args := make([]any, 0, 9)
	idx := 1

	set := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	if patch.AccountID != nil {
		set("account_id", accountIDOrNil(patch.AccountID))
	}
	if patch.FirstName != nil {
		set("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		set("last_name", *patch.LastName)
	}
	if patch.Title != nil {
		set("title", stringOrNil(patch.Title))
	}
	if patch.Email != nil {
		set("email", stringOrNil(patch.Email))
	}
	if patch.Phone != nil {
		set("phone", stringOrNil(patch.Phone))
	}
	if patch.LinkedIn != nil {
		set("linkedin", stringOrNil(patch.LinkedIn))
	}
	if patch.Notes != nil {
		set("notes", stringOrNil(patch.Notes))
	}

	if len(setClauses) == 0 {
		return r.Get(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
        WITH updated AS (
            UPDATE contacts SET %s WHERE id = $%d RETURNING *
        )`, strings.Join(setClauses, ", "), idx) + fmt.Sprintf(contactSelect, "updated")

	contact, err := scanContact(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrAccountNotFound, err)
		}
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return contact, nil
}

// Delete removes a contact by id.
func (r *PGXContactsRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

func (r *PGXContactsRepository) query(ctx context.Context, query string, args ...any) ([]entity.Contact, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]entity.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact row: %w", err)
		}
		contacts = append(contacts, *contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

func scanContact(row pgx.Row) (*entity.Contact, error) {
	var (
		contact     entity.Contact
		accountID   sql.NullInt64
		accountName sql.NullString
		title       sql.NullString
		email       sql.NullString
		phone       sql.NullString
		linkedIn    sql.NullString
		notes       sql.NullString
	)
	err := row.Scan(
		&contact.ID,
		&accountID,
		&accountName,
		&contact.FirstName,
		&contact.LastName,
		&title,
		&email,
		&phone,
		&linkedIn,
		&notes,
		&contact.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	contact.AccountID = nullInt64ToPtr(accountID)
	contact.AccountName = nullStringToPtr(accountName)
	contact.Title = nullStringToPtr(title)
	contact.Email = nullStringToPtr(email)
	contact.Phone = nullStringToPtr(phone)
	contact.LinkedIn = nullStringToPtr(linkedIn)
	contact.Notes = nullStringToPtr(notes)
	return &contact, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
