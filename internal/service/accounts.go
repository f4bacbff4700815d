package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/entity"
	"github.com/octobees/anycrm/internal/repository"
)

// AccountsService exposes read/write operations for accounts.
type AccountsService struct {
	repo       repository.AccountsRepository
	contacts   repository.ContactsRepository
	normalizer *Normalizer
}

// CSVValidationError indicates that an uploaded CSV payload is invalid.
type CSVValidationError struct {
	Message string
}

// Error implements the error interface.
func (e CSVValidationError) Error() string {
	return e.Message
}

// ImportSummary reports how many accounts an import created.
type ImportSummary struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// NewAccountsService creates a new instance of AccountsService.
func NewAccountsService(repo repository.AccountsRepository, contacts repository.ContactsRepository, normalizer *Normalizer) *AccountsService {
	if normalizer == nil {
		normalizer = NewNormalizer("")
	}
	return &AccountsService{repo: repo, contacts: contacts, normalizer: normalizer}
}

// Create validates and stores a new account in the idle state.
func (s *AccountsService) Create(ctx context.Context, input dto.AccountInput) (*entity.Account, error) {
	cleaned, err := s.cleanInput(input)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, cleaned)
}

// Get returns one account.
func (s *AccountsService) Get(ctx context.Context, id int64) (*entity.Account, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of accounts.
func (s *AccountsService) List(ctx context.Context, filter dto.ListFilter) ([]entity.Account, error) {
	filter.AccountID = nil
	normalized, err := normalizeListFilter(filter, dto.AccountSortFields)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, normalized)
}

// Options returns every account as an id and name pair ordered by name.
func (s *AccountsService) Options(ctx context.Context) ([]entity.AccountOption, error) {
	return s.repo.Options(ctx)
}

// Update applies a partial update. An empty patch returns the current record.
func (s *AccountsService) Update(ctx context.Context, id int64, patch dto.AccountPatch) (*entity.Account, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalid("name", "cannot be empty")
		}
		patch.Name = &name
	}
	patch.Industry = trimmed(patch.Industry)
	patch.Notes = trimmed(patch.Notes)
	if patch.Website != nil {
		website, err := s.normalizer.Website(*patch.Website)
		if err != nil {
			return nil, invalid("website", err.Error())
		}
		patch.Website = &website
	}
	return s.repo.Update(ctx, id, patch)
}

// Replace overwrites every writable field; omitted optional fields are cleared.
func (s *AccountsService) Replace(ctx context.Context, id int64, input dto.AccountInput) (*entity.Account, error) {
	cleaned, err := s.cleanInput(input)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, dto.AccountPatch{
		Name:     &cleaned.Name,
		Industry: orEmpty(cleaned.Industry),
		Website:  orEmpty(cleaned.Website),
		Notes:    orEmpty(cleaned.Notes),
	})
}

// Delete removes an account and, through the foreign key, its contacts.
func (s *AccountsService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// WithContacts returns an account and its contacts ordered by name.
func (s *AccountsService) WithContacts(ctx context.Context, id int64) (*entity.Account, []entity.Contact, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	contacts, err := s.contacts.ListByAccount(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return account, contacts, nil
}

var requiredCSVHeaders = []string{"name"}

var optionalCSVHeaders = []string{"industry", "website", "notes"}

// ImportCSV creates one account per CSV row. Rows without a name are skipped;
// a row with an invalid website rejects the whole file.
func (s *AccountsService) ImportCSV(ctx context.Context, r io.Reader) (ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ImportSummary{}, CSVValidationError{Message: "csv file is empty"}
		}
		return ImportSummary{}, fmt.Errorf("read csv header: %w", err)
	}

	indexMap, valErr := buildHeaderIndex(header)
	if valErr != nil {
		return ImportSummary{}, valErr
	}

	var (
		records []dto.AccountInput
		summary ImportSummary
		rowNum  = 1
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ImportSummary{}, fmt.Errorf("read csv row: %w", err)
		}
		rowNum++

		input := dto.AccountInput{
			Name:     column(row, indexMap, "name"),
			Industry: normalizeString(column(row, indexMap, "industry")),
			Website:  normalizeString(column(row, indexMap, "website")),
			Notes:    normalizeString(column(row, indexMap, "notes")),
		}
		if strings.TrimSpace(input.Name) == "" {
			summary.Skipped++
			continue
		}

		cleaned, err := s.cleanInput(input)
		if err != nil {
			return ImportSummary{}, CSVValidationError{Message: fmt.Sprintf("row %d: %v", rowNum, err)}
		}
		records = append(records, cleaned)
	}

	inserted, err := s.repo.BulkCreate(ctx, records)
	if err != nil {
		return ImportSummary{}, err
	}
	summary.Inserted = inserted
	return summary, nil
}

func (s *AccountsService) cleanInput(input dto.AccountInput) (dto.AccountInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, invalid("name", "is required")
	}
	input.Industry = trimmed(input.Industry)
	input.Notes = trimmed(input.Notes)
	if input.Website != nil {
		website, err := s.normalizer.Website(*input.Website)
		if err != nil {
			return input, invalid("website", err.Error())
		}
		input.Website = &website
	}
	return input, nil
}

func buildHeaderIndex(header []string) (map[string]int, error) {
	index := make(map[string]int)
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}

	missing := make([]string, 0)
	for _, required := range requiredCSVHeaders {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, CSVValidationError{Message: fmt.Sprintf("missing required columns: %s (optional: %s)",
			strings.Join(missing, ", "), strings.Join(optionalCSVHeaders, ", "))}
	}
	return index, nil
}

func column(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func normalizeString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// trimmed trims a present value, keeping nil as nil.
func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}

// orEmpty turns nil into a pointer to "" so that a full update clears the column.
func orEmpty(value *string) *string {
	if value == nil {
		empty := ""
		return &empty
	}
	return value
}
