package service

import (
	"context"
	"strings"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/entity"
	"github.com/octobees/anycrm/internal/repository"
)

// ContactsService exposes read/write operations for contacts.
type ContactsService struct {
	repo       repository.ContactsRepository
	normalizer *Normalizer
}

// NewContactsService creates a new instance of ContactsService.
func NewContactsService(repo repository.ContactsRepository, normalizer *Normalizer) *ContactsService {
	if normalizer == nil {
		normalizer = NewNormalizer("")
	}
	return &ContactsService{repo: repo, normalizer: normalizer}
}

// Create validates and stores a contact.
func (s *ContactsService) Create(ctx context.Context, input dto.ContactInput) (*entity.Contact, error) {
	cleaned, err := s.cleanInput(input)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, cleaned)
}

// Get returns one contact with its account name.
func (s *ContactsService) Get(ctx context.Context, id int64) (*entity.Contact, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of contacts, optionally for a single account.
func (s *ContactsService) List(ctx context.Context, filter dto.ListFilter) ([]entity.Contact, error) {
	normalized, err := normalizeListFilter(filter, dto.ContactSortFields)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, normalized)
}

// Update applies a partial update. An empty patch returns the current record.
func (s *ContactsService) Update(ctx context.Context, id int64, patch dto.ContactPatch) (*entity.Contact, error) {
	if patch.AccountID != nil && *patch.AccountID < 0 {
		return nil, invalid("account_id", "must be a positive integer")
	}
	var err error
	if patch.FirstName, err = requiredPatch(patch.FirstName, "first_name"); err != nil {
		return nil, err
	}
	if patch.LastName, err = requiredPatch(patch.LastName, "last_name"); err != nil {
		return nil, err
	}
	patch.Title = trimmed(patch.Title)
	patch.Notes = trimmed(patch.Notes)

	if patch.Email, err = normalizeOptional(patch.Email, "email", s.normalizer.Email); err != nil {
		return nil, err
	}
	if patch.Phone, err = normalizeOptional(patch.Phone, "phone", s.normalizer.Phone); err != nil {
		return nil, err
	}
	if patch.LinkedIn, err = normalizeOptional(patch.LinkedIn, "linkedin", s.normalizer.LinkedIn); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, patch)
}

// Replace overwrites every writable field; omitted optional fields are cleared
// and a missing account_id detaches the contact.
func (s *ContactsService) Replace(ctx context.Context, id int64, input dto.ContactInput) (*entity.Contact, error) {
	cleaned, err := s.cleanInput(input)
	if err != nil {
		return nil, err
	}
	accountID := int64(0)
	if cleaned.AccountID != nil {
		accountID = *cleaned.AccountID
	}
	return s.repo.Update(ctx, id, dto.ContactPatch{
		AccountID: &accountID,
		FirstName: &cleaned.FirstName,
		LastName:  &cleaned.LastName,
		Title:     orEmpty(cleaned.Title),
		Email:     orEmpty(cleaned.Email),
		Phone:     orEmpty(cleaned.Phone),
		LinkedIn:  orEmpty(cleaned.LinkedIn),
		Notes:     orEmpty(cleaned.Notes),
	})
}

// Delete removes a contact.
func (s *ContactsService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *ContactsService) cleanInput(input dto.ContactInput) (dto.ContactInput, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if input.FirstName == "" {
		return input, invalid("first_name", "is required")
	}
	if input.LastName == "" {
		return input, invalid("last_name", "is required")
	}
	if input.AccountID != nil {
		switch {
		case *input.AccountID < 0:
			return input, invalid("account_id", "must be a positive integer")
		case *input.AccountID == 0:
			input.AccountID = nil
		}
	}
	input.Title = trimmed(input.Title)
	input.Notes = trimmed(input.Notes)

	var err error
	if input.Email, err = normalizeOptional(input.Email, "email", s.normalizer.Email); err != nil {
		return input, err
	}
	if input.Phone, err = normalizeOptional(input.Phone, "phone", s.normalizer.Phone); err != nil {
		return input, err
	}
	if input.LinkedIn, err = normalizeOptional(input.LinkedIn, "linkedin", s.normalizer.LinkedIn); err != nil {
		return input, err
	}
	return input, nil
}

func normalizeOptional(value *string, field string, normalize func(string) (string, error)) (*string, error) {
	if value == nil {
		return nil, nil
	}
	out, err := normalize(*value)
	if err != nil {
		return nil, invalid(field, err.Error())
	}
	return &out, nil
}

// requiredPatch trims a present value and rejects it when blank.
func requiredPatch(value *string, field string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil, invalid(field, "cannot be empty")
	}
	return &v, nil
}
