// Package repotest provides in-memory repositories for tests of the layers
// above the database.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/entity"
	"github.com/octobees/anycrm/internal/repository"
)

// Store keeps accounts and contacts in memory with the same foreign key
// behaviour as the SQL schema.
type Store struct {
	mu          sync.Mutex
	nextAccount int64
	nextContact int64
	accounts    map[int64]entity.Account
	contacts    map[int64]entity.Contact
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]entity.Account),
		contacts: make(map[int64]entity.Contact),
	}
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() *Accounts { return &Accounts{s: s} }

// Contacts returns the contact repository view of the store.
func (s *Store) Contacts() *Contacts { return &Contacts{s: s} }

// Accounts implements repository.AccountsRepository.
type Accounts struct{ s *Store }

// Contacts implements repository.ContactsRepository.
type Contacts struct{ s *Store }

var (
	_ repository.AccountsRepository = (*Accounts)(nil)
	_ repository.ContactsRepository = (*Contacts)(nil)
)

func (r *Accounts) Create(ctx context.Context, input dto.AccountInput) (*entity.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextAccount++
	account := entity.Account{
		ID:        r.s.nextAccount,
		Name:      input.Name,
		Industry:  nullable(input.Industry),
		Website:   nullable(input.Website),
		Notes:     nullable(input.Notes),
		CreatedAt: time.Now().Add(time.Duration(r.s.nextAccount) * time.Millisecond),
	}
	r.s.accounts[account.ID] = account
	return &account, nil
}

func (r *Accounts) BulkCreate(ctx context.Context, inputs []dto.AccountInput) (int, error) {
	for _, input := range inputs {
		if _, err := r.Create(ctx, input); err != nil {
			return 0, err
		}
	}
	return len(inputs), nil
}

func (r *Accounts) Get(ctx context.Context, id int64) (*entity.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return &account, nil
}

func (r *Accounts) List(ctx context.Context, filter dto.ListFilter) ([]entity.Account, error) {
	r.s.mu.Lock()
	out := make([]entity.Account, 0, len(r.s.accounts))
	for _, account := range r.s.accounts {
		out = append(out, account)
	}
	r.s.mu.Unlock()

	less := func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) }
	if filter.Sort == "name" {
		less = func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) }
	}
	sortPage(len(out), less, func(i, j int) { out[i], out[j] = out[j], out[i] }, filter)
	return paginate(out, filter), nil
}

func (r *Accounts) Options(ctx context.Context) ([]entity.AccountOption, error) {
	r.s.mu.Lock()
	out := make([]entity.AccountOption, 0, len(r.s.accounts))
	for _, account := range r.s.accounts {
		out = append(out, entity.AccountOption{ID: account.ID, Name: account.Name})
	}
	r.s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Accounts) Update(ctx context.Context, id int64, patch dto.AccountPatch) (*entity.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	if patch.Name != nil {
		account.Name = *patch.Name
	}
	if patch.Industry != nil {
		account.Industry = nullable(patch.Industry)
	}
	if patch.Website != nil {
		account.Website = nullable(patch.Website)
	}
	if patch.Notes != nil {
		account.Notes = nullable(patch.Notes)
	}
	r.s.accounts[id] = account
	return &account, nil
}

func (r *Accounts) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(r.s.accounts, id)
	for cid, contact := range r.s.contacts {
		if contact.AccountID != nil && *contact.AccountID == id {
			delete(r.s.contacts, cid)
		}
	}
	return nil
}

func (r *Accounts) SetState(ctx context.Context, id int64, state entity.AccountState) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	account.State = state
	r.s.accounts[id] = account
	return nil
}

func (r *Contacts) Create(ctx context.Context, input dto.ContactInput) (*entity.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	accountID, err := r.s.checkAccount(input.AccountID)
	if err != nil {
		return nil, err
	}
	r.s.nextContact++
	contact := entity.Contact{
		ID:        r.s.nextContact,
		AccountID: accountID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Title:     nullable(input.Title),
		Email:     nullable(input.Email),
		Phone:     nullable(input.Phone),
		LinkedIn:  nullable(input.LinkedIn),
		Notes:     nullable(input.Notes),
		CreatedAt: time.Now().Add(time.Duration(r.s.nextContact) * time.Millisecond),
	}
	r.s.contacts[contact.ID] = contact
	return r.s.joined(contact), nil
}

func (r *Contacts) Get(ctx context.Context, id int64) (*entity.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	contact, ok := r.s.contacts[id]
	if !ok {
		return nil, repository.ErrContactNotFound
	}
	return r.s.joined(contact), nil
}

func (r *Contacts) List(ctx context.Context, filter dto.ListFilter) ([]entity.Contact, error) {
	r.s.mu.Lock()
	out := make([]entity.Contact, 0, len(r.s.contacts))
	for _, contact := range r.s.contacts {
		if filter.AccountID != nil && (contact.AccountID == nil || *contact.AccountID != *filter.AccountID) {
			continue
		}
		out = append(out, *r.s.joined(contact))
	}
	r.s.mu.Unlock()

	less := func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) }
	if filter.Sort == "last_name" {
		less = func(i, j int) bool { return strings.ToLower(out[i].LastName) < strings.ToLower(out[j].LastName) }
	}
	sortPage(len(out), less, func(i, j int) { out[i], out[j] = out[j], out[i] }, filter)
	return paginate(out, filter), nil
}

func (r *Contacts) ListByAccount(ctx context.Context, accountID int64) ([]entity.Contact, error) {
	r.s.mu.Lock()
	out := make([]entity.Contact, 0)
	for _, contact := range r.s.contacts {
		if contact.AccountID != nil && *contact.AccountID == accountID {
			out = append(out, *r.s.joined(contact))
		}
	}
	r.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (r *Contacts) Update(ctx context.Context, id int64, patch dto.ContactPatch) (*entity.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	contact, ok := r.s.contacts[id]
	if !ok {
		return nil, repository.ErrContactNotFound
	}
	if patch.AccountID != nil {
		accountID, err := r.s.checkAccount(patch.AccountID)
		if err != nil {
			return nil, err
		}
		contact.AccountID = accountID
	}
	if patch.FirstName != nil {
		contact.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		contact.LastName = *patch.LastName
	}
	for _, field := range []struct {
		dst **string
		src *string
	}{
		{&contact.Title, patch.Title},
		{&contact.Email, patch.Email},
		{&contact.Phone, patch.Phone},
		{&contact.LinkedIn, patch.LinkedIn},
		{&contact.Notes, patch.Notes},
	} {
		if field.src != nil {
			*field.dst = nullable(field.src)
		}
	}
	r.s.contacts[id] = contact
	return r.s.joined(contact), nil
}

func (r *Contacts) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contacts[id]; !ok {
		return repository.ErrContactNotFound
	}
	delete(r.s.contacts, id)
	return nil
}

// checkAccount mirrors the foreign key: 0 or nil detaches, a missing id fails.
func (s *Store) checkAccount(id *int64) (*int64, error) {
	if id == nil || *id <= 0 {
		return nil, nil
	}
	if _, ok := s.accounts[*id]; !ok {
		return nil, repository.ErrAccountNotFound
	}
	v := *id
	return &v, nil
}

func (s *Store) joined(contact entity.Contact) *entity.Contact {
	contact.AccountName = nil
	if contact.AccountID != nil {
		if account, ok := s.accounts[*contact.AccountID]; ok {
			name := account.Name
			contact.AccountName = &name
		}
	}
	return &contact
}

func sortPage(n int, less func(i, j int) bool, swap func(i, j int), filter dto.ListFilter) {
	desc := filter.Order == "desc"
	sort.Sort(sorter{n: n, less: func(i, j int) bool {
		if desc {
			return less(j, i)
		}
		return less(i, j)
	}, swap: swap})
}

type sorter struct {
	n    int
	less func(i, j int) bool
	swap func(i, j int)
}

func (s sorter) Len() int           { return s.n }
func (s sorter) Less(i, j int) bool { return s.less(i, j) }
func (s sorter) Swap(i, j int)      { s.swap(i, j) }

func paginate[T any](items []T, filter dto.ListFilter) []T {
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = dto.DefaultPerPage
	}
	start := filter.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func nullable(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	v := *value
	return &v
}
