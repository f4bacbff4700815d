package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/entity"
	"github.com/octobees/anycrm/internal/settings"
)

type memAccounts struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[int64]entity.Account
	lastList dto.ListFilter
	stateErr error
	states   []entity.AccountState
}

func newMemAccounts() *memAccounts {
	return &memAccounts{rows: make(map[int64]entity.Account)}
}

func (m *memAccounts) Create(ctx context.Context, input dto.AccountInput) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	account := entity.Account{
		ID:        m.nextID,
		Name:      input.Name,
		Industry:  emptyToNil(input.Industry),
		Website:   emptyToNil(input.Website),
		Notes:     emptyToNil(input.Notes),
		CreatedAt: time.Now(),
	}
	m.rows[account.ID] = account
	return &account, nil
}

func (m *memAccounts) BulkCreate(ctx context.Context, inputs []dto.AccountInput) (int, error) {
	for _, input := range inputs {
		if _, err := m.Create(ctx, input); err != nil {
			return 0, err
		}
	}
	return len(inputs), nil
}

func (m *memAccounts) Get(ctx context.Context, id int64) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.rows[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (m *memAccounts) List(ctx context.Context, filter dto.ListFilter) ([]entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = filter
	out := make([]entity.Account, 0, len(m.rows))
	for _, account := range m.rows {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memAccounts) Options(ctx context.Context) ([]entity.AccountOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.AccountOption, 0, len(m.rows))
	for _, account := range m.rows {
		out = append(out, entity.AccountOption{ID: account.ID, Name: account.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memAccounts) Update(ctx context.Context, id int64, patch dto.AccountPatch) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.rows[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if patch.Name != nil {
		account.Name = *patch.Name
	}
	if patch.Industry != nil {
		account.Industry = emptyToNil(patch.Industry)
	}
	if patch.Website != nil {
		account.Website = emptyToNil(patch.Website)
	}
	if patch.Notes != nil {
		account.Notes = emptyToNil(patch.Notes)
	}
	m.rows[id] = account
	return &account, nil
}

func (m *memAccounts) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrAccountNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memAccounts) SetState(ctx context.Context, id int64, state entity.AccountState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stateErr != nil {
		return m.stateErr
	}
	account, ok := m.rows[id]
	if !ok {
		return ErrAccountNotFound
	}
	account.State = state
	m.rows[id] = account
	m.states = append(m.states, state)
	return nil
}

func (m *memAccounts) state(id int64) entity.AccountState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].State
}

type memContacts struct {
	created  []dto.ContactInput
	patches  []dto.ContactPatch
	lastList dto.ListFilter
	byAcct   map[int64][]entity.Contact
}

func (m *memContacts) Create(ctx context.Context, input dto.ContactInput) (*entity.Contact, error) {
	m.created = append(m.created, input)
	return &entity.Contact{
		ID:        int64(len(m.created)),
		AccountID: input.AccountID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     emptyToNil(input.Email),
		Phone:     emptyToNil(input.Phone),
		LinkedIn:  emptyToNil(input.LinkedIn),
	}, nil
}

func (m *memContacts) Get(ctx context.Context, id int64) (*entity.Contact, error) {
	if id > int64(len(m.created)) || id <= 0 {
		return nil, ErrContactNotFound
	}
	input := m.created[id-1]
	return &entity.Contact{ID: id, FirstName: input.FirstName, LastName: input.LastName}, nil
}

func (m *memContacts) List(ctx context.Context, filter dto.ListFilter) ([]entity.Contact, error) {
	m.lastList = filter
	return []entity.Contact{}, nil
}

func (m *memContacts) ListByAccount(ctx context.Context, accountID int64) ([]entity.Contact, error) {
	return m.byAcct[accountID], nil
}

func (m *memContacts) Update(ctx context.Context, id int64, patch dto.ContactPatch) (*entity.Contact, error) {
	m.patches = append(m.patches, patch)
	return m.Get(ctx, id)
}

func (m *memContacts) Delete(ctx context.Context, id int64) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	return nil
}

type staticSettings settings.Settings

func (s staticSettings) Get() settings.Settings { return settings.Settings(s) }

type fakeAgent struct {
	calls   []dto.AgentRunRequest
	baseURL string
	apiKey  string
	err     error
	onRun   func()
}

func (f *fakeAgent) Run(ctx context.Context, baseURL, apiKey string, req dto.AgentRunRequest) error {
	f.calls = append(f.calls, req)
	f.baseURL = baseURL
	f.apiKey = apiKey
	if f.onRun != nil {
		f.onRun()
	}
	return f.err
}

type fakeNotifier struct {
	events []any
	ids    []int64
}

func (f *fakeNotifier) Broadcast(ctx context.Context, accountID int64, msg any) {
	f.ids = append(f.ids, accountID)
	f.events = append(f.events, msg)
}

func emptyToNil(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	v := *value
	return &v
}

func strPtr(value string) *string { return &value }
