package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/entity"
	"github.com/octobees/anycrm/internal/service"
	"github.com/octobees/anycrm/internal/settings"
)

const pageSize = 50

// SettingsStore reads and replaces the runtime settings.
type SettingsStore interface {
	settings.Provider
	Update(next settings.Settings) (settings.Settings, error)
}

// Handlers contains the HTML pages of the UI.
type Handlers struct {
	accounts *service.AccountsService
	contacts *service.ContactsService
	settings SettingsStore
	logger   *slog.Logger
}

// NewHandlers wires the UI handlers.
func NewHandlers(accounts *service.AccountsService, contacts *service.ContactsService, store SettingsStore, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		accounts: accounts,
		contacts: contacts,
		settings: store,
		logger:   logger.With("component", "web"),
	}
}

// Home handles GET /.
func (h *Handlers) Home(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/accounts")
}

// Accounts handles GET /accounts, newest first.
func (h *Handlers) Accounts(c echo.Context) error {
	page := pageParam(c)
	accounts, err := h.accounts.List(c.Request().Context(), dto.ListFilter{Page: page, PerPage: pageSize})
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Render(http.StatusOK, "accounts", AccountsPageData{
		PageData: PageData{Title: "Accounts", Nav: "accounts"},
		Accounts: accounts,
		Page:     page,
		HasNext:  len(accounts) == pageSize,
	})
}

// AccountDetail handles GET /accounts/:id.
func (h *Handlers) AccountDetail(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return h.renderError(c, err)
	}
	account, contacts, err := h.accounts.WithContacts(c.Request().Context(), id)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Render(http.StatusOK, "account_detail", AccountDetailPageData{
		PageData: PageData{Title: account.Name, Nav: "accounts"},
		Account:  account,
		Contacts: contacts,
	})
}

// NewAccount handles GET /accounts/new.
func (h *Handlers) NewAccount(c echo.Context) error {
	return h.renderAccountForm(c, http.StatusOK, nil, "/accounts/create", "")
}

// CreateAccount handles POST /accounts/create.
func (h *Handlers) CreateAccount(c echo.Context) error {
	input := accountForm(c)
	if _, err := h.accounts.Create(c.Request().Context(), input); err != nil {
		return h.accountFormError(c, err, formAccount(0, input), "/accounts/create")
	}
	return c.Redirect(http.StatusSeeOther, "/accounts")
}

// EditAccount handles GET /accounts/:id/edit.
func (h *Handlers) EditAccount(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return h.renderError(c, err)
	}
	account, err := h.accounts.Get(c.Request().Context(), id)
	if err != nil {
		return h.renderError(c, err)
	}
	return h.renderAccountForm(c, http.StatusOK, account, fmt.Sprintf("/accounts/%d/update", id), "")
}

// UpdateAccount handles POST /accounts/:id/update.
func (h *Handlers) UpdateAccount(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return h.renderError(c, err)
	}
	input := accountForm(c)
	if _, err := h.accounts.Replace(c.Request().Context(), id, input); err != nil {
		return h.accountFormError(c, err, formAccount(id, input), fmt.Sprintf("/accounts/%d/update", id))
	}
	return c.Redirect(http.StatusSeeOther, "/accounts")
}

// DeleteAccount handles POST /accounts/:id/delete.
func (h *Handlers) DeleteAccount(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return h.renderError(c, err)
	}
	if err := h.accounts.Delete(c.Request().Context(), id); err != nil && !errors.Is(err, service.ErrAccountNotFound) {
		return h.renderError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/accounts")
}

// Contacts handles GET /contacts, newest first.
func (h *Handlers) Contacts(c echo.Context) error {
	page := pageParam(c)
	contacts, err := h.contacts.List(c.Request().Context(), dto.ListFilter{Page: page, PerPage: pageSize})
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Render(http.StatusOK, "contacts", ContactsPageData{
		PageData: PageData{Title: "Contacts", Nav: "contacts"},
		Contacts: contacts,
		Page:     page,
		HasNext:  len(contacts) == pageSize,
	})
}

// NewContact handles GET /contacts/new. An account_id query parameter
// preselects the account.
func (h *Handlers) NewContact(c echo.Context) error {
	contact := &entity.Contact{}
	if id, err := strconv.ParseInt(c.QueryParam("account_id"), 10, 64); err == nil && id > 0 {
		contact.AccountID = &id
	}
	return h.renderContactForm(c, http.StatusOK, contact, "/contacts/create", "")
}

// CreateContact handles POST /contacts/create.
func (h *Handlers) CreateContact(c echo.Context) error {
	input, err := contactForm(c)
	if err == nil {
		_, err = h.contacts.Create(c.Request().Context(), input)
	}
	if err != nil {
		return h.contactFormError(c, err, formContact(0, input), "/contacts/create")
	}
	return c.Redirect(http.StatusSeeOther, "/contacts")
}

// EditContact handles GET /contacts/:id/edit.
func (h *Handlers) EditContact(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return h.renderError(c, err)
	}
	contact, err := h.contacts.Get(c.Request().Context(), id)
	if err != nil {
		return h.renderError(c, err)
	}
	return h.renderContactForm(c, http.StatusOK, contact, fmt.Sprintf("/contacts/%d/update", id), "")
}

// UpdateContact handles POST /contacts/:id/update.
func (h *Handlers) UpdateContact(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return h.renderError(c, err)
	}
	input, err := contactForm(c)
	if err == nil {
		_, err = h.contacts.Replace(c.Request().Context(), id, input)
	}
	if err != nil {
		return h.contactFormError(c, err, formContact(id, input), fmt.Sprintf("/contacts/%d/update", id))
	}
	return c.Redirect(http.StatusSeeOther, "/contacts")
}

// DeleteContact handles POST /contacts/:id/delete.
func (h *Handlers) DeleteContact(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return h.renderError(c, err)
	}
	if err := h.contacts.Delete(c.Request().Context(), id); err != nil && !errors.Is(err, service.ErrContactNotFound) {
		return h.renderError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/contacts")
}

// Settings handles GET /settings.
func (h *Handlers) Settings(c echo.Context) error {
	current := h.settings.Get()
	return c.Render(http.StatusOK, "settings", SettingsPageData{
		PageData:    PageData{Title: "Settings", Nav: "settings"},
		APIKey:      current.APIKey,
		BaseURL:     current.BaseURL,
		AgentAPIKey: current.AgentAPIKey,
		AgentAPIURL: current.AgentAPIURL,
		Saved:       c.QueryParam("saved") == "1",
	})
}

// SaveSettings handles POST /settings/save. An empty API key field generates
// a new key.
func (h *Handlers) SaveSettings(c echo.Context) error {
	_, err := h.settings.Update(settings.Settings{
		APIKey:      c.FormValue("api_key"),
		BaseURL:     c.FormValue("base_url"),
		AgentAPIKey: c.FormValue("agent_api_key"),
		AgentAPIURL: c.FormValue("agent_api_url"),
	})
	if err != nil {
		h.logger.Error("save settings failed", "error", err)
		return h.renderError(c, err)
	}
	h.logger.Info("settings updated")
	return c.Redirect(http.StatusSeeOther, "/settings?saved=1")
}

func (h *Handlers) renderAccountForm(c echo.Context, status int, account *entity.Account, action, message string) error {
	title := "New account"
	if account != nil && account.ID != 0 {
		title = "Edit " + account.Name
	}
	return c.Render(status, "account_form", AccountFormPageData{
		PageData:   PageData{Title: title, Nav: "accounts", Error: message},
		Account:    account,
		Action:     action,
		Industries: entity.Industries,
	})
}

func (h *Handlers) accountFormError(c echo.Context, err error, account *entity.Account, action string) error {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return h.renderAccountForm(c, http.StatusBadRequest, account, action, validationErr.Error())
	}
	return h.renderError(c, err)
}

func (h *Handlers) renderContactForm(c echo.Context, status int, contact *entity.Contact, action, message string) error {
	accounts, err := h.accounts.Options(c.Request().Context())
	if err != nil {
		return h.renderError(c, err)
	}
	title := "New contact"
	if contact != nil && contact.ID != 0 {
		title = "Edit " + contact.FullName()
	}
	return c.Render(status, "contact_form", ContactFormPageData{
		PageData: PageData{Title: title, Nav: "contacts", Error: message},
		Contact:  contact,
		Accounts: accounts,
		Action:   action,
	})
}

func (h *Handlers) contactFormError(c echo.Context, err error, contact *entity.Contact, action string) error {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return h.renderContactForm(c, http.StatusBadRequest, contact, action, validationErr.Error())
	case errors.Is(err, service.ErrAccountNotFound):
		return h.renderContactForm(c, http.StatusBadRequest, contact, action, "account: account not found")
	}
	return h.renderError(c, err)
}

func (h *Handlers) renderError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "Something went wrong"
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		status, message = http.StatusBadRequest, validationErr.Error()
	case errors.Is(err, errBadID):
		status, message = http.StatusBadRequest, "Invalid id"
	case errors.Is(err, service.ErrAccountNotFound):
		status, message = http.StatusNotFound, "Account not found"
	case errors.Is(err, service.ErrContactNotFound):
		status, message = http.StatusNotFound, "Contact not found"
	default:
		h.logger.Error("page failed", "path", c.Request().URL.Path, "error", err)
	}
	return c.Render(status, "error", ErrorPageData{
		PageData:   PageData{Title: fmt.Sprintf("Error %d", status)},
		StatusCode: status,
		Message:    message,
	})
}

var errBadID = errors.New("invalid id")

func idParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// pageParam reads the page query parameter, falling back to 1.
func pageParam(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func accountForm(c echo.Context) dto.AccountInput {
	return dto.AccountInput{
		Name:     c.FormValue("name"),
		Industry: optionalField(c, "industry"),
		Website:  optionalField(c, "website"),
		Notes:    optionalField(c, "notes"),
	}
}

// contactForm reads the contact form. An empty account selection detaches.
func contactForm(c echo.Context) (dto.ContactInput, error) {
	input := dto.ContactInput{
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Title:     optionalField(c, "title"),
		Email:     optionalField(c, "email"),
		Phone:     optionalField(c, "phone"),
		LinkedIn:  optionalField(c, "linkedin"),
		Notes:     optionalField(c, "notes"),
	}
	if raw := strings.TrimSpace(c.FormValue("account_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return input, &service.ValidationError{Field: "account_id", Message: "must be a positive integer"}
		}
		input.AccountID = &id
	}
	return input, nil
}

func optionalField(c echo.Context, name string) *string {
	value := strings.TrimSpace(c.FormValue(name))
	if value == "" {
		return nil
	}
	return &value
}

// formAccount echoes submitted values back into a re-rendered form.
func formAccount(id int64, input dto.AccountInput) *entity.Account {
	return &entity.Account{ID: id, Name: input.Name, Industry: input.Industry, Website: input.Website, Notes: input.Notes}
}

func formContact(id int64, input dto.ContactInput) *entity.Contact {
	return &entity.Contact{
		ID:        id,
		AccountID: input.AccountID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Title:     input.Title,
		Email:     input.Email,
		Phone:     input.Phone,
		LinkedIn:  input.LinkedIn,
		Notes:     input.Notes,
	}
}
