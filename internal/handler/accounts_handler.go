package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/service"
)

// AccountsHandler exposes the account REST endpoints.
type AccountsHandler struct {
	service *service.AccountsService
}

// NewAccountsHandler creates a new handler instance.
func NewAccountsHandler(service *service.AccountsService) *AccountsHandler {
	return &AccountsHandler{service: service}
}

// Create handles POST /api/accounts.
func (h *AccountsHandler) Create(c echo.Context) error {
	var input dto.AccountInput
	if err := c.Bind(&input); err != nil {
		return Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	account, err := h.service.Create(c.Request().Context(), input)
	if err != nil {
		return serviceError(c, err, "failed to create account")
	}
	return Success(c, http.StatusCreated, "account created", account)
}

// List handles GET /api/accounts.
func (h *AccountsHandler) List(c echo.Context) error {
	filter, err := parseListFilter(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	accounts, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return serviceError(c, err, "failed to list accounts")
	}
	return Success(c, http.StatusOK, "", accounts)
}

// Get handles GET /api/accounts/:id.
func (h *AccountsHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid account id")
	}

	account, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err, "failed to fetch account")
	}
	return Success(c, http.StatusOK, "", account)
}

// Update handles PUT /api/accounts/:id. Only the fields present in the body change.
func (h *AccountsHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid account id")
	}

	var patch dto.AccountPatch
	if err := c.Bind(&patch); err != nil {
		return Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	account, err := h.service.Update(c.Request().Context(), id, patch)
	if err != nil {
		return serviceError(c, err, "failed to update account")
	}
	return Success(c, http.StatusOK, "account updated", account)
}

// Delete handles DELETE /api/accounts/:id. Contacts of the account are removed with it.
func (h *AccountsHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid account id")
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return serviceError(c, err, "failed to delete account")
	}
	return c.NoContent(http.StatusNoContent)
}

// Contacts handles GET /api/accounts/:id/contacts.
func (h *AccountsHandler) Contacts(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid account id")
	}

	_, contacts, err := h.service.WithContacts(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err, "failed to list contacts")
	}
	return Success(c, http.StatusOK, "", contacts)
}

// Import handles POST /api/accounts/import with a multipart "file" field.
func (h *AccountsHandler) Import(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing csv file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	summary, err := h.service.ImportCSV(c.Request().Context(), file)
	if err != nil {
		return serviceError(c, err, "failed to process csv")
	}
	return Success(c, http.StatusOK, "accounts CSV processed", summary)
}
