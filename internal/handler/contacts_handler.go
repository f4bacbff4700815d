package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/service"
)

// ContactsHandler exposes the contact REST endpoints.
type ContactsHandler struct {
	service *service.ContactsService
}

// NewContactsHandler creates a new handler instance.
func NewContactsHandler(service *service.ContactsService) *ContactsHandler {
	return &ContactsHandler{service: service}
}

// Create handles POST /api/contacts.
func (h *ContactsHandler) Create(c echo.Context) error {
	var input dto.ContactInput
	if err := c.Bind(&input); err != nil {
		return Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	contact, err := h.service.Create(c.Request().Context(), input)
	if err != nil {
		return contactError(c, err, "failed to create contact")
	}
	return Success(c, http.StatusCreated, "contact created", contact)
}

// List handles GET /api/contacts, optionally filtered by account_id.
func (h *ContactsHandler) List(c echo.Context) error {
	filter, err := parseListFilter(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	contacts, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return serviceError(c, err, "failed to list contacts")
	}
	return Success(c, http.StatusOK, "", contacts)
}

// Get handles GET /api/contacts/:id.
func (h *ContactsHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid contact id")
	}

	contact, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err, "failed to fetch contact")
	}
	return Success(c, http.StatusOK, "", contact)
}

// Update handles PUT /api/contacts/:id. Only the fields present in the body change.
func (h *ContactsHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid contact id")
	}

	var patch dto.ContactPatch
	if err := c.Bind(&patch); err != nil {
		return Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	contact, err := h.service.Update(c.Request().Context(), id, patch)
	if err != nil {
		return contactError(c, err, "failed to update contact")
	}
	return Success(c, http.StatusOK, "contact updated", contact)
}

// Delete handles DELETE /api/contacts/:id.
func (h *ContactsHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid contact id")
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return serviceError(c, err, "failed to delete contact")
	}
	return c.NoContent(http.StatusNoContent)
}

// contactError treats a missing account on a contact write as bad input
// rather than a missing resource.
func contactError(c echo.Context, err error, fallback string) error {
	if errors.Is(err, service.ErrAccountNotFound) {
		return Error(c, http.StatusBadRequest, "account_id: account not found")
	}
	return serviceError(c, err, fallback)
}
