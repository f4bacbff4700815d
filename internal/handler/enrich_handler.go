package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/anycrm/internal/agent"
	"github.com/octobees/anycrm/internal/metrics"
	"github.com/octobees/anycrm/internal/service"
)

const (
	// Event type headers, in lookup order.
	headerEventType      = "event-type"
	headerAgentEventType = "aq-event-type"

	maxWebhookBody = 1 << 20

	messageNotConfigured = "AnyQuest API key not configured. Please configure in Settings."
)

// EnrichHandler starts enrichment runs and receives the agent callbacks.
type EnrichHandler struct {
	service *service.EnrichmentService
}

// NewEnrichHandler wires a new EnrichHandler instance.
func NewEnrichHandler(service *service.EnrichmentService) *EnrichHandler {
	return &EnrichHandler{service: service}
}

// Enrich handles POST /accounts/:id/enrich. The optional form field
// "instructions" is forwarded to the agent.
func (h *EnrichHandler) Enrich(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid account id")
	}

	ctx := agent.WithRequestID(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID))
	err = h.service.RequestEnrichment(ctx, id, c.FormValue("instructions"))
	switch {
	case err == nil:
		metrics.RecordEnrichment("ok")
		return Success(c, http.StatusOK, "Enrichment started", nil)
	case errors.Is(err, service.ErrAgentNotConfigured):
		metrics.RecordEnrichment("not_configured")
		return Error(c, http.StatusBadRequest, messageNotConfigured)
	case errors.Is(err, service.ErrAccountNotFound):
		metrics.RecordEnrichment("not_found")
		return Error(c, http.StatusNotFound, "Account not found")
	case errors.Is(err, service.ErrAgentRequestFailed):
		metrics.RecordEnrichment("upstream_error")
		return Error(c, http.StatusBadGateway, err.Error())
	default:
		metrics.RecordEnrichment("error")
		c.Logger().Errorf("enrichment request failed: %v", err)
		return Error(c, http.StatusInternalServerError, "failed to start enrichment")
	}
}

// Webhook handles POST /webhook/:id, the callback registered with the agent.
// Callbacks are acknowledged even for unknown accounts.
func (h *EnrichHandler) Webhook(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid account id")
	}

	eventType := c.Request().Header.Get(headerEventType)
	if eventType == "" {
		eventType = c.Request().Header.Get(headerAgentEventType)
	}
	metrics.RecordWebhook(eventType)

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to read body")
	}
	if len(body) > maxWebhookBody {
		return Error(c, http.StatusRequestEntityTooLarge, "webhook body too large")
	}

	if err := h.service.HandleCallback(c.Request().Context(), id, eventType, body); err != nil {
		c.Logger().Errorf("webhook for account %d failed: %v", id, err)
		return Error(c, http.StatusInternalServerError, "failed to process webhook")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "received"})
}
