package router

import (
	"github.com/labstack/echo/v4"

	"github.com/octobees/anycrm/internal/config"
	"github.com/octobees/anycrm/internal/handler"
	"github.com/octobees/anycrm/internal/metrics"
	middlewarepkg "github.com/octobees/anycrm/internal/middleware"
	"github.com/octobees/anycrm/internal/settings"
	"github.com/octobees/anycrm/internal/web"
)

// MetricsPath is where Prometheus metrics are exposed.
const MetricsPath = "/metrics"

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Accounts      *handler.AccountsHandler
	Contacts      *handler.ContactsHandler
	Enrich        *handler.EnrichHandler
	Notifications *handler.NotificationsHandler
	Web           *web.Handlers
}

// Register wires all HTTP routes: the bearer-protected REST API under /api,
// the agent webhook, the WebSocket channel and the HTML UI.
func Register(e *echo.Echo, cfg *config.Config, provider settings.Provider, handlers Handlers) {
	e.GET("/healthz", handler.Health)
	e.GET(MetricsPath, echo.WrapHandler(metrics.Handler()))

	enrichLimit := middlewarepkg.RateLimit(cfg.RateLimitEnrich, "enrichment rate limit exceeded")

	api := e.Group("/api", middlewarepkg.APIKey(provider))
	api.POST("/accounts", handlers.Accounts.Create)
	api.GET("/accounts", handlers.Accounts.List)
	api.POST("/accounts/import", handlers.Accounts.Import)
	api.GET("/accounts/:id", handlers.Accounts.Get)
	api.PUT("/accounts/:id", handlers.Accounts.Update)
	api.DELETE("/accounts/:id", handlers.Accounts.Delete)
	api.GET("/accounts/:id/contacts", handlers.Accounts.Contacts)
	api.POST("/accounts/:id/enrich", handlers.Enrich.Enrich, enrichLimit)
	api.POST("/contacts", handlers.Contacts.Create)
	api.GET("/contacts", handlers.Contacts.List)
	api.GET("/contacts/:id", handlers.Contacts.Get)
	api.PUT("/contacts/:id", handlers.Contacts.Update)
	api.DELETE("/contacts/:id", handlers.Contacts.Delete)

	e.POST("/webhook/:id", handlers.Enrich.Webhook)
	e.GET("/ws/account/:id", handlers.Notifications.Account)

	ui := e.Group("", web.SecurityHeaders())
	ui.POST("/accounts/:id/enrich", handlers.Enrich.Enrich, enrichLimit)
	handlers.Web.Register(ui)
}
