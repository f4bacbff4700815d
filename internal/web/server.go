package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// LoadRenderer parses the embedded templates.
func LoadRenderer() (*Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	return NewRenderer(sub)
}

// StaticHandler serves the embedded assets under /static/.
func StaticHandler() echo.HandlerFunc {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return echo.WrapHandler(http.StripPrefix("/static/", http.FileServerFS(sub)))
}

// SecurityHeaders adds security-related headers to UI responses.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; connect-src 'self'")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			return next(c)
		}
	}
}

// Register mounts every UI page on g.
func (h *Handlers) Register(g *echo.Group) {
	g.GET("/", h.Home)
	g.GET("/accounts", h.Accounts)
	g.GET("/accounts/new", h.NewAccount)
	g.POST("/accounts/create", h.CreateAccount)
	g.GET("/accounts/:id", h.AccountDetail)
	g.GET("/accounts/:id/edit", h.EditAccount)
	g.POST("/accounts/:id/update", h.UpdateAccount)
	g.POST("/accounts/:id/delete", h.DeleteAccount)
	g.GET("/contacts", h.Contacts)
	g.GET("/contacts/new", h.NewContact)
	g.POST("/contacts/create", h.CreateContact)
	g.GET("/contacts/:id/edit", h.EditContact)
	g.POST("/contacts/:id/update", h.UpdateContact)
	g.POST("/contacts/:id/delete", h.DeleteContact)
	g.GET("/settings", h.Settings)
	g.POST("/settings/save", h.SaveSettings)
	g.GET("/static/*", StaticHandler())
}
