package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/octobees/anycrm/internal/repository/repotest"
	"github.com/octobees/anycrm/internal/service"
	"github.com/octobees/anycrm/internal/settings"
)

type staticSettings settings.Settings

func (s staticSettings) Get() settings.Settings { return settings.Settings(s) }

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testApp struct {
	store    *repotest.Store
	accounts *service.AccountsService
	contacts *service.ContactsService
	echo     *echo.Echo
}

func newTestApp() *testApp {
	store := repotest.NewStore()
	normalizer := service.NewNormalizer("US")
	app := &testApp{
		store:    store,
		accounts: service.NewAccountsService(store.Accounts(), store.Contacts(), normalizer),
		contacts: service.NewContactsService(store.Contacts(), normalizer),
		echo:     echo.New(),
	}

	accounts := NewAccountsHandler(app.accounts)
	app.echo.POST("/api/accounts", accounts.Create)
	app.echo.GET("/api/accounts", accounts.List)
	app.echo.POST("/api/accounts/import", accounts.Import)
	app.echo.GET("/api/accounts/:id", accounts.Get)
	app.echo.PUT("/api/accounts/:id", accounts.Update)
	app.echo.DELETE("/api/accounts/:id", accounts.Delete)
	app.echo.GET("/api/accounts/:id/contacts", accounts.Contacts)

	contacts := NewContactsHandler(app.contacts)
	app.echo.POST("/api/contacts", contacts.Create)
	app.echo.GET("/api/contacts", contacts.List)
	app.echo.GET("/api/contacts/:id", contacts.Get)
	app.echo.PUT("/api/contacts/:id", contacts.Update)
	app.echo.DELETE("/api/contacts/:id", contacts.Delete)
	return app
}

func (a *testApp) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var payload envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	if data != nil {
		if err := json.Unmarshal(payload.Data, data); err != nil {
			t.Fatalf("failed to decode data %s: %v", payload.Data, err)
		}
	}
	return payload
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

