package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/entity"
)

func TestAccountsHandler_Create(t *testing.T) {
	app := newTestApp()

	rec := app.do(t, http.MethodPost, "/api/accounts", `{"name":"  Acme  ","industry":"Technology","website":"acme.com/?utm_source=x"}`)
	expectStatus(t, rec, http.StatusCreated)

	var account entity.Account
	payload := decodeEnvelope(t, rec, &account)
	if payload.Status != "success" || payload.Message != "account created" {
		t.Fatalf("unexpected envelope: %+v", payload)
	}
	if account.ID == 0 || account.Name != "Acme" {
		t.Fatalf("unexpected account: %+v", account)
	}
	if account.Website == nil || *account.Website != "https://acme.com/" {
		t.Fatalf("expected normalized website, got %v", account.Website)
	}
	if account.State != entity.AccountStateIdle {
		t.Fatalf("expected idle state, got %v", account.State)
	}
}

func TestAccountsHandler_Create_Invalid(t *testing.T) {
	app := newTestApp()

	rec := app.do(t, http.MethodPost, "/api/accounts", `{"name":"   "}`)
	expectStatus(t, rec, http.StatusBadRequest)
	if payload := decodeEnvelope(t, rec, nil); payload.Message != "name: is required" {
		t.Fatalf("unexpected message: %q", payload.Message)
	}

	rec = app.do(t, http.MethodPost, "/api/accounts", `{"name":`)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = app.do(t, http.MethodPost, "/api/accounts", `{"name":"Acme","website":"ftp://acme.com"}`)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestAccountsHandler_List(t *testing.T) {
	app := newTestApp()
	for _, name := range []string{"Charlie", "alpha", "Bravo"} {
		if _, err := app.accounts.Create(context.Background(), dto.AccountInput{Name: name}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := app.do(t, http.MethodGet, "/api/accounts?sort=name&per_page=2", "")
	expectStatus(t, rec, http.StatusOK)
	var accounts []entity.Account
	decodeEnvelope(t, rec, &accounts)
	if len(accounts) != 2 || accounts[0].Name != "alpha" || accounts[1].Name != "Bravo" {
		t.Fatalf("unexpected first page: %+v", accounts)
	}

	rec = app.do(t, http.MethodGet, "/api/accounts?sort=name&per_page=2&page=2", "")
	expectStatus(t, rec, http.StatusOK)
	accounts = nil
	decodeEnvelope(t, rec, &accounts)
	if len(accounts) != 1 || accounts[0].Name != "Charlie" {
		t.Fatalf("unexpected second page: %+v", accounts)
	}

	rec = app.do(t, http.MethodGet, "/api/accounts", "")
	accounts = nil
	decodeEnvelope(t, rec, &accounts)
	if len(accounts) != 3 || accounts[0].Name != "Bravo" {
		t.Fatalf("expected newest first by default, got %+v", accounts)
	}
}

func TestAccountsHandler_List_RejectsBadParams(t *testing.T) {
	app := newTestApp()
	for _, query := range []string{
		"page=abc",
		"page=0",
		"per_page=-5",
		"page=4611686018427387904&per_page=100",
		"sort=password",
		"order=sideways",
	} {
		t.Run(query, func(t *testing.T) {
			expectStatus(t, app.do(t, http.MethodGet, "/api/accounts?"+query, ""), http.StatusBadRequest)
		})
	}
}

func TestAccountsHandler_GetUpdateDelete(t *testing.T) {
	app := newTestApp()
	industry := "Retail"
	account, err := app.accounts.Create(context.Background(), dto.AccountInput{Name: "Acme", Industry: &industry})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	expectStatus(t, app.do(t, http.MethodGet, "/api/accounts/abc", ""), http.StatusBadRequest)
	expectStatus(t, app.do(t, http.MethodGet, "/api/accounts/999", ""), http.StatusNotFound)

	rec := app.do(t, http.MethodPut, "/api/accounts/1", `{"notes":"Key **customer**"}`)
	expectStatus(t, rec, http.StatusOK)
	var updated entity.Account
	decodeEnvelope(t, rec, &updated)
	if updated.Name != "Acme" || updated.Industry == nil || *updated.Industry != "Retail" {
		t.Fatalf("partial update changed other fields: %+v", updated)
	}
	if updated.Notes == nil || *updated.Notes != "Key **customer**" {
		t.Fatalf("expected notes updated, got %v", updated.Notes)
	}

	expectStatus(t, app.do(t, http.MethodPut, "/api/accounts/999", `{"name":"x"}`), http.StatusNotFound)

	if _, err := app.contacts.Create(context.Background(), dto.ContactInput{AccountID: &account.ID, FirstName: "Ada", LastName: "Lovelace"}); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	rec = app.do(t, http.MethodDelete, "/api/accounts/1", "")
	expectStatus(t, rec, http.StatusNoContent)
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
	expectStatus(t, app.do(t, http.MethodGet, "/api/accounts/1", ""), http.StatusNotFound)
	expectStatus(t, app.do(t, http.MethodGet, "/api/contacts/1", ""), http.StatusNotFound)
	expectStatus(t, app.do(t, http.MethodDelete, "/api/accounts/1", ""), http.StatusNotFound)
}

func TestAccountsHandler_Contacts(t *testing.T) {
	app := newTestApp()
	account, _ := app.accounts.Create(context.Background(), dto.AccountInput{Name: "Acme"})
	for _, last := range []string{"Turing", "Hopper"} {
		if _, err := app.contacts.Create(context.Background(), dto.ContactInput{AccountID: &account.ID, FirstName: "A", LastName: last}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := app.do(t, http.MethodGet, "/api/accounts/1/contacts", "")
	expectStatus(t, rec, http.StatusOK)
	var contacts []entity.Contact
	decodeEnvelope(t, rec, &contacts)
	if len(contacts) != 2 || contacts[0].LastName != "Hopper" {
		t.Fatalf("expected contacts ordered by last name, got %+v", contacts)
	}

	expectStatus(t, app.do(t, http.MethodGet, "/api/accounts/2/contacts", ""), http.StatusNotFound)
}

func TestAccountsHandler_Import(t *testing.T) {
	app := newTestApp()

	upload := func(content string) *httptest.ResponseRecorder {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", "accounts.csv")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write([]byte(content))
		_ = writer.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/accounts/import", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		rec := httptest.NewRecorder()
		app.echo.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("name,industry,website\nAcme,Retail,acme.com\n,Retail,\nGlobex,,\n")
	expectStatus(t, rec, http.StatusOK)
	var summary struct {
		Inserted int `json:"inserted"`
		Skipped  int `json:"skipped"`
	}
	decodeEnvelope(t, rec, &summary)
	if summary.Inserted != 2 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	rec = upload("company,industry\nAcme,Retail\n")
	expectStatus(t, rec, http.StatusBadRequest)

	rec = app.do(t, http.MethodPost, "/api/accounts/import", "")
	expectStatus(t, rec, http.StatusBadRequest)
}
