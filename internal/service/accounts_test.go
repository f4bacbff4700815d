package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/entity"
)

func TestAccountsService_CreateValidates(t *testing.T) {
	repo := newMemAccounts()
	svc := NewAccountsService(repo, &memContacts{}, NewNormalizer("US"))

	_, err := svc.Create(context.Background(), dto.AccountInput{Name: "   "})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "name" {
		t.Fatalf("expected name validation error, got %v", err)
	}

	account, err := svc.Create(context.Background(), dto.AccountInput{
		Name:     "  Acme  ",
		Industry: strPtr(" Technology "),
		Website:  strPtr("acme.test?utm_source=x"),
		Notes:    strPtr(""),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Name != "Acme" || *account.Industry != "Technology" || *account.Website != "https://acme.test" {
		t.Fatalf("unexpected account: %+v", account)
	}
	if account.Notes != nil || account.State != entity.AccountStateIdle {
		t.Fatalf("expected empty notes stored as NULL and idle state: %+v", account)
	}

	if _, err := svc.Create(context.Background(), dto.AccountInput{Name: "Bad", Website: strPtr("ftp://acme.test")}); !errors.As(err, &validationErr) {
		t.Fatalf("expected website validation error, got %v", err)
	}
}

func TestAccountsService_ListDefaultsAndValidation(t *testing.T) {
	repo := newMemAccounts()
	svc := NewAccountsService(repo, &memContacts{}, nil)

	if _, err := svc.List(context.Background(), dto.ListFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.lastList; got.Page != 1 || got.PerPage != 20 || got.Sort != "created_at" || got.Order != "desc" {
		t.Fatalf("unexpected defaults: %+v", got)
	}

	if _, err := svc.List(context.Background(), dto.ListFilter{PerPage: 500, Sort: "NAME"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.lastList; got.PerPage != 100 || got.Sort != "name" || got.Order != "asc" {
		t.Fatalf("expected capped page size and ascending name order, got %+v", got)
	}

	for _, filter := range []dto.ListFilter{
		{Sort: "password"},
		{Order: "sideways"},
		{Page: -1},
		{PerPage: -5},
		{Page: math.MaxInt/dto.MaxPerPage + 2, PerPage: dto.MaxPerPage},
		{Page: math.MaxInt},
	} {
		var validationErr *ValidationError
		if _, err := svc.List(context.Background(), filter); !errors.As(err, &validationErr) {
			t.Fatalf("expected validation error for %+v, got %v", filter, err)
		}
	}
}

func TestAccountsService_Options(t *testing.T) {
	repo := newMemAccounts()
	svc := NewAccountsService(repo, &memContacts{}, nil)
	for _, name := range []string{"Globex", "Acme"} {
		if _, err := svc.Create(context.Background(), dto.AccountInput{Name: name}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	options, err := svc.Options(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(options) != 2 || options[0].Name != "Acme" || options[1].Name != "Globex" {
		t.Fatalf("unexpected options: %+v", options)
	}
}

func TestAccountsService_UpdateAndReplace(t *testing.T) {
	repo := newMemAccounts()
	svc := NewAccountsService(repo, &memContacts{}, nil)
	account, err := svc.Create(context.Background(), dto.AccountInput{Name: "Acme", Industry: strPtr("Retail"), Notes: strPtr("keep")})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	updated, err := svc.Update(context.Background(), account.ID, dto.AccountPatch{Industry: strPtr("Finance")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *updated.Industry != "Finance" || updated.Notes == nil {
		t.Fatalf("patch must only touch provided fields: %+v", updated)
	}

	if _, err := svc.Update(context.Background(), account.ID, dto.AccountPatch{Name: strPtr(" ")}); err == nil {
		t.Fatalf("expected error for blank name")
	}

	replaced, err := svc.Replace(context.Background(), account.ID, dto.AccountInput{Name: "Acme Corp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if replaced.Name != "Acme Corp" || replaced.Industry != nil || replaced.Notes != nil {
		t.Fatalf("replace must clear omitted fields: %+v", replaced)
	}

	if _, err := svc.Update(context.Background(), 404, dto.AccountPatch{Name: strPtr("x")}); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountsService_WithContacts(t *testing.T) {
	repo := newMemAccounts()
	contacts := &memContacts{byAcct: map[int64][]entity.Contact{1: {{ID: 3, FirstName: "Ada", LastName: "Lovelace"}}}}
	svc := NewAccountsService(repo, contacts, nil)
	if _, err := svc.Create(context.Background(), dto.AccountInput{Name: "Acme"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	account, list, err := svc.WithContacts(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Name != "Acme" || len(list) != 1 {
		t.Fatalf("unexpected result: %+v %+v", account, list)
	}

	if _, _, err := svc.WithContacts(context.Background(), 2); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountsService_ImportCSV(t *testing.T) {
	repo := newMemAccounts()
	svc := NewAccountsService(repo, &memContacts{}, nil)

	csvData := "Name,Industry,Website\nAcme,Technology,acme.test\n,Retail,\nGlobex,,\n"
	summary, err := svc.ImportCSV(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Inserted != 2 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	acme, _ := repo.Get(context.Background(), 1)
	if acme.Website == nil || *acme.Website != "https://acme.test" {
		t.Fatalf("expected normalized website, got %+v", acme)
	}

	var csvErr CSVValidationError
	if _, err := svc.ImportCSV(context.Background(), strings.NewReader("")); !errors.As(err, &csvErr) {
		t.Fatalf("expected empty file error, got %v", err)
	}
	if _, err := svc.ImportCSV(context.Background(), strings.NewReader("industry\nRetail\n")); !errors.As(err, &csvErr) {
		t.Fatalf("expected missing column error, got %v", err)
	}
	_, err = svc.ImportCSV(context.Background(), strings.NewReader("name,website\nBad,ftp://x.test\n"))
	if !errors.As(err, &csvErr) || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("expected row-level error, got %v", err)
	}
}
