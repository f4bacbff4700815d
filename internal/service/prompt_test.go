package service

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/octobees/anycrm/internal/entity"
)

func TestBuildPrompt(t *testing.T) {
	website := "https://acme.test"
	account := &entity.Account{ID: 12, Name: "Acme & Sons", Website: &website}

	prompt, err := BuildPrompt(account, "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(prompt, "instructions") {
		t.Fatalf("blank instructions must be omitted: %s", prompt)
	}
	if !strings.HasPrefix(prompt, "{\n  \"account\": {\n    \"id\": 12,") {
		t.Fatalf("expected two-space indentation, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"industry": null`) || !strings.Contains(prompt, "Acme & Sons") {
		t.Fatalf("unexpected prompt body:\n%s", prompt)
	}

	prompt, err = BuildPrompt(account, " find the CTO ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded struct {
		Account struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"account"`
		Instructions string `json:"instructions"`
	}
	if err := json.Unmarshal([]byte(prompt), &decoded); err != nil {
		t.Fatalf("prompt is not valid JSON: %v", err)
	}
	if decoded.Account.ID != 12 || decoded.Instructions != " find the CTO " {
		t.Fatalf("unexpected decoded prompt: %+v", decoded)
	}

	if _, err := BuildPrompt(nil, ""); err == nil {
		t.Fatalf("expected error for nil account")
	}
}

func TestCallbackURL(t *testing.T) {
	if got := CallbackURL("https://crm.example/", 7); got != "https://crm.example/webhook/7" {
		t.Fatalf("unexpected callback url: %s", got)
	}
	if got := CallbackURL("http://localhost:8000", 42); got != "http://localhost:8000/webhook/42" {
		t.Fatalf("unexpected callback url: %s", got)
	}
}
