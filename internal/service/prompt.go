package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/entity"
)

// BuildPrompt renders the agent prompt for an account as two-space indented JSON.
// Instructions are included only when they contain more than whitespace.
func BuildPrompt(account *entity.Account, instructions string) (string, error) {
	if account == nil {
		return "", fmt.Errorf("account is nil")
	}

	prompt := dto.EnrichmentPrompt{
		Account: dto.PromptAccount{
			ID:       account.ID,
			Name:     account.Name,
			Industry: account.Industry,
			Website:  account.Website,
			Notes:    account.Notes,
		},
	}
	if strings.TrimSpace(instructions) != "" {
		prompt.Instructions = instructions
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(prompt); err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// CallbackURL returns the webhook address the agent reports back to.
func CallbackURL(baseURL string, accountID int64) string {
	return strings.TrimRight(baseURL, "/") + "/webhook/" + strconv.FormatInt(accountID, 10)
}
