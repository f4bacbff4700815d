package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/octobees/anycrm/internal/dto"
	"github.com/octobees/anycrm/internal/entity"
	"github.com/octobees/anycrm/internal/repository"
	"github.com/octobees/anycrm/internal/settings"
)

// AgentRunner starts one agent run.
type AgentRunner interface {
	Run(ctx context.Context, baseURL, apiKey string, req dto.AgentRunRequest) error
}

// Notifier pushes an event to every live channel of an account.
type Notifier interface {
	Broadcast(ctx context.Context, accountID int64, msg any)
}

// EnrichmentService sends accounts to the agent and relays its callbacks.
type EnrichmentService struct {
	accounts repository.AccountsRepository
	settings settings.Provider
	agent    AgentRunner
	notifier Notifier
	logger   *slog.Logger
}

// NewEnrichmentService wires the enrichment pipeline.
func NewEnrichmentService(accounts repository.AccountsRepository, provider settings.Provider, agent AgentRunner, notifier Notifier, logger *slog.Logger) *EnrichmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichmentService{
		accounts: accounts,
		settings: provider,
		agent:    agent,
		notifier: notifier,
		logger:   logger.With("component", "enrichment"),
	}
}

// RequestEnrichment marks the account as enriching and asks the agent to enrich it.
// The state is persisted before the agent is called and is not reverted when the
// call fails.
func (s *EnrichmentService) RequestEnrichment(ctx context.Context, accountID int64, instructions string) error {
	cfg := s.settings.Get()
	if cfg.AgentAPIKey == "" || cfg.AgentAPIURL == "" || cfg.BaseURL == "" {
		return ErrAgentNotConfigured
	}

	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}

	prompt, err := BuildPrompt(account, instructions)
	if err != nil {
		return err
	}

	if err := s.accounts.SetState(ctx, accountID, entity.AccountStateEnriching); err != nil {
		return fmt.Errorf("mark account enriching: %w", err)
	}

	req := dto.AgentRunRequest{Prompt: prompt, Webhook: CallbackURL(cfg.BaseURL, accountID)}
	if err := s.agent.Run(ctx, cfg.AgentAPIURL, cfg.AgentAPIKey, req); err != nil {
		s.logger.Warn("agent run failed", "account_id", accountID, "error", err)
		return fmt.Errorf("%w: %w", ErrAgentRequestFailed, err)
	}

	s.logger.Info("enrichment requested", "account_id", accountID, "webhook", req.Webhook)
	return nil
}

// HandleCallback processes an agent webhook. Only "response" events (the
// default when eventType is empty) reset the state and notify subscribers.
func (s *EnrichmentService) HandleCallback(ctx context.Context, accountID int64, eventType string, body []byte) error {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		eventType = dto.EventTypeResponse
	}
	if eventType != dto.EventTypeResponse {
		s.logger.Debug("ignoring agent event", "account_id", accountID, "event_type", eventType)
		return nil
	}

	err := s.accounts.SetState(ctx, accountID, entity.AccountStateIdle)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		s.logger.Warn("webhook for unknown account", "account_id", accountID)
	case err != nil:
		return fmt.Errorf("reset account state: %w", err)
	}

	s.notifier.Broadcast(ctx, accountID, dto.EnrichmentEvent{
		Type:      dto.EventTypeEnrichmentComplete,
		AccountID: accountID,
		Message:   CompletionMessage(body),
	})
	return nil
}

// CompletionMessage decodes a webhook body as UTF-8 text, replacing invalid
// sequences, or returns the default message for an empty body.
func CompletionMessage(body []byte) string {
	if len(body) == 0 {
		return dto.DefaultCompletionMessage
	}
	return strings.ToValidUTF8(string(body), "\uFFFD")
}
