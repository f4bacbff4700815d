package service

import (
	"errors"
	"fmt"

	"github.com/octobees/anycrm/internal/repository"
)

var (
	// ErrAccountNotFound is returned when the referenced account does not exist.
	ErrAccountNotFound = repository.ErrAccountNotFound
	// ErrContactNotFound is returned when the referenced contact does not exist.
	ErrContactNotFound = repository.ErrContactNotFound
	// ErrAgentNotConfigured is returned when enrichment is requested without agent credentials.
	ErrAgentNotConfigured = errors.New("agent api key is not configured")
	// ErrAgentRequestFailed wraps transport errors and non-2xx answers from the agent.
	ErrAgentRequestFailed = errors.New("agent request failed")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
