package dto

// EventTypeResponse is the agent event type that completes an enrichment.
const EventTypeResponse = "response"

// EventTypeEnrichmentComplete is the type of the message pushed to browsers.
const EventTypeEnrichmentComplete = "enrichment_complete"

// DefaultCompletionMessage is pushed when the agent callback carries no body.
const DefaultCompletionMessage = "Enrichment completed"

// PromptAccount is the account section of the enrichment prompt.
type PromptAccount struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Industry *string `json:"industry"`
	Website  *string `json:"website"`
	Notes    *string `json:"notes"`
}

// EnrichmentPrompt is serialized to indented JSON and sent as the agent prompt.
type EnrichmentPrompt struct {
	Account      PromptAccount `json:"account"`
	Instructions string        `json:"instructions,omitempty"`
}

// AgentRunRequest is the body of POST {agent}/run.
type AgentRunRequest struct {
	Prompt  string `json:"prompt"`
	Webhook string `json:"webhook"`
}

// EnrichmentEvent is delivered to every channel subscribed to an account.
type EnrichmentEvent struct {
	Type      string `json:"type"`
	AccountID int64  `json:"account_id"`
	Message   string `json:"message"`
}
