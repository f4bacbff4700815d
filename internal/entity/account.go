package entity

import (
	"strconv"
	"time"
)

// AccountState tracks whether an enrichment request is outstanding for an account.
type AccountState int

const (
	// AccountStateIdle is the state of a freshly created account and of an
	// account whose enrichment callback has arrived.
	AccountStateIdle AccountState = 0
	// AccountStateEnriching is set before the agent is called and stays until
	// the matching webhook arrives. Nothing reverts it on upstream failure.
	AccountStateEnriching AccountState = 1
)

// String returns the lower-case state name.
func (s AccountState) String() string {
	switch s {
	case AccountStateIdle:
		return "idle"
	case AccountStateEnriching:
		return "enriching"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Account represents a company tracked by the CRM.
type Account struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Industry  *string      `json:"industry"`
	Website   *string      `json:"website"`
	Notes     *string      `json:"notes"`
	State     AccountState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
}

// AccountOption is the id and name pair offered by account pickers.
type AccountOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Enriching reports whether an enrichment request is outstanding.
func (a Account) Enriching() bool {
	return a.State == AccountStateEnriching
}

// Industries lists the options offered by the account form.
var Industries = []string{
	"Technology",
	"Healthcare",
	"Finance",
	"Manufacturing",
	"Retail",
	"Education",
	"Real Estate",
	"Consulting",
	"Media & Entertainment",
	"Transportation",
	"Hospitality",
	"Energy",
	"Telecommunications",
	"Construction",
	"Agriculture",
	"Other",
}
