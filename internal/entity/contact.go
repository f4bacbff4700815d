package entity

import "time"

// Contact represents a person, optionally attached to an account.
type Contact struct {
	ID          int64     `json:"id"`
	AccountID   *int64    `json:"account_id"`
	AccountName *string   `json:"account_name,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Title       *string   `json:"title"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	LinkedIn    *string   `json:"linkedin"`
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// FullName joins first and last name.
func (c Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}
