package dto

// ContactInput carries every writable contact field.
type ContactInput struct {
	AccountID *int64  `json:"account_id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Title     *string `json:"title"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	LinkedIn  *string `json:"linkedin"`
	Notes     *string `json:"notes"`
}

// ContactPatch is a partial update. Nil fields are left untouched; an empty
// string clears an optional field and an account_id of 0 detaches the contact.
type ContactPatch struct {
	AccountID *int64  `json:"account_id,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Title     *string `json:"title,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	LinkedIn  *string `json:"linkedin,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Empty reports whether the patch carries no field.
func (p ContactPatch) Empty() bool {
	return p.AccountID == nil && p.FirstName == nil && p.LastName == nil && p.Title == nil &&
		p.Email == nil && p.Phone == nil && p.LinkedIn == nil && p.Notes == nil
}
