package dto

// AccountInput carries every writable account field; used for create and full
// replacement from the web form.
type AccountInput struct {
	Name     string  `json:"name" form:"name"`
	Industry *string `json:"industry" form:"industry"`
	Website  *string `json:"website" form:"website"`
	Notes    *string `json:"notes" form:"notes"`
}

// AccountPatch is a partial update. Nil fields are left untouched; an empty
// string clears an optional field.
type AccountPatch struct {
	Name     *string `json:"name,omitempty"`
	Industry *string `json:"industry,omitempty"`
	Website  *string `json:"website,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// Empty reports whether the patch carries no field.
func (p AccountPatch) Empty() bool {
	return p.Name == nil && p.Industry == nil && p.Website == nil && p.Notes == nil
}
