package dto

// ListFilter contains pagination and ordering parameters for list endpoints.
type ListFilter struct {
	Page      int
	PerPage   int
	Sort      string
	Order     string
	AccountID *int64
}

// Offset returns the row offset for the requested page.
func (f ListFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PerPage
}

// Default and maximum page sizes for list endpoints.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// AccountSortFields lists the accepted values of the account sort parameter.
var AccountSortFields = []string{"created_at", "name", "industry", "state", "id"}

// ContactSortFields lists the accepted values of the contact sort parameter.
var ContactSortFields = []string{"created_at", "last_name", "first_name", "email", "id"}
