package service

import (
	"math"
	"slices"
	"strings"

	"github.com/octobees/anycrm/internal/dto"
)

// normalizeListFilter applies pagination defaults and rejects unknown sort keys.
func normalizeListFilter(filter dto.ListFilter, sortable []string) (dto.ListFilter, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Page < 0 {
		return filter, invalid("page", "must be a positive integer")
	}

	if filter.PerPage == 0 {
		filter.PerPage = dto.DefaultPerPage
	}
	if filter.PerPage < 0 {
		return filter, invalid("per_page", "must be a positive integer")
	}
	if filter.PerPage > dto.MaxPerPage {
		filter.PerPage = dto.MaxPerPage
	}
	if filter.Page-1 > math.MaxInt/filter.PerPage {
		return filter, invalid("page", "is too large")
	}

	filter.Sort = strings.ToLower(strings.TrimSpace(filter.Sort))
	if filter.Sort == "" {
		filter.Sort = "created_at"
	}
	if !slices.Contains(sortable, filter.Sort) {
		return filter, invalid("sort", "must be one of "+strings.Join(sortable, ", "))
	}

	filter.Order = strings.ToLower(strings.TrimSpace(filter.Order))
	switch filter.Order {
	case "":
		filter.Order = "asc"
		if filter.Sort == "created_at" {
			filter.Order = "desc"
		}
	case "asc", "desc":
	default:
		return filter, invalid("order", "must be asc or desc")
	}

	if filter.AccountID != nil && *filter.AccountID <= 0 {
		return filter, invalid("account_id", "must be a positive integer")
	}
	return filter, nil
}
