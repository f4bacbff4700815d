package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/anycrm/internal/dto"
)

var errInvalidID = errors.New("invalid id")

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// parseListFilter reads page, per_page, sort, order and account_id from the
// query string. Absent values are left zero for the service to default.
func parseListFilter(c echo.Context) (dto.ListFilter, error) {
	filter := dto.ListFilter{
		Sort:  strings.TrimSpace(c.QueryParam("sort")),
		Order: strings.TrimSpace(c.QueryParam("order")),
	}

	var err error
	if filter.Page, err = positiveQueryInt(c, "page"); err != nil {
		return dto.ListFilter{}, err
	}
	if filter.PerPage, err = positiveQueryInt(c, "per_page"); err != nil {
		return dto.ListFilter{}, err
	}
	if raw := strings.TrimSpace(c.QueryParam("account_id")); raw != "" {
		accountID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || accountID <= 0 {
			return dto.ListFilter{}, fmt.Errorf("invalid account_id")
		}
		filter.AccountID = &accountID
	}
	return filter, nil
}

func positiveQueryInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return value, nil
}
