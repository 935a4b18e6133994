package users

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ListFilter is the query of GET /users. Zero values mean "not filtered".
type ListFilter struct {
	Page       int
	Limit      int
	Role       string
	Department string
	Search     string
}

// Values encodes the filter, dropping blank filters and the "null" placeholder.
func (f ListFilter) Values() url.Values {
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	if role := strings.TrimSpace(f.Role); role != "" && role != "null" {
		v.Set("role", role)
	}
	if dept := strings.TrimSpace(f.Department); dept != "" && dept != "null" {
		v.Set("department", dept)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		v.Set("search", search)
	}
	return v
}
