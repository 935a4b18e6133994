package users_test

import (
	"testing"

	"github.com/jrsteele09/go-user-admin/users"
	"github.com/stretchr/testify/require"
)

func TestListFilterValues(t *testing.T) {
	tests := []struct {
		name   string
		filter users.ListFilter
		want   string
	}{
		{name: "defaults", filter: users.ListFilter{}, want: "limit=10&page=1"},
		{name: "explicit page", filter: users.ListFilter{Page: 3, Limit: 25}, want: "limit=25&page=3"},
		{
			name:   "all filters",
			filter: users.ListFilter{Page: 2, Limit: 5, Role: "admin", Department: "IT", Search: "  ali "},
			want:   "department=IT&limit=5&page=2&role=admin&search=ali",
		},
		{
			name:   "null and blank dropped",
			filter: users.ListFilter{Role: "null", Department: " ", Search: "   "},
			want:   "limit=10&page=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.filter.Values().Encode())
		})
	}
}
