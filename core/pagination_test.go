package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageRequest(t *testing.T) {
	tests := []struct {
		name          string
		page, perPage int
		want          PageRequest
	}{
		{name: "defaults", want: PageRequest{Page: 1, PerPage: DefaultPerPage}},
		{name: "negative page", page: -3, perPage: 10, want: PageRequest{Page: 1, PerPage: 10}},
		{name: "capped", page: 2, perPage: 1000, want: PageRequest{Page: 2, PerPage: MaxPerPage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPageRequest(tt.page, tt.perPage))
		})
	}
}

func TestNewPageMeta(t *testing.T) {
	tests := []struct {
		name  string
		total int
		p     PageRequest
		want  PageMeta
	}{
		{name: "empty", p: PageRequest{1, 25}, want: PageMeta{Page: 1, PerPage: 25}},
		{name: "first of three", total: 51, p: PageRequest{1, 25}, want: PageMeta{Page: 1, PerPage: 25, Total: 51, TotalPages: 3, HasNext: true}},
		{name: "last", total: 50, p: PageRequest{2, 25}, want: PageMeta{Page: 2, PerPage: 25, Total: 50, TotalPages: 2, HasPrev: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPageMeta(tt.total, tt.p))
		})
	}
}

func TestOrderByClause(t *testing.T) {
	assert.Equal(t, "created_at DESC", OrderByClause(nil, "created_at DESC"))
	assert.Equal(t, "name ASC, created_at DESC", OrderByClause([]DBOrdering{{Field: "name", Ascending: true}, {Field: "created_at"}}, "id"))
}
