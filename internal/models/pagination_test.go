package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name    string
		page    int
		limit   int
		total   int
		pages   int
		hasNext bool
		hasPrev bool
	}{
		{"first of many", 1, 10, 23, 3, true, false},
		{"middle", 2, 10, 23, 3, true, true},
		{"last", 3, 10, 23, 3, false, true},
		{"exact multiple", 2, 10, 20, 2, false, true},
		{"single page", 1, 10, 5, 1, false, false},
		{"empty", 1, 10, 0, 0, false, false},
		{"past the end", 9, 10, 23, 3, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.page, tc.limit, tc.total)
			assert.Equal(t, tc.page, p.Current)
			assert.Equal(t, tc.pages, p.Pages)
			assert.Equal(t, tc.total, p.Total)
			assert.Equal(t, tc.hasNext, p.HasNext)
			assert.Equal(t, tc.hasPrev, p.HasPrev)
		})
	}
}
