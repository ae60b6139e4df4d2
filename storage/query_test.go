package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"asc", Asc, true},
		{"ASC", Asc, true},
		{"Desc", Desc, true},
		{"DESC", Desc, true},
		{"", "", false},
		{"up", "", false},
		{"desc; DROP TABLE races", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDirection(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestQueryOrderBy(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"default", DefaultQuery(), "id ASC"},
		{"id desc", Query{SortBy: "id", Sort: Desc}, "id DESC"},
		{"time asc", Query{SortBy: "time", Sort: Asc}, "time ASC, id ASC"},
		{"created_at desc", Query{SortBy: "created_at", Sort: Desc}, "created_at DESC, id DESC"},
		{"unknown column", Query{SortBy: "name", Sort: Asc}, "id ASC"},
		{"injection attempt", Query{SortBy: "id; DROP TABLE races", Sort: "DESC; --"}, "id ASC"},
		{"empty direction", Query{SortBy: "mode"}, "mode ASC, id ASC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.OrderBy())
		})
	}
}

func TestQueryWindow(t *testing.T) {
	tests := []struct {
		name                  string
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{"defaults", DefaultLimit, 0, DefaultLimit, 0},
		{"negative limit is unlimited", -5, 3, -1, 3},
		{"negative offset is zero", 10, -2, 10, 0},
		{"zero limit", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := Query{Limit: tt.limit, Offset: tt.offset}.Window()
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestIsSortColumn(t *testing.T) {
	for _, c := range []string{"id", "mode", "time", "created_at"} {
		assert.True(t, IsSortColumn(c), c)
	}
	for _, c := range []string{"", "name", "ID", "time DESC"} {
		assert.False(t, IsSortColumn(c), c)
	}
}
