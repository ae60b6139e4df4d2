package storage

import "strings"

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Leaderboard query defaults.
const (
	DefaultSortBy = "id"
	DefaultLimit  = 10
)

// sortColumns is the complete set of columns a query may order by. Column
// names in ORDER BY clauses come only from this table, never from input.
var sortColumns = map[string]string{
	"id":         "id",
	"mode":       "mode",
	"time":       "time",
	"created_at": "created_at",
}

// IsSortColumn reports whether name may be used as a sort column.
func IsSortColumn(name string) bool {
	_, ok := sortColumns[name]
	return ok
}

// ParseDirection maps "asc"/"desc" in any case to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(s) {
	case "asc":
		return Asc, true
	case "desc":
		return Desc, true
	}
	return "", false
}

// Query selects a page of races. Mode is an exact-match filter: the empty
// string matches only races whose mode is empty.
type Query struct {
	Sort   Direction
	Mode   string
	Offset int
	Limit  int
	SortBy string
}

// DefaultQuery returns the query used when no parameters are supplied.
func DefaultQuery() Query {
	return Query{Sort: Asc, SortBy: DefaultSortBy, Limit: DefaultLimit}
}

// Column returns the allow-listed sort column, falling back to id.
func (q Query) Column() string {
	if col, ok := sortColumns[q.SortBy]; ok {
		return col
	}
	return sortColumns[DefaultSortBy]
}

// Direction returns the sort direction, falling back to ASC.
func (q Query) Direction() Direction {
	if q.Sort == Desc {
		return Desc
	}
	return Asc
}

// OrderBy renders the ORDER BY expression. Rows that tie on the sort column
// are ordered by id so that pages are stable.
func (q Query) OrderBy() string {
	col, dir := q.Column(), string(q.Direction())
	if col == "id" {
		return "id " + dir
	}
	return col + " " + dir + ", id " + dir
}

// Window returns the effective limit and offset. A negative limit means no
// limit and is reported as -1; a negative offset is treated as zero.
func (q Query) Window() (limit, offset int) {
	limit, offset = q.Limit, q.Offset
	if limit < 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
