package api

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/jmcleod/racetrack/storage"
)

func parseLeaderboardQuery(r *http.Request) storage.Query {
	return ParseLeaderboardQuery(r.URL.Query())
}

// ParseLeaderboardQuery reads the leaderboard query parameters sort, mode,
// offset, limit and sortBy. Unrecognised sort directions and sort columns
// keep their defaults, as do offset and limit values without a leading
// integer. Negative offsets and limits are passed through; the store
// interprets them.
func ParseLeaderboardQuery(v url.Values) storage.Query {
	q := storage.DefaultQuery()

	if d, ok := storage.ParseDirection(v.Get("sort")); ok {
		q.Sort = d
	}
	if m := v.Get("mode"); m != "" {
		q.Mode = m
	}
	if n, ok := parseLeadingInt(v.Get("offset")); ok {
		q.Offset = n
	}
	if n, ok := parseLeadingInt(v.Get("limit")); ok {
		q.Limit = n
	}
	if s := v.Get("sortBy"); storage.IsSortColumn(s) {
		q.SortBy = s
	}
	return q
}

// NewLeaderboardParams resolves q into the parameters echoed to clients.
func NewLeaderboardParams(q storage.Query) LeaderboardParams {
	return LeaderboardParams{
		Sort:   string(q.Direction()),
		Mode:   q.Mode,
		Offset: q.Offset,
		Limit:  q.Limit,
		SortBy: q.Column(),
	}
}

// parseLeadingInt parses the optionally signed decimal integer at the start
// of s, after leading whitespace, ignoring anything that follows: "12abc"
// is 12, "abc" is not a number.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// raceTime is the client-reported race duration in milliseconds. Zero, false,
// null and the empty string count as absent; numbers are truncated toward
// zero; strings are read up to the first non-digit.
type raceTime struct {
	ms      int64
	present bool
	valid   bool
}

func (t *raceTime) UnmarshalJSON(data []byte) error {
	*t = raceTime{}
	s := strings.TrimSpace(string(data))
	switch {
	case s == "" || s == "null" || s == "false":
		return nil
	case s == "true" || s[0] == '{' || s[0] == '[':
		t.present = true
		return nil
	case s[0] == '"':
		str, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		if str == "" {
			return nil
		}
		t.present = true
		n, ok := parseLeadingInt(str)
		t.ms, t.valid = int64(n), ok
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	if f == 0 {
		return nil
	}
	t.present = true
	if math.Abs(f) < math.MaxInt64 {
		t.ms, t.valid = int64(math.Trunc(f)), true
	}
	return nil
}

// flag returns a non-empty string when the value is present, for requireParams.
func (t raceTime) flag() string {
	if t.present {
		return "set"
	}
	return ""
}
