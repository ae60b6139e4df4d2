package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds compatibility characters (full-width letters,
// ligatures) to their canonical form and trims surrounding whitespace.
func NormalizeName(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}
