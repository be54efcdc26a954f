package auth

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeUsername folds a username to its canonical stored form: NFKC
// normalized and lower-cased, so visually identical names collide instead of
// coexisting.
func NormalizeUsername(username string) string {
	return strings.ToLower(norm.NFKC.String(username))
}

// ValidLength checks an inclusive byte-length bound. Bounds apply only to
// future changes, never retroactively to stored values.
func ValidLength(s string, min, max int) bool {
	return len(s) >= min && len(s) <= max
}
