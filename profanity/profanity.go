// Package profanity decides whether a display name is acceptable.
package profanity

import (
	goaway "github.com/TwiN/go-away"
)

// Checker reports whether s contains profanity.
type Checker interface {
	IsProfane(s string) bool
}

// CheckerFunc adapts a plain function to a Checker.
type CheckerFunc func(s string) bool

// IsProfane calls f(s).
func (f CheckerFunc) IsProfane(s string) bool { return f(s) }

// New returns a Checker backed by the go-away English dictionary with
// leet-speak, special character and accent sanitisation enabled.
func New() Checker {
	return goaway.NewProfanityDetector().
		WithSanitizeLeetSpeak(true).
		WithSanitizeSpecialCharacters(true).
		WithSanitizeAccents(true)
}
