package strategies

import (
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds a single blank match so that a pathological
// pattern cannot stall evaluation.
const DefaultMatchTimeout = 250 * time.Millisecond

// ClozeMatcher checks a provided value against a blank's expected value.
type ClozeMatcher struct {
	timeout time.Duration
}

func NewClozeMatcher(timeout time.Duration) ClozeMatcher {
	return ClozeMatcher{timeout: timeout}
}

// Match treats expected as a pattern that must match the whole value. When
// the pattern does not compile, or matching times out, it falls back to
// exact string equality.
func (m ClozeMatcher) Match(expected, provided string) bool {
	// Anchoring can balance a stray paren, so the bare pattern is checked first.
	if _, err := regexp2.Compile(expected, regexp2.None); err != nil {
		return expected == provided
	}
	re, err := regexp2.Compile(`\A(?:`+expected+`)\z`, regexp2.None)
	if err != nil {
		return expected == provided
	}
	if m.timeout > 0 {
		re.MatchTimeout = m.timeout
	}
	ok, err := re.MatchString(provided)
	if err != nil {
		return expected == provided
	}
	return ok
}
