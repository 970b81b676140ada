package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Ticker is a normalized instrument symbol: uppercase alphanumeric, 1-10 chars.
type Ticker string

var tickerPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// ParseTicker normalizes a raw symbol and validates its shape. Validation
// happens before any network call; exchange suffixes like ".NS" are stripped.
func ParseTicker(raw string) (Ticker, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	for _, suffix := range []string{".NS", ".BO"} {
		s = strings.TrimSuffix(s, suffix)
	}
	if !tickerPattern.MatchString(s) {
		return "", fmt.Errorf("symbol %q: %w", raw, ErrInvalidTicker)
	}
	return Ticker(s), nil
}

func (t Ticker) String() string { return string(t) }
