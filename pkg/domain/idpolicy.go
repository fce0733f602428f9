package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// IDPolicy describes how new keys are minted for a collection. The zero value
// is the numeric policy: str(1 + max(int(k))) or "1" for an empty collection.
// A prefixed policy mints Prefix followed by a zero-padded counter of Width digits.
type IDPolicy struct {
	Prefix string
	Width  int
}

// Numeric reports whether the policy mints bare integers.
func (p IDPolicy) Numeric() bool { return p.Prefix == "" && p.Width == 0 }

// Next returns the next id given the existing keys of a collection.
func (p IDPolicy) Next(collection Collection, keys []string) (string, error) {
	var highest int64
	for _, key := range keys {
		n, ok := p.counter(key)
		if !ok {
			return "", ErrIDSpaceExhausted{Collection: collection, Key: key}
		}
		if n > highest {
			highest = n
		}
	}
	next := highest + 1
	if p.Numeric() {
		return strconv.FormatInt(next, 10), nil
	}
	return fmt.Sprintf("%s%0*d", p.Prefix, p.Width, next), nil
}

func (p IDPolicy) counter(key string) (int64, bool) {
	digits := key
	if p.Prefix != "" {
		if !strings.HasPrefix(key, p.Prefix) {
			return 0, false
		}
		digits = strings.TrimPrefix(key, p.Prefix)
	}
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
