package grouper

import (
	"fmt"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collator compares strings with locale-aware ordering.
// A Collator is not safe for concurrent use.
type Collator struct {
	c *collate.Collator
}

// NewCollator returns a collator for a BCP 47 locale tag such as "en-IN".
func NewCollator(locale string) (*Collator, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return &Collator{c: collate.New(tag)}, nil
}

// Compare returns -1, 0 or +1. Strings the locale considers equal are
// ordered by bytes, so only identical strings compare as 0.
func (c *Collator) Compare(a, b string) int {
	if r := c.c.CompareString(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}
