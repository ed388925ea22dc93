package moderation

import (
	"context"
	"strings"
	"unicode"
)

// defaultBlocklist is intentionally short; deployments provide their
// own list via NewProfanityChecker.
var defaultBlocklist = []string{
	"asshole",
	"bastard",
	"bitch",
	"cunt",
	"fuck",
	"motherfucker",
	"shit",
}

// ProfanityChecker screens text against a word blocklist. Matching is
// case-insensitive and token-based, so "scunthorpe" does not match.
type ProfanityChecker struct {
	words map[string]struct{}
}

// NewProfanityChecker builds a checker from the given blocklist. An
// empty list falls back to the built-in default.
func NewProfanityChecker(blocklist []string) *ProfanityChecker {
	if len(blocklist) == 0 {
		blocklist = defaultBlocklist
	}
	words := make(map[string]struct{}, len(blocklist))
	for _, w := range blocklist {
		words[strings.ToLower(w)] = struct{}{}
	}
	return &ProfanityChecker{words: words}
}

// HasProfanity reports whether any token of text is on the blocklist.
func (c *ProfanityChecker) HasProfanity(_ context.Context, text string) (bool, error) {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, tok := range tokens {
		if _, ok := c.words[tok]; ok {
			return true, nil
		}
	}
	return false, nil
}
