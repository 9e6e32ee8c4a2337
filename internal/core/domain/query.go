package domain

import "strings"

// termCutset is stripped from both ends of every token: surrounding
// parentheses and single/double quotes.
const termCutset = " ()\"'"

type termConfig struct {
	canonical func(string) string
}

// TermOption adjusts ParseTerms behaviour for a specific source.
type TermOption func(*termConfig)

// WithEquivalence installs a source-specific canonical form used for the
// duplicate check. Two terms with the same canonical form are one term; the
// first-seen spelling is kept.
func WithEquivalence(canonical func(string) string) TermOption {
	return func(c *termConfig) { c.canonical = canonical }
}

// WithHexPrefixEquivalence treats hex-prefixed identifiers as equivalent to
// their bare form, case-insensitively: "0xABC" and "abc" are the same term.
func WithHexPrefixEquivalence() TermOption {
	return WithEquivalence(func(term string) string {
		return strings.ToLower(strings.TrimPrefix(term, "0x"))
	})
}

// ParseTerms turns a raw query string into an ordered, deduplicated list of
// search terms. The grammar is deliberately forgiving: it accepts a single
// term, space-separated terms, quoted terms, and human-readable OR joins
// such as "(a OR b) c", in any combination.
//
// A query consisting solely of join words yields an empty list; callers
// must treat that as "no valid search parameters" and fail fast instead of
// issuing an empty-term request.
func ParseTerms(raw string, opts ...TermOption) []string {
	cfg := termConfig{canonical: func(s string) string { return s }}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Queries arrive both URL-decoded and not; normalize literal %20s.
	raw = strings.ReplaceAll(raw, "%20", " ")

	var terms []string
	seen := make(map[string]struct{})
	for _, token := range strings.Fields(raw) {
		token = strings.Trim(token, termCutset)
		if token == "" || strings.EqualFold(token, "or") {
			continue
		}
		key := cfg.canonical(token)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, token)
	}
	return terms
}
