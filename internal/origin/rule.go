package origin

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidRule = errors.New("invalid origin rule")

// Rule is one allow-list entry: either an exact origin
// ("http://localhost:3000") or a pattern with a single "*" that stands for
// any substring, including the empty one ("https://*.example.io").
type Rule struct {
	raw     string
	pattern *regexp.Regexp
}

// ParseRule validates raw and compiles it into a Rule.
//
// Exact rules are normalized the same way incoming Origin headers are, so
// "HTTPS://Example.com:443" and "https://example.com" are the same rule.
// Wildcard rules are lower-cased and must start with http:// or https://
// (the bare "*" is accepted and matches every origin).
func ParseRule(raw string) (Rule, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Rule{}, fmt.Errorf("%w: empty", ErrInvalidRule)
	}

	switch strings.Count(trimmed, "*") {
	case 0:
		normalized, ok := Normalize(trimmed)
		if !ok {
			return Rule{}, fmt.Errorf("%w: %q (expected full origin like https://example.com)", ErrInvalidRule, raw)
		}
		return Rule{raw: normalized}, nil
	case 1:
		return parseWildcardRule(strings.ToLower(trimmed))
	default:
		return Rule{}, fmt.Errorf("%w: %q (at most one '*' is supported)", ErrInvalidRule, raw)
	}
}

func parseWildcardRule(lowered string) (Rule, error) {
	if lowered != "*" {
		lowered = strings.TrimSuffix(lowered, "/")
		rest, ok := strings.CutPrefix(lowered, "https://")
		if !ok {
			rest, ok = strings.CutPrefix(lowered, "http://")
		}
		if !ok {
			return Rule{}, fmt.Errorf("%w: %q (wildcard rules must start with http:// or https://)", ErrInvalidRule, lowered)
		}
		if rest == "" || strings.ContainsAny(rest, "/?#@ \t") {
			return Rule{}, fmt.Errorf("%w: %q (wildcard rules must not contain a path, query or userinfo)", ErrInvalidRule, lowered)
		}
	}

	before, after, _ := strings.Cut(lowered, "*")
	pattern, err := regexp.Compile("^" + regexp.QuoteMeta(before) + ".*" + regexp.QuoteMeta(after) + "$")
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %q: %w", ErrInvalidRule, lowered, err)
	}
	return Rule{raw: lowered, pattern: pattern}, nil
}

// MustParseRule is like ParseRule but panics on error. Intended for
// package-level defaults.
func MustParseRule(raw string) Rule {
	r, err := ParseRule(raw)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the rule in its canonical form.
func (r Rule) String() string {
	return r.raw
}

func (r Rule) IsWildcard() bool {
	return r.pattern != nil
}

// Matches reports whether the normalized origin satisfies r. The match is
// anchored at both ends.
func (r Rule) Matches(normalizedOrigin string) bool {
	if r.pattern == nil {
		return r.raw != "" && r.raw == normalizedOrigin
	}
	return r.pattern.MatchString(normalizedOrigin)
}
