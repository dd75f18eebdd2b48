package origin

import (
	"net/url"
	"strings"
	"testing"
)

func FuzzNormalize(f *testing.F) {
	f.Add("HTTPS://Example.COM:443")
	f.Add("http://010.0.0.1")
	f.Add("http://[::FFFF:192.0.2.1]")
	f.Add("null")
	f.Add("")
	f.Add("ftp://example.com")
	f.Add("https://example.com/path")
	f.Add("https://example.com,https://evil.example.com")

	f.Fuzz(func(t *testing.T, originHeader string) {
		normalized, ok := Normalize(originHeader)
		again, okAgain := Normalize(originHeader)
		if ok != okAgain || normalized != again {
			t.Fatalf("non-deterministic result for %q", originHeader)
		}
		if !ok || normalized == "null" {
			return
		}

		if !strings.HasPrefix(normalized, "http://") && !strings.HasPrefix(normalized, "https://") {
			t.Fatalf("normalized origin missing scheme: %q", normalized)
		}
		if strings.ContainsAny(normalized, " \t\r\n?#") {
			t.Fatalf("normalized origin contains forbidden characters: %q", normalized)
		}

		u, err := url.Parse(normalized)
		if err != nil {
			t.Fatalf("url.Parse(%q): %v", normalized, err)
		}
		if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
			t.Fatalf("normalized origin parsed with unexpected components: %#v", u)
		}

		n2, ok := Normalize(normalized)
		if !ok || n2 != normalized {
			t.Fatalf("Normalize not idempotent: input=%q got=%q ok=%v", normalized, n2, ok)
		}
	})
}

func FuzzRuleMatches(f *testing.F) {
	f.Add("https://*.example.io", "https://a.example.io")
	f.Add("https://example.com", "https://example.com")
	f.Add("http://localhost:*", "http://localhost:5173")
	f.Add("*", "null")
	f.Add("https://a.*.b", "https://a.x.y.b")

	f.Fuzz(func(t *testing.T, rawRule, originHeader string) {
		rule, err := ParseRule(rawRule)
		if err != nil {
			return
		}
		normalized, ok := Normalize(originHeader)
		if !ok {
			return
		}

		got := rule.Matches(normalized)
		if got != rule.Matches(normalized) {
			t.Fatalf("non-deterministic match rule=%q origin=%q", rule, normalized)
		}
		if rule.String() == "*" && !got {
			t.Fatalf("bare * must match every origin, missed %q", normalized)
		}
		if !rule.IsWildcard() && got != (rule.String() == normalized) {
			t.Fatalf("exact rule %q matched=%v for %q", rule, got, normalized)
		}
		if rule.IsWildcard() && got {
			before, after, _ := strings.Cut(rule.String(), "*")
			if !strings.HasPrefix(normalized, before) || !strings.HasSuffix(normalized, after) {
				t.Fatalf("wildcard rule %q matched %q without anchoring", rule, normalized)
			}
		}
	})
}
