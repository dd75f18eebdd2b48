package origin

import (
	"net/http"
	"strings"
)

// DefaultAllowedOrigins is used when ALLOWED_ORIGINS is unset: local
// development servers plus the bolt.new editor and its preview containers.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
	"https://bolt.new",
	"https://*.bolt.new",
	"https://*.webcontainer-api.io",
}

// AllowList is an ordered, immutable list of origin rules.
//
// Requests without an Origin header are always allowed (there is nothing to
// check for server-to-server or native callers). Requests whose origin matches
// no rule are denied; there is no fail-open fallback.
type AllowList struct {
	rules []Rule
}

// NewAllowList parses every entry of raw in order. Blank entries are skipped.
func NewAllowList(raw []string) (*AllowList, error) {
	rules := make([]Rule, 0, len(raw))
	for _, entry := range raw {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		r, err := ParseRule(entry)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return &AllowList{rules: rules}, nil
}

// Rules returns the canonical form of each rule, in order.
func (a *AllowList) Rules() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.rules))
	for i, r := range a.rules {
		out[i] = r.String()
	}
	return out
}

// Match returns the first rule matching originHeader. An origin that does not
// normalize (bad scheme, path, etc.) never matches.
func (a *AllowList) Match(originHeader string) (Rule, bool) {
	if a == nil {
		return Rule{}, false
	}
	normalized, ok := Normalize(originHeader)
	if !ok {
		return Rule{}, false
	}
	for _, r := range a.rules {
		if r.Matches(normalized) {
			return r, true
		}
	}
	return Rule{}, false
}

// Allowed reports whether a request carrying originHeader may proceed. An
// empty header means the request had no Origin and is allowed. A nil
// AllowList has no rules and so only admits requests without an Origin.
func (a *AllowList) Allowed(originHeader string) bool {
	if strings.TrimSpace(originHeader) == "" {
		return true
	}
	_, ok := a.Match(originHeader)
	return ok
}

const (
	AllowMethods = "GET, POST, OPTIONS"
	AllowHeaders = "Content-Type, Authorization, X-Requested-With"
)

// ResponseHeaders returns the CORS headers for a response to a request with
// the given Origin header. The credential, method and header lists are sent on
// every response, including rejected and preflight ones. The origin is echoed
// back only when it was allowed; "*" is never used because credentials are
// permitted.
func ResponseHeaders(originHeader string, allowed bool) http.Header {
	h := http.Header{}
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Allow-Methods", AllowMethods)
	h.Set("Access-Control-Allow-Headers", AllowHeaders)
	h.Set("Vary", "Origin")

	trimmed := strings.TrimSpace(originHeader)
	if allowed && trimmed != "" {
		h.Set("Access-Control-Allow-Origin", trimmed)
	}
	return h
}
