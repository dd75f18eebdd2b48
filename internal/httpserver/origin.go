package httpserver

import (
	"net/http"
	"strings"

	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/metrics"
	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/origin"
)

// checkOrigin returns the request's Origin header and whether the allow-list
// admits it. A request carrying more than one Origin header is never allowed.
func (s *Server) checkOrigin(r *http.Request) (string, bool) {
	values := r.Header.Values("Origin")
	switch len(values) {
	case 0:
		return "", true
	case 1:
		originHeader := strings.TrimSpace(values[0])
		return originHeader, s.origins.Allowed(originHeader)
	default:
		return strings.TrimSpace(values[0]), false
	}
}

// corsMiddleware writes the CORS headers on every response and answers
// preflight requests for any path with an empty 200.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		originHeader, allowed := s.checkOrigin(r)
		for k, v := range origin.ResponseHeaders(originHeader, allowed) {
			w.Header()[k] = v
		}

		if r.Method == http.MethodOptions {
			s.metrics.Inc(metrics.Preflight)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAllowedOrigin rejects requests whose Origin is not on the
// allow-list. Requests without an Origin header pass.
func (s *Server) requireAllowedOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		originHeader, allowed := s.checkOrigin(r)
		if !allowed {
			s.metrics.Inc(metrics.OriginRejected)
			s.log.Warn("origin rejected",
				"origin", originHeader,
				"origin_headers", len(r.Header.Values("Origin")),
				"path", r.URL.Path,
			)
			writeError(w, http.StatusForbidden, "origin not allowed")
			return
		}
		if originHeader != "" {
			if rule, ok := s.origins.Match(originHeader); ok {
				s.log.Debug("origin allowed", "origin", originHeader, "rule", rule.String())
			}
		}
		next.ServeHTTP(w, r)
	})
}
