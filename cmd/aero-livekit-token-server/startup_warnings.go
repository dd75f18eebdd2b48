package main

import (
	"log/slog"
	"net"
	"strings"

	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/config"
)

func logStartupSecurityWarnings(logger *slog.Logger, cfg config.Config) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.Credentials.Validate(); err != nil {
		logger.Warn("startup warning: LiveKit credentials are not set; every token request will fail with 500",
			"warning_code", "livekit_credentials_missing",
			"api_key_set", strings.TrimSpace(cfg.Credentials.APIKey) != "",
			"api_secret_set", strings.TrimSpace(cfg.Credentials.APISecret) != "",
			"mode", cfg.Mode,
		)
	}

	if containsString(cfg.AllowedOrigins, "*") {
		logger.Warn("startup security warning: ALLOWED_ORIGINS contains '*' (allows any origin)",
			"warning_code", "allowed_origins_wildcard",
			"allowed_origins", cfg.AllowedOrigins,
			"mode", cfg.Mode,
		)
	}

	if cfg.Mode != config.ModeProd {
		return
	}

	var plain []string
	for _, rule := range cfg.AllowedOrigins {
		if host, ok := strings.CutPrefix(rule, "http://"); ok && !isLoopbackHost(hostOnly(host)) {
			plain = append(plain, rule)
		}
	}
	if len(plain) > 0 {
		logger.Warn("startup security warning: ALLOWED_ORIGINS contains plain http:// origins while --mode=prod",
			"warning_code", "allowed_origins_plain_http_in_prod",
			"origins", plain,
			"mode", cfg.Mode,
		)
	}

	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(cfg.ServerURL)), "ws://") {
		logger.Warn("startup security warning: LIVEKIT_SERVER_URL uses unencrypted ws:// while --mode=prod",
			"warning_code", "livekit_server_url_insecure_in_prod",
			"server_url", cfg.ServerURL,
			"mode", cfg.Mode,
		)
	}
}

// hostOnly strips the port from the authority part of an origin rule.
func hostOnly(authority string) string {
	if strings.HasPrefix(authority, "[") {
		if end := strings.IndexByte(authority, ']'); end > 0 {
			return authority[1:end]
		}
		return authority
	}
	host, _, _ := strings.Cut(authority, ":")
	return host
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func containsString(xs []string, v string) bool {
	for _, s := range xs {
		if s == v {
			return true
		}
	}
	return false
}
