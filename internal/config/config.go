package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/origin"
	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/token"
)

const (
	EnvLiveKitAPIKey    = "LIVEKIT_API_KEY"
	EnvLiveKitAPISecret = "LIVEKIT_API_SECRET"
	EnvLiveKitServerURL = "LIVEKIT_SERVER_URL"
	EnvAllowedOrigins   = "ALLOWED_ORIGINS"

	EnvListenAddr      = "AERO_LIVEKIT_TOKEN_SERVER_LISTEN_ADDR"
	EnvLogFormat       = "AERO_LIVEKIT_TOKEN_SERVER_LOG_FORMAT"
	EnvLogLevel        = "AERO_LIVEKIT_TOKEN_SERVER_LOG_LEVEL"
	EnvShutdownTimeout = "AERO_LIVEKIT_TOKEN_SERVER_SHUTDOWN_TIMEOUT"
	EnvMode            = "AERO_LIVEKIT_TOKEN_SERVER_MODE"
	EnvEnvFile         = "AERO_LIVEKIT_TOKEN_SERVER_ENV_FILE"

	DefaultListenAddr      = "127.0.0.1:3000"
	DefaultServerURL       = "ws://localhost:7880"
	DefaultShutdown        = 15 * time.Second
	DefaultEnvFile         = ".env.local"
	DefaultMode       Mode = ModeDev
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config is built once at startup and shared read-only by every request.
type Config struct {
	ListenAddr      string
	LogFormat       LogFormat
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
	Mode            Mode

	// ServerURL is returned to clients as-is; it is never validated.
	ServerURL string

	// Credentials may be empty. That is not a load error: issuance fails per
	// request and /readyz reports it.
	Credentials token.Credentials

	// AllowedOrigins holds the canonical form of every rule in Origins.
	AllowedOrigins []string
	Origins        *origin.AllowList

	// EnvFile is the dotenv file that was loaded, or empty if none was found.
	EnvFile string
}

// Load reads configuration from the process environment, an optional dotenv
// file (.env.local by default) and command line flags, in increasing order of
// precedence. Real environment variables always win over the dotenv file.
func Load(args []string) (Config, error) {
	lookup, envFile, err := withEnvFile(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	cfg, err := load(lookup, args)
	if err != nil {
		return Config{}, err
	}
	cfg.EnvFile = envFile
	return cfg, nil
}

func withEnvFile(lookup func(string) (string, bool)) (func(string) (string, bool), string, error) {
	path := envOrDefault(lookup, EnvEnvFile, DefaultEnvFile)
	fileVars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return lookup, "", nil
		}
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}, path, nil
}

func load(lookup func(string) (string, bool), args []string) (Config, error) {
	envMode, _ := lookup(EnvMode)
	modeDefault := string(DefaultMode)
	if envMode != "" {
		modeDefault = envMode
	}

	envLogFormat, _ := lookup(EnvLogFormat)
	envLogLevel, _ := lookup(EnvLogLevel)

	listenAddr := envOrDefault(lookup, EnvListenAddr, DefaultListenAddr)
	serverURL := envOrDefault(lookup, EnvLiveKitServerURL, DefaultServerURL)
	allowedOriginsStr := envOrDefault(lookup, EnvAllowedOrigins, strings.Join(origin.DefaultAllowedOrigins, ","))

	shutdownTimeout := DefaultShutdown
	if raw, ok := lookup(EnvShutdownTimeout); ok && strings.TrimSpace(raw) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvShutdownTimeout, raw, err)
		}
		shutdownTimeout = d
	}

	// Credentials are deliberately env-only so they never show up in a process
	// listing.
	creds := token.Credentials{
		APIKey:    envOrDefault(lookup, EnvLiveKitAPIKey, ""),
		APISecret: envOrDefault(lookup, EnvLiveKitAPISecret, ""),
	}

	flags := pflag.NewFlagSet("aero-livekit-token-server", pflag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	var (
		modeStr      string
		logFormatStr string
		logLevelStr  string
	)

	flags.StringVar(&listenAddr, "listen-addr", listenAddr, "HTTP listen address (host:port) (env "+EnvListenAddr+")")
	flags.StringVar(&serverURL, "server-url", serverURL, "LiveKit server URL returned to clients (env "+EnvLiveKitServerURL+")")
	flags.StringVar(&allowedOriginsStr, "allowed-origins", allowedOriginsStr, "Comma-separated allowed browser origins; a single '*' per entry matches any substring (env "+EnvAllowedOrigins+")")
	flags.StringVar(&modeStr, "mode", modeDefault, "Run mode: dev or prod (env "+EnvMode+")")
	flags.StringVar(&logFormatStr, "log-format", "", "Log format: text or json (default depends on --mode; env "+EnvLogFormat+")")
	flags.StringVar(&logLevelStr, "log-level", "", "Log level: debug, info, warn, error (default depends on --mode; env "+EnvLogLevel+")")
	flags.DurationVar(&shutdownTimeout, "shutdown-timeout", shutdownTimeout, "Graceful shutdown timeout (e.g. 15s) (env "+EnvShutdownTimeout+")")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	mode, err := parseMode(modeStr)
	if err != nil {
		return Config{}, err
	}

	// Explicit flag > env > mode-derived default.
	if logFormatStr == "" {
		logFormatStr = envLogFormat
	}
	if logFormatStr == "" {
		logFormatStr = defaultLogFormatForMode(mode)
	}
	logFormat, err := parseLogFormat(logFormatStr)
	if err != nil {
		return Config{}, err
	}

	if logLevelStr == "" {
		logLevelStr = envLogLevel
	}
	if logLevelStr == "" {
		logLevelStr = defaultLogLevelForMode(mode)
	}
	logLevel, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(listenAddr) == "" {
		return Config{}, fmt.Errorf("listen address must not be empty")
	}
	if shutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("shutdown timeout must be > 0 (got %s)", shutdownTimeout)
	}

	origins, err := origin.NewAllowList(splitList(allowedOriginsStr))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", EnvAllowedOrigins, err)
	}

	return Config{
		ListenAddr:      listenAddr,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		ShutdownTimeout: shutdownTimeout,
		Mode:            mode,
		ServerURL:       serverURL,
		Credentials:     creds,
		AllowedOrigins:  origins.Rules(),
		Origins:         origins,
	}, nil
}

func NewLogger(cfg Config) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	switch cfg.LogFormat {
	case LogFormatText:
		handler = slog.NewTextHandler(os.Stdout, opts)
	case LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	return slog.New(handler), nil
}

func envOrDefault(lookup func(string) (string, bool), key, fallback string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, entry := range strings.Split(raw, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

func defaultLogFormatForMode(mode Mode) string {
	if mode == ModeProd {
		return string(LogFormatJSON)
	}
	return string(LogFormatText)
}

func defaultLogLevelForMode(mode Mode) string {
	if mode == ModeProd {
		return "info"
	}
	return "debug"
}

func parseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ModeDev), "development":
		return ModeDev, nil
	case string(ModeProd), "production":
		return ModeProd, nil
	default:
		return "", fmt.Errorf("invalid mode %q (expected dev or prod)", raw)
	}
}

func parseLogFormat(raw string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogFormatText):
		return LogFormatText, nil
	case string(LogFormatJSON):
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf("invalid log format %q (expected text or json)", raw)
	}
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (expected debug, info, warn, error)", raw)
	}
}
