package main

import (
	"context"
	"errors"
	"net"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/config"
	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/httpserver"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "aero-livekit-token-server",
		Short: "Issue LiveKit room access tokens to allow-listed browser origins",
		Long: `aero-livekit-token-server serves POST /createToken, which returns a
short-lived LiveKit access token for a room and participant.

Running without a subcommand starts the HTTP server. Server flags are parsed
by the server itself; run with --help to list them.`,
		// config.Load parses the server flags.
		DisableFlagParsing: true,
		Args:               cobra.ArbitraryArgs,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), args)
		},
	}
	root.AddCommand(newTokenCmd(), newVerifyCmd())
	return root
}

func runServer(ctx context.Context, args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return configError(err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return configError(err)
	}

	logger.Info("starting aero-livekit-token-server",
		"listen_addr", cfg.ListenAddr,
		"server_url", cfg.ServerURL,
		"mode", cfg.Mode,
		"allowed_origins", cfg.AllowedOrigins,
		"env_file", cfg.EnvFile,
	)

	logStartupSecurityWarnings(logger, cfg)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Error("failed to listen", "err", err)
		return err
	}

	srv := httpserver.New(cfg, logger, resolveBuildInfo(buildCommit, buildTime))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, httpserver.ErrServerClosed) {
			logger.Error("http server exited", "err", err)
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "err", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, httpserver.ErrServerClosed) {
		logger.Error("http server exited after shutdown", "err", err)
		return err
	}
	return nil
}

func resolveBuildInfo(commit, buildTime string) httpserver.BuildInfo {
	// Prefer ldflags-injected values (production builds) but fall back to the Go
	// build info when available (useful for `go run` / dev builds).
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if commit == "" {
					commit = s.Value
				}
			case "vcs.time":
				if buildTime == "" {
					buildTime = s.Value
				}
			}
		}
	}

	return httpserver.BuildInfo{Commit: commit, BuildTime: buildTime}
}
