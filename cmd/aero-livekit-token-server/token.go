package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/config"
	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/httpserver"
	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/token"
)

func newTokenCmd() *cobra.Command {
	var room, identity string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a token from the command line",
		Long: `Issue a token with the LIVEKIT_API_KEY / LIVEKIT_API_SECRET credentials
from the environment (or .env.local) and print it in the same JSON shape
POST /createToken returns.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(nil)
			if err != nil {
				return configError(err)
			}

			if room == "" {
				room = httpserver.DefaultRoomName
			}
			if identity == "" {
				identity = httpserver.DefaultParticipantName
			}
			tok, err := token.NewIssuer(cfg.Credentials).Issue(room, identity)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(httpserver.CreateTokenResponse{
				ServerURL:        cfg.ServerURL,
				RoomName:         tok.Room,
				ParticipantName:  tok.Identity,
				ParticipantToken: tok.JWT,
			})
		},
	}
	cmd.Flags().StringVar(&room, "room", httpserver.DefaultRoomName, "Room the token grants access to")
	cmd.Flags().StringVar(&identity, "identity", httpserver.DefaultParticipantName, "Participant identity")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "verify <token>",
		Short:        "Verify a token against the configured credentials and print its claims",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(nil)
			if err != nil {
				return configError(err)
			}

			claims, err := token.Verify(args[0], cfg.Credentials)
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(claims)
		},
	}
}
