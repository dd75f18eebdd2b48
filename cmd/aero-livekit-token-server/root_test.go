package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/config"
	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/httpserver"
	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/token"
)

func setTestEnv(t *testing.T, key, secret string) {
	t.Helper()
	t.Setenv(config.EnvEnvFile, filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv(config.EnvLiveKitAPIKey, key)
	t.Setenv(config.EnvLiveKitAPISecret, secret)
	t.Setenv(config.EnvLiveKitServerURL, "wss://cli.example.test")
	t.Setenv(config.EnvAllowedOrigins, "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenThenVerify(t *testing.T) {
	setTestEnv(t, "cli-key", "cli-secret")

	out, err := execute(t, "token", "--room", "lobby", "--identity", "bob")
	require.NoError(t, err)

	var resp httpserver.CreateTokenResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "wss://cli.example.test", resp.ServerURL)
	assert.Equal(t, "lobby", resp.RoomName)
	assert.Equal(t, "bob", resp.ParticipantName)

	out, err = execute(t, "verify", resp.ParticipantToken)
	require.NoError(t, err)

	var claims token.Claims
	require.NoError(t, json.Unmarshal([]byte(out), &claims), out)
	assert.Equal(t, "bob", claims.Identity())
	assert.Equal(t, "cli-key", claims.Issuer)
	assert.Equal(t, "lobby", claims.Video.Room)
	assert.True(t, claims.Video.RoomJoin)
}

func TestTokenDefaults(t *testing.T) {
	setTestEnv(t, "cli-key", "cli-secret")

	out, err := execute(t, "token")
	require.NoError(t, err)

	var resp httpserver.CreateTokenResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, httpserver.DefaultRoomName, resp.RoomName)
	assert.Equal(t, httpserver.DefaultParticipantName, resp.ParticipantName)
}

func TestTokenMissingCredentials(t *testing.T) {
	setTestEnv(t, "", "")

	_, err := execute(t, "token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, token.ErrSigning), "err=%v", err)
}

func TestVerifyRejectsForeignToken(t *testing.T) {
	setTestEnv(t, "cli-key", "cli-secret")
	out, err := execute(t, "token")
	require.NoError(t, err)
	var resp httpserver.CreateTokenResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	setTestEnv(t, "cli-key", "another-secret")
	_, err = execute(t, "verify", resp.ParticipantToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, token.ErrInvalidToken), "err=%v", err)
}

func TestVerifyRequiresOneArgument(t *testing.T) {
	setTestEnv(t, "cli-key", "cli-secret")

	_, err := execute(t, "verify")
	require.Error(t, err)
}

func TestServerHelpIsNotAnError(t *testing.T) {
	setTestEnv(t, "cli-key", "cli-secret")

	_, err := execute(t, "--help")
	require.NoError(t, err)
}

func TestServerInvalidConfigExitCode(t *testing.T) {
	setTestEnv(t, "cli-key", "cli-secret")
	t.Setenv(config.EnvAllowedOrigins, "https://*.*.example.io")

	_, err := execute(t, "--listen-addr=127.0.0.1:0")
	require.Error(t, err)
	var ee *exitError
	require.True(t, errors.As(err, &ee), "err=%v", err)
	assert.Equal(t, 2, ee.code)
}
