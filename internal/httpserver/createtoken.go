package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wilsonzlin/aero/proxy/livekit-token-server/internal/metrics"
)

const (
	DefaultRoomName        = "demo-room"
	DefaultParticipantName = "demo-user"

	maxRequestBodyBytes = 64 << 10
)

type createTokenRequest struct {
	RoomName        string `json:"roomName"`
	ParticipantName string `json:"participantName"`
}

// CreateTokenResponse is the success body of POST /createToken.
type CreateTokenResponse struct {
	ServerURL        string `json:"serverUrl"`
	RoomName         string `json:"roomName"`
	ParticipantName  string `json:"participantName"`
	ParticipantToken string `json:"participantToken"`
}

func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateTokenRequest(w, r)
	if err != nil {
		s.metrics.Inc(metrics.BadRequest)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	room := req.RoomName
	if room == "" {
		room = DefaultRoomName
	}
	participant := req.ParticipantName
	if participant == "" {
		participant = DefaultParticipantName
	}

	tok, err := s.issuer.Issue(room, participant)
	if err != nil {
		s.metrics.Inc(metrics.TokenSigningFailed)
		s.log.Error("token signing failed", "room", room, "participant", participant, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.metrics.Inc(metrics.TokenIssued)
	s.log.Debug("token issued",
		"room", room,
		"participant", participant,
		"token_id", tok.ID,
		"expires_at", tok.ExpiresAt,
	)
	WriteJSON(w, http.StatusOK, CreateTokenResponse{
		ServerURL:        s.cfg.ServerURL,
		RoomName:         room,
		ParticipantName:  participant,
		ParticipantToken: tok.JWT,
	})
}

// decodeCreateTokenRequest reads the optional JSON body. An empty body, or a
// JSON null, yields the zero request so both fields fall back to defaults.
func decodeCreateTokenRequest(w http.ResponseWriter, r *http.Request) (createTokenRequest, error) {
	var req createTokenRequest
	if r.Body == nil {
		return req, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		return req, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return createTokenRequest{}, err
	}
	return req, nil
}
