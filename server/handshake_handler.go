package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/device-auth-server/token"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// HandshakeResponse is returned by a successful device handshake.
type HandshakeResponse struct {
	Success      bool   `json:"success"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// DeviceAuthHandler runs the device handshake and returns a token pair.
func (s *Server) DeviceAuthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID := r.PathValue(pathDeviceID)

		var req token.HandshakeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Signature == "" {
			writeJSONError(w, detailInvalidBody, http.StatusBadRequest)
			return
		}
		if req.DeviceID == "" {
			req.DeviceID = deviceID
		}
		if req.DeviceID != deviceID {
			writeJSONError(w, detailDeviceIDMismatch, http.StatusBadRequest)
			return
		}

		pair, err := s.issuer.Handshake(r.Context(), req)
		if err != nil {
			status, detail := handshakeFailure(err)
			log.Warn().
				Str("device_id", deviceID).
				Str("kind", errorKind(err)).
				Int("status", status).
				Msg("Handshake rejected")
			writeJSONError(w, detail, status)
			return
		}

		log.Debug().Str("device_id", deviceID).Msg("Handshake succeeded, tokens issued")

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		writeJSON(w, http.StatusOK, HandshakeResponse{
			Success:      true,
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		})
	}
}
