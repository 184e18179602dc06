package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/device-auth-server/token"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified bearer token claims
	ContextKeyClaims ContextKey = "claims"
)

// RequireDeviceToken is middleware that validates the device bearer token
// against the {device_id} path value. Used for device write routes.
func (s *Server) RequireDeviceToken() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			deviceID := r.PathValue(pathDeviceID)

			claims, err := s.validator.Validate(r.Context(), deviceID, r.Header.Get("Authorization"))
			if err != nil {
				status, detail := bearerFailure(err)
				log.Warn().
					Str("device_id", deviceID).
					Str("kind", errorKind(err)).
					Int("status", status).
					Msg("Bearer token rejected")
				if status == http.StatusInternalServerError {
					log.Err(err).Str("device_id", deviceID).Msg("Bearer validation failed")
				}
				writeJSONError(w, detail, status)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// ClaimsFromContext returns the claims stored by RequireDeviceToken.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok
}
