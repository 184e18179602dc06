package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/device-auth-server/devices"
	"github.com/jrsteele09/device-auth-server/internal/errors"
	"github.com/rs/zerolog/log"
)

// IndexHandler returns the service greeting
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Hello this is the " + s.config.GetAppName() + " API",
		})
	}
}

// ListDevicesHandler lists registered devices. Optional offset and limit
// query parameters page the result.
func (s *Server) ListDevicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, ok := queryInt(r, "offset")
		if !ok {
			writeJSONError(w, detailInvalidPaging, http.StatusBadRequest)
			return
		}
		limit, ok := queryInt(r, "limit")
		if !ok {
			writeJSONError(w, detailInvalidPaging, http.StatusBadRequest)
			return
		}

		list, err := s.devices.List(r.Context(), offset, limit)
		if err != nil {
			log.Err(err).Msg("Failed to list devices")
			writeJSONError(w, "Error fetching devices", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []*devices.Device{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": list})
	}
}

// GetDeviceHandler returns one registry record
func (s *Server) GetDeviceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID := r.PathValue(pathDeviceID)

		device, err := s.devices.Get(r.Context(), deviceID)
		if errors.Is(err, errors.ErrNotFound) {
			writeJSONError(w, detailDeviceNotFound, http.StatusNotFound)
			return
		}
		if err != nil {
			log.Err(err).Str("device_id", deviceID).Msg("Failed to get device")
			writeJSONError(w, "Error fetching device", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"device": device})
	}
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
