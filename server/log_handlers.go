package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/device-auth-server/internal/errors"
	"github.com/jrsteele09/device-auth-server/telemetry"
	"github.com/rs/zerolog/log"
)

// AddLogRequest is the body of a device log write. Both fields are required.
type AddLogRequest struct {
	StatusInt *int   `json:"status_int"`
	CreatedAt *int64 `json:"created_at"`
}

// AddLogResponse is returned once the log is stored.
type AddLogResponse struct {
	Success bool   `json:"success"`
	LogID   string `json:"log_id"`
}

// ListDeviceLogsHandler returns the logs stored for a device
func (s *Server) ListDeviceLogsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID := r.PathValue(pathDeviceID)

		logs, err := s.recorder.List(r.Context(), deviceID)
		if err != nil {
			log.Err(err).Str("device_id", deviceID).Msg("Failed to list device logs")
			writeJSONError(w, "Error fetching logs for device "+deviceID, http.StatusInternalServerError)
			return
		}
		if logs == nil {
			logs = []*telemetry.Log{}
		}
		writeJSON(w, http.StatusOK, logs)
	}
}

// AddDeviceLogHandler stores a log for an authorized device. It must run
// behind RequireDeviceToken.
func (s *Server) AddDeviceLogHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID := r.PathValue(pathDeviceID)
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			deviceID = claims.DeviceID
		}

		var req AddLogRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil ||
			req.StatusInt == nil || req.CreatedAt == nil {
			writeJSONError(w, detailInvalidBody, http.StatusBadRequest)
			return
		}

		entry, err := s.recorder.Record(r.Context(), deviceID, *req.StatusInt, *req.CreatedAt)
		if errors.Is(err, errors.ErrDeviceNotFound) {
			writeJSONError(w, detailDeviceNotFound, http.StatusNotFound)
			return
		}
		if err != nil {
			log.Err(err).Str("device_id", deviceID).Msg("Failed to add log")
			writeJSONError(w, "Failed to add log", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, AddLogResponse{Success: true, LogID: entry.ID})
	}
}
