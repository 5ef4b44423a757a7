package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"proctorfeed/internal/dto"
	"proctorfeed/internal/logger"
	"proctorfeed/internal/model"
)

// Agent is what the dashboard needs from the service manager.
type Agent interface {
	Start(ctx context.Context, deviceID string) (dto.SessionInfo, error)
	Stop()
	Status() dto.SessionInfo
	Devices() []string
	LatestFrame() ([]byte, error)
	Notifications() dto.NotificationsData
	DeleteAlert(ctx context.Context, id string) error
	Timeline() dto.TimelineData
	SelectPoint(id string) (model.Detail, error)
	ResolvePoint(path string) (model.Detail, bool)
	Snapshot(ctx context.Context, id string) ([]byte, error)
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, logger *logger.Logger, status int, message string) {
	writeJSON(w, logger, status, map[string]string{"error": message})
}

func writeJPEG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}
