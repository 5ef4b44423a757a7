package handler

import (
	"net/http"

	"proctorfeed/internal/logger"
)

// StartSessionHandler starts capture on the camera named by ?device=
// (the configured camera when empty). Device failures answer 502.
func StartSessionHandler(agent Agent, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := agent.Start(r.Context(), r.URL.Query().Get("device"))
		if err != nil {
			writeError(w, logger, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, logger, http.StatusOK, info)
	}
}

// StopSessionHandler stops capture and releases the camera.
func StopSessionHandler(agent Agent, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agent.Stop()
		writeJSON(w, logger, http.StatusOK, agent.Status())
	}
}

func SessionStatusHandler(agent Agent, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, agent.Status())
	}
}

// DevicesHandler lists the cameras that can be opened.
func DevicesHandler(agent Agent, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		devices := agent.Devices()
		if devices == nil {
			devices = []string{}
		}
		writeJSON(w, logger, http.StatusOK, map[string][]string{"devices": devices})
	}
}

// FrameHandler serves the last frame rendered by the server, or a black frame.
func FrameHandler(agent Agent, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frame, err := agent.LatestFrame()
		if err != nil {
			logger.Error("No frame available: %v", err)
			http.Error(w, "No frame available", http.StatusServiceUnavailable)
			return
		}
		writeJPEG(w, frame)
	}
}
