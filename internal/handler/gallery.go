package handler

import (
	"errors"
	"net/http"

	"proctorfeed/internal/logger"
	"proctorfeed/internal/timeline"

	"github.com/go-chi/chi/v5"
)

// NotificationsHandler returns the notification list newest-first.
func NotificationsHandler(agent Agent, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, agent.Notifications())
	}
}

// DeleteNotificationHandler deletes an alert on the server and locally.
// Deleting an id that is already gone succeeds. A failed server call leaves
// the alert in place and answers 502.
func DeleteNotificationHandler(agent Agent, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := agent.DeleteAlert(r.Context(), id); err != nil {
			writeError(w, logger, http.StatusBadGateway, "Failed to delete, try again: "+err.Error())
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "deleted", "id": id})
	}
}

func TimelineHandler(agent Agent, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, agent.Timeline())
	}
}

// SelectPointHandler activates a timeline point and returns its detail.
func SelectPointHandler(agent Agent, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := agent.SelectPoint(chi.URLParam(r, "id"))
		if errors.Is(err, timeline.ErrUnknownPoint) {
			writeError(w, logger, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			writeError(w, logger, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, logger, http.StatusOK, detail)
	}
}

// CheatingViewHandler opens the detail view: the identifier in the path
// selects the point, otherwise the newest point is shown.
func CheatingViewHandler(agent Agent, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, ok := agent.ResolvePoint(r.URL.Path)
		if !ok {
			writeError(w, logger, http.StatusNotFound, "No cheating snapshots yet")
			return
		}
		writeJSON(w, logger, http.StatusOK, detail)
	}
}

// SnapshotHandler serves a snapshot JPEG from the archive, the server or the black fallback.
func SnapshotHandler(agent Agent, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := agent.Snapshot(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			logger.Error("Snapshot unavailable: %v", err)
			http.Error(w, "Snapshot unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJPEG(w, data)
	}
}
