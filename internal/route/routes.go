package route

import (
	"net/http"
	"os"
	"path/filepath"

	"proctorfeed/internal/handler"
	"proctorfeed/internal/logger"
	"proctorfeed/internal/middleware"
	"proctorfeed/internal/service/hub"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// dynamicHTMLHandler serves /path as <dir>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(dir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers the dashboard API, the viewer websocket, the log
// endpoints and the optional static pages under staticDir.
func SetupRoutes(agent handler.Agent, viewers *hub.HubService, logger *logger.Logger, staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/session/start", handler.StartSessionHandler(agent, logger))
		r.Post("/session/stop", handler.StopSessionHandler(agent, logger))
		r.Get("/session", handler.SessionStatusHandler(agent, logger))
		r.Get("/devices", handler.DevicesHandler(agent, logger))
		r.Get("/frame", handler.FrameHandler(agent, logger))

		r.Get("/notifications", handler.NotificationsHandler(agent, logger))
		r.Delete("/notifications/{id}", handler.DeleteNotificationHandler(agent, logger))

		r.Get("/timeline", handler.TimelineHandler(agent, logger))
		r.Post("/timeline/{id}/select", handler.SelectPointHandler(agent, logger))

		r.Get("/snapshots/{id}", handler.SnapshotHandler(agent, logger))

		if viewers != nil {
			r.Get("/view", handler.ViewWebsocketHandler(agent, viewers, logger))
		}
	})

	r.Get("/cheating", handler.CheatingViewHandler(agent, logger))
	r.Get("/cheating/*", handler.CheatingViewHandler(agent, logger))

	// Log endpoints
	r.Get("/logs/{level}", handler.ShowLogsHandler(logger))
	r.Post("/logs/{level}/clear", handler.ClearLogsHandler(logger))

	// Automatic HTML handler mapping for example: /settings -> <staticDir>/settings.html
	r.Get("/*", dynamicHTMLHandler(staticDir))

	return r
}
