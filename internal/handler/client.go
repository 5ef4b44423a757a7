package handler

import (
	"net/http"
	"time"

	"proctorfeed/internal/dto"
	"proctorfeed/internal/logger"
	"proctorfeed/internal/service/hub"

	"github.com/gorilla/websocket"
)

// Upgrader accepts any origin; the dashboard only listens on loopback.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler sends a new viewer the current status, notification
// list and timeline, then hands the connection to the hub for live updates.
func ViewWebsocketHandler(agent Agent, viewers *hub.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		// Hub jeszcze nie zna połączenia, więc piszemy bez blokady.
		initial := []dto.ViewerMessage{
			{Type: hub.TypeStatus, Data: agent.Status()},
			{Type: hub.TypeNotifications, Data: agent.Notifications()},
			{Type: hub.TypeTimeline, Data: agent.Timeline()},
		}
		for _, msg := range initial {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("Viewer dropped during initial sync: %v", err)
				conn.Close()
				return
			}
		}

		viewers.Register(conn)
		defer viewers.Unregister(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Debug("Viewer disconnected with error: %v", err)
				}
				return
			}
		}
	}
}
