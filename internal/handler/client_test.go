package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"proctorfeed/internal/dto"
	"proctorfeed/internal/logger"
	"proctorfeed/internal/service/hub"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewWebsocketHandler_SendsInitialState(t *testing.T) {
	log := logger.NewDiscard()
	viewers := hub.NewHubService(log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go viewers.Run(ctx)

	srv := httptest.NewServer(ViewWebsocketHandler(&fakeAgent{running: true}, viewers, log))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var kinds []string
	for i := 0; i < 3; i++ {
		var msg dto.ViewerMessage
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		kinds = append(kinds, msg.Type)
	}
	assert.Equal(t, []string{hub.TypeStatus, hub.TypeNotifications, hub.TypeTimeline}, kinds)

	require.Eventually(t, func() bool { return viewers.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)

	viewers.Broadcast(hub.TypeRemoved, "7")
	var msg dto.ViewerMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, hub.TypeRemoved, msg.Type)
	assert.Equal(t, "7", msg.Data)
}
