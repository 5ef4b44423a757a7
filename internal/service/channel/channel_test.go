package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"proctorfeed/internal/dispatch"
	"proctorfeed/internal/dto"
	"proctorfeed/internal/logger"
	"proctorfeed/internal/wire"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkFunc func(dispatch.Event) error

func (f sinkFunc) Submit(ev dispatch.Event) error { return f(ev) }

// fakeServer records inbound messages and lets the test push messages and drop connections.
type fakeServer struct {
	*httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    []*websocket.Conn
	received []wire.Envelope
	accepts  atomic.Int64
}

func newFakeServer(t *testing.T) *fakeServer {
	s := &fakeServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.accepts.Add(1)
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env wire.Envelope
		if json.Unmarshal(raw, &env) == nil {
			s.mu.Lock()
			s.received = append(s.received, env)
			s.mu.Unlock()
		}
	}
}

func (s *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func (s *fakeServer) push(t *testing.T, msg string) {
	t.Helper()
	s.mu.Lock()
	conn := s.conns[len(s.conns)-1]
	s.mu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func (s *fakeServer) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
}

func (s *fakeServer) receivedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func fastOptions() Options {
	return Options{ReconnectDelay: 10 * time.Millisecond, MaxReconnectDelay: 40 * time.Millisecond}
}

func TestEmit_NotConnected(t *testing.T) {
	c := New("ws://127.0.0.1:1/socket", sinkFunc(func(dispatch.Event) error { return nil }), logger.NewDiscard(), fastOptions())

	assert.False(t, c.Connected())
	assert.ErrorIs(t, c.Emit(wire.EventFrame, dto.FrameMessage{Image: "x"}), ErrNotConnected)
	c.Close()
}

func TestClient_ConnectEmitAndReceive(t *testing.T) {
	srv := newFakeServer(t)

	var mu sync.Mutex
	var events []dispatch.Event
	var connects atomic.Int64

	opts := fastOptions()
	opts.OnConnect = func() { connects.Add(1) }
	c := New(srv.url(), sinkFunc(func(ev dispatch.Event) error {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
		return nil
	}), logger.NewDiscard(), opts)
	c.Start(context.Background())
	defer c.Close()

	require.Eventually(t, c.Connected, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), connects.Load())

	require.NoError(t, c.Emit(wire.EventFrame, dto.FrameMessage{Image: "data:image/jpeg;base64,AA=="}))
	require.Eventually(t, func() bool { return srv.receivedCount() == 1 }, time.Second, 5*time.Millisecond)
	srv.mu.Lock()
	assert.Equal(t, "frame", srv.received[0].Event)
	srv.mu.Unlock()

	srv.push(t, `{"event":"connected","data":{"data":"ready"}}`)
	srv.push(t, `{"event":"response_frame","data":{"image":"data:x","cheating":true}}`)
	srv.push(t, `{"event":"cheating_notification","data":{"message":"m","url":"/cheating_snapshot/9"}}`)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, dispatch.RenderFrame{Image: "data:x", Cheating: true}, events[0])
	alert, ok := events[1].(dispatch.AlertRaised)
	mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, "/cheating_snapshot/9", alert.URL)
}

func TestClient_Reconnects(t *testing.T) {
	srv := newFakeServer(t)

	var connects atomic.Int64
	opts := fastOptions()
	opts.OnConnect = func() { connects.Add(1) }
	c := New(srv.url(), sinkFunc(func(dispatch.Event) error { return nil }), logger.NewDiscard(), opts)
	c.Start(context.Background())
	c.Start(context.Background()) // second start is a no-op
	defer c.Close()

	require.Eventually(t, c.Connected, time.Second, 5*time.Millisecond)

	srv.dropAll()
	require.Eventually(t, func() bool { return connects.Load() == 2 && c.Connected() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), srv.accepts.Load())
}

func TestClient_CloseStopsLoop(t *testing.T) {
	c := New("ws://127.0.0.1:1/socket", sinkFunc(func(dispatch.Event) error { return nil }), logger.NewDiscard(), fastOptions())
	c.Start(context.Background())

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.False(t, c.Connected())
}
