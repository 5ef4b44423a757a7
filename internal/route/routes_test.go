package route

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"proctorfeed/internal/dto"
	"proctorfeed/internal/logger"
	"proctorfeed/internal/model"
)

type stubAgent struct {
	calls []string
}

func (a *stubAgent) record(name string) { a.calls = append(a.calls, name) }

func (a *stubAgent) Start(ctx context.Context, deviceID string) (dto.SessionInfo, error) {
	a.record("start:" + deviceID)
	return dto.SessionInfo{Running: true}, nil
}
func (a *stubAgent) Stop()                   { a.record("stop") }
func (a *stubAgent) Status() dto.SessionInfo { a.record("status"); return dto.SessionInfo{} }
func (a *stubAgent) Devices() []string       { a.record("devices"); return []string{"0"} }
func (a *stubAgent) LatestFrame() ([]byte, error) {
	a.record("frame")
	return []byte{0xFF, 0xD8}, nil
}
func (a *stubAgent) Notifications() dto.NotificationsData {
	a.record("notifications")
	return dto.NotificationsData{}
}
func (a *stubAgent) DeleteAlert(ctx context.Context, id string) error {
	a.record("delete:" + id)
	return nil
}
func (a *stubAgent) Timeline() dto.TimelineData { a.record("timeline"); return dto.TimelineData{} }
func (a *stubAgent) SelectPoint(id string) (model.Detail, error) {
	a.record("select:" + id)
	return model.Detail{ID: id}, nil
}
func (a *stubAgent) ResolvePoint(path string) (model.Detail, bool) {
	a.record("resolve:" + path)
	return model.Detail{}, true
}
func (a *stubAgent) Snapshot(ctx context.Context, id string) ([]byte, error) {
	a.record("snapshot:" + id)
	return []byte{0xFF, 0xD8}, nil
}

func TestSetupRoutes(t *testing.T) {
	tests := []struct {
		method string
		path   string
		call   string
	}{
		{http.MethodPost, "/api/session/start?device=1", "start:1"},
		{http.MethodPost, "/api/session/stop", "stop"},
		{http.MethodGet, "/api/session", "status"},
		{http.MethodGet, "/api/devices", "devices"},
		{http.MethodGet, "/api/frame", "frame"},
		{http.MethodGet, "/api/notifications", "notifications"},
		{http.MethodDelete, "/api/notifications/42", "delete:42"},
		{http.MethodGet, "/api/timeline", "timeline"},
		{http.MethodPost, "/api/timeline/42/select", "select:42"},
		{http.MethodGet, "/cheating/42", "resolve:/cheating/42"},
		{http.MethodGet, "/api/snapshots/42", "snapshot:42"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			agent := &stubAgent{}
			router := SetupRoutes(agent, nil, logger.NewDiscard(), t.TempDir())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if len(agent.calls) == 0 || agent.calls[0] != tt.call {
				t.Errorf("Expected call %q, got %v", tt.call, agent.calls)
			}
		})
	}
}

func TestSetupRoutes_MethodMismatch(t *testing.T) {
	router := SetupRoutes(&stubAgent{}, nil, logger.NewDiscard(), t.TempDir())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/start", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestDynamicHTMLHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>dashboard</h1>"), 0644); err != nil {
		t.Fatal(err)
	}
	router := SetupRoutes(&stubAgent{}, nil, logger.NewDiscard(), dir)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "<h1>dashboard</h1>" {
		t.Errorf("Expected index page, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for a missing page, got %d", rec.Code)
	}
}
