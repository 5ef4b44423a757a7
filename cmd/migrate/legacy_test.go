package main

import (
	"strings"
	"testing"
	"time"

	"proctorfeed/internal/model"
)

const export = `{
  "notifications": [
    {"message": "Connected to server"},
    {"message": "Cheating detected! Click here for details.", "url": "/cheating_snapshot/1", "timestamp": "2025-06-15 10:00:00"},
    {"message": "Cheating detected! Click here for details.", "url": "/cheating_snapshot/1", "timestamp": "2025-06-15 10:00:00"},
    {"message": "Cheating detected! Click here for details.", "url": "/cheating_snapshot/2", "timestamp": "2025-06-15 11:00:00"}
  ],
  "timelinePoints": [
    {"id": "1", "url": "/cheating_snapshot/1", "timestamp": "2025-06-15 10:00:00"},
    {"url": "/cheating_snapshot/2", "timestamp": "2025-06-15 11:00:00", "epoch": 1750000000000}
  ],
  "seenAlerts": ["/cheating_snapshot/1", "/cheating_snapshot/0"]
}`

func TestParseLegacy(t *testing.T) {
	st, err := parseLegacy(strings.NewReader(export), time.UTC)
	if err != nil {
		t.Fatalf("parseLegacy failed: %v", err)
	}

	if len(st.Notifications) != 3 {
		t.Fatalf("Expected 3 notifications (duplicate dropped), got %d", len(st.Notifications))
	}
	if st.Notifications[0].Kind != model.KindSystem {
		t.Errorf("First entry should be a system notification, got %+v", st.Notifications[0])
	}
	if n := st.Notifications[1]; n.ID != "1" || n.Kind != model.KindAlert {
		t.Errorf("Unexpected alert entry %+v", n)
	}
	wantEpoch := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC).UnixMilli()
	if st.Notifications[1].Epoch != wantEpoch {
		t.Errorf("Expected epoch %d, got %d", wantEpoch, st.Notifications[1].Epoch)
	}

	if len(st.Points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(st.Points))
	}
	if st.Points[1].ID != "2" || st.Points[1].Epoch != 1750000000000 {
		t.Errorf("Point should derive ID and keep explicit epoch, got %+v", st.Points[1])
	}

	if len(st.Seen) != 3 {
		t.Errorf("Expected 3 seen locators, got %v", st.Seen)
	}
}

func TestParseLegacy_Malformed(t *testing.T) {
	if _, err := parseLegacy(strings.NewReader("{"), time.UTC); err == nil {
		t.Error("Expected an error for malformed JSON")
	}
}
