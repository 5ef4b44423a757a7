package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"proctorfeed/internal/model"
	"proctorfeed/internal/service/cache"

	"github.com/google/uuid"
)

// legacyExport is the session-storage dump of the browser dashboard.
type legacyExport struct {
	Notifications  []legacyNotification `json:"notifications"`
	TimelinePoints []legacyPoint        `json:"timelinePoints"`
	SeenAlerts     []string             `json:"seenAlerts"`
}

type legacyNotification struct {
	Message   string `json:"message"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

type legacyPoint struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
	Epoch     int64  `json:"epoch"`
}

// parseLegacy converts an export into cache state. Notifications keep their order.
func parseLegacy(r io.Reader, loc *time.Location) (cache.State, error) {
	var exp legacyExport
	if err := json.NewDecoder(r).Decode(&exp); err != nil {
		return cache.State{}, fmt.Errorf("decode export: %w", err)
	}

	var st cache.State
	seen := make(map[string]bool)
	addSeen := func(locator string) {
		if locator != "" && !seen[locator] {
			seen[locator] = true
			st.Seen = append(st.Seen, locator)
		}
	}

	for _, n := range exp.Notifications {
		if n.URL == "" {
			st.Notifications = append(st.Notifications, model.Notification{
				ID:      uuid.NewString(),
				Kind:    model.KindSystem,
				Message: n.Message,
			})
			continue
		}
		if seen[n.URL] {
			continue
		}
		alert := model.SnapshotAlert{
			ID:          model.IDFromLocator(n.URL),
			Message:     n.Message,
			URL:         n.URL,
			DisplayTime: n.Timestamp,
			Epoch:       epochOf(n.Timestamp, loc),
			Cheating:    true,
		}
		st.Notifications = append(st.Notifications, model.AlertNotification(alert))
		addSeen(n.URL)
	}

	for _, p := range exp.TimelinePoints {
		id := p.ID
		if id == "" {
			id = model.IDFromLocator(p.URL)
		}
		epoch := p.Epoch
		if epoch == 0 {
			epoch = epochOf(p.Timestamp, loc)
		}
		st.Points = append(st.Points, model.TimelinePoint{ID: id, Locator: p.URL, DisplayTime: p.Timestamp, Epoch: epoch})
		addSeen(p.URL)
	}

	for _, l := range exp.SeenAlerts {
		addSeen(l)
	}
	return st, nil
}

func epochOf(display string, loc *time.Location) int64 {
	t, err := time.ParseInLocation(model.DisplayLayout, display, loc)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
