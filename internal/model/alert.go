package model

import (
	"path"
	"strings"
	"time"
)

// DisplayLayout formats detection timestamps for people.
const DisplayLayout = "2006-01-02 15:04:05"

// SnapshotAlert represents a flagged frame persisted by the proctoring server.
type SnapshotAlert struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	URL         string `json:"url"`
	DisplayTime string `json:"timestamp"`
	Epoch       int64  `json:"epoch"` // milisekundy
	Cheating    bool   `json:"cheating"`
}

// NewSnapshotAlert builds an alert, deriving the identifier from the locator when id is empty.
func NewSnapshotAlert(id, message, url string, at time.Time) SnapshotAlert {
	if id == "" {
		id = IDFromLocator(url)
	}
	return SnapshotAlert{
		ID:          id,
		Message:     message,
		URL:         url,
		DisplayTime: at.Format(DisplayLayout),
		Epoch:       at.UnixMilli(),
		Cheating:    true,
	}
}

// Time returns the detection time carried by Epoch.
func (a SnapshotAlert) Time() time.Time {
	return time.UnixMilli(a.Epoch)
}

// IDFromLocator returns the last path segment of a snapshot locator.
func IDFromLocator(locator string) string {
	if i := strings.IndexAny(locator, "?#"); i >= 0 {
		locator = locator[:i]
	}
	locator = strings.TrimRight(locator, "/")
	if locator == "" {
		return ""
	}
	return path.Base(locator)
}
