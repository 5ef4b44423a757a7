package render

import (
	"strings"
	"testing"

	"proctorfeed/internal/dto"
	"proctorfeed/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestStatus_MutuallyExclusive(t *testing.T) {
	on := Status(true)
	off := Status(false)

	assert.Equal(t, dto.StatusBadge{Label: "Cheating detected", Cheating: true, Color: "red", Bold: true}, on)
	assert.Equal(t, dto.StatusBadge{Label: "Not detected", Color: "green"}, off)
}

func TestTerminal_ContainsLabel(t *testing.T) {
	assert.Contains(t, Terminal(Status(true)), LabelCheating)
	assert.Contains(t, Terminal(Status(false)), LabelClear)
}

func TestStatusLine(t *testing.T) {
	line := StatusLine(dto.SessionInfo{Running: true, Device: "0", Connected: true, Status: Status(false)})
	assert.Contains(t, line, "capturing 0")
	assert.Contains(t, line, "online")

	line = StatusLine(dto.SessionInfo{Status: Status(true)})
	assert.Contains(t, line, "stopped")
	assert.Contains(t, line, "offline")
}

func TestHistory_NewestFirst(t *testing.T) {
	assert.Contains(t, History(nil), "No cheating snapshots")

	out := History([]model.SnapshotAlert{
		{ID: "old", DisplayTime: "2025-06-15 10:00:00", URL: "/cheating_snapshot/old"},
		{ID: "new", DisplayTime: "2025-06-15 11:00:00", URL: "/cheating_snapshot/new"},
	})
	assert.Less(t, strings.Index(out, "new"), strings.Index(out, "old"))
}
