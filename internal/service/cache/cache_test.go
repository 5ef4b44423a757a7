package cache

import (
	"path/filepath"
	"testing"

	"proctorfeed/internal/feed"
	"proctorfeed/internal/model"
	"proctorfeed/internal/repository/sqlite"
	"proctorfeed/internal/timeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, dbPath, namespace string) (*Cache, func()) {
	t.Helper()
	db, err := sqlite.New(dbPath)
	require.NoError(t, err)
	c := New(namespace,
		sqlite.NewNotificationRepository(db),
		sqlite.NewTimelineRepository(db),
		sqlite.NewSeenRepository(db),
		sqlite.NewStateRepository(db))
	return c, func() { db.Close() }
}

func alert(id string, epoch int64) model.SnapshotAlert {
	return model.SnapshotAlert{
		ID:          id,
		Message:     "Cheating detected " + id,
		URL:         "/cheating_snapshot/" + id,
		DisplayTime: "t" + id,
		Epoch:       epoch,
	}
}

func TestRoundTrip_ReproducesDisplay(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	before := feed.New()
	beforeTL := timeline.New(nil)

	c, closeDB := newCache(t, dbPath, "exam")
	sys := before.AppendSystem("Connected to server")
	require.NoError(t, c.AppendNotification(sys))
	for _, a := range []model.SnapshotAlert{alert("1", 100), alert("3", 300), alert("2", 200)} {
		n, added := before.IngestAlert(a)
		require.True(t, added)
		p := model.TimelinePointFromAlert(a)
		beforeTL.Add(p)
		require.NoError(t, c.SaveAlert(n, p))
	}
	closeDB()

	reloaded, closeDB := newCache(t, dbPath, "exam")
	defer closeDB()
	st, err := reloaded.Load()
	require.NoError(t, err)

	after := feed.New()
	after.Restore(st.Notifications, st.Seen)
	afterTL := timeline.New(nil)
	afterTL.Restore(st.Points)

	assert.Equal(t, before.Display(), after.Display())
	assert.Equal(t, beforeTL.Points(), afterTL.Points())
	assert.True(t, after.Seen("/cheating_snapshot/3"))
}

func TestRemoveAlert(t *testing.T) {
	c, closeDB := newCache(t, filepath.Join(t.TempDir(), "cache.db"), "exam")
	defer closeDB()

	a := alert("42", 1)
	require.NoError(t, c.SaveAlert(model.AlertNotification(a), model.TimelinePointFromAlert(a)))
	require.NoError(t, c.RemoveAlert("42", a.URL))
	require.NoError(t, c.RemoveAlert("42", a.URL))

	st, err := c.Load()
	require.NoError(t, err)
	assert.Empty(t, st.Notifications)
	assert.Empty(t, st.Points)
	assert.Equal(t, []string{a.URL}, st.Seen)
}

func TestReplace(t *testing.T) {
	c, closeDB := newCache(t, filepath.Join(t.TempDir(), "cache.db"), "exam")
	defer closeDB()

	old := alert("1", 1)
	require.NoError(t, c.SaveAlert(model.AlertNotification(old), model.TimelinePointFromAlert(old)))

	fresh := alert("2", 2)
	require.NoError(t, c.Replace(State{
		Notifications: []model.Notification{model.AlertNotification(fresh)},
		Points:        []model.TimelinePoint{model.TimelinePointFromAlert(fresh)},
		Seen:          []string{fresh.URL},
	}))

	st, err := c.Load()
	require.NoError(t, err)
	require.Len(t, st.Notifications, 1)
	assert.Equal(t, "2", st.Notifications[0].ID)
	require.Len(t, st.Points, 1)
	assert.Equal(t, "2", st.Points[0].ID)
	assert.Equal(t, []string{fresh.URL}, st.Seen)
	assert.Equal(t, "exam", c.Namespace())
}
