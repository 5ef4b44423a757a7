package timeline

import (
	"testing"

	"proctorfeed/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(id string, epoch int64) model.TimelinePoint {
	return model.TimelinePoint{ID: id, Locator: "/cheating_snapshot/" + id, DisplayTime: "t" + id, Epoch: epoch}
}

func positions(tl *Timeline) map[string]float64 {
	out := map[string]float64{}
	for _, p := range tl.Points() {
		out[p.ID] = p.Position
	}
	return out
}

func TestRecompute_MinZeroMaxHundred(t *testing.T) {
	tl := New(nil)
	tl.Add(point("b", 2000))
	tl.Add(point("a", 1000))
	tl.Add(point("c", 5000))

	pos := positions(tl)
	assert.Equal(t, 0.0, pos["a"])
	assert.Equal(t, 25.0, pos["b"])
	assert.Equal(t, 100.0, pos["c"])

	ids := []string{}
	for _, p := range tl.Points() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids, "points are ordered by epoch")
}

func TestRecompute_SinglePointAndEqualEpochs(t *testing.T) {
	tl := New(nil)
	tl.Add(point("only", 1234))
	assert.Equal(t, 0.0, positions(tl)["only"])

	tl.Add(point("same", 1234))
	pos := positions(tl)
	assert.Equal(t, 0.0, pos["only"])
	assert.Equal(t, 0.0, pos["same"])
}

func TestAdd_DeduplicatesByID(t *testing.T) {
	tl := New(nil)
	assert.True(t, tl.Add(point("42", 1)))
	assert.False(t, tl.Add(point("42", 2)))
	assert.Equal(t, 1, tl.Len())
}

func TestSelect_MutuallyExclusive(t *testing.T) {
	tl := New(nil)
	tl.Add(point("1", 100))
	tl.Add(point("2", 200))
	tl.Add(point("3", 300))

	detail, err := tl.Select("2")
	require.NoError(t, err)
	assert.Equal(t, model.Detail{ID: "2", ImageURL: "/cheating_snapshot/2", Timestamp: "t2"}, detail)

	_, err = tl.Select("3")
	require.NoError(t, err)

	active := 0
	for _, p := range tl.Points() {
		if p.Active {
			active++
			assert.Equal(t, "3", p.ID)
		}
	}
	assert.Equal(t, 1, active)
	assert.Equal(t, "3", tl.Active())

	_, err = tl.Select("missing")
	assert.ErrorIs(t, err, ErrUnknownPoint)
	assert.Equal(t, "3", tl.Active(), "failed selection keeps the previous one")
}

func TestResolveInitial(t *testing.T) {
	tl := New(func(p model.TimelinePoint) model.Detail {
		return model.Detail{ID: p.ID, ImageURL: "http://server" + p.Locator, Timestamp: p.DisplayTime}
	})
	tl.Add(point("10", 100))
	tl.Add(point("20", 300))
	tl.Add(point("30", 200))

	detail, ok := tl.ResolveInitial("/cheating/10")
	require.True(t, ok)
	assert.Equal(t, "10", detail.ID)
	assert.Equal(t, "http://server/cheating_snapshot/10", detail.ImageURL)

	detail, ok = tl.ResolveInitial("/cheating")
	require.True(t, ok)
	assert.Equal(t, "20", detail.ID, "falls back to the max epoch")

	detail, ok = tl.ResolveInitial("/cheating/unknown")
	require.True(t, ok)
	assert.Equal(t, "20", detail.ID)

	_, ok = New(nil).ResolveInitial("/cheating/10")
	assert.False(t, ok)
}

func TestRemove_ReselectsNewest(t *testing.T) {
	tl := New(nil)
	tl.Add(point("1", 100))
	tl.Add(point("2", 200))
	tl.Add(point("3", 300))
	_, err := tl.Select("3")
	require.NoError(t, err)

	assert.True(t, tl.Remove("3"))
	assert.Equal(t, "2", tl.Active())
	assert.Equal(t, 100.0, positions(tl)["2"])

	assert.False(t, tl.Remove("3"))

	assert.True(t, tl.Remove("1"))
	assert.True(t, tl.Remove("2"))
	assert.Equal(t, "", tl.Active())
	_, ok := tl.ActiveDetail()
	assert.False(t, ok)
}

func TestRestore_ClearsSelection(t *testing.T) {
	tl := New(nil)
	tl.Add(point("1", 100))
	tl.SelectNewest()

	tl.Restore([]model.TimelinePoint{point("5", 50), point("6", 60)})
	assert.Equal(t, "", tl.Active())
	assert.Equal(t, 100.0, positions(tl)["6"])
}
