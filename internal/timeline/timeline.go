// Package timeline positions flagged snapshots on a 0-100 scale and tracks
// which one is shown in the detail panel.
package timeline

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"proctorfeed/internal/model"
)

var ErrUnknownPoint = errors.New("unknown timeline point")

// DetailFunc builds the detail panel for a point.
type DetailFunc func(p model.TimelinePoint) model.Detail

// Timeline holds the points of one session. Exactly one point is active
// whenever the timeline is non-empty and a selection was made.
type Timeline struct {
	mu     sync.RWMutex
	points []model.TimelinePoint
	active string
	detail DetailFunc
}

func New(detail DetailFunc) *Timeline {
	if detail == nil {
		detail = func(p model.TimelinePoint) model.Detail {
			return model.Detail{ID: p.ID, ImageURL: p.Locator, Timestamp: p.DisplayTime}
		}
	}
	return &Timeline{detail: detail}
}

// Restore replaces all points and recomputes positions. Selection is cleared.
func (t *Timeline) Restore(points []model.TimelinePoint) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.points = append([]model.TimelinePoint(nil), points...)
	for i := range t.points {
		t.points[i].Active = false
	}
	t.active = ""
	t.recompute()
}

// Add inserts a point unless one with the same ID exists, then recomputes positions.
func (t *Timeline) Add(p model.TimelinePoint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.indexOf(p.ID) >= 0 {
		return false
	}
	p.Active = false
	t.points = append(t.points, p)
	t.recompute()
	return true
}

// Remove deletes a point. If it was active the newest remaining point becomes active.
func (t *Timeline) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		return false
	}
	t.points = append(t.points[:i], t.points[i+1:]...)
	t.recompute()

	if t.active == id {
		t.active = ""
		if newest := t.newestID(); newest != "" {
			t.activate(newest)
		}
	}
	return true
}

// Recompute maps every epoch linearly onto 0-100 across the current min/max range.
func (t *Timeline) Recompute() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recompute()
}

func (t *Timeline) recompute() {
	if len(t.points) == 0 {
		return
	}

	sort.SliceStable(t.points, func(i, j int) bool { return t.points[i].Epoch < t.points[j].Epoch })

	lo, hi := t.points[0].Epoch, t.points[len(t.points)-1].Epoch
	span := hi - lo
	if span <= 0 {
		span = 1
	}
	for i := range t.points {
		t.points[i].Position = float64(t.points[i].Epoch-lo) / float64(span) * 100
	}
}

// Select makes the point active, clearing every other point, and returns its detail.
func (t *Timeline) Select(id string) (model.Detail, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.indexOf(id) < 0 {
		return model.Detail{}, ErrUnknownPoint
	}
	return t.activate(id), nil
}

// SelectNewest activates the point with the greatest epoch.
func (t *Timeline) SelectNewest() (model.Detail, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.newestID()
	if id == "" {
		return model.Detail{}, false
	}
	return t.activate(id), true
}

// ResolveInitial picks the active point for a freshly opened view: the point
// whose ID is a segment of path, otherwise the newest point.
func (t *Timeline) ResolveInitial(path string) (model.Detail, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" && t.indexOf(segments[i]) >= 0 {
			return t.activate(segments[i]), true
		}
	}

	id := t.newestID()
	if id == "" {
		return model.Detail{}, false
	}
	return t.activate(id), true
}

func (t *Timeline) activate(id string) model.Detail {
	var detail model.Detail
	for i := range t.points {
		t.points[i].Active = t.points[i].ID == id
		if t.points[i].Active {
			detail = t.detail(t.points[i])
		}
	}
	t.active = id
	return detail
}

func (t *Timeline) newestID() string {
	if len(t.points) == 0 {
		return ""
	}
	// points are kept sorted by epoch
	return t.points[len(t.points)-1].ID
}

func (t *Timeline) indexOf(id string) int {
	for i := range t.points {
		if t.points[i].ID == id {
			return i
		}
	}
	return -1
}

// Active returns the active point ID, or "" when nothing is selected.
func (t *Timeline) Active() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// ActiveDetail returns the detail of the active point.
func (t *Timeline) ActiveDetail() (model.Detail, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i := t.indexOf(t.active)
	if i < 0 {
		return model.Detail{}, false
	}
	return t.detail(t.points[i]), true
}

// Points returns a copy ordered by epoch.
func (t *Timeline) Points() []model.TimelinePoint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]model.TimelinePoint(nil), t.points...)
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.points)
}
