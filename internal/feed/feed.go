// Package feed keeps the notification list and the set of alert locators already seen.
package feed

import (
	"sync"

	"proctorfeed/internal/model"

	"github.com/google/uuid"
)

// Feed stores notifications oldest-first and shows them newest-first.
type Feed struct {
	mu      sync.RWMutex
	records []model.Notification
	seen    map[string]struct{}
}

func New() *Feed {
	return &Feed{seen: make(map[string]struct{})}
}

// Restore replaces the feed with persisted state. records must be oldest-first.
func (f *Feed) Restore(records []model.Notification, seen []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.records = append([]model.Notification(nil), records...)
	f.seen = make(map[string]struct{}, len(seen)+len(records))
	for _, locator := range seen {
		f.seen[locator] = struct{}{}
	}
	for _, r := range records {
		if r.Kind == model.KindAlert && r.Locator != "" {
			f.seen[r.Locator] = struct{}{}
		}
	}
}

// AppendSystem adds a plain, non-deletable message.
func (f *Feed) AppendSystem(message string) model.Notification {
	n := model.Notification{
		ID:      uuid.NewString(),
		Kind:    model.KindSystem,
		Message: message,
	}

	f.mu.Lock()
	f.records = append(f.records, n)
	f.mu.Unlock()
	return n
}

// IngestAlert appends the alert unless its locator was seen before.
func (f *Feed) IngestAlert(alert model.SnapshotAlert) (model.Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.seen[alert.URL]; dup {
		return model.Notification{}, false
	}
	f.seen[alert.URL] = struct{}{}

	n := model.AlertNotification(alert)
	f.records = append(f.records, n)
	return n, true
}

// Remove drops the alert entry with the given locator. The locator stays seen.
func (f *Feed) Remove(locator string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, r := range f.records {
		if r.Kind == model.KindAlert && r.Locator == locator {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return true
		}
	}
	return false
}

// Lookup finds an alert entry by identifier.
func (f *Feed) Lookup(id string) (model.Notification, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, r := range f.records {
		if r.Kind == model.KindAlert && r.ID == id {
			return r, true
		}
	}
	return model.Notification{}, false
}

// Records returns a copy in chronological (append) order.
func (f *Feed) Records() []model.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]model.Notification(nil), f.records...)
}

// Display returns a copy newest-first.
func (f *Feed) Display() []model.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]model.Notification, len(f.records))
	for i, r := range f.records {
		out[len(f.records)-1-i] = r
	}
	return out
}

func (f *Feed) Seen(locator string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.seen[locator]
	return ok
}

// SeenLocators returns every locator marked seen, in no particular order.
func (f *Feed) SeenLocators() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(f.seen))
	for l := range f.seen {
		out = append(out, l)
	}
	return out
}
