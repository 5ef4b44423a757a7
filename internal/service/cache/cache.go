// Package cache is the advisory local copy of the notification list, the
// timeline and the seen-locator set. It only restores UI state after a
// restart; the server's history is the system of record.
package cache

import (
	"fmt"

	"proctorfeed/internal/model"
	"proctorfeed/internal/repository"
)

// State is everything needed to rebuild the feed and timeline.
type State struct {
	Notifications []model.Notification // oldest first
	Points        []model.TimelinePoint
	Seen          []string
}

// Cache scopes the repositories to one namespace.
type Cache struct {
	namespace     string
	notifications repository.NotificationRepository
	timeline      repository.TimelineRepository
	seen          repository.SeenRepository
	state         repository.StateRepository
}

func New(namespace string, notifications repository.NotificationRepository,
	timeline repository.TimelineRepository, seen repository.SeenRepository,
	state repository.StateRepository) *Cache {
	return &Cache{
		namespace:     namespace,
		notifications: notifications,
		timeline:      timeline,
		seen:          seen,
		state:         state,
	}
}

func (c *Cache) Namespace() string {
	return c.namespace
}

// Load reads the cached state for the namespace.
func (c *Cache) Load() (State, error) {
	var st State
	var err error

	if st.Notifications, err = c.notifications.GetAll(c.namespace); err != nil {
		return State{}, fmt.Errorf("load notifications: %w", err)
	}
	if st.Points, err = c.timeline.GetAll(c.namespace); err != nil {
		return State{}, fmt.Errorf("load timeline: %w", err)
	}
	if st.Seen, err = c.seen.GetAll(c.namespace); err != nil {
		return State{}, fmt.Errorf("load seen locators: %w", err)
	}
	return st, nil
}

// AppendNotification persists one record at the end of the list.
func (c *Cache) AppendNotification(n model.Notification) error {
	_, err := c.notifications.Insert(c.namespace, &n)
	return err
}

// SaveAlert persists the record, the point and the seen mark for an ingested alert.
func (c *Cache) SaveAlert(n model.Notification, p model.TimelinePoint) error {
	if _, err := c.notifications.Insert(c.namespace, &n); err != nil {
		return err
	}
	if err := c.timeline.Upsert(c.namespace, &p); err != nil {
		return err
	}
	return c.seen.Add(c.namespace, n.Locator)
}

// RemoveAlert drops the record and the point. The locator stays seen.
func (c *Cache) RemoveAlert(id, locator string) error {
	if err := c.notifications.DeleteByLocator(c.namespace, locator); err != nil {
		return err
	}
	return c.timeline.Delete(c.namespace, id)
}

// Replace overwrites the namespace with st, preserving the order of
// st.Notifications. A failed write leaves the previous state intact.
func (c *Cache) Replace(st State) error {
	if err := c.state.ReplaceAll(c.namespace, st.Notifications, st.Points, st.Seen); err != nil {
		return fmt.Errorf("replace namespace %s: %w", c.namespace, err)
	}
	return nil
}
