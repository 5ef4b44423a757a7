package repository

import (
	"proctorfeed/internal/model"
)

// NotificationRepository persists the notification list per namespace.
type NotificationRepository interface {
	// Create operations
	Insert(namespace string, n *model.Notification) (int64, error)

	// Read operations
	GetAll(namespace string) ([]model.Notification, error)
	GetTotalCount(namespace string) (int, error)

	// Delete operations
	DeleteByLocator(namespace, locator string) error
}

// TimelineRepository persists timeline points per namespace.
type TimelineRepository interface {
	Upsert(namespace string, p *model.TimelinePoint) error
	GetAll(namespace string) ([]model.TimelinePoint, error)
	Delete(namespace, id string) error
}

// SeenRepository persists the set of alert locators already ingested.
type SeenRepository interface {
	Add(namespace, locator string) error
	GetAll(namespace string) ([]string, error)
}

// StateRepository replaces a namespace's whole cached state atomically.
type StateRepository interface {
	ReplaceAll(namespace string, notifications []model.Notification, points []model.TimelinePoint, seen []string) error
}
