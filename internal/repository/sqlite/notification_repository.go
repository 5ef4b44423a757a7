package sqlite

import (
	"fmt"

	"proctorfeed/internal/model"
)

// NotificationRepository implements repository.NotificationRepository for SQLite.
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new SQLite notification repository.
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Insert appends a notification. Re-inserting the same record ID is ignored
// so that replays of an already cached record keep their original position.
func (r *NotificationRepository) Insert(namespace string, n *model.Notification) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT OR IGNORE INTO notifications (namespace, record_id, kind, message, locator, display_time, epoch)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, namespace, n.ID, string(n.Kind), n.Message, n.Locator, n.DisplayTime, n.Epoch)
	if err != nil {
		return 0, fmt.Errorf("failed to insert notification: %w", err)
	}

	return result.LastInsertId()
}

// GetAll returns the namespace's notifications in append order (oldest first).
func (r *NotificationRepository) GetAll(namespace string) ([]model.Notification, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT record_id, kind, message, locator, display_time, epoch
		FROM notifications WHERE namespace = ?
		ORDER BY id ASC
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var kind string
		if err := rows.Scan(&n.ID, &kind, &n.Message, &n.Locator, &n.DisplayTime, &n.Epoch); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Kind = model.NotificationKind(kind)
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// GetTotalCount returns the number of cached notifications in the namespace.
func (r *NotificationRepository) GetTotalCount(namespace string) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM notifications WHERE namespace = ?`, namespace).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// DeleteByLocator removes the alert notification with the given locator.
// A missing locator is not an error.
func (r *NotificationRepository) DeleteByLocator(namespace, locator string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`
		DELETE FROM notifications WHERE namespace = ? AND kind = 'alert' AND locator = ?
	`, namespace, locator); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}
