package sqlite

import (
	"fmt"

	"proctorfeed/internal/model"
)

// StateRepository rewrites a whole namespace in one transaction.
type StateRepository struct {
	db *DB
}

func NewStateRepository(db *DB) *StateRepository {
	return &StateRepository{db: db}
}

// ReplaceAll swaps the namespace's notifications, points and seen locators
// for the given ones. On any error nothing is changed.
func (r *StateRepository) ReplaceAll(namespace string, notifications []model.Notification,
	points []model.TimelinePoint, seen []string) (err error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"notifications", "timeline_points", "seen_locators"} {
		if _, err = tx.Exec(`DELETE FROM `+table+` WHERE namespace = ?`, namespace); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, n := range notifications {
		if _, err = tx.Exec(`
			INSERT OR IGNORE INTO notifications (namespace, record_id, kind, message, locator, display_time, epoch)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, namespace, n.ID, string(n.Kind), n.Message, n.Locator, n.DisplayTime, n.Epoch); err != nil {
			return fmt.Errorf("failed to insert notification %s: %w", n.ID, err)
		}
	}

	for _, p := range points {
		if _, err = tx.Exec(`
			INSERT OR REPLACE INTO timeline_points (namespace, point_id, locator, display_time, epoch)
			VALUES (?, ?, ?, ?, ?)
		`, namespace, p.ID, p.Locator, p.DisplayTime, p.Epoch); err != nil {
			return fmt.Errorf("failed to insert timeline point %s: %w", p.ID, err)
		}
	}

	for _, l := range seen {
		if _, err = tx.Exec(`INSERT OR IGNORE INTO seen_locators (namespace, locator) VALUES (?, ?)`, namespace, l); err != nil {
			return fmt.Errorf("failed to mark locator seen: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
