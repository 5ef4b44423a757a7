package sqlite

import (
	"fmt"

	"proctorfeed/internal/model"
)

// TimelineRepository implements repository.TimelineRepository for SQLite.
type TimelineRepository struct {
	db *DB
}

// NewTimelineRepository creates a new SQLite timeline repository.
func NewTimelineRepository(db *DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Upsert stores a point. Position is derived and not persisted.
func (r *TimelineRepository) Upsert(namespace string, p *model.TimelinePoint) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO timeline_points (namespace, point_id, locator, display_time, epoch)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (namespace, point_id) DO UPDATE SET
			locator = excluded.locator,
			display_time = excluded.display_time,
			epoch = excluded.epoch
	`, namespace, p.ID, p.Locator, p.DisplayTime, p.Epoch)
	if err != nil {
		return fmt.Errorf("failed to upsert timeline point: %w", err)
	}
	return nil
}

// GetAll retrieves the namespace's points ordered by epoch.
func (r *TimelineRepository) GetAll(namespace string) ([]model.TimelinePoint, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT point_id, locator, display_time, epoch
		FROM timeline_points WHERE namespace = ?
		ORDER BY epoch ASC, rowid ASC
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline points: %w", err)
	}
	defer rows.Close()

	var points []model.TimelinePoint
	for rows.Next() {
		var p model.TimelinePoint
		if err := rows.Scan(&p.ID, &p.Locator, &p.DisplayTime, &p.Epoch); err != nil {
			return nil, fmt.Errorf("failed to scan timeline point: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// Delete removes a single point.
func (r *TimelineRepository) Delete(namespace, id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM timeline_points WHERE namespace = ? AND point_id = ?`, namespace, id); err != nil {
		return fmt.Errorf("failed to delete timeline point: %w", err)
	}
	return nil
}
