package sqlite

import "fmt"

// SeenRepository implements repository.SeenRepository for SQLite.
type SeenRepository struct {
	db *DB
}

func NewSeenRepository(db *DB) *SeenRepository {
	return &SeenRepository{db: db}
}

func (r *SeenRepository) Add(namespace, locator string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`
		INSERT OR IGNORE INTO seen_locators (namespace, locator) VALUES (?, ?)
	`, namespace, locator); err != nil {
		return fmt.Errorf("failed to mark locator seen: %w", err)
	}
	return nil
}

func (r *SeenRepository) GetAll(namespace string) ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT locator FROM seen_locators WHERE namespace = ? ORDER BY locator`, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen locators: %w", err)
	}
	defer rows.Close()

	var locators []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("failed to scan locator: %w", err)
		}
		locators = append(locators, l)
	}
	return locators, rows.Err()
}
