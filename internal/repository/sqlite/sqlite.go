package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the necessary tables if they don't exist.
// notifications.id preserves append order, which is the replay order.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		namespace TEXT NOT NULL,
		record_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		message TEXT NOT NULL,
		locator TEXT NOT NULL DEFAULT '',
		display_time TEXT NOT NULL DEFAULT '',
		epoch INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (namespace, record_id)
	);

	CREATE TABLE IF NOT EXISTS timeline_points (
		namespace TEXT NOT NULL,
		point_id TEXT NOT NULL,
		locator TEXT NOT NULL,
		display_time TEXT NOT NULL,
		epoch INTEGER NOT NULL,
		PRIMARY KEY (namespace, point_id)
	);

	CREATE TABLE IF NOT EXISTS seen_locators (
		namespace TEXT NOT NULL,
		locator TEXT NOT NULL,
		PRIMARY KEY (namespace, locator)
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_namespace ON notifications(namespace);
	CREATE INDEX IF NOT EXISTS idx_notifications_locator ON notifications(namespace, locator);
	CREATE INDEX IF NOT EXISTS idx_timeline_epoch ON timeline_points(namespace, epoch);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}
