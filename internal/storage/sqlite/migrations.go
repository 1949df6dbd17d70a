package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/corepadel/internal/storage"
)

// schemaVersion is bumped whenever schema changes shape. A database written
// with any other version is refused at startup.
const schemaVersion = 1

// schema contains the SQL statements to set up the database.
// Users must exist before bookings and participants due to foreign keys.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
    user_id TEXT PRIMARY KEY,
    full_name TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS courts (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('indoor', 'outdoor')),
    active INTEGER NOT NULL DEFAULT 1,
    price_cents INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    court_id INTEGER NOT NULL,
    booking_date TEXT NOT NULL,
    start_time TEXT NOT NULL,
    duration_minutes INTEGER NOT NULL DEFAULT 75,
    status TEXT NOT NULL CHECK (status IN ('confirmed', 'cancelled', 'completed')),
    payment_type TEXT NOT NULL CHECK (payment_type IN ('full', 'split')),
    payment_status TEXT NOT NULL,
    share_token TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id),
    FOREIGN KEY (court_id) REFERENCES courts(id)
);

CREATE TABLE IF NOT EXISTS booking_participants (
    id TEXT PRIMARY KEY,
    booking_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('owner', 'player')),
    payment_status TEXT NOT NULL CHECK (payment_status IN ('paid', 'pending')),
    joined_at INTEGER NOT NULL,
    UNIQUE (booking_id, user_id),
    FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

-- One active booking per court, date and start time.
CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_slot
    ON bookings(court_id, booking_date, start_time) WHERE status <> 'cancelled';
CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_one_owner
    ON booking_participants(booking_id) WHERE role = 'owner';
CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id);
CREATE INDEX IF NOT EXISTS idx_bookings_status_date ON bookings(status, booking_date);
CREATE INDEX IF NOT EXISTS idx_participants_booking_id ON booking_participants(booking_id);

INSERT OR IGNORE INTO courts (id, name, type, active, price_cents) VALUES
    (1, 'Pista 1', 'indoor', 1, 2400),
    (2, 'Pista 2', 'indoor', 1, 2400),
    (3, 'Pista 3', 'indoor', 1, 2400),
    (4, 'Pista 4', 'indoor', 1, 2400),
    (5, 'Pista 5', 'outdoor', 1, 2400),
    (6, 'Pista 6', 'outdoor', 1, 2400),
    (7, 'Pista 7', 'outdoor', 1, 2400),
    (8, 'Pista 8', 'outdoor', 1, 2400);
`

// runMigrations checks the recorded schema version and executes the schema
// setup. A fresh database is stamped with the current version.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	var version int
	err := db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.Exec(schema); err != nil {
			return err
		}
		_, err = db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion)
		return err
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case version != schemaVersion:
		return fmt.Errorf("%w: database has version %d, service expects %d",
			storage.ErrSchemaVersion, version, schemaVersion)
	}

	_, err = db.Exec(schema)
	return err
}
