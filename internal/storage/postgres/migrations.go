package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/corepadel/internal/storage"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
    user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    full_name TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS courts (
    id BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('indoor', 'outdoor')),
    active BOOLEAN NOT NULL DEFAULT TRUE,
    price_cents BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    court_id BIGINT NOT NULL REFERENCES courts(id),
    booking_date TEXT NOT NULL,
    start_time TEXT NOT NULL,
    duration_minutes INTEGER NOT NULL DEFAULT 75,
    status TEXT NOT NULL CHECK (status IN ('confirmed', 'cancelled', 'completed')),
    payment_type TEXT NOT NULL CHECK (payment_type IN ('full', 'split')),
    payment_status TEXT NOT NULL,
    share_token TEXT NOT NULL UNIQUE,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS booking_participants (
    id TEXT PRIMARY KEY,
    booking_id TEXT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL REFERENCES users(id),
    role TEXT NOT NULL CHECK (role IN ('owner', 'player')),
    payment_status TEXT NOT NULL CHECK (payment_status IN ('paid', 'pending')),
    joined_at BIGINT NOT NULL,
    CONSTRAINT booking_participants_member UNIQUE (booking_id, user_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_slot
    ON bookings(court_id, booking_date, start_time) WHERE status <> 'cancelled';
CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_one_owner
    ON booking_participants(booking_id) WHERE role = 'owner';
CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id);
CREATE INDEX IF NOT EXISTS idx_bookings_status_date ON bookings(status, booking_date);
CREATE INDEX IF NOT EXISTS idx_participants_booking_id ON booking_participants(booking_id);

INSERT INTO courts (id, name, type, active, price_cents) VALUES
    (1, 'Pista 1', 'indoor', TRUE, 2400),
    (2, 'Pista 2', 'indoor', TRUE, 2400),
    (3, 'Pista 3', 'indoor', TRUE, 2400),
    (4, 'Pista 4', 'indoor', TRUE, 2400),
    (5, 'Pista 5', 'outdoor', TRUE, 2400),
    (6, 'Pista 6', 'outdoor', TRUE, 2400),
    (7, 'Pista 7', 'outdoor', TRUE, 2400),
    (8, 'Pista 8', 'outdoor', TRUE, 2400)
ON CONFLICT (id) DO NOTHING;
`

// runMigrations checks the recorded schema version and applies the schema.
func runMigrations(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	var version int
	err := db.GetContext(ctx, &version, `SELECT version FROM schema_version LIMIT 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return err
		}
		_, err = db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, schemaVersion)
		return err
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case version != schemaVersion:
		return fmt.Errorf("%w: database has version %d, service expects %d",
			storage.ErrSchemaVersion, version, schemaVersion)
	}

	_, err = db.ExecContext(ctx, schema)
	return err
}
