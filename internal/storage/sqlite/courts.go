package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/storage"
)

// ListActiveCourts returns every active court ordered by ID.
func (s *SQLiteStore) ListActiveCourts(ctx context.Context) ([]*models.Court, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, active, price_cents FROM courts WHERE active = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	defer rows.Close()

	var courts []*models.Court
	for rows.Next() {
		c := &models.Court{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Surface, &c.Active, &c.PriceCents); err != nil {
			return nil, fmt.Errorf("failed to scan court: %w", err)
		}
		courts = append(courts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courts: %w", err)
	}

	return courts, nil
}

// GetCourt retrieves a court by ID.
func (s *SQLiteStore) GetCourt(ctx context.Context, id int64) (*models.Court, error) {
	c := &models.Court{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, active, price_cents FROM courts WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Surface, &c.Active, &c.PriceCents)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("court %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get court: %w", err)
	}
	return c, nil
}
