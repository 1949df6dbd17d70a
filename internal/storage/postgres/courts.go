package postgres

import (
	"context"
	"fmt"

	"github.com/mmynk/corepadel/internal/models"
)

// ListActiveCourts returns every active court ordered by ID.
func (s *PostgresStore) ListActiveCourts(ctx context.Context) ([]*models.Court, error) {
	var rows []courtRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, type, active, price_cents FROM courts WHERE active ORDER BY id`,
	); err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}

	courts := make([]*models.Court, len(rows))
	for i, r := range rows {
		courts[i] = r.model()
	}
	return courts, nil
}

// GetCourt retrieves a court by ID.
func (s *PostgresStore) GetCourt(ctx context.Context, id int64) (*models.Court, error) {
	var row courtRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT id, name, type, active, price_cents FROM courts WHERE id = $1`, id,
	); err != nil {
		return nil, notFound(err, fmt.Sprintf("court %d", id))
	}
	return row.model(), nil
}
