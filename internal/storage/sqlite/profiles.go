package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/corepadel/internal/models"
)

// GetProfile retrieves the profile of a user.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, full_name, phone FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.FullName, &p.Phone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// UpsertProfile creates or replaces the profile of a user.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, full_name, phone) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET full_name = excluded.full_name, phone = excluded.phone`,
		profile.UserID, profile.FullName, profile.Phone,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
