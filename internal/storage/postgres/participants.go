package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/storage"
)

// ListParticipants retrieves the participants of a booking, owner first.
func (s *PostgresStore) ListParticipants(ctx context.Context, bookingID string) ([]*models.Participant, error) {
	var rows []participantRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT p.id, p.booking_id, p.user_id, p.role, p.payment_status, p.joined_at,
		        u.email, COALESCE(NULLIF(pr.full_name, ''), u.display_name) AS display_name
		 FROM booking_participants p
		 JOIN users u ON u.id = p.user_id
		 LEFT JOIN profiles pr ON pr.user_id = p.user_id
		 WHERE p.booking_id = $1
		 ORDER BY CASE p.role WHEN 'owner' THEN 0 ELSE 1 END, p.joined_at, p.id`,
		bookingID,
	); err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	participants := make([]*models.Participant, len(rows))
	for i, r := range rows {
		participants[i] = r.model()
	}
	return participants, nil
}

// AddParticipant locks the booking row, checks capacity and inserts the
// participant in one transaction, so concurrent joins cannot overfill it.
func (s *PostgresStore) AddParticipant(ctx context.Context, p *models.Participant, limit int) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.JoinedAt == 0 {
		p.JoinedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked string
	if err := tx.GetContext(ctx, &locked, `SELECT id FROM bookings WHERE id = $1 FOR UPDATE`, p.BookingID); err != nil {
		return notFound(err, "booking "+p.BookingID)
	}

	var count int
	if err := tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM booking_participants WHERE booking_id = $1`, p.BookingID,
	); err != nil {
		return fmt.Errorf("failed to count participants: %w", err)
	}
	if count >= limit {
		return storage.ErrFull
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO booking_participants (id, booking_id, user_id, role, payment_status, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.BookingID, p.UserID, string(p.Role), string(p.PaymentStatus), p.JoinedAt,
	)
	if uniqueViolationOn(err, participantConstraint) {
		return storage.ErrDuplicateParticipant
	}
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
