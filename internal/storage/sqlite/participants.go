package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/storage"
)

// ListParticipants retrieves the participants of a booking, owner first.
func (s *SQLiteStore) ListParticipants(ctx context.Context, bookingID string) ([]*models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.booking_id, p.user_id, p.role, p.payment_status, p.joined_at,
		        u.email, COALESCE(NULLIF(pr.full_name, ''), u.display_name)
		 FROM booking_participants p
		 JOIN users u ON u.id = p.user_id
		 LEFT JOIN profiles pr ON pr.user_id = p.user_id
		 WHERE p.booking_id = ?
		 ORDER BY CASE p.role WHEN 'owner' THEN 0 ELSE 1 END, p.joined_at, p.id`,
		bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p := &models.Participant{}
		if err := rows.Scan(&p.ID, &p.BookingID, &p.UserID, &p.Role, &p.PaymentStatus, &p.JoinedAt,
			&p.Email, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

// AddParticipant inserts the participant only while the booking holds fewer
// than limit participants. The count and the insert are one statement.
func (s *SQLiteStore) AddParticipant(ctx context.Context, p *models.Participant, limit int) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.JoinedAt == 0 {
		p.JoinedAt = time.Now().Unix()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO booking_participants (id, booking_id, user_id, role, payment_status, joined_at)
		 SELECT ?, ?, ?, ?, ?, ?
		 WHERE (SELECT COUNT(*) FROM booking_participants WHERE booking_id = ?) < ?`,
		p.ID, p.BookingID, p.UserID, p.Role, p.PaymentStatus, p.JoinedAt,
		p.BookingID, limit,
	)
	if uniqueViolationOn(err, participantColumns) {
		return storage.ErrDuplicateParticipant
	}
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrFull
	}

	return nil
}
