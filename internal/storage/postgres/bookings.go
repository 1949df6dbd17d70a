package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/storage"
)

const bookingSelect = `
	SELECT b.id, b.user_id, b.court_id, b.booking_date, b.start_time, b.duration_minutes,
	       b.status, b.payment_type, b.payment_status, b.share_token, b.created_at, b.updated_at,
	       c.name AS court_name, c.type AS court_type, c.active AS court_active,
	       c.price_cents AS court_price_cents
	FROM bookings b JOIN courts c ON c.id = b.court_id`

// BookedSlots returns the start times of non-cancelled bookings on a court and date.
func (s *PostgresStore) BookedSlots(ctx context.Context, courtID int64, date string) ([]string, error) {
	var starts []string
	if err := s.db.SelectContext(ctx, &starts,
		`SELECT start_time FROM bookings
		 WHERE court_id = $1 AND booking_date = $2 AND status <> 'cancelled'
		 ORDER BY start_time`,
		courtID, date,
	); err != nil {
		return nil, fmt.Errorf("failed to query booked slots: %w", err)
	}
	return starts, nil
}

// CreateBooking persists a booking and its owner in a single transaction.
func (s *PostgresStore) CreateBooking(ctx context.Context, booking *models.Booking, owner *models.Participant) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.CreatedAt == 0 {
		booking.CreatedAt = time.Now().Unix()
	}
	booking.UpdatedAt = booking.CreatedAt
	if booking.DurationMinutes == 0 {
		booking.DurationMinutes = models.SlotMinutes
	}
	if owner.ID == "" {
		owner.ID = uuid.New().String()
	}
	owner.BookingID = booking.ID
	if owner.JoinedAt == 0 {
		owner.JoinedAt = booking.CreatedAt
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, court_id, booking_date, start_time, duration_minutes,
		     status, payment_type, payment_status, share_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		booking.ID, booking.UserID, booking.CourtID, booking.Date, booking.StartTime, booking.DurationMinutes,
		string(booking.Status), string(booking.PaymentType), string(booking.PaymentStatus), booking.ShareToken,
		booking.CreatedAt, booking.UpdatedAt,
	)
	if uniqueViolationOn(err, activeSlotIndex) {
		return storage.ErrSlotTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO booking_participants (id, booking_id, user_id, role, payment_status, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		owner.ID, owner.BookingID, owner.UserID, string(owner.Role), string(owner.PaymentStatus), owner.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert owner participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBooking retrieves a booking by ID.
func (s *PostgresStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var row bookingRow
	if err := s.db.GetContext(ctx, &row, bookingSelect+` WHERE b.id = $1`, id); err != nil {
		return nil, notFound(err, "booking "+id)
	}
	return row.model(), nil
}

// GetBookingByToken retrieves a booking by its share token.
func (s *PostgresStore) GetBookingByToken(ctx context.Context, token string) (*models.Booking, error) {
	var row bookingRow
	if err := s.db.GetContext(ctx, &row, bookingSelect+` WHERE b.share_token = $1`, token); err != nil {
		return nil, notFound(err, "booking with token")
	}
	return row.model(), nil
}

// ListBookingsByUser retrieves the bookings a user owns, newest date first.
func (s *PostgresStore) ListBookingsByUser(ctx context.Context, userID string) ([]*models.Booking, error) {
	return s.selectBookings(ctx,
		bookingSelect+` WHERE b.user_id = $1 ORDER BY b.booking_date DESC, b.start_time DESC`,
		userID,
	)
}

// ListBookingsByStatus retrieves bookings in a status dated on or before a date.
func (s *PostgresStore) ListBookingsByStatus(ctx context.Context, status models.BookingStatus, onOrBefore string) ([]*models.Booking, error) {
	return s.selectBookings(ctx,
		bookingSelect+` WHERE b.status = $1 AND b.booking_date <= $2 ORDER BY b.booking_date, b.start_time`,
		string(status), onOrBefore,
	)
}

func (s *PostgresStore) selectBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	var rows []bookingRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	bookings := make([]*models.Booking, len(rows))
	for i, r := range rows {
		bookings[i] = r.model()
	}
	return bookings, nil
}

// UpdateBookingStatus moves a booking from one status to another.
func (s *PostgresStore) UpdateBookingStatus(ctx context.Context, id string, from, to models.BookingStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(to), time.Now().Unix(), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("failed to check booking existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("booking %s: %w", id, storage.ErrNotFound)
	}
	return storage.ErrStatusChanged
}
