package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/storage"
)

const bookingColumns = `
	b.id, b.user_id, b.court_id, b.booking_date, b.start_time, b.duration_minutes,
	b.status, b.payment_type, b.payment_status, b.share_token, b.created_at, b.updated_at,
	c.id, c.name, c.type, c.active, c.price_cents`

const bookingFrom = `FROM bookings b JOIN courts c ON c.id = b.court_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (*models.Booking, error) {
	b := &models.Booking{Court: &models.Court{}}
	err := row.Scan(
		&b.ID, &b.UserID, &b.CourtID, &b.Date, &b.StartTime, &b.DurationMinutes,
		&b.Status, &b.PaymentType, &b.PaymentStatus, &b.ShareToken, &b.CreatedAt, &b.UpdatedAt,
		&b.Court.ID, &b.Court.Name, &b.Court.Surface, &b.Court.Active, &b.Court.PriceCents,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// BookedSlots returns the start times of non-cancelled bookings on a court and date.
func (s *SQLiteStore) BookedSlots(ctx context.Context, courtID int64, date string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_time FROM bookings
		 WHERE court_id = ? AND booking_date = ? AND status <> 'cancelled'
		 ORDER BY start_time`,
		courtID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query booked slots: %w", err)
	}
	defer rows.Close()

	var starts []string
	for rows.Next() {
		var start string
		if err := rows.Scan(&start); err != nil {
			return nil, fmt.Errorf("failed to scan start time: %w", err)
		}
		starts = append(starts, start)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate booked slots: %w", err)
	}

	return starts, nil
}

// CreateBooking persists a booking and its owner in a single transaction.
func (s *SQLiteStore) CreateBooking(ctx context.Context, booking *models.Booking, owner *models.Participant) error {
	// Generate IDs if not set
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if booking.CreatedAt == 0 {
		booking.CreatedAt = now
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, court_id, booking_date, start_time, duration_minutes,
		     status, payment_type, payment_status, share_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID, booking.UserID, booking.CourtID, booking.Date, booking.StartTime, booking.DurationMinutes,
		booking.Status, booking.PaymentType, booking.PaymentStatus, booking.ShareToken,
		booking.CreatedAt, booking.UpdatedAt,
	)
	if uniqueViolationOn(err, activeSlotColumns) {
		return storage.ErrSlotTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO booking_participants (id, booking_id, user_id, role, payment_status, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		owner.ID, owner.BookingID, owner.UserID, owner.Role, owner.PaymentStatus, owner.JoinedAt,
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
func (s *SQLiteStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` `+bookingFrom+` WHERE b.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("booking %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// GetBookingByToken retrieves a booking by its share token.
func (s *SQLiteStore) GetBookingByToken(ctx context.Context, token string) (*models.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` `+bookingFrom+` WHERE b.share_token = ?`, token,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("booking with token: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by token: %w", err)
	}
	return b, nil
}

// ListBookingsByUser retrieves the bookings a user owns, newest date first.
func (s *SQLiteStore) ListBookingsByUser(ctx context.Context, userID string) ([]*models.Booking, error) {
	return s.queryBookings(ctx,
		`SELECT `+bookingColumns+` `+bookingFrom+`
		 WHERE b.user_id = ? ORDER BY b.booking_date DESC, b.start_time DESC`,
		userID,
	)
}

// ListBookingsByStatus retrieves bookings in a status dated on or before a date.
func (s *SQLiteStore) ListBookingsByStatus(ctx context.Context, status models.BookingStatus, onOrBefore string) ([]*models.Booking, error) {
	return s.queryBookings(ctx,
		`SELECT `+bookingColumns+` `+bookingFrom+`
		 WHERE b.status = ? AND b.booking_date <= ? ORDER BY b.booking_date, b.start_time`,
		status, onOrBefore,
	)
}

func (s *SQLiteStore) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return bookings, nil
}

// UpdateBookingStatus moves a booking from one status to another.
func (s *SQLiteStore) UpdateBookingStatus(ctx context.Context, id string, from, to models.BookingStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now().Unix(), id, from,
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

	// Nothing changed: tell a missing booking apart from one in another status.
	var exists int
	err = s.db.QueryRowContext(ctx, "SELECT 1 FROM bookings WHERE id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("booking %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check booking existence: %w", err)
	}
	return storage.ErrStatusChanged
}
