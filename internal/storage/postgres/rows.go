package postgres

import "github.com/mmynk/corepadel/internal/models"

type courtRow struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	Type       string `db:"type"`
	Active     bool   `db:"active"`
	PriceCents int64  `db:"price_cents"`
}

func (r courtRow) model() *models.Court {
	return &models.Court{
		ID:         r.ID,
		Name:       r.Name,
		Surface:    models.Surface(r.Type),
		Active:     r.Active,
		PriceCents: r.PriceCents,
	}
}

type bookingRow struct {
	ID              string `db:"id"`
	UserID          string `db:"user_id"`
	CourtID         int64  `db:"court_id"`
	BookingDate     string `db:"booking_date"`
	StartTime       string `db:"start_time"`
	DurationMinutes int    `db:"duration_minutes"`
	Status          string `db:"status"`
	PaymentType     string `db:"payment_type"`
	PaymentStatus   string `db:"payment_status"`
	ShareToken      string `db:"share_token"`
	CreatedAt       int64  `db:"created_at"`
	UpdatedAt       int64  `db:"updated_at"`

	CourtName       string `db:"court_name"`
	CourtType       string `db:"court_type"`
	CourtActive     bool   `db:"court_active"`
	CourtPriceCents int64  `db:"court_price_cents"`
}

func (r bookingRow) model() *models.Booking {
	return &models.Booking{
		ID:              r.ID,
		UserID:          r.UserID,
		CourtID:         r.CourtID,
		Date:            r.BookingDate,
		StartTime:       r.StartTime,
		DurationMinutes: r.DurationMinutes,
		Status:          models.BookingStatus(r.Status),
		PaymentType:     models.PaymentType(r.PaymentType),
		PaymentStatus:   models.BookingPaymentStatus(r.PaymentStatus),
		ShareToken:      r.ShareToken,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Court: &models.Court{
			ID:         r.CourtID,
			Name:       r.CourtName,
			Surface:    models.Surface(r.CourtType),
			Active:     r.CourtActive,
			PriceCents: r.CourtPriceCents,
		},
	}
}

type participantRow struct {
	ID            string `db:"id"`
	BookingID     string `db:"booking_id"`
	UserID        string `db:"user_id"`
	Role          string `db:"role"`
	PaymentStatus string `db:"payment_status"`
	JoinedAt      int64  `db:"joined_at"`
	Email         string `db:"email"`
	DisplayName   string `db:"display_name"`
}

func (r participantRow) model() *models.Participant {
	return &models.Participant{
		ID:            r.ID,
		BookingID:     r.BookingID,
		UserID:        r.UserID,
		Role:          models.Role(r.Role),
		PaymentStatus: models.ParticipantPaymentStatus(r.PaymentStatus),
		JoinedAt:      r.JoinedAt,
		Email:         r.Email,
		DisplayName:   r.DisplayName,
	}
}

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	DisplayName  string `db:"display_name"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func (r userRow) model() *models.User {
	return &models.User{
		ID:           r.ID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
