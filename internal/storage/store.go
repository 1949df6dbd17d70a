// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/corepadel/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSlotTaken is returned when a booking would duplicate an active
	// booking for the same court, date and start time.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrFull is returned when a booking already holds the maximum number of
	// participants.
	ErrFull = errors.New("booking is full")

	// ErrDuplicateParticipant is returned when a user is already attached to
	// the booking.
	ErrDuplicateParticipant = errors.New("user already participates in booking")

	// ErrStatusChanged is returned by conditional status updates when the
	// booking is no longer in the expected status.
	ErrStatusChanged = errors.New("booking status changed")

	// ErrSchemaVersion is returned when the database was created by an
	// incompatible version of the schema.
	ErrSchemaVersion = errors.New("unsupported schema version")
)

// CourtStore reads the court catalogue.
type CourtStore interface {
	// ListActiveCourts returns active courts ordered by ID.
	ListActiveCourts(ctx context.Context) ([]*models.Court, error)

	// GetCourt returns a court by ID, active or not.
	GetCourt(ctx context.Context, id int64) (*models.Court, error)
}

// BookingStore persists bookings and their participants.
type BookingStore interface {
	// BookedSlots returns the start times of non-cancelled bookings on a court
	// for a date.
	BookedSlots(ctx context.Context, courtID int64, date string) ([]string, error)

	// CreateBooking inserts the booking and its owner participant in one
	// transaction. IDs and timestamps are populated when empty. Returns
	// ErrSlotTaken when the slot is already held by an active booking.
	CreateBooking(ctx context.Context, booking *models.Booking, owner *models.Participant) error

	// GetBooking retrieves a booking by ID, with its court.
	GetBooking(ctx context.Context, id string) (*models.Booking, error)

	// GetBookingByToken retrieves a booking by share token, with its court.
	GetBookingByToken(ctx context.Context, token string) (*models.Booking, error)

	// ListBookingsByUser returns the bookings owned by a user, newest date first.
	ListBookingsByUser(ctx context.Context, userID string) ([]*models.Booking, error)

	// ListBookingsByStatus returns bookings in a status dated on or before the
	// given date, oldest first.
	ListBookingsByStatus(ctx context.Context, status models.BookingStatus, onOrBefore string) ([]*models.Booking, error)

	// UpdateBookingStatus moves a booking from one status to another. Returns
	// ErrNotFound for an unknown booking and ErrStatusChanged when the booking
	// is not currently in status from.
	UpdateBookingStatus(ctx context.Context, id string, from, to models.BookingStatus) error

	// ListParticipants returns the participants of a booking, owner first.
	ListParticipants(ctx context.Context, bookingID string) ([]*models.Participant, error)

	// AddParticipant attaches a participant if the booking holds fewer than
	// max participants. The capacity check and the insert are atomic.
	AddParticipant(ctx context.Context, p *models.Participant, max int) error
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns nil, nil when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	// GetProfile returns nil, nil when the user has no profile yet.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)

	UpsertProfile(ctx context.Context, profile *models.Profile) error
}

// Store defines the full persistence contract of the service.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	CourtStore
	BookingStore
	UserStore
	ProfileStore

	// Close releases any resources held by the store.
	Close() error
}
