package models

// SlotMinutes is the fixed length of every booking.
const SlotMinutes = 75

// MaxParticipants is the number of players a padel doubles match holds,
// owner included.
const MaxParticipants = 4

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// PaymentType is how the court price is paid.
type PaymentType string

const (
	// PaymentFull means the owner pays the whole court.
	PaymentFull PaymentType = "full"
	// PaymentSplit means each participant pays their share.
	PaymentSplit PaymentType = "split"
)

// Valid reports whether p is a known payment type.
func (p PaymentType) Valid() bool {
	return p == PaymentFull || p == PaymentSplit
}

// BookingPaymentStatus summarizes payment for the booking as a whole.
type BookingPaymentStatus string

const (
	BookingPaid    BookingPaymentStatus = "paid"
	BookingPartial BookingPaymentStatus = "partial"
)

// BookingPaymentStatusFor derives the booking payment status from its payment type.
func BookingPaymentStatusFor(p PaymentType) BookingPaymentStatus {
	if p == PaymentSplit {
		return BookingPartial
	}
	return BookingPaid
}

// Booking is a reservation of one court for one 75-minute slot.
type Booking struct {
	// ID is the unique identifier for the booking (UUID format).
	ID string

	// UserID is the owner (creator) of the booking.
	UserID string

	// CourtID references the booked court.
	CourtID int64

	// Date is the calendar date, "YYYY-MM-DD".
	Date string

	// StartTime is the slot start, "HH:MM:SS".
	StartTime string

	// DurationMinutes is always SlotMinutes for new bookings.
	DurationMinutes int

	Status        BookingStatus
	PaymentType   PaymentType
	PaymentStatus BookingPaymentStatus

	// ShareToken is the opaque token used in the share URL.
	ShareToken string

	CreatedAt int64
	UpdatedAt int64

	// Court is filled in by reads that join the courts table.
	Court *Court
}
