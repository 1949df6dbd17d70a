package models

// Role distinguishes the booking creator from invited players.
type Role string

const (
	RoleOwner  Role = "owner"
	RolePlayer Role = "player"
)

// ParticipantPaymentStatus tracks one player's share.
type ParticipantPaymentStatus string

const (
	ParticipantPaid    ParticipantPaymentStatus = "paid"
	ParticipantPending ParticipantPaymentStatus = "pending"
)

// ParticipantPaymentStatusFor derives a participant's payment status from the
// booking's payment type. With a full payment nobody owes anything; with a
// split payment everybody, owner included, still owes their share.
func ParticipantPaymentStatusFor(p PaymentType) ParticipantPaymentStatus {
	if p == PaymentSplit {
		return ParticipantPending
	}
	return ParticipantPaid
}

// Participant is a player attached to a booking.
type Participant struct {
	// ID is the unique identifier for the participant row (UUID format).
	ID string

	BookingID     string
	UserID        string
	Role          Role
	PaymentStatus ParticipantPaymentStatus

	// JoinedAt is the Unix timestamp when the participant was added.
	JoinedAt int64

	// DisplayName and Email are read-model fields joined from the user and
	// profile tables.
	DisplayName string
	Email       string
}
