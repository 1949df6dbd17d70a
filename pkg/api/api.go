// Package api defines the wire messages and procedures of the Core Padel
// Connect services. Messages travel as JSON through Codec.
package api

// Service names.
const (
	AuthServiceName         = "corepadel.v1.AuthService"
	CourtServiceName        = "corepadel.v1.CourtService"
	AvailabilityServiceName = "corepadel.v1.AvailabilityService"
	BookingServiceName      = "corepadel.v1.BookingService"
	ProfileServiceName      = "corepadel.v1.ProfileService"
)

// Procedure paths.
const (
	AuthRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthLogoutProcedure         = "/" + AuthServiceName + "/Logout"
	AuthGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"

	CourtListCourtsProcedure = "/" + CourtServiceName + "/ListCourts"

	AvailabilityGetAvailabilityProcedure = "/" + AvailabilityServiceName + "/GetAvailability"

	BookingCreateBookingProcedure  = "/" + BookingServiceName + "/CreateBooking"
	BookingGetBookingProcedure     = "/" + BookingServiceName + "/GetBooking"
	BookingJoinBookingProcedure    = "/" + BookingServiceName + "/JoinBooking"
	BookingCancelBookingProcedure  = "/" + BookingServiceName + "/CancelBooking"
	BookingListMyBookingsProcedure = "/" + BookingServiceName + "/ListMyBookings"

	ProfileGetProfileProcedure    = "/" + ProfileServiceName + "/GetProfile"
	ProfileUpdateProfileProcedure = "/" + ProfileServiceName + "/UpdateProfile"
)

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type RegisterResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Court is a court with its price labels. PlayerShareCents is the share of
// one invited player out of four; the owner's share also carries the
// remainder of an uneven price.
type Court struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Surface          string `json:"surface"`
	Active           bool   `json:"active"`
	PriceCents       int64  `json:"price_cents"`
	PriceLabel       string `json:"price_label"`
	PlayerShareCents int64  `json:"player_share_cents"`
	PlayerShareLabel string `json:"player_share_label"`
	OwnerShareCents  int64  `json:"owner_share_cents"`
	OwnerShareLabel  string `json:"owner_share_label"`
}

type ListCourtsRequest struct{}

type ListCourtsResponse struct {
	Courts []*Court `json:"courts"`
}

// Slot is one bookable start time, "HH:MM".
type Slot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

type GetAvailabilityRequest struct {
	CourtID int64  `json:"court_id"`
	Date    string `json:"date"`
}

type GetAvailabilityResponse struct {
	CourtID  int64    `json:"court_id"`
	Date     string   `json:"date"`
	Slots    []*Slot  `json:"slots"`
	Reserved []string `json:"reserved"`
}

type Booking struct {
	ID              string `json:"id"`
	OwnerID         string `json:"owner_id"`
	CourtID         int64  `json:"court_id"`
	Court           *Court `json:"court,omitempty"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	PaymentType     string `json:"payment_type"`
	PaymentStatus   string `json:"payment_status"`
	ShareToken      string `json:"share_token"`
	ShareURL        string `json:"share_url"`
	CreatedAt       int64  `json:"created_at"`
}

type Participant struct {
	UserID        string `json:"user_id"`
	DisplayName   string `json:"display_name"`
	Role          string `json:"role"`
	PaymentStatus string `json:"payment_status"`
	JoinedAt      int64  `json:"joined_at"`
}

type CreateBookingRequest struct {
	CourtID     int64  `json:"court_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	PaymentType string `json:"payment_type"`
}

type CreateBookingResponse struct {
	Booking *Booking `json:"booking"`
}

type GetBookingRequest struct {
	ShareToken string `json:"share_token"`
}

// GetBookingResponse is the shared view of a booking. IsParticipant and
// CanJoin are computed for the caller; both are false for anonymous calls.
type GetBookingResponse struct {
	Booking       *Booking       `json:"booking"`
	Participants  []*Participant `json:"participants"`
	SpotsLeft     int            `json:"spots_left"`
	IsParticipant bool           `json:"is_participant"`
	CanJoin       bool           `json:"can_join"`
}

type JoinBookingRequest struct {
	ShareToken string `json:"share_token"`
}

type JoinBookingResponse struct {
	Booking      *Booking       `json:"booking"`
	Participants []*Participant `json:"participants"`
}

type CancelBookingRequest struct {
	BookingID string `json:"booking_id"`
}

type CancelBookingResponse struct {
	Booking *Booking `json:"booking"`
}

type ListMyBookingsRequest struct{}

type ListMyBookingsResponse struct {
	Bookings []*Booking `json:"bookings"`
}

type Profile struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type Stats struct {
	Total    int `json:"total"`
	Indoor   int `json:"indoor"`
	Outdoor  int `json:"outdoor"`
	Upcoming int `json:"upcoming"`
	Past     int `json:"past"`
}

type GetProfileRequest struct{}

type GetProfileResponse struct {
	Profile  *Profile   `json:"profile"`
	Stats    *Stats     `json:"stats"`
	Upcoming []*Booking `json:"upcoming"`
	Past     []*Booking `json:"past"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type UpdateProfileResponse struct {
	Profile *Profile `json:"profile"`
}
