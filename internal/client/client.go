// Package client is the typed Go client of the booking server. Calls that
// act on behalf of a user take an explicit *Session.
package client

import (
	"context"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/corepadel/internal/auth"
	"github.com/mmynk/corepadel/pkg/api"
)

// Client calls every service of one server.
type Client struct {
	register       *connect.Client[api.RegisterRequest, api.RegisterResponse]
	login          *connect.Client[api.LoginRequest, api.LoginResponse]
	logout         *connect.Client[api.LogoutRequest, api.LogoutResponse]
	currentUser    *connect.Client[api.GetCurrentUserRequest, api.GetCurrentUserResponse]
	listCourts     *connect.Client[api.ListCourtsRequest, api.ListCourtsResponse]
	availability   *connect.Client[api.GetAvailabilityRequest, api.GetAvailabilityResponse]
	createBooking  *connect.Client[api.CreateBookingRequest, api.CreateBookingResponse]
	getBooking     *connect.Client[api.GetBookingRequest, api.GetBookingResponse]
	joinBooking    *connect.Client[api.JoinBookingRequest, api.JoinBookingResponse]
	cancelBooking  *connect.Client[api.CancelBookingRequest, api.CancelBookingResponse]
	listMyBookings *connect.Client[api.ListMyBookingsRequest, api.ListMyBookingsResponse]
	getProfile     *connect.Client[api.GetProfileRequest, api.GetProfileResponse]
	updateProfile  *connect.Client[api.UpdateProfileRequest, api.UpdateProfileResponse]
}

// New creates a client for the server at baseURL.
func New(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)

	return &Client{
		register:       connect.NewClient[api.RegisterRequest, api.RegisterResponse](httpClient, baseURL+api.AuthRegisterProcedure, opts...),
		login:          connect.NewClient[api.LoginRequest, api.LoginResponse](httpClient, baseURL+api.AuthLoginProcedure, opts...),
		logout:         connect.NewClient[api.LogoutRequest, api.LogoutResponse](httpClient, baseURL+api.AuthLogoutProcedure, opts...),
		currentUser:    connect.NewClient[api.GetCurrentUserRequest, api.GetCurrentUserResponse](httpClient, baseURL+api.AuthGetCurrentUserProcedure, opts...),
		listCourts:     connect.NewClient[api.ListCourtsRequest, api.ListCourtsResponse](httpClient, baseURL+api.CourtListCourtsProcedure, opts...),
		availability:   connect.NewClient[api.GetAvailabilityRequest, api.GetAvailabilityResponse](httpClient, baseURL+api.AvailabilityGetAvailabilityProcedure, opts...),
		createBooking:  connect.NewClient[api.CreateBookingRequest, api.CreateBookingResponse](httpClient, baseURL+api.BookingCreateBookingProcedure, opts...),
		getBooking:     connect.NewClient[api.GetBookingRequest, api.GetBookingResponse](httpClient, baseURL+api.BookingGetBookingProcedure, opts...),
		joinBooking:    connect.NewClient[api.JoinBookingRequest, api.JoinBookingResponse](httpClient, baseURL+api.BookingJoinBookingProcedure, opts...),
		cancelBooking:  connect.NewClient[api.CancelBookingRequest, api.CancelBookingResponse](httpClient, baseURL+api.BookingCancelBookingProcedure, opts...),
		listMyBookings: connect.NewClient[api.ListMyBookingsRequest, api.ListMyBookingsResponse](httpClient, baseURL+api.BookingListMyBookingsProcedure, opts...),
		getProfile:     connect.NewClient[api.GetProfileRequest, api.GetProfileResponse](httpClient, baseURL+api.ProfileGetProfileProcedure, opts...),
		updateProfile:  connect.NewClient[api.UpdateProfileRequest, api.UpdateProfileResponse](httpClient, baseURL+api.ProfileUpdateProfileProcedure, opts...),
	}
}

// request builds a request carrying the session token when s is non-nil.
func request[T any](msg *T, s *Session) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if s != nil && s.Token != "" {
		req.Header().Set("Authorization", "Bearer "+s.Token)
	}
	return req
}

func newSession(u *api.User, token string, expiresAt int64) *Session {
	return &Session{
		Token:       token,
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		ExpiresAt:   time.Unix(expiresAt, 0),
	}
}

// SignUp validates the form locally, registers the account and returns its
// session. Invalid input returns auth.FieldErrors without calling the server.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	if err := auth.ValidateSignUp(email, password, displayName); err != nil {
		return nil, err
	}
	resp, err := c.register.CallUnary(ctx, request(&api.RegisterRequest{
		Email:       strings.TrimSpace(email),
		Password:    password,
		DisplayName: strings.TrimSpace(displayName),
	}, nil))
	if err != nil {
		return nil, err
	}
	return newSession(resp.Msg.User, resp.Msg.Token, resp.Msg.ExpiresAt), nil
}

// SignIn validates the form locally and exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := auth.ValidateSignIn(email, password); err != nil {
		return nil, err
	}
	resp, err := c.login.CallUnary(ctx, request(&api.LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}, nil))
	if err != nil {
		return nil, err
	}
	return newSession(resp.Msg.User, resp.Msg.Token, resp.Msg.ExpiresAt), nil
}

// SignOut revokes the session on the server.
func (c *Client) SignOut(ctx context.Context, s *Session) error {
	if err := s.check(); err != nil {
		return err
	}
	_, err := c.logout.CallUnary(ctx, request(&api.LogoutRequest{}, s))
	return err
}

func (c *Client) CurrentUser(ctx context.Context, s *Session) (*api.User, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	resp, err := c.currentUser.CallUnary(ctx, request(&api.GetCurrentUserRequest{}, s))
	if err != nil {
		return nil, err
	}
	return resp.Msg.User, nil
}

func (c *Client) ListCourts(ctx context.Context) ([]*api.Court, error) {
	resp, err := c.listCourts.CallUnary(ctx, request(&api.ListCourtsRequest{}, nil))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Courts, nil
}

func (c *Client) Availability(ctx context.Context, courtID int64, date string) (*api.GetAvailabilityResponse, error) {
	resp, err := c.availability.CallUnary(ctx, request(&api.GetAvailabilityRequest{CourtID: courtID, Date: date}, nil))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) CreateBooking(ctx context.Context, s *Session, req *api.CreateBookingRequest) (*api.Booking, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	resp, err := c.createBooking.CallUnary(ctx, request(req, s))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Booking, nil
}

// GetBooking looks up a shared booking. s may be nil for an anonymous view.
func (c *Client) GetBooking(ctx context.Context, s *Session, token string) (*api.GetBookingResponse, error) {
	resp, err := c.getBooking.CallUnary(ctx, request(&api.GetBookingRequest{ShareToken: token}, s))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) JoinBooking(ctx context.Context, s *Session, token string) (*api.JoinBookingResponse, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	resp, err := c.joinBooking.CallUnary(ctx, request(&api.JoinBookingRequest{ShareToken: token}, s))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) CancelBooking(ctx context.Context, s *Session, bookingID string) (*api.Booking, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	resp, err := c.cancelBooking.CallUnary(ctx, request(&api.CancelBookingRequest{BookingID: bookingID}, s))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Booking, nil
}

func (c *Client) ListMyBookings(ctx context.Context, s *Session) ([]*api.Booking, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	resp, err := c.listMyBookings.CallUnary(ctx, request(&api.ListMyBookingsRequest{}, s))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Bookings, nil
}

func (c *Client) GetProfile(ctx context.Context, s *Session) (*api.GetProfileResponse, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	resp, err := c.getProfile.CallUnary(ctx, request(&api.GetProfileRequest{}, s))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// UpdateProfile validates the form locally before calling the server.
func (c *Client) UpdateProfile(ctx context.Context, s *Session, fullName, phone string) (*api.Profile, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if err := auth.ValidateProfile(fullName, phone); err != nil {
		return nil, err
	}
	resp, err := c.updateProfile.CallUnary(ctx, request(&api.UpdateProfileRequest{FullName: fullName, Phone: phone}, s))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Profile, nil
}
