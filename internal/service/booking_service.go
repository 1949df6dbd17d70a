package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/corepadel/internal/middleware"
	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/reservation"
	"github.com/mmynk/corepadel/internal/schedule"
	"github.com/mmynk/corepadel/pkg/api"
)

// BookingService implements reservations, shared-booking lookups, joins and
// cancellations.
type BookingService struct {
	writer *reservation.Writer
	logger *slog.Logger
}

func NewBookingService(writer *reservation.Writer, logger *slog.Logger) *BookingService {
	return &BookingService{writer: writer, logger: logger}
}

// NewBookingServiceHandler builds the HTTP handler for s.
func NewBookingServiceHandler(s *BookingService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return serviceHandler(api.BookingServiceName, map[string]http.Handler{
		api.BookingCreateBookingProcedure:  connect.NewUnaryHandler(api.BookingCreateBookingProcedure, s.CreateBooking, opts...),
		api.BookingGetBookingProcedure:     connect.NewUnaryHandler(api.BookingGetBookingProcedure, s.GetBooking, opts...),
		api.BookingJoinBookingProcedure:    connect.NewUnaryHandler(api.BookingJoinBookingProcedure, s.JoinBooking, opts...),
		api.BookingCancelBookingProcedure:  connect.NewUnaryHandler(api.BookingCancelBookingProcedure, s.CancelBooking, opts...),
		api.BookingListMyBookingsProcedure: connect.NewUnaryHandler(api.BookingListMyBookingsProcedure, s.ListMyBookings, opts...),
	})
}

// CreateBooking reserves a slot for the caller.
func (s *BookingService) CreateBooking(ctx context.Context, req *connect.Request[api.CreateBookingRequest]) (*connect.Response[api.CreateBookingResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateBooking request",
		"user_id", userID, "court_id", req.Msg.CourtID, "date", req.Msg.Date, "start", req.Msg.StartTime)

	start, err := schedule.ParseSlot(req.Msg.StartTime)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %v", reservation.ErrInvalid, err))
	}

	res, err := s.writer.Reserve(ctx, reservation.Request{
		UserID:  userID,
		CourtID: req.Msg.CourtID,
		Date:    req.Msg.Date,
		Start:   start,
		Payment: models.PaymentType(req.Msg.PaymentType),
	})
	if err != nil {
		return nil, reservationError(ctx, s.logger, "CreateBooking", err)
	}

	return connect.NewResponse(&api.CreateBookingResponse{
		Booking: toAPIBooking(res.Booking, res.ShareURL),
	}), nil
}

// GetBooking returns the shared view of a booking. Anonymous callers may
// look at it; the caller-specific flags need a session.
func (s *BookingService) GetBooking(ctx context.Context, req *connect.Request[api.GetBookingRequest]) (*connect.Response[api.GetBookingResponse], error) {
	d, err := s.writer.Lookup(ctx, req.Msg.ShareToken)
	if err != nil {
		return nil, reservationError(ctx, s.logger, "GetBooking", err)
	}

	resp := &api.GetBookingResponse{
		Booking:      toAPIBooking(d.Booking, d.ShareURL),
		Participants: toAPIParticipants(d.Participants),
		SpotsLeft:    max(models.MaxParticipants-len(d.Participants), 0),
	}
	if userID := middleware.GetUserID(ctx); userID != "" {
		for _, p := range d.Participants {
			if p.UserID == userID {
				resp.IsParticipant = true
			}
		}
		resp.CanJoin = !resp.IsParticipant && resp.SpotsLeft > 0 && s.writer.Joinable(d.Booking)
	}
	return connect.NewResponse(resp), nil
}

// JoinBooking adds the caller to a shared booking.
func (s *BookingService) JoinBooking(ctx context.Context, req *connect.Request[api.JoinBookingRequest]) (*connect.Response[api.JoinBookingResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("JoinBooking request", "user_id", userID)

	d, err := s.writer.Join(ctx, req.Msg.ShareToken, userID)
	if err != nil {
		return nil, reservationError(ctx, s.logger, "JoinBooking", err)
	}
	return connect.NewResponse(&api.JoinBookingResponse{
		Booking:      toAPIBooking(d.Booking, d.ShareURL),
		Participants: toAPIParticipants(d.Participants),
	}), nil
}

// CancelBooking cancels one of the caller's bookings.
func (s *BookingService) CancelBooking(ctx context.Context, req *connect.Request[api.CancelBookingRequest]) (*connect.Response[api.CancelBookingResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CancelBooking request", "user_id", userID, "booking_id", req.Msg.BookingID)

	b, err := s.writer.Cancel(ctx, req.Msg.BookingID, userID)
	if err != nil {
		return nil, reservationError(ctx, s.logger, "CancelBooking", err)
	}
	return connect.NewResponse(&api.CancelBookingResponse{
		Booking: toAPIBooking(b, s.writer.ShareURL(b.ShareToken)),
	}), nil
}

// ListMyBookings returns the caller's bookings, newest date first.
func (s *BookingService) ListMyBookings(ctx context.Context, req *connect.Request[api.ListMyBookingsRequest]) (*connect.Response[api.ListMyBookingsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	bookings, err := s.writer.ListForUser(ctx, userID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "ListMyBookings", err)
	}

	resp := &api.ListMyBookingsResponse{Bookings: make([]*api.Booking, len(bookings))}
	for i, b := range bookings {
		resp.Bookings[i] = toAPIBooking(b, s.writer.ShareURL(b.ShareToken))
	}
	return connect.NewResponse(resp), nil
}
