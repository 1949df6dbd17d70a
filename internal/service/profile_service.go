package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/corepadel/internal/auth"
	"github.com/mmynk/corepadel/internal/calculator"
	"github.com/mmynk/corepadel/internal/middleware"
	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/reservation"
	"github.com/mmynk/corepadel/internal/storage"
	"github.com/mmynk/corepadel/pkg/api"
)

// ProfileStore is the persistence the profile service needs.
type ProfileStore interface {
	storage.UserStore
	storage.ProfileStore
}

// ProfileService serves the caller's profile and booking statistics.
type ProfileService struct {
	store  ProfileStore
	writer *reservation.Writer
	logger *slog.Logger
}

func NewProfileService(store ProfileStore, writer *reservation.Writer, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: store, writer: writer, logger: logger}
}

// NewProfileServiceHandler builds the HTTP handler for s.
func NewProfileServiceHandler(s *ProfileService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return serviceHandler(api.ProfileServiceName, map[string]http.Handler{
		api.ProfileGetProfileProcedure:    connect.NewUnaryHandler(api.ProfileGetProfileProcedure, s.GetProfile, opts...),
		api.ProfileUpdateProfileProcedure: connect.NewUnaryHandler(api.ProfileUpdateProfileProcedure, s.UpdateProfile, opts...),
	})
}

// GetProfile returns the caller's profile with their booking statistics.
func (s *ProfileService) GetProfile(ctx context.Context, req *connect.Request[api.GetProfileRequest]) (*connect.Response[api.GetProfileResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "GetProfile", err)
	}
	if user == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "GetProfile", err)
	}
	if profile == nil {
		profile = &models.Profile{UserID: userID, FullName: user.DisplayName}
	}

	bookings, err := s.writer.ListForUser(ctx, userID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "GetProfile", err)
	}
	today := s.writer.Today()
	st := calculator.ComputeStats(bookings, today)

	return connect.NewResponse(&api.GetProfileResponse{
		Profile: toAPIProfile(profile, user.Email),
		Stats: &api.Stats{
			Total:    st.Total,
			Indoor:   st.Indoor,
			Outdoor:  st.Outdoor,
			Upcoming: st.Upcoming,
			Past:     st.Past,
		},
		Upcoming: s.apiBookings(calculator.Upcoming(bookings, today)),
		Past:     s.apiBookings(calculator.Past(bookings, today)),
	}), nil
}

// UpdateProfile replaces the caller's full name and phone.
func (s *ProfileService) UpdateProfile(ctx context.Context, req *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidateProfile(req.Msg.FullName, req.Msg.Phone); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	profile := &models.Profile{
		UserID:   userID,
		FullName: strings.TrimSpace(req.Msg.FullName),
		Phone:    strings.TrimSpace(req.Msg.Phone),
	}
	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		return nil, internalError(ctx, s.logger, "UpdateProfile", err)
	}

	s.logger.Info("Profile updated", "user_id", userID)
	return connect.NewResponse(&api.UpdateProfileResponse{
		Profile: toAPIProfile(profile, middleware.GetEmail(ctx)),
	}), nil
}

func toAPIProfile(p *models.Profile, email string) *api.Profile {
	return &api.Profile{
		UserID:   p.UserID,
		Email:    email,
		FullName: p.FullName,
		Phone:    p.Phone,
	}
}

func (s *ProfileService) apiBookings(bookings []*models.Booking) []*api.Booking {
	out := make([]*api.Booking, len(bookings))
	for i, b := range bookings {
		out[i] = toAPIBooking(b, s.writer.ShareURL(b.ShareToken))
	}
	return out
}
