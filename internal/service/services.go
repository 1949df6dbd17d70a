package service

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/corepadel/internal/auth"
	"github.com/mmynk/corepadel/internal/availability"
	"github.com/mmynk/corepadel/internal/middleware"
	"github.com/mmynk/corepadel/internal/reservation"
	"github.com/mmynk/corepadel/internal/storage"
)

// Deps are the collaborators shared by the services.
type Deps struct {
	Store         storage.Store
	Writer        *reservation.Writer
	Authenticator auth.Authenticator
	Sessions      *auth.Sessions
	Logger        *slog.Logger
}

// Services bundles the RPC services of one server.
type Services struct {
	Auth         *AuthService
	Courts       *CourtService
	Availability *AvailabilityService
	Bookings     *BookingService
	Profiles     *ProfileService

	sessions *auth.Sessions
}

// NewServices wires every service from d.
func NewServices(d Deps) *Services {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Services{
		Auth:         NewAuthService(d.Authenticator, d.Sessions, d.Store, logger),
		Courts:       NewCourtService(d.Store, logger),
		Availability: NewAvailabilityService(d.Store, availability.NewResolver(d.Store).WithLayout(d.Writer.Layout()), d.Writer, logger),
		Bookings:     NewBookingService(d.Writer, logger),
		Profiles:     NewProfileService(d.Store, d.Writer, logger),
		sessions:     d.Sessions,
	}
}

// Register mounts every service on mux with the given handler options. The
// profile service serves signed-in users only and rejects bad tokens before
// its handlers run.
func (s *Services) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	mux.Handle(NewAuthServiceHandler(s.Auth, opts...))
	mux.Handle(NewCourtServiceHandler(s.Courts, opts...))
	mux.Handle(NewAvailabilityServiceHandler(s.Availability, opts...))
	mux.Handle(NewBookingServiceHandler(s.Bookings, opts...))
	profileOpts := append([]connect.HandlerOption{}, opts...)
	profileOpts = append(profileOpts, connect.WithInterceptors(middleware.RequireAuth(s.sessions)))
	mux.Handle(NewProfileServiceHandler(s.Profiles, profileOpts...))
}
