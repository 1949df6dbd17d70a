package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/corepadel/internal/availability"
	"github.com/mmynk/corepadel/internal/reservation"
	"github.com/mmynk/corepadel/internal/storage"
	"github.com/mmynk/corepadel/pkg/api"
)

// AvailabilityService reports which slots of a court are free on a date.
type AvailabilityService struct {
	courts   storage.CourtStore
	resolver *availability.Resolver
	writer   *reservation.Writer
	logger   *slog.Logger
}

func NewAvailabilityService(courts storage.CourtStore, resolver *availability.Resolver, writer *reservation.Writer, logger *slog.Logger) *AvailabilityService {
	return &AvailabilityService{courts: courts, resolver: resolver, writer: writer, logger: logger}
}

// NewAvailabilityServiceHandler builds the HTTP handler for s.
func NewAvailabilityServiceHandler(s *AvailabilityService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return serviceHandler(api.AvailabilityServiceName, map[string]http.Handler{
		api.AvailabilityGetAvailabilityProcedure: connect.NewUnaryHandler(api.AvailabilityGetAvailabilityProcedure, s.GetAvailability, opts...),
	})
}

// GetAvailability resolves the slots of a court for a date, today when the
// date is empty. Slots of today that have already started are reported as
// unavailable without being listed as reserved.
func (s *AvailabilityService) GetAvailability(ctx context.Context, req *connect.Request[api.GetAvailabilityRequest]) (*connect.Response[api.GetAvailabilityResponse], error) {
	date := req.Msg.Date
	if date == "" {
		date = s.writer.Today()
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("date must be YYYY-MM-DD"))
	}

	if _, err := s.courts.GetCourt(ctx, req.Msg.CourtID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("court %d not found", req.Msg.CourtID))
		}
		return nil, internalError(ctx, s.logger, "GetAvailability", err)
	}

	av, err := s.resolver.Resolve(ctx, req.Msg.CourtID, date)
	if err != nil {
		return nil, internalError(ctx, s.logger, "GetAvailability", err)
	}

	resp := &api.GetAvailabilityResponse{
		CourtID:  av.CourtID,
		Date:     av.Date,
		Slots:    make([]*api.Slot, len(av.Slots)),
		Reserved: []string{},
	}
	for i, st := range av.Slots {
		resp.Slots[i] = &api.Slot{
			Start:     st.Start.String(),
			End:       st.Start.End().String(),
			Available: st.Available && !s.writer.Started(date, st.Start),
		}
	}
	for _, r := range av.ReservedSlots() {
		resp.Reserved = append(resp.Reserved, r.String())
	}

	s.logger.Debug("Availability resolved", "court_id", av.CourtID, "date", av.Date, "reserved", len(resp.Reserved))
	return connect.NewResponse(resp), nil
}
