package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/corepadel/internal/storage"
	"github.com/mmynk/corepadel/pkg/api"
)

// CourtService lists the club's courts.
type CourtService struct {
	courts storage.CourtStore
	logger *slog.Logger
}

func NewCourtService(courts storage.CourtStore, logger *slog.Logger) *CourtService {
	return &CourtService{courts: courts, logger: logger}
}

// NewCourtServiceHandler builds the HTTP handler for s.
func NewCourtServiceHandler(s *CourtService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return serviceHandler(api.CourtServiceName, map[string]http.Handler{
		api.CourtListCourtsProcedure: connect.NewUnaryHandler(api.CourtListCourtsProcedure, s.ListCourts, opts...),
	})
}

// ListCourts returns the active courts in ID order.
func (s *CourtService) ListCourts(ctx context.Context, req *connect.Request[api.ListCourtsRequest]) (*connect.Response[api.ListCourtsResponse], error) {
	courts, err := s.courts.ListActiveCourts(ctx)
	if err != nil {
		return nil, internalError(ctx, s.logger, "ListCourts", err)
	}

	resp := &api.ListCourtsResponse{Courts: make([]*api.Court, len(courts))}
	for i, c := range courts {
		resp.Courts[i] = toAPICourt(c)
	}
	return connect.NewResponse(resp), nil
}
