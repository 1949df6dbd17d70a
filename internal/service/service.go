// Package service implements the Connect RPC services of the booking server.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/corepadel/internal/auth"
	"github.com/mmynk/corepadel/internal/calculator"
	"github.com/mmynk/corepadel/internal/middleware"
	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/reservation"
	"github.com/mmynk/corepadel/internal/schedule"
	"github.com/mmynk/corepadel/pkg/api"
)

var errInternal = errors.New("internal error")

// handlerOptions puts the JSON codec in front of caller options.
func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
}

// serviceHandler routes the procedures of one service and returns the path
// prefix to mount it on.
func serviceHandler(name string, routes map[string]http.Handler) (string, http.Handler) {
	return "/" + name + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// requireUser returns the caller's user ID or an Unauthenticated error.
func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// reservationError maps booking rule failures to Connect codes. Unexpected
// errors are logged and hidden behind a generic message.
func reservationError(ctx context.Context, logger *slog.Logger, op string, err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, reservation.ErrSlotTaken), errors.Is(err, reservation.ErrAlreadyParticipant):
		code = connect.CodeAlreadyExists
	case errors.Is(err, reservation.ErrFull), errors.Is(err, reservation.ErrCancelled),
		errors.Is(err, reservation.ErrNotJoinable), errors.Is(err, reservation.ErrNotCancellable):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, reservation.ErrNotOwner):
		code = connect.CodePermissionDenied
	case errors.Is(err, reservation.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, reservation.ErrInvalid):
		code = connect.CodeInvalidArgument
	default:
		return internalError(ctx, logger, op, err)
	}
	return connect.NewError(code, err)
}

func internalError(ctx context.Context, logger *slog.Logger, op string, err error) error {
	logger.ErrorContext(ctx, op+" failed", "error", err)
	return connect.NewError(connect.CodeInternal, errInternal)
}

func toAPICourt(c *models.Court) *api.Court {
	if c == nil {
		return nil
	}
	owner, player := calculator.MatchShares(c.PriceCents)
	return &api.Court{
		ID:               c.ID,
		Name:             c.Name,
		Surface:          string(c.Surface),
		Active:           c.Active,
		PriceCents:       c.PriceCents,
		PriceLabel:       calculator.FormatEuros(c.PriceCents),
		PlayerShareCents: player,
		PlayerShareLabel: calculator.FormatEuros(player),
		OwnerShareCents:  owner,
		OwnerShareLabel:  calculator.FormatEuros(owner),
	}
}

func toAPIBooking(b *models.Booking, shareURL string) *api.Booking {
	out := &api.Booking{
		ID:              b.ID,
		OwnerID:         b.UserID,
		CourtID:         b.CourtID,
		Court:           toAPICourt(b.Court),
		Date:            b.Date,
		StartTime:       strings.TrimSuffix(b.StartTime, ":00"),
		DurationMinutes: b.DurationMinutes,
		Status:          string(b.Status),
		PaymentType:     string(b.PaymentType),
		PaymentStatus:   string(b.PaymentStatus),
		ShareToken:      b.ShareToken,
		ShareURL:        shareURL,
		CreatedAt:       b.CreatedAt,
	}
	if start, err := schedule.ParseSlot(b.StartTime); err == nil {
		out.StartTime = start.String()
		out.EndTime = (start + schedule.Slot(b.DurationMinutes)).String()
	}
	return out
}

func toAPIParticipants(ps []*models.Participant) []*api.Participant {
	out := make([]*api.Participant, len(ps))
	for i, p := range ps {
		out[i] = &api.Participant{
			UserID:        p.UserID,
			DisplayName:   p.DisplayName,
			Role:          string(p.Role),
			PaymentStatus: string(p.PaymentStatus),
			JoinedAt:      p.JoinedAt,
		}
	}
	return out
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}
