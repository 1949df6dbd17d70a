package client

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/wizard"
	"github.com/mmynk/corepadel/pkg/api"
)

// WizardBackend lets a wizard.Wizard talk to the server on behalf of a
// session.
type WizardBackend struct {
	client  *Client
	session *Session
}

var _ wizard.Backend = (*WizardBackend)(nil)

func NewWizardBackend(c *Client, s *Session) *WizardBackend {
	return &WizardBackend{client: c, session: s}
}

// BookedSlots returns every start the server reports as unavailable: taken
// slots and, for today, slots that have already started.
func (b *WizardBackend) BookedSlots(ctx context.Context, courtID int64, date string) ([]string, error) {
	av, err := b.client.Availability(ctx, courtID, date)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, s := range av.Slots {
		if !s.Available {
			out = append(out, s.Start)
		}
	}
	return out, nil
}

// Reserve submits the reservation. An AlreadyExists answer becomes
// wizard.ErrSlotTaken.
func (b *WizardBackend) Reserve(ctx context.Context, r wizard.Reservation) (*wizard.Confirmation, error) {
	booking, err := b.client.CreateBooking(ctx, b.session, &api.CreateBookingRequest{
		CourtID:     r.CourtID,
		Date:        r.Date,
		StartTime:   r.Start.String(),
		PaymentType: string(r.Payment),
	})
	if connect.CodeOf(err) == connect.CodeAlreadyExists {
		return nil, fmt.Errorf("%w: %v", wizard.ErrSlotTaken, err)
	}
	if err != nil {
		return nil, err
	}
	return &wizard.Confirmation{
		BookingID:  booking.ID,
		ShareToken: booking.ShareToken,
		ShareURL:   booking.ShareURL,
	}, nil
}

// Courts converts the court list for the wizard.
func Courts(courts []*api.Court) []*models.Court {
	out := make([]*models.Court, len(courts))
	for i, c := range courts {
		out[i] = &models.Court{
			ID:         c.ID,
			Name:       c.Name,
			Surface:    models.Surface(c.Surface),
			Active:     c.Active,
			PriceCents: c.PriceCents,
		}
	}
	return out
}
