// Package availability works out which slots of a court are still free on a
// given date.
package availability

import (
	"context"
	"fmt"

	"github.com/mmynk/corepadel/internal/schedule"
)

// Source looks up the start times already taken on a court for a date.
// Implementations return the start times of every booking that is not
// cancelled, in "HH:MM" or "HH:MM:SS" form.
type Source interface {
	BookedSlots(ctx context.Context, courtID int64, date string) ([]string, error)
}

// SlotState is one generated slot and whether it can still be booked.
type SlotState struct {
	Start     schedule.Slot
	Available bool
}

// Availability is the resolved view of one (court, date) pair.
type Availability struct {
	CourtID  int64
	Date     string
	Reserved map[schedule.Slot]bool
	Slots    []SlotState
}

// IsAvailable reports whether s is generated for the day and not reserved.
func (a *Availability) IsAvailable(s schedule.Slot) bool {
	for _, st := range a.Slots {
		if st.Start == s {
			return st.Available
		}
	}
	return false
}

// ReservedSlots returns the reserved starts in day order.
func (a *Availability) ReservedSlots() []schedule.Slot {
	var out []schedule.Slot
	for _, st := range a.Slots {
		if !st.Available {
			out = append(out, st.Start)
		}
	}
	return out
}

// Resolver turns booked start times into per-slot availability.
type Resolver struct {
	source Source
	layout schedule.Layout
}

// NewResolver creates a Resolver over the default club layout.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source, layout: schedule.Default}
}

// WithLayout returns a copy of the resolver using a different day layout.
func (r *Resolver) WithLayout(layout schedule.Layout) *Resolver {
	return &Resolver{source: r.source, layout: layout}
}

// Resolve fetches the reserved starts for the pair and marks every generated
// slot. A zero courtID means no court has been chosen yet: nothing is looked
// up and every slot reads as available.
func (r *Resolver) Resolve(ctx context.Context, courtID int64, date string) (*Availability, error) {
	reserved := make(map[schedule.Slot]bool)

	if courtID != 0 {
		starts, err := r.source.BookedSlots(ctx, courtID, date)
		if err != nil {
			return nil, fmt.Errorf("failed to load booked slots: %w", err)
		}
		for _, v := range starts {
			s, err := schedule.ParseSlot(v)
			if err != nil || !r.layout.Contains(s) {
				continue // not one of ours, cannot block a generated slot
			}
			reserved[s] = true
		}
	}

	generated := r.layout.Slots()
	slots := make([]SlotState, len(generated))
	for i, s := range generated {
		slots[i] = SlotState{Start: s, Available: !reserved[s]}
	}

	return &Availability{
		CourtID:  courtID,
		Date:     date,
		Reserved: reserved,
		Slots:    slots,
	}, nil
}
