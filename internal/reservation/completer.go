package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/corepadel/internal/events"
	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/storage"
)

// Completer marks confirmed bookings as completed once their session ended.
type Completer struct {
	w *Writer
}

// NewCompleter shares the writer's store, clock and publishers.
func NewCompleter(w *Writer) *Completer {
	return &Completer{w: w}
}

// Sweep completes every ended session and returns how many it moved.
func (c *Completer) Sweep(ctx context.Context) (int, error) {
	w := c.w
	candidates, err := w.store.ListBookingsByStatus(ctx, models.StatusConfirmed, w.Today())
	if err != nil {
		return 0, fmt.Errorf("failed to list confirmed bookings: %w", err)
	}

	done := 0
	for _, b := range candidates {
		if !w.ended(b) {
			continue
		}
		err := w.store.UpdateBookingStatus(ctx, b.ID, models.StatusConfirmed, models.StatusCompleted)
		if errors.Is(err, storage.ErrStatusChanged) {
			continue
		}
		if err != nil {
			return done, fmt.Errorf("failed to complete booking %s: %w", b.ID, err)
		}
		b.Status = models.StatusCompleted
		done++
		w.publish(ctx, events.BookingCompleted, b, b.UserID)
	}

	w.metrics.BookingCompleted(done)
	return done, nil
}

// Run sweeps immediately and then every interval until ctx is done.
func (c *Completer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := c.Sweep(ctx)
		if err != nil {
			c.w.logger.ErrorContext(ctx, "Completion sweep failed", "error", err)
		} else if n > 0 {
			c.w.logger.InfoContext(ctx, "Completed ended bookings", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
