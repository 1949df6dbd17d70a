// Package events publishes booking lifecycle events for downstream consumers
// such as notification workers.
package events

import (
	"context"
	"log/slog"
	"time"
)

// Routing keys of the booking exchange.
const (
	BookingCreated   = "booking.created"
	BookingJoined    = "booking.joined"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"
)

// Event is the JSON body of every booking message.
type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	UserID     string    `json:"user_id,omitempty"`
	CourtID    int64     `json:"court_id"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	ShareToken string    `json:"share_token,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events. Publishing is best effort: callers log failures
// but never undo a committed booking because of them.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the logger. It is used when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "Booking event",
		"type", e.Type,
		"booking_id", e.BookingID,
		"user_id", e.UserID,
		"court_id", e.CourtID,
		"date", e.Date,
		"start_time", e.StartTime,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
