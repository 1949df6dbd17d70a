// Package reservation applies the booking rules: reserving a slot, joining a
// shared booking through its token, cancelling and completing bookings.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/corepadel/internal/events"
	"github.com/mmynk/corepadel/internal/metrics"
	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/schedule"
	"github.com/mmynk/corepadel/internal/storage"
)

const dateLayout = "2006-01-02"

var (
	// ErrInvalid wraps every rejected reservation request.
	ErrInvalid = errors.New("invalid reservation")

	ErrSlotTaken          = errors.New("slot already booked")
	ErrNotFound           = errors.New("booking not found")
	ErrCancelled          = errors.New("booking has been cancelled")
	ErrNotJoinable        = errors.New("booking can no longer be joined")
	ErrAlreadyParticipant = errors.New("already a participant of this booking")
	ErrFull               = fmt.Errorf("booking already has %d players", models.MaxParticipants)
	ErrNotOwner           = errors.New("only the owner can cancel a booking")
	ErrNotCancellable     = errors.New("booking is not confirmed")
)

// Store is the persistence the writer needs.
type Store interface {
	storage.CourtStore
	storage.BookingStore
}

// Writer validates and persists reservations.
type Writer struct {
	store      Store
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	layout     schedule.Layout
	loc        *time.Location
	now        func() time.Time
	origin     string
	windowDays int
}

// Option configures a Writer.
type Option func(*Writer)

func WithPublisher(p events.Publisher) Option { return func(w *Writer) { w.publisher = p } }
func WithMetrics(m *metrics.Metrics) Option   { return func(w *Writer) { w.metrics = m } }
func WithLogger(l *slog.Logger) Option        { return func(w *Writer) { w.logger = l } }
func WithLayout(l schedule.Layout) Option     { return func(w *Writer) { w.layout = l } }
func WithLocation(loc *time.Location) Option  { return func(w *Writer) { w.loc = loc } }
func WithClock(now func() time.Time) Option   { return func(w *Writer) { w.now = now } }

// WithOrigin sets the public origin used to build share URLs.
func WithOrigin(origin string) Option {
	return func(w *Writer) { w.origin = strings.TrimRight(origin, "/") }
}

// WithWindow sets how many days, today included, can be booked.
func WithWindow(days int) Option { return func(w *Writer) { w.windowDays = days } }

// NewWriter creates a Writer. Without options it logs events instead of
// publishing them, uses UTC and the default club layout.
func NewWriter(store Store, opts ...Option) *Writer {
	w := &Writer{
		store:      store,
		logger:     slog.Default(),
		layout:     schedule.Default,
		loc:        time.UTC,
		now:        time.Now,
		origin:     "http://localhost:8080",
		windowDays: 7,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.publisher == nil {
		w.publisher = events.NewLogPublisher(w.logger)
	}
	return w
}

// Request describes a reservation attempt.
type Request struct {
	UserID  string
	CourtID int64
	Date    string
	Start   schedule.Slot
	Payment models.PaymentType
}

// Reservation is a persisted booking with its share link.
type Reservation struct {
	Booking  *models.Booking
	ShareURL string
}

// Details is a booking as seen through its share link.
type Details struct {
	Booking      *models.Booking
	Participants []*models.Participant
	ShareURL     string
}

// Today returns the current club date.
func (w *Writer) Today() string {
	return w.now().In(w.loc).Format(dateLayout)
}

// Window returns the first and last bookable dates.
func (w *Writer) Window() (first, last string) {
	today := w.now().In(w.loc)
	return today.Format(dateLayout), today.AddDate(0, 0, w.windowDays-1).Format(dateLayout)
}

// Layout returns the day layout reservations are validated against.
func (w *Writer) Layout() schedule.Layout {
	return w.layout
}

// ShareURL builds the public link for a share token.
func (w *Writer) ShareURL(token string) string {
	return w.origin + "/booking/" + token
}

// Reserve validates req and persists the booking together with its owner.
// A slot that another booking holds yields ErrSlotTaken.
func (w *Writer) Reserve(ctx context.Context, req Request) (*Reservation, error) {
	court, err := w.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		UserID:          req.UserID,
		CourtID:         req.CourtID,
		Date:            req.Date,
		StartTime:       req.Start.DBString(),
		DurationMinutes: models.SlotMinutes,
		Status:          models.StatusConfirmed,
		PaymentType:     req.Payment,
		PaymentStatus:   models.BookingPaymentStatusFor(req.Payment),
		ShareToken:      uuid.New().String(),
	}
	owner := &models.Participant{
		UserID:        req.UserID,
		Role:          models.RoleOwner,
		PaymentStatus: models.ParticipantPaymentStatusFor(req.Payment),
	}

	if err := w.store.CreateBooking(ctx, booking, owner); err != nil {
		if errors.Is(err, storage.ErrSlotTaken) {
			w.metrics.BookingConflict()
			w.logger.InfoContext(ctx, "Slot already booked",
				"court_id", req.CourtID, "date", req.Date, "start", req.Start.String())
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	booking.Court = court

	w.metrics.BookingCreated(string(court.Surface), string(req.Payment))
	w.publish(ctx, events.BookingCreated, booking, req.UserID)
	w.logger.InfoContext(ctx, "Booking created",
		"booking_id", booking.ID, "court_id", booking.CourtID,
		"date", booking.Date, "start", req.Start.String(), "payment", req.Payment)

	return &Reservation{Booking: booking, ShareURL: w.ShareURL(booking.ShareToken)}, nil
}

func (w *Writer) validate(ctx context.Context, req Request) (*models.Court, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalid)
	}
	if !req.Payment.Valid() {
		return nil, fmt.Errorf("%w: unknown payment type %q", ErrInvalid, req.Payment)
	}

	day, err := time.ParseInLocation(dateLayout, req.Date, w.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalid)
	}
	first, last := w.Window()
	if req.Date < first {
		return nil, fmt.Errorf("%w: date %s is in the past", ErrInvalid, req.Date)
	}
	if req.Date > last {
		return nil, fmt.Errorf("%w: date %s is beyond the booking window", ErrInvalid, req.Date)
	}

	if !w.layout.Contains(req.Start) {
		return nil, fmt.Errorf("%w: %s is not a bookable start time", ErrInvalid, req.Start)
	}
	if req.Date == first && !w.startsAfter(day, req.Start) {
		return nil, fmt.Errorf("%w: slot %s has already started", ErrInvalid, req.Start)
	}

	court, err := w.store.GetCourt(ctx, req.CourtID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown court %d", ErrInvalid, req.CourtID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load court: %w", err)
	}
	if !court.Active {
		return nil, fmt.Errorf("%w: court %d is closed", ErrInvalid, req.CourtID)
	}
	return court, nil
}

func (w *Writer) startsAfter(day time.Time, s schedule.Slot) bool {
	return s.On(day, w.loc).After(w.now())
}

// Started reports whether slot s on date has already begun at the club.
// Unparsable dates report false.
func (w *Writer) Started(date string, s schedule.Slot) bool {
	day, err := time.ParseInLocation(dateLayout, date, w.loc)
	if err != nil {
		return false
	}
	return !w.startsAfter(day, s)
}

// Lookup resolves a share token to the booking, its court and participants.
func (w *Writer) Lookup(ctx context.Context, token string) (*Details, error) {
	booking, err := w.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	participants, err := w.store.ListParticipants(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return &Details{
		Booking:      booking,
		Participants: participants,
		ShareURL:     w.ShareURL(booking.ShareToken),
	}, nil
}

func (w *Writer) byToken(ctx context.Context, token string) (*models.Booking, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	booking, err := w.store.GetBookingByToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return booking, nil
}

// Join adds userID as a player of the booking behind token.
func (w *Writer) Join(ctx context.Context, token, userID string) (*Details, error) {
	booking, err := w.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	switch {
	case booking.Status == models.StatusCancelled:
		return nil, ErrCancelled
	case !w.Joinable(booking):
		return nil, ErrNotJoinable
	}

	participants, err := w.store.ListParticipants(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	for _, p := range participants {
		if p.UserID == userID {
			return nil, ErrAlreadyParticipant
		}
	}

	joiner := &models.Participant{
		BookingID:     booking.ID,
		UserID:        userID,
		Role:          models.RolePlayer,
		PaymentStatus: models.ParticipantPaymentStatusFor(booking.PaymentType),
	}
	err = w.store.AddParticipant(ctx, joiner, models.MaxParticipants)
	switch {
	case errors.Is(err, storage.ErrFull):
		return nil, ErrFull
	case errors.Is(err, storage.ErrDuplicateParticipant):
		return nil, ErrAlreadyParticipant
	case err != nil:
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	w.metrics.ParticipantJoined(string(joiner.PaymentStatus))
	w.publish(ctx, events.BookingJoined, booking, userID)
	w.logger.InfoContext(ctx, "Participant joined", "booking_id", booking.ID, "user_id", userID)

	return w.Lookup(ctx, token)
}

// Cancel cancels a confirmed booking on behalf of its owner.
func (w *Writer) Cancel(ctx context.Context, bookingID, userID string) (*models.Booking, error) {
	booking, err := w.store.GetBooking(ctx, bookingID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.UserID != userID {
		return nil, ErrNotOwner
	}
	if booking.Status != models.StatusConfirmed {
		return nil, ErrNotCancellable
	}

	err = w.store.UpdateBookingStatus(ctx, booking.ID, models.StatusConfirmed, models.StatusCancelled)
	if errors.Is(err, storage.ErrStatusChanged) {
		return nil, ErrNotCancellable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	booking.Status = models.StatusCancelled

	w.metrics.BookingCancelled()
	w.publish(ctx, events.BookingCancelled, booking, userID)
	w.logger.InfoContext(ctx, "Booking cancelled", "booking_id", booking.ID, "user_id", userID)
	return booking, nil
}

// ListForUser returns the bookings owned by userID, newest date first.
func (w *Writer) ListForUser(ctx context.Context, userID string) ([]*models.Booking, error) {
	bookings, err := w.store.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// Joinable reports whether players may still join b: it is confirmed and
// its session has not ended.
func (w *Writer) Joinable(b *models.Booking) bool {
	return b.Status == models.StatusConfirmed && !w.ended(b)
}

// ended reports whether the booked session is over.
func (w *Writer) ended(b *models.Booking) bool {
	end, err := sessionEnd(b, w.loc)
	if err != nil {
		return false
	}
	return !end.After(w.now())
}

func sessionEnd(b *models.Booking, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, b.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	start, err := schedule.ParseSlot(b.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	d := b.DurationMinutes
	if d == 0 {
		d = models.SlotMinutes
	}
	return (start + schedule.Slot(d)).On(day, loc), nil
}

func (w *Writer) publish(ctx context.Context, kind string, b *models.Booking, userID string) {
	e := events.Event{
		Type:       kind,
		BookingID:  b.ID,
		UserID:     userID,
		CourtID:    b.CourtID,
		Date:       b.Date,
		StartTime:  b.StartTime,
		ShareToken: b.ShareToken,
		OccurredAt: w.now().UTC(),
	}
	if err := w.publisher.Publish(ctx, e); err != nil {
		w.logger.WarnContext(ctx, "Failed to publish booking event",
			"type", kind, "booking_id", b.ID, "error", err)
	}
}
