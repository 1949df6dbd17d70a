// Package wizard drives the booking flow on the client: pick a date and a
// court, pick a free slot, choose how to pay, confirm and submit.
//
// A Wizard is safe for concurrent use. Availability lookups run without
// holding the lock and their results are applied only if no newer lookup or
// selection happened in the meantime.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmynk/corepadel/internal/availability"
	"github.com/mmynk/corepadel/internal/calculator"
	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/schedule"
)

const dateLayout = "2006-01-02"

// Step is a stage of the booking flow.
type Step int

const (
	SelectCourt Step = iota
	SelectTime
	ChoosePayment
	Confirm
	Success
)

func (s Step) String() string {
	switch s {
	case SelectCourt:
		return "select-court"
	case SelectTime:
		return "select-time"
	case ChoosePayment:
		return "choose-payment"
	case Confirm:
		return "confirm"
	case Success:
		return "success"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

var (
	ErrFinished        = errors.New("booking already confirmed; reset to start over")
	ErrSubmitInFlight  = errors.New("a submission is already in progress")
	ErrSlotTaken       = errors.New("slot was booked by someone else")
	ErrSlotUnavailable = errors.New("slot is not available")
	ErrStale           = errors.New("availability result superseded by a newer request")
	ErrDateOutOfRange  = errors.New("date is outside the booking window")
	ErrUnknownCourt    = errors.New("unknown court")
	ErrNoCourt         = errors.New("choose a court first")
	ErrNoTime          = errors.New("choose a time first")
	ErrNotLoaded       = errors.New("availability not loaded for the current selection")
	ErrInvalidPayment  = errors.New("unknown payment type")
	ErrNotConfirmable  = errors.New("booking is not ready to confirm")
	ErrNothingToModify = errors.New("nothing to modify at this step")
)

// Reservation is what the wizard submits.
type Reservation struct {
	CourtID int64
	Date    string
	Start   schedule.Slot
	Payment models.PaymentType
}

// Confirmation is the backend's answer to a successful submission.
type Confirmation struct {
	BookingID  string
	ShareToken string
	ShareURL   string
}

// Backend looks up taken slots and submits reservations. Reserve must
// return an error wrapping ErrSlotTaken when the slot is already held.
type Backend interface {
	availability.Source
	Reserve(ctx context.Context, r Reservation) (*Confirmation, error)
}

// Config configures a Wizard.
type Config struct {
	// Courts the user can pick from.
	Courts []*models.Court

	// Location is the club time zone; UTC when nil.
	Location *time.Location

	// Now defaults to time.Now.
	Now func() time.Time

	// WindowDays is the number of bookable days, today included; 7 when zero.
	WindowDays int

	// Layout defaults to schedule.Default.
	Layout *schedule.Layout
}

// Wizard is the booking flow state machine.
type Wizard struct {
	mu       sync.Mutex
	backend  Backend
	resolver *availability.Resolver
	tracker  availability.Tracker

	courts     []*models.Court
	loc        *time.Location
	now        func() time.Time
	windowDays int

	step     Step
	date     string
	courtID  int64
	start    schedule.Slot
	hasStart bool
	payment  models.PaymentType

	avail      *availability.Availability
	submitting bool
	result     *Confirmation
}

// New creates a Wizard in its initial state.
func New(backend Backend, cfg Config) *Wizard {
	w := &Wizard{
		backend:    backend,
		resolver:   availability.NewResolver(backend),
		courts:     cfg.Courts,
		loc:        cfg.Location,
		now:        cfg.Now,
		windowDays: cfg.WindowDays,
	}
	if w.loc == nil {
		w.loc = time.UTC
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.windowDays <= 0 {
		w.windowDays = 7
	}
	if cfg.Layout != nil {
		w.resolver = w.resolver.WithLayout(*cfg.Layout)
	}
	w.resetLocked()
	return w
}

func (w *Wizard) today() time.Time {
	y, m, d := w.now().In(w.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, w.loc)
}

func (w *Wizard) resetLocked() {
	w.step = SelectCourt
	w.date = w.today().Format(dateLayout)
	w.courtID = 0
	w.clearTimeLocked()
	w.payment = models.PaymentFull
	w.avail = nil
	w.result = nil
	w.tracker.Invalidate()
}

func (w *Wizard) clearTimeLocked() {
	w.start = 0
	w.hasStart = false
}

// mutable checks the preconditions shared by every mutator.
func (w *Wizard) mutable() error {
	if w.step == Success {
		return ErrFinished
	}
	if w.submitting {
		return ErrSubmitInFlight
	}
	return nil
}

// Reset returns the wizard to its initial state.
func (w *Wizard) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return ErrSubmitInFlight
	}
	w.resetLocked()
	return nil
}

// Window returns the bookable dates, today first.
func (w *Wizard) Window() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	today := w.today()
	dates := make([]string, w.windowDays)
	for i := range dates {
		dates[i] = today.AddDate(0, 0, i).Format(dateLayout)
	}
	return dates
}

// SelectDate picks the day to book. The chosen time is cleared and the flow
// steps back to time selection, or court selection if no court is chosen.
func (w *Wizard) SelectDate(date string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}

	d, err := time.ParseInLocation(dateLayout, date, w.loc)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrDateOutOfRange, date)
	}
	today := w.today()
	if d.Before(today) || !d.Before(today.AddDate(0, 0, w.windowDays)) {
		return fmt.Errorf("%w: %s", ErrDateOutOfRange, date)
	}

	w.date = date
	w.clearTimeLocked()
	w.avail = nil
	w.tracker.Invalidate()
	if w.courtID != 0 {
		w.step = SelectTime
	} else {
		w.step = SelectCourt
	}
	return nil
}

// SelectCourt picks a court from the configured list and moves to time
// selection. The chosen time is cleared.
func (w *Wizard) SelectCourt(id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	if w.court(id) == nil {
		return fmt.Errorf("%w: %d", ErrUnknownCourt, id)
	}

	w.courtID = id
	w.clearTimeLocked()
	w.avail = nil
	w.tracker.Invalidate()
	w.step = SelectTime
	return nil
}

func (w *Wizard) court(id int64) *models.Court {
	for _, c := range w.courts {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Refresh loads availability for the current court and date. A result that
// arrives after the selection changed or a newer Refresh started is dropped
// with ErrStale.
func (w *Wizard) Refresh(ctx context.Context) error {
	w.mu.Lock()
	if w.step == Success {
		w.mu.Unlock()
		return ErrFinished
	}
	ticket := w.tracker.Begin(w.courtID, w.date)
	w.mu.Unlock()

	av, err := w.resolver.Resolve(ctx, ticket.CourtID, ticket.Date)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.tracker.Current(ticket) {
		return ErrStale
	}
	if err != nil {
		return err
	}
	w.avail = av
	return nil
}

// SelectTime picks a start time. It needs a chosen court and loaded
// availability, and the slot must be free.
func (w *Wizard) SelectTime(s schedule.Slot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	if w.courtID == 0 {
		return ErrNoCourt
	}
	if !w.loadedLocked() {
		return ErrNotLoaded
	}
	if !w.avail.IsAvailable(s) {
		return fmt.Errorf("%w: %s", ErrSlotUnavailable, s)
	}

	w.start = s
	w.hasStart = true
	w.step = ChoosePayment
	return nil
}

func (w *Wizard) loadedLocked() bool {
	return w.avail != nil && w.avail.CourtID == w.courtID && w.avail.Date == w.date
}

// ChoosePayment sets how the court is paid and moves to confirmation.
func (w *Wizard) ChoosePayment(p models.PaymentType) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	if !w.hasStart {
		return ErrNoTime
	}
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPayment, p)
	}

	w.payment = p
	w.step = Confirm
	return nil
}

// Modify goes back to time selection from payment or confirmation and
// clears the chosen time.
func (w *Wizard) Modify() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	if w.step != ChoosePayment && w.step != Confirm {
		return ErrNothingToModify
	}

	w.clearTimeLocked()
	w.step = SelectTime
	return nil
}

// CanSubmit reports whether Submit would be attempted now.
func (w *Wizard) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step == Confirm && w.hasStart && w.courtID != 0 && !w.submitting
}

// Submit sends the reservation. Only one submission can be in flight. On
// success the wizard reaches Success. When the slot was taken meanwhile the
// wizard stays at Confirm, marks the slot reserved and returns ErrSlotTaken.
func (w *Wizard) Submit(ctx context.Context) (*Confirmation, error) {
	w.mu.Lock()
	if err := w.mutable(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.step != Confirm || !w.hasStart || w.courtID == 0 {
		w.mu.Unlock()
		return nil, ErrNotConfirmable
	}
	req := Reservation{CourtID: w.courtID, Date: w.date, Start: w.start, Payment: w.payment}
	w.submitting = true
	w.mu.Unlock()

	conf, err := w.backend.Reserve(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if errors.Is(err, ErrSlotTaken) {
		w.markReservedLocked(req.Start)
		return nil, ErrSlotTaken
	}
	if err != nil {
		return nil, err
	}

	w.result = conf
	w.step = Success
	return conf, nil
}

func (w *Wizard) markReservedLocked(s schedule.Slot) {
	if !w.loadedLocked() {
		return
	}
	if w.avail.Reserved == nil {
		w.avail.Reserved = make(map[schedule.Slot]bool)
	}
	w.avail.Reserved[s] = true
	for i := range w.avail.Slots {
		if w.avail.Slots[i].Start == s {
			w.avail.Slots[i].Available = false
		}
	}
}

// View is a snapshot of the wizard for rendering.
type View struct {
	Step       Step
	Date       string
	Court      *models.Court
	Start      schedule.Slot
	HasTime    bool
	Payment    models.PaymentType
	Slots      []availability.SlotState
	Submitting bool
	Result     *Confirmation
}

// PriceLabel is the amount shown on the confirmation step: the court price
// when paying in full, one player's share when splitting.
func (v View) PriceLabel() string {
	if v.Court == nil {
		return ""
	}
	if v.Payment == models.PaymentSplit {
		return calculator.FormatEuros(calculator.PlayerShareCents(v.Court.PriceCents)) + " per player"
	}
	return calculator.FormatEuros(v.Court.PriceCents)
}

// State returns a snapshot of the current state.
func (w *Wizard) State() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{
		Step:       w.step,
		Date:       w.date,
		Court:      w.court(w.courtID),
		Start:      w.start,
		HasTime:    w.hasStart,
		Payment:    w.payment,
		Submitting: w.submitting,
		Result:     w.result,
	}
	if w.loadedLocked() {
		v.Slots = append([]availability.SlotState(nil), w.avail.Slots...)
	}
	return v
}
