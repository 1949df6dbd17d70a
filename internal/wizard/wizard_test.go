package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/schedule"
)

// fakeBackend serves booked slots per "court/date" key. When gate is set,
// calls block until a value is sent on it.
type fakeBackend struct {
	mu      sync.Mutex
	booked  map[string][]string
	gate    chan struct{}
	entered chan string
	reserve func(r Reservation) (*Confirmation, error)
	calls   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{booked: make(map[string][]string)}
}

func key(courtID int64, date string) string { return fmt.Sprintf("%d/%s", courtID, date) }

func (f *fakeBackend) BookedSlots(ctx context.Context, courtID int64, date string) ([]string, error) {
	f.wait(key(courtID, date))
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.booked[key(courtID, date)]...), nil
}

func (f *fakeBackend) Reserve(ctx context.Context, r Reservation) (*Confirmation, error) {
	f.wait("reserve")
	f.mu.Lock()
	f.calls++
	fn := f.reserve
	f.mu.Unlock()
	if fn != nil {
		return fn(r)
	}
	return &Confirmation{BookingID: "b-1", ShareToken: "tok", ShareURL: "https://padel.example/booking/tok"}, nil
}

func (f *fakeBackend) wait(what string) {
	if f.entered != nil {
		f.entered <- what
	}
	if f.gate != nil {
		<-f.gate
	}
}

var courts = []*models.Court{
	{ID: 1, Name: "Pista 1", Surface: models.SurfaceIndoor, Active: true, PriceCents: 2400},
	{ID: 5, Name: "Pista 5", Surface: models.SurfaceOutdoor, Active: true, PriceCents: 2400},
}

// Friday 16 October 2026, 08:00 at the club.
var morning = time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

func newWizard(b *fakeBackend) *Wizard {
	return New(b, Config{Courts: courts, Now: func() time.Time { return morning }})
}

// toConfirm drives a wizard to the Confirm step on court 1 at 10:15.
func toConfirm(t *testing.T, w *Wizard) {
	t.Helper()
	mustOK(t, w.SelectCourt(1))
	mustOK(t, w.Refresh(context.Background()))
	mustOK(t, w.SelectTime(schedule.At(10, 15)))
	mustOK(t, w.ChoosePayment(models.PaymentSplit))
}

func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInitialState(t *testing.T) {
	w := newWizard(newFakeBackend())
	v := w.State()

	if v.Step != SelectCourt || v.Date != "2026-10-16" || v.Court != nil || v.HasTime || v.Payment != models.PaymentFull {
		t.Errorf("unexpected initial state %+v", v)
	}
	if w.CanSubmit() {
		t.Error("cannot submit initially")
	}
	if got := w.Window(); len(got) != 7 || got[0] != "2026-10-16" || got[6] != "2026-10-22" {
		t.Errorf("unexpected window %v", got)
	}
}

func TestHappyPath(t *testing.T) {
	b := newFakeBackend()
	b.booked[key(1, "2026-10-16")] = []string{"09:00:00"}
	w := newWizard(b)

	toConfirm(t, w)
	v := w.State()
	if v.Step != Confirm || v.Start != schedule.At(10, 15) || v.Court.ID != 1 {
		t.Fatalf("unexpected state %+v", v)
	}
	if v.PriceLabel() != "6,00 € per player" {
		t.Errorf("unexpected price label %q", v.PriceLabel())
	}
	if !w.CanSubmit() {
		t.Fatal("expected to be able to submit")
	}

	conf, err := w.Submit(context.Background())
	mustOK(t, err)
	if conf.ShareToken != "tok" {
		t.Errorf("unexpected confirmation %+v", conf)
	}
	if v := w.State(); v.Step != Success || v.Result == nil {
		t.Errorf("expected success with result, got %+v", v)
	}

	// Success is terminal.
	for name, err := range map[string]error{
		"SelectDate":    w.SelectDate("2026-10-17"),
		"SelectCourt":   w.SelectCourt(5),
		"SelectTime":    w.SelectTime(schedule.At(9, 0)),
		"ChoosePayment": w.ChoosePayment(models.PaymentFull),
		"Modify":        w.Modify(),
		"Refresh":       w.Refresh(context.Background()),
	} {
		if !errors.Is(err, ErrFinished) {
			t.Errorf("%s after success: expected ErrFinished, got %v", name, err)
		}
	}
	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrFinished) {
		t.Errorf("Submit after success: expected ErrFinished, got %v", err)
	}

	mustOK(t, w.Reset())
	if v := w.State(); v.Step != SelectCourt || v.Court != nil || v.Result != nil {
		t.Errorf("expected initial state after reset, got %+v", v)
	}
}

func TestSelectDate(t *testing.T) {
	w := newWizard(newFakeBackend())

	mustOK(t, w.SelectDate("2026-10-18"))
	if v := w.State(); v.Step != SelectCourt || v.Date != "2026-10-18" {
		t.Errorf("without a court the date change stays at court selection, got %+v", v)
	}

	for _, d := range []string{"2026-10-15", "2026-10-23", "18/10/2026"} {
		if err := w.SelectDate(d); !errors.Is(err, ErrDateOutOfRange) {
			t.Errorf("SelectDate(%s): expected ErrDateOutOfRange, got %v", d, err)
		}
	}
	mustOK(t, w.SelectDate("2026-10-22"))

	// Changing the date clears the time but keeps the court.
	mustOK(t, w.SelectDate("2026-10-16"))
	toConfirm(t, w)
	mustOK(t, w.SelectDate("2026-10-17"))
	v := w.State()
	if v.Step != SelectTime || v.HasTime || v.Court == nil || v.Court.ID != 1 {
		t.Errorf("expected court kept and time cleared, got %+v", v)
	}
	if v.Slots != nil {
		t.Error("availability of the previous date must not be shown")
	}
	if err := w.SelectTime(schedule.At(10, 15)); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded before refresh, got %v", err)
	}
}

func TestSelectCourt(t *testing.T) {
	w := newWizard(newFakeBackend())

	if err := w.SelectCourt(42); !errors.Is(err, ErrUnknownCourt) {
		t.Errorf("expected ErrUnknownCourt, got %v", err)
	}
	if err := w.SelectTime(schedule.At(9, 0)); !errors.Is(err, ErrNoCourt) {
		t.Errorf("expected ErrNoCourt, got %v", err)
	}

	toConfirm(t, w)
	mustOK(t, w.SelectCourt(5))
	if v := w.State(); v.Step != SelectTime || v.HasTime || v.Court.ID != 5 {
		t.Errorf("expected time cleared on court change, got %+v", v)
	}
}

func TestSelectTime(t *testing.T) {
	b := newFakeBackend()
	b.booked[key(1, "2026-10-16")] = []string{"10:15:00", "09:30", "bogus"}
	w := newWizard(b)

	mustOK(t, w.SelectCourt(1))
	mustOK(t, w.Refresh(context.Background()))

	if err := w.SelectTime(schedule.At(10, 15)); !errors.Is(err, ErrSlotUnavailable) {
		t.Errorf("expected reserved slot to be rejected, got %v", err)
	}
	if err := w.SelectTime(schedule.At(9, 30)); !errors.Is(err, ErrSlotUnavailable) {
		t.Errorf("expected off-grid slot to be rejected, got %v", err)
	}
	if err := w.ChoosePayment(models.PaymentFull); !errors.Is(err, ErrNoTime) {
		t.Errorf("expected ErrNoTime, got %v", err)
	}

	mustOK(t, w.SelectTime(schedule.At(21, 30)))
	if v := w.State(); v.Step != ChoosePayment {
		t.Errorf("expected ChoosePayment, got %s", v.Step)
	}
	if err := w.ChoosePayment("card"); !errors.Is(err, ErrInvalidPayment) {
		t.Errorf("expected ErrInvalidPayment, got %v", err)
	}

	slots := w.State().Slots
	if len(slots) != 11 {
		t.Fatalf("expected 11 slots, got %d", len(slots))
	}
	if slots[1].Available {
		t.Error("10:15 should read as reserved")
	}
}

func TestModify(t *testing.T) {
	w := newWizard(newFakeBackend())
	if err := w.Modify(); !errors.Is(err, ErrNothingToModify) {
		t.Errorf("expected ErrNothingToModify, got %v", err)
	}

	toConfirm(t, w)
	mustOK(t, w.Modify())
	v := w.State()
	if v.Step != SelectTime || v.HasTime {
		t.Errorf("expected SelectTime with no time, got %+v", v)
	}
	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrNotConfirmable) {
		t.Errorf("expected ErrNotConfirmable, got %v", err)
	}
}

func TestSubmitConflict(t *testing.T) {
	b := newFakeBackend()
	b.reserve = func(r Reservation) (*Confirmation, error) {
		return nil, fmt.Errorf("create booking: %w", ErrSlotTaken)
	}
	w := newWizard(b)
	toConfirm(t, w)

	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	v := w.State()
	if v.Step != Confirm {
		t.Errorf("expected to stay at Confirm, got %s", v.Step)
	}
	if v.Slots[1].Available {
		t.Error("taken slot should be marked reserved locally")
	}

	// Picking another time after modifying works.
	mustOK(t, w.Modify())
	if err := w.SelectTime(schedule.At(10, 15)); !errors.Is(err, ErrSlotUnavailable) {
		t.Errorf("expected locally reserved slot to be rejected, got %v", err)
	}
	mustOK(t, w.SelectTime(schedule.At(11, 30)))
}

func TestSubmitOtherFailure(t *testing.T) {
	b := newFakeBackend()
	boom := errors.New("network down")
	b.reserve = func(r Reservation) (*Confirmation, error) { return nil, boom }
	w := newWizard(b)
	toConfirm(t, w)

	if _, err := w.Submit(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if v := w.State(); v.Step != Confirm || !v.Slots[1].Available {
		t.Errorf("generic failure must not change the slot or step, got %+v", v)
	}
	if !w.CanSubmit() {
		t.Error("expected resubmission to be possible")
	}
}

func TestDoubleSubmitInFlight(t *testing.T) {
	b := newFakeBackend()
	w := newWizard(b)
	toConfirm(t, w)

	b.gate = make(chan struct{})
	b.entered = make(chan string, 1)

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()
	<-b.entered

	if w.CanSubmit() {
		t.Error("CanSubmit must be false while submitting")
	}
	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("expected ErrSubmitInFlight, got %v", err)
	}
	if err := w.SelectDate("2026-10-17"); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("expected selections blocked while submitting, got %v", err)
	}
	if err := w.Reset(); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("expected Reset blocked while submitting, got %v", err)
	}

	b.gate <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if b.calls != 1 {
		t.Errorf("expected one backend call, got %d", b.calls)
	}
}

func TestStaleRefreshDropped(t *testing.T) {
	b := newFakeBackend()
	b.booked[key(1, "2026-10-16")] = []string{"09:00"}
	b.booked[key(5, "2026-10-16")] = []string{"21:30"}
	w := newWizard(b)
	mustOK(t, w.SelectCourt(1))

	b.gate = make(chan struct{})
	b.entered = make(chan string, 2)

	slow := make(chan error, 1)
	go func() { slow <- w.Refresh(context.Background()) }()
	if got := <-b.entered; got != key(1, "2026-10-16") {
		t.Fatalf("unexpected first lookup %s", got)
	}

	// The user switches court while the first lookup is pending.
	mustOK(t, w.SelectCourt(5))
	fast := make(chan error, 1)
	go func() { fast <- w.Refresh(context.Background()) }()
	<-b.entered

	// Release both lookups. Whatever order they finish in, only the newer applies.
	b.gate <- struct{}{}
	b.gate <- struct{}{}
	errA, errB := <-slow, <-fast
	if !(errors.Is(errA, ErrStale) || errors.Is(errB, ErrStale)) {
		t.Fatalf("expected the court 1 result to be dropped, got %v and %v", errA, errB)
	}
	if !errors.Is(errA, ErrStale) {
		t.Errorf("expected court 1 refresh to be stale, got %v", errA)
	}
	if errB != nil {
		t.Errorf("expected court 5 refresh to apply, got %v", errB)
	}

	v := w.State()
	if v.Court.ID != 5 || len(v.Slots) != 11 {
		t.Fatalf("unexpected state %+v", v)
	}
	if !v.Slots[0].Available || v.Slots[10].Available {
		t.Error("slots must reflect court 5, not court 1")
	}
}

func TestRefreshWithoutCourt(t *testing.T) {
	b := newFakeBackend()
	b.entered = make(chan string, 1)
	w := newWizard(b)

	mustOK(t, w.Refresh(context.Background()))
	select {
	case got := <-b.entered:
		t.Errorf("no lookup expected without a court, got %s", got)
	default:
	}
}

func TestCustomLayout(t *testing.T) {
	layout := schedule.Layout{Open: schedule.At(18, 0), LastStart: schedule.At(20, 0), Step: 60}
	w := New(newFakeBackend(), Config{Courts: courts, Now: func() time.Time { return morning }, Layout: &layout})
	mustOK(t, w.SelectCourt(1))
	mustOK(t, w.Refresh(context.Background()))
	if got := len(w.State().Slots); got != 3 {
		t.Errorf("expected 3 slots from custom layout, got %d", got)
	}
}
