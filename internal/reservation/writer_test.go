package reservation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/corepadel/internal/calculator"
	"github.com/mmynk/corepadel/internal/events"
	"github.com/mmynk/corepadel/internal/metrics"
	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/schedule"
	"github.com/mmynk/corepadel/internal/storage/sqlite"
)

// closedCourtStore reports court 8 as inactive.
type closedCourtStore struct {
	*sqlite.SQLiteStore
}

func (s closedCourtStore) GetCourt(ctx context.Context, id int64) (*models.Court, error) {
	c, err := s.SQLiteStore.GetCourt(ctx, id)
	if err == nil && id == 8 {
		c.Active = false
	}
	return c, err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store   *sqlite.SQLiteStore
	writer  *Writer
	pub     *recordingPublisher
	metrics *metrics.Metrics
	now     time.Time
}

// Thursday 16 October 2026, noon at the club.
var noon = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, pub: &recordingPublisher{}, metrics: metrics.New(), now: noon}
	f.writer = NewWriter(closedCourtStore{store},
		WithPublisher(f.pub),
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return f.now }),
		WithOrigin("https://padel.example/"),
	)
	return f
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := models.NewUser(name+"@example.com", name, "hash")
	if err := f.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func (f *fixture) reserve(t *testing.T, userID string, courtID int64, date string, start schedule.Slot, pay models.PaymentType) *Reservation {
	t.Helper()
	r, err := f.writer.Reserve(context.Background(), Request{
		UserID: userID, CourtID: courtID, Date: date, Start: start, Payment: pay,
	})
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	return r
}

func TestReserve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "ana")

	r := f.reserve(t, ana.ID, 1, "2026-10-17", schedule.At(10, 15), models.PaymentFull)

	b := r.Booking
	if b.Status != models.StatusConfirmed || b.PaymentStatus != models.BookingPaid {
		t.Errorf("unexpected status %s/%s", b.Status, b.PaymentStatus)
	}
	if b.StartTime != "10:15:00" || b.DurationMinutes != models.SlotMinutes {
		t.Errorf("unexpected slot %s/%d", b.StartTime, b.DurationMinutes)
	}
	if r.ShareURL != "https://padel.example/booking/"+b.ShareToken {
		t.Errorf("unexpected share URL %s", r.ShareURL)
	}
	if b.Court == nil || b.Court.Surface != models.SurfaceIndoor {
		t.Errorf("expected court attached, got %+v", b.Court)
	}

	d, err := f.writer.Lookup(ctx, b.ShareToken)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(d.Participants) != 1 || d.Participants[0].Role != models.RoleOwner ||
		d.Participants[0].PaymentStatus != models.ParticipantPaid {
		t.Errorf("expected paid owner participant, got %+v", d.Participants)
	}

	slots, _ := f.store.BookedSlots(ctx, 1, "2026-10-17")
	if len(slots) != 1 {
		t.Errorf("expected slot to be reserved, got %v", slots)
	}
	if got := testutil.ToFloat64(f.metrics.BookingsCreated.WithLabelValues("indoor", "full")); got != 1 {
		t.Errorf("expected booking metric, got %v", got)
	}
	if types := f.pub.types(); len(types) != 1 || types[0] != events.BookingCreated {
		t.Errorf("expected created event, got %v", types)
	}
}

func TestReserveSplitPayment(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")

	r := f.reserve(t, ana.ID, 5, "2026-10-16", schedule.At(19, 0), models.PaymentSplit)
	if r.Booking.PaymentStatus != models.BookingPartial {
		t.Errorf("expected partial, got %s", r.Booking.PaymentStatus)
	}
	d, err := f.writer.Lookup(context.Background(), r.Booking.ShareToken)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if d.Participants[0].PaymentStatus != models.ParticipantPending {
		t.Errorf("expected pending owner, got %s", d.Participants[0].PaymentStatus)
	}
}

func TestReserveConflict(t *testing.T) {
	f := newFixture(t)
	ana, ben := f.user(t, "ana"), f.user(t, "ben")

	f.reserve(t, ana.ID, 2, "2026-10-18", schedule.At(14, 0), models.PaymentFull)

	_, err := f.writer.Reserve(context.Background(), Request{
		UserID: ben.ID, CourtID: 2, Date: "2026-10-18", Start: schedule.At(14, 0), Payment: models.PaymentSplit,
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if got := testutil.ToFloat64(f.metrics.BookingConflicts); got != 1 {
		t.Errorf("expected one conflict, got %v", got)
	}

	// Same slot on another court is fine.
	f.reserve(t, ben.ID, 3, "2026-10-18", schedule.At(14, 0), models.PaymentSplit)
}

func TestReserveValidation(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")

	tests := []struct {
		name string
		req  Request
	}{
		{"no user", Request{CourtID: 1, Date: "2026-10-17", Start: schedule.At(9, 0), Payment: models.PaymentFull}},
		{"bad payment", Request{UserID: ana.ID, CourtID: 1, Date: "2026-10-17", Start: schedule.At(9, 0), Payment: "card"}},
		{"bad date", Request{UserID: ana.ID, CourtID: 1, Date: "17/10/2026", Start: schedule.At(9, 0), Payment: models.PaymentFull}},
		{"past date", Request{UserID: ana.ID, CourtID: 1, Date: "2026-10-15", Start: schedule.At(9, 0), Payment: models.PaymentFull}},
		{"beyond window", Request{UserID: ana.ID, CourtID: 1, Date: "2026-10-23", Start: schedule.At(9, 0), Payment: models.PaymentFull}},
		{"off grid", Request{UserID: ana.ID, CourtID: 1, Date: "2026-10-17", Start: schedule.At(9, 30), Payment: models.PaymentFull}},
		{"started today", Request{UserID: ana.ID, CourtID: 1, Date: "2026-10-16", Start: schedule.At(11, 30), Payment: models.PaymentFull}},
		{"unknown court", Request{UserID: ana.ID, CourtID: 99, Date: "2026-10-17", Start: schedule.At(9, 0), Payment: models.PaymentFull}},
		{"closed court", Request{UserID: ana.ID, CourtID: 8, Date: "2026-10-17", Start: schedule.At(9, 0), Payment: models.PaymentFull}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.writer.Reserve(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}

	// Last day of the window is accepted.
	f.reserve(t, ana.ID, 1, "2026-10-22", schedule.At(21, 30), models.PaymentFull)
}

func TestConcurrentReserve(t *testing.T) {
	f := newFixture(t)
	const n = 6
	users := make([]*models.User, n)
	for i := range users {
		users[i] = f.user(t, string(rune('a'+i))+"player")
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.writer.Reserve(context.Background(), Request{
				UserID: users[i].ID, CourtID: 4, Date: "2026-10-19", Start: schedule.At(17, 45), Payment: models.PaymentFull,
			})
		}(i)
	}
	wg.Wait()

	ok, taken := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSlotTaken):
			taken++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || taken != n-1 {
		t.Errorf("expected 1 success and %d conflicts, got %d and %d", n-1, ok, taken)
	}
}

func TestJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")

	r := f.reserve(t, owner.ID, 6, "2026-10-20", schedule.At(20, 15), models.PaymentSplit)
	token := r.Booking.ShareToken

	if _, err := f.writer.Join(ctx, token, owner.ID); !errors.Is(err, ErrAlreadyParticipant) {
		t.Errorf("expected owner join to fail with ErrAlreadyParticipant, got %v", err)
	}

	var d *Details
	for _, name := range []string{"p2", "p3", "p4"} {
		u := f.user(t, name)
		var err error
		d, err = f.writer.Join(ctx, token, u.ID)
		if err != nil {
			t.Fatalf("Join %s failed: %v", name, err)
		}
	}
	if len(d.Participants) != models.MaxParticipants {
		t.Fatalf("expected %d participants, got %d", models.MaxParticipants, len(d.Participants))
	}
	for _, p := range d.Participants[1:] {
		if p.Role != models.RolePlayer || p.PaymentStatus != models.ParticipantPending {
			t.Errorf("unexpected joiner %+v", p)
		}
	}

	late := f.user(t, "late")
	if _, err := f.writer.Join(ctx, token, late.ID); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if _, err := f.writer.Join(ctx, "no-such-token", late.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJoinFullPaymentIsPaid(t *testing.T) {
	f := newFixture(t)
	owner, guest := f.user(t, "owner"), f.user(t, "guest")

	r := f.reserve(t, owner.ID, 7, "2026-10-20", schedule.At(9, 0), models.PaymentFull)
	d, err := f.writer.Join(context.Background(), r.Booking.ShareToken, guest.ID)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if d.Participants[1].PaymentStatus != models.ParticipantPaid {
		t.Errorf("expected paid joiner, got %s", d.Participants[1].PaymentStatus)
	}
}

func TestConcurrentJoin(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	r := f.reserve(t, owner.ID, 1, "2026-10-21", schedule.At(12, 45), models.PaymentSplit)

	const n = 6
	users := make([]*models.User, n)
	for i := range users {
		users[i] = f.user(t, string(rune('a'+i))+"joiner")
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.writer.Join(context.Background(), r.Booking.ShareToken, users[i].ID)
		}(i)
	}
	wg.Wait()

	joined, full := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			joined++
		case errors.Is(err, ErrFull):
			full++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if joined != models.MaxParticipants-1 || full != n-joined {
		t.Errorf("expected %d joins, got %d joins and %d full", models.MaxParticipants-1, joined, full)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, other := f.user(t, "owner"), f.user(t, "other")

	r := f.reserve(t, owner.ID, 2, "2026-10-17", schedule.At(16, 30), models.PaymentFull)

	if _, err := f.writer.Cancel(ctx, r.Booking.ID, other.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if _, err := f.writer.Cancel(ctx, "missing", owner.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	b, err := f.writer.Cancel(ctx, r.Booking.ID, owner.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if b.Status != models.StatusCancelled {
		t.Errorf("expected cancelled, got %s", b.Status)
	}
	if _, err := f.writer.Cancel(ctx, r.Booking.ID, owner.ID); !errors.Is(err, ErrNotCancellable) {
		t.Errorf("expected ErrNotCancellable on second cancel, got %v", err)
	}
	if _, err := f.writer.Join(ctx, r.Booking.ShareToken, other.ID); !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled on join, got %v", err)
	}

	// The slot is free again.
	f.reserve(t, other.ID, 2, "2026-10-17", schedule.At(16, 30), models.PaymentFull)

	want := []string{events.BookingCreated, events.BookingCancelled, events.BookingCreated}
	got := f.pub.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestListForUser(t *testing.T) {
	f := newFixture(t)
	ana, ben := f.user(t, "ana"), f.user(t, "ben")

	f.reserve(t, ana.ID, 1, "2026-10-17", schedule.At(9, 0), models.PaymentFull)
	f.reserve(t, ana.ID, 5, "2026-10-19", schedule.At(9, 0), models.PaymentFull)
	f.reserve(t, ben.ID, 2, "2026-10-18", schedule.At(9, 0), models.PaymentFull)

	list, err := f.writer.ListForUser(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(list) != 2 || list[0].Date != "2026-10-19" {
		t.Errorf("expected ana's two bookings newest first, got %d", len(list))
	}
}

func TestCompleter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana, ben := f.user(t, "ana"), f.user(t, "ben")

	early := f.reserve(t, ana.ID, 1, "2026-10-16", schedule.At(12, 45), models.PaymentFull)
	late := f.reserve(t, ana.ID, 5, "2026-10-16", schedule.At(19, 0), models.PaymentFull)
	tomorrow := f.reserve(t, ana.ID, 2, "2026-10-17", schedule.At(9, 0), models.PaymentFull)
	cancelled := f.reserve(t, ana.ID, 3, "2026-10-16", schedule.At(14, 0), models.PaymentFull)
	if _, err := f.writer.Cancel(ctx, cancelled.Booking.ID, ana.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	c := NewCompleter(f.writer)
	if n, err := c.Sweep(ctx); err != nil || n != 0 {
		t.Fatalf("expected nothing to complete at noon, got %d, %v", n, err)
	}

	// 12:45 + 75 minutes ends at 14:00.
	f.now = time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC)
	if _, err := f.writer.Join(ctx, early.Booking.ShareToken, ben.ID); !errors.Is(err, ErrNotJoinable) {
		t.Errorf("expected ErrNotJoinable for ended session, got %v", err)
	}
	n, err := c.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 completed booking, got %d", n)
	}

	status := func(id string) models.BookingStatus {
		b, err := f.store.GetBooking(ctx, id)
		if err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
		return b.Status
	}
	if s := status(early.Booking.ID); s != models.StatusCompleted {
		t.Errorf("expected early booking completed, got %s", s)
	}
	if s := status(late.Booking.ID); s != models.StatusConfirmed {
		t.Errorf("expected late booking still confirmed, got %s", s)
	}
	if s := status(cancelled.Booking.ID); s != models.StatusCancelled {
		t.Errorf("expected cancelled booking untouched, got %s", s)
	}
	if _, err := f.writer.Join(ctx, early.Booking.ShareToken, ben.ID); !errors.Is(err, ErrNotJoinable) {
		t.Errorf("expected ErrNotJoinable for completed booking, got %v", err)
	}

	f.now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	if n, err := c.Sweep(ctx); err != nil || n != 2 {
		t.Fatalf("expected 2 more completions, got %d, %v", n, err)
	}
	if got := testutil.ToFloat64(f.metrics.BookingsCompleted); got != 3 {
		t.Errorf("expected 3 completions recorded, got %v", got)
	}

	if s := status(tomorrow.Booking.ID); s != models.StatusCompleted {
		t.Errorf("expected morning booking completed, got %s", s)
	}

	// The cancelled booking is dated before today, so it counts as past too.
	list, _ := f.writer.ListForUser(ctx, ana.ID)
	st := calculator.ComputeStats(list, f.writer.Today())
	if st.Total != 4 || st.Past != 4 || st.Upcoming != 0 || st.Indoor != 3 || st.Outdoor != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestCompleterRunStops(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewCompleter(f.writer).Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestStarted(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		date  string
		start schedule.Slot
		want  bool
	}{
		{"2026-10-16", schedule.At(11, 30), true},
		{"2026-10-16", schedule.At(12, 0), true},
		{"2026-10-16", schedule.At(12, 45), false},
		{"2026-10-15", schedule.At(21, 30), true},
		{"2026-10-17", schedule.At(9, 0), false},
		{"garbage", schedule.At(9, 0), false},
	}
	for _, tt := range tests {
		if got := f.writer.Started(tt.date, tt.start); got != tt.want {
			t.Errorf("Started(%s, %s) = %v, want %v", tt.date, tt.start, got, tt.want)
		}
	}
}

func TestDaylightSavingChangeover(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}
	f := newFixture(t)
	w := NewWriter(f.store, WithLocation(madrid), WithClock(func() time.Time { return f.now }))
	ctx := context.Background()
	ana := f.user(t, "ana")
	ben := f.user(t, "ben")

	t.Run("spring forward", func(t *testing.T) {
		// Clocks jump from 02:00 to 03:00, so 09:30 is only 8.5 hours after midnight.
		f.now = time.Date(2026, 3, 29, 9, 30, 0, 0, madrid)
		if !w.Started("2026-03-29", schedule.At(9, 0)) {
			t.Error("09:00 should have started at 09:30")
		}
		if w.Started("2026-03-29", schedule.At(10, 15)) {
			t.Error("10:15 should not have started at 09:30")
		}
		_, err := w.Reserve(ctx, Request{UserID: ana.ID, CourtID: 1, Date: "2026-03-29", Start: schedule.At(9, 0), Payment: models.PaymentFull})
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("expected ErrInvalid for a started slot, got %v", err)
		}
	})

	t.Run("fall back", func(t *testing.T) {
		// Clocks go back from 03:00 to 02:00, so 08:30 is 9.5 hours after midnight.
		f.now = time.Date(2026, 10, 25, 8, 30, 0, 0, madrid)
		if w.Started("2026-10-25", schedule.At(9, 0)) {
			t.Error("09:00 should not have started at 08:30")
		}
		r, err := w.Reserve(ctx, Request{UserID: ana.ID, CourtID: 1, Date: "2026-10-25", Start: schedule.At(9, 0), Payment: models.PaymentSplit})
		if err != nil {
			t.Fatalf("Reserve failed: %v", err)
		}

		// Mid-session the booking is still open and not yet completed.
		f.now = time.Date(2026, 10, 25, 9, 30, 0, 0, madrid)
		if !w.Joinable(r.Booking) {
			t.Error("booking should be joinable while the session runs")
		}
		if _, err := w.Join(ctx, r.Booking.ShareToken, ben.ID); err != nil {
			t.Errorf("Join during the session failed: %v", err)
		}
		if n, err := NewCompleter(w).Sweep(ctx); err != nil || n != 0 {
			t.Errorf("expected nothing to complete at 09:30, got %d, %v", n, err)
		}

		f.now = time.Date(2026, 10, 25, 10, 15, 0, 0, madrid)
		if w.Joinable(r.Booking) {
			t.Error("booking should not be joinable once the session ended")
		}
		if n, err := NewCompleter(w).Sweep(ctx); err != nil || n != 1 {
			t.Errorf("expected one completion at 10:15, got %d, %v", n, err)
		}
	})
}
