package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/corepadel/internal/auth"
	"github.com/mmynk/corepadel/internal/middleware"
	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/reservation"
	"github.com/mmynk/corepadel/internal/schedule"
	"github.com/mmynk/corepadel/internal/service"
	"github.com/mmynk/corepadel/internal/storage/sqlite"
	"github.com/mmynk/corepadel/internal/wizard"
)

var clubNow = time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

func setupServer(t *testing.T) *Client {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	sessions := auth.NewSessions(auth.NewJWTManager("test-secret", time.Hour), auth.NewMemoryRevoker())
	svcs := service.NewServices(service.Deps{
		Store:         store,
		Writer:        reservation.NewWriter(store, reservation.WithClock(func() time.Time { return clubNow })),
		Authenticator: auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost),
		Sessions:      sessions,
	})
	mux := http.NewServeMux()
	svcs.Register(mux, connect.WithInterceptors(middleware.OptionalAuth(sessions)))
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})
	return New(server.Client(), server.URL)
}

func TestValidationBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unexpected", http.StatusTeapot)
	}))
	defer server.Close()
	c := New(server.Client(), server.URL)
	ctx := context.Background()

	var fe auth.FieldErrors
	if _, err := c.SignUp(ctx, "bad", "short", ""); !errors.As(err, &fe) || len(fe) != 3 {
		t.Errorf("expected three field errors, got %v", err)
	}
	if _, err := c.SignIn(ctx, "", ""); !errors.As(err, &fe) {
		t.Errorf("expected field errors, got %v", err)
	}

	valid := &Session{Token: "t", ExpiresAt: time.Now().Add(time.Hour)}
	if _, err := c.UpdateProfile(ctx, valid, "Ana", "???"); !errors.As(err, &fe) {
		t.Errorf("expected field errors, got %v", err)
	}

	expired := &Session{Token: "t", ExpiresAt: time.Now().Add(-time.Minute)}
	for name, err := range map[string]error{
		"nil":     c.SignOut(ctx, nil),
		"expired": c.SignOut(ctx, expired),
	} {
		if !errors.Is(err, ErrNoSession) {
			t.Errorf("%s session: expected ErrNoSession, got %v", name, err)
		}
	}
	if _, err := c.ListMyBookings(ctx, &Session{}); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}

	if n := hits.Load(); n != 0 {
		t.Errorf("expected no requests, server saw %d", n)
	}
}

func TestSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := LoadSession(path)
	if err != nil || s != nil {
		t.Fatalf("expected no session, got %v, %v", s, err)
	}

	want := &Session{Token: "tok", UserID: "u1", Email: "ana@example.com", DisplayName: "Ana",
		ExpiresAt: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)}
	if err := want.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if got.Token != want.Token || got.UserID != want.UserID || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.Valid(clubNow) || got.Valid(clubNow.Add(48*time.Hour)) {
		t.Error("unexpected validity")
	}

	if err := RemoveSession(path); err != nil {
		t.Fatalf("RemoveSession failed: %v", err)
	}
	if err := RemoveSession(path); err != nil {
		t.Errorf("removing twice should be fine, got %v", err)
	}
}

func newWizard(t *testing.T, c *Client, s *Session) *wizard.Wizard {
	t.Helper()
	courts, err := c.ListCourts(context.Background())
	if err != nil {
		t.Fatalf("ListCourts failed: %v", err)
	}
	return wizard.New(NewWizardBackend(c, s), wizard.Config{
		Courts: Courts(courts),
		Now:    func() time.Time { return clubNow },
	})
}

func driveToConfirm(t *testing.T, w *wizard.Wizard, courtID int64, date string, start schedule.Slot) {
	t.Helper()
	steps := []func() error{
		func() error { return w.SelectDate(date) },
		func() error { return w.SelectCourt(courtID) },
		func() error { return w.Refresh(context.Background()) },
		func() error { return w.SelectTime(start) },
		func() error { return w.ChoosePayment(models.PaymentSplit) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}
}

func TestWizardAgainstServer(t *testing.T) {
	c := setupServer(t)
	ctx := context.Background()

	ana, err := c.SignUp(ctx, "ana@example.com", "secret-pass", "Ana")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	ben, err := c.SignUp(ctx, "ben@example.com", "secret-pass", "Ben")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	// Both reach the confirmation step for the same slot.
	wa := newWizard(t, c, ana)
	wb := newWizard(t, c, ben)
	driveToConfirm(t, wa, 4, "2026-10-18", schedule.At(17, 45))
	driveToConfirm(t, wb, 4, "2026-10-18", schedule.At(17, 45))

	conf, err := wa.Submit(ctx)
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if conf.ShareToken == "" || conf.BookingID == "" {
		t.Errorf("unexpected confirmation %+v", conf)
	}

	if _, err := wb.Submit(ctx); !errors.Is(err, wizard.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	v := wb.State()
	if v.Step != wizard.Confirm {
		t.Errorf("expected to stay at Confirm, got %s", v.Step)
	}
	for _, st := range v.Slots {
		if st.Start == schedule.At(17, 45) && st.Available {
			t.Error("taken slot should now read as reserved")
		}
	}

	// A fresh lookup confirms the server agrees.
	if err := wb.Modify(); err != nil {
		t.Fatalf("Modify failed: %v", err)
	}
	if err := wb.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if err := wb.SelectTime(schedule.At(17, 45)); !errors.Is(err, wizard.ErrSlotUnavailable) {
		t.Errorf("expected server-side reservation to show, got %v", err)
	}

	// Ben joins Ana's booking through the share token instead.
	joined, err := c.JoinBooking(ctx, ben, conf.ShareToken)
	if err != nil {
		t.Fatalf("JoinBooking failed: %v", err)
	}
	if len(joined.Participants) != 2 || joined.Participants[1].PaymentStatus != "pending" {
		t.Errorf("unexpected participants %+v", joined.Participants)
	}
}
