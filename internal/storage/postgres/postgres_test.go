package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/storage"
)

// newTestStore connects to TEST_POSTGRES_DSN; the tests are skipped without it.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	store, err := New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := models.NewUser(uuid.NewString()+"@example.com", "Owner", "hash")
	if err := store.CreateUser(ctx, owner); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	courts, err := store.ListActiveCourts(ctx)
	if err != nil {
		t.Fatalf("ListActiveCourts failed: %v", err)
	}
	if len(courts) < 8 {
		t.Fatalf("expected seeded courts, got %d", len(courts))
	}

	// A far-future date keeps reruns against the same database independent.
	date := "2099-01-" + uuid.NewString()[:2]
	token := uuid.NewString()
	b := &models.Booking{
		UserID: owner.ID, CourtID: 3, Date: date, StartTime: "10:15:00",
		Status: models.StatusConfirmed, PaymentType: models.PaymentFull,
		PaymentStatus: models.BookingPaid, ShareToken: token,
	}
	op := &models.Participant{UserID: owner.ID, Role: models.RoleOwner, PaymentStatus: models.ParticipantPaid}
	if err := store.CreateBooking(ctx, b, op); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	dup := *b
	dup.ID = ""
	dup.ShareToken = uuid.NewString()
	err = store.CreateBooking(ctx, &dup, &models.Participant{UserID: owner.ID, Role: models.RoleOwner, PaymentStatus: models.ParticipantPaid})
	if !errors.Is(err, storage.ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}

	// A share token collision on another court is not a slot conflict.
	clash := *b
	clash.ID = ""
	clash.CourtID = 4
	err = store.CreateBooking(ctx, &clash, &models.Participant{UserID: owner.ID, Role: models.RoleOwner, PaymentStatus: models.ParticipantPaid})
	if err == nil || errors.Is(err, storage.ErrSlotTaken) {
		t.Errorf("expected a plain error for a share token collision, got %v", err)
	}

	got, err := store.GetBookingByToken(ctx, token)
	if err != nil {
		t.Fatalf("GetBookingByToken failed: %v", err)
	}
	if got.Court.Name != "Pista 3" {
		t.Errorf("expected Pista 3, got %s", got.Court.Name)
	}

	err = store.AddParticipant(ctx, &models.Participant{
		BookingID: b.ID, UserID: owner.ID, Role: models.RolePlayer, PaymentStatus: models.ParticipantPaid,
	}, models.MaxParticipants)
	if !errors.Is(err, storage.ErrDuplicateParticipant) {
		t.Errorf("expected ErrDuplicateParticipant, got %v", err)
	}

	if err := store.UpdateBookingStatus(ctx, b.ID, models.StatusConfirmed, models.StatusCancelled); err != nil {
		t.Fatalf("UpdateBookingStatus failed: %v", err)
	}
	slots, err := store.BookedSlots(ctx, 3, date)
	if err != nil {
		t.Fatalf("BookedSlots failed: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no booked slots after cancel, got %v", slots)
	}
}
