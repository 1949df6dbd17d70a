package calculator

import (
	"testing"

	"github.com/mmynk/corepadel/internal/models"
)

func TestShareCents(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		players int
		want    []int64
		wantErr bool
	}{
		{
			name:    "even split across a full match",
			total:   2400,
			players: 4,
			want:    []int64{600, 600, 600, 600},
		},
		{
			name:    "remainder goes to the owner",
			total:   2401,
			players: 4,
			want:    []int64{601, 600, 600, 600},
		},
		{
			name:    "three players",
			total:   1000,
			players: 3,
			want:    []int64{334, 333, 333},
		},
		{
			name:    "single player pays everything",
			total:   2400,
			players: 1,
			want:    []int64{2400},
		},
		{
			name:    "no players should error",
			total:   2400,
			players: 0,
			wantErr: true,
		},
		{
			name:    "negative total should error",
			total:   -1,
			players: 2,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ShareCents(tt.total, tt.players)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ShareCents failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d shares, want %d", len(got), len(tt.want))
			}
			var sum int64
			for i := range got {
				sum += got[i]
				if got[i] != tt.want[i] {
					t.Errorf("share %d = %d, want %d", i, got[i], tt.want[i])
				}
			}
			if sum != tt.total {
				t.Errorf("shares sum to %d, want %d", sum, tt.total)
			}
		})
	}
}

func TestMatchShares(t *testing.T) {
	tests := []struct {
		price  int64
		owner  int64
		player int64
	}{
		{2400, 600, 600},
		{2401, 601, 600},
		{2403, 603, 600},
		{3, 3, 0},
		{-1, 0, 0},
	}
	for _, tt := range tests {
		owner, player := MatchShares(tt.price)
		if owner != tt.owner || player != tt.player {
			t.Errorf("MatchShares(%d) = %d, %d, want %d, %d", tt.price, owner, player, tt.owner, tt.player)
		}
		if tt.price >= 0 && owner+3*player != tt.price {
			t.Errorf("MatchShares(%d) does not add up: %d + 3*%d", tt.price, owner, player)
		}
	}
	if got := PlayerShareCents(2401); got != 600 {
		t.Errorf("PlayerShareCents(2401) = %d, want 600", got)
	}
}

func TestFormatEuros(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{600, "6,00 €"},
		{2400, "24,00 €"},
		{5, "0,05 €"},
		{0, "0,00 €"},
		{-150, "-1,50 €"},
	}
	for _, tt := range tests {
		if got := FormatEuros(tt.cents); got != tt.want {
			t.Errorf("FormatEuros(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestComputeStats(t *testing.T) {
	indoor := &models.Court{ID: 1, Surface: models.SurfaceIndoor}
	outdoor := &models.Court{ID: 5, Surface: models.SurfaceOutdoor}
	today := "2026-10-16"

	bookings := []*models.Booking{
		{ID: "a", Date: "2026-10-20", Status: models.StatusConfirmed, Court: indoor},
		{ID: "b", Date: "2026-10-16", Status: models.StatusConfirmed, Court: outdoor},
		{ID: "c", Date: "2026-10-21", Status: models.StatusCancelled, Court: indoor},
		{ID: "d", Date: "2026-10-10", Status: models.StatusCompleted, Court: outdoor},
		{ID: "e", Date: "2026-10-01", Status: models.StatusConfirmed, Court: indoor},
	}

	st := ComputeStats(bookings, today)

	if st.Total != 5 {
		t.Errorf("Total = %d, want 5", st.Total)
	}
	if st.Indoor != 3 || st.Outdoor != 2 {
		t.Errorf("Indoor/Outdoor = %d/%d, want 3/2", st.Indoor, st.Outdoor)
	}
	if st.Upcoming != 2 {
		t.Errorf("Upcoming = %d, want 2", st.Upcoming)
	}
	if st.Past != 2 {
		t.Errorf("Past = %d, want 2", st.Past)
	}

	if got := ids(Upcoming(bookings, today)); got != "ab" {
		t.Errorf("Upcoming() = %q, want ab", got)
	}
	if got := ids(Past(bookings, today)); got != "de" {
		t.Errorf("Past() = %q, want de", got)
	}
	if len(Upcoming(bookings, today)) != st.Upcoming || len(Past(bookings, today)) != st.Past {
		t.Error("lists and counters disagree")
	}
}

func ids(bookings []*models.Booking) string {
	var out string
	for _, b := range bookings {
		out += b.ID
	}
	return out
}

func TestCancelledBookingLeavesUpcoming(t *testing.T) {
	b := &models.Booking{ID: "x", Date: "2026-10-20", Status: models.StatusConfirmed}
	today := "2026-10-16"

	if got := ComputeStats([]*models.Booking{b}, today).Upcoming; got != 1 {
		t.Fatalf("Upcoming before cancel = %d, want 1", got)
	}

	b.Status = models.StatusCancelled
	if got := ComputeStats([]*models.Booking{b}, today).Upcoming; got != 0 {
		t.Errorf("Upcoming after cancel = %d, want 0", got)
	}
	if got := len(Upcoming([]*models.Booking{b}, today)); got != 0 {
		t.Errorf("Upcoming() after cancel returned %d bookings", got)
	}
}
