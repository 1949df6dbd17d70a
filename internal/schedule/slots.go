// Package schedule generates the bookable start times of a club day.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/corepadel/internal/models"
)

// Slot is a start time expressed as minutes after midnight.
type Slot int

// At builds a Slot from an hour and minute.
func At(hour, minute int) Slot {
	return Slot(hour*60 + minute)
}

// String formats the slot as "HH:MM".
func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", int(s)/60, int(s)%60)
}

// DBString formats the slot as "HH:MM:SS", the form stored with bookings.
func (s Slot) DBString() string {
	return s.String() + ":00"
}

// End returns the minute the session starting at s finishes.
func (s Slot) End() Slot {
	return s + models.SlotMinutes
}

// On returns the instant the club clock in loc reads s on day's date. This
// differs from midnight plus s minutes on DST changeover days.
func (s Slot) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(s)/60, int(s)%60, 0, 0, loc)
}

// ParseSlot accepts "HH:MM" or "HH:MM:SS".
func ParseSlot(v string) (Slot, error) {
	parts := strings.Split(v, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 || len(parts[0]) != 2 {
		return 0, fmt.Errorf("invalid hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", v)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("invalid seconds in %q", v)
	}
	return At(h, m), nil
}

// Layout describes a club day: the first start, the latest permitted start and
// the step between starts.
type Layout struct {
	Open      Slot
	LastStart Slot
	Step      int
}

// Default is the club's opening layout: sessions every 75 minutes starting at
// 09:00, no session may start after 22:00.
var Default = Layout{
	Open:      At(9, 0),
	LastStart: At(22, 0),
	Step:      models.SlotMinutes,
}

// Slots returns the ordered start times of the layout. A start is kept while it
// is before LastStart or exactly on it.
func (l Layout) Slots() []Slot {
	if l.Step <= 0 {
		return nil
	}
	var slots []Slot
	for s := l.Open; s <= l.LastStart; s += Slot(l.Step) {
		slots = append(slots, s)
	}
	return slots
}

// Contains reports whether s is one of the layout's start times.
func (l Layout) Contains(s Slot) bool {
	if l.Step <= 0 || s < l.Open || s > l.LastStart {
		return false
	}
	return int(s-l.Open)%l.Step == 0
}

// Slots returns the start times of the Default layout.
func Slots() []Slot {
	return Default.Slots()
}
