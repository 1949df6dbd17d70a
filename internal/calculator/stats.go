package calculator

import "github.com/mmynk/corepadel/internal/models"

// Stats are the counters shown on the profile page.
type Stats struct {
	Total    int
	Indoor   int
	Outdoor  int
	Upcoming int
	Past     int
}

// ComputeStats summarizes a user's bookings relative to today ("YYYY-MM-DD").
// A booking is upcoming while it is confirmed and not in the past; it is past
// once completed or once its date is before today. Cancelled bookings still
// count towards the total and the surface counters.
func ComputeStats(bookings []*models.Booking, today string) Stats {
	var st Stats
	for _, b := range bookings {
		st.Total++

		if b.Court != nil {
			switch b.Court.Surface {
			case models.SurfaceIndoor:
				st.Indoor++
			case models.SurfaceOutdoor:
				st.Outdoor++
			}
		}

		if b.Status == models.StatusConfirmed && b.Date >= today {
			st.Upcoming++
		}
		if b.Status == models.StatusCompleted || b.Date < today {
			st.Past++
		}
	}
	return st
}

// Past filters bookings down to those completed or dated before today, the
// same rule the Past counter uses.
func Past(bookings []*models.Booking, today string) []*models.Booking {
	var out []*models.Booking
	for _, b := range bookings {
		if b.Status == models.StatusCompleted || b.Date < today {
			out = append(out, b)
		}
	}
	return out
}

// Upcoming filters bookings down to the confirmed ones dated today or later.
func Upcoming(bookings []*models.Booking, today string) []*models.Booking {
	var out []*models.Booking
	for _, b := range bookings {
		if b.Status == models.StatusConfirmed && b.Date >= today {
			out = append(out, b)
		}
	}
	return out
}
