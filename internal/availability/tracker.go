package availability

import "sync"

// Ticket identifies one availability request.
type Ticket struct {
	Generation uint64
	CourtID    int64
	Date       string
}

// Tracker tags availability requests with a generation so that a response
// arriving after a newer request was issued can be recognised and dropped.
type Tracker struct {
	mu     sync.Mutex
	latest uint64
}

// Begin records a new request for the pair and returns its ticket. Every
// earlier ticket stops being current.
func (t *Tracker) Begin(courtID int64, date string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest++
	return Ticket{Generation: t.latest, CourtID: courtID, Date: date}
}

// Invalidate makes every outstanding ticket stale without issuing a new one.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	t.latest++
	t.mu.Unlock()
}

// Current reports whether tk belongs to the most recent request.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tk.Generation == t.latest
}
