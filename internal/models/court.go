package models

// Surface is the court category shown on court cards.
type Surface string

const (
	SurfaceIndoor  Surface = "indoor"
	SurfaceOutdoor Surface = "outdoor"
)

// Valid reports whether s is a known surface.
func (s Surface) Valid() bool {
	return s == SurfaceIndoor || s == SurfaceOutdoor
}

// Court is a bookable padel court. Courts are seeded by migrations and never
// written through the API.
type Court struct {
	// ID is the court number (1-based).
	ID int64

	// Name is the display name, e.g. "Pista 3".
	Name string

	// Surface is indoor or outdoor.
	Surface Surface

	// Active courts are listed and bookable.
	Active bool

	// PriceCents is the price of one 75-minute session.
	PriceCents int64
}
