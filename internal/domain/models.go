package domain

// MaxNameLength is the longest movie name, in characters, every store accepts.
const MaxNameLength = 255

// Movie represents a catalogue entry.
type Movie struct {
	ID   int64  // Store assigned identifier, 0 until the movie is first saved
	Name string // Display name, never blank once persisted
}

// IsNew reports whether the movie has not been persisted yet.
func (m Movie) IsNew() bool {
	return m.ID == 0
}

// WithName returns a copy of the movie carrying the given name. The ID is kept.
func (m Movie) WithName(name string) Movie {
	m.Name = name
	return m
}
