package random

import "math/rand/v2"

// Random supplies the random parts of game IDs and device IDs
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// String returns length characters drawn from alphabet
	String(length int, alphabet string) string
}

// Source implements Random on the runtime's auto-seeded generator.
// Neither game IDs nor device IDs are secrets, so no crypto source is needed.
type Source struct{}

// New creates a new Source
func New() Source {
	return Source{}
}

// Intn returns a random int in [0, n), or 0 when n <= 0
func (Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.IntN(n)
}

// String returns length characters drawn from alphabet
func (s Source) String(length int, alphabet string) string {
	if length <= 0 || alphabet == "" {
		return ""
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[s.Intn(len(alphabet))]
	}
	return string(out)
}
