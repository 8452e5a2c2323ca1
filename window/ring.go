// Package window provides the fixed-capacity sliding windows used to smooth
// distance samples and to detect sudden depth changes.
package window

// Ring is a fixed-capacity FIFO of float64 samples. Once full, each Push evicts
// the oldest sample, so Len never exceeds the capacity.
type Ring struct {
	buf   []float64
	start int
	size  int
}

// NewRing creates a ring holding at most capacity samples. capacity must be positive.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic("window: ring capacity must be positive")
	}
	return &Ring{buf: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample when the ring is full.
func (r *Ring) Push(v float64) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Len returns the number of held samples.
func (r *Ring) Len() int { return r.size }

// Cap returns the capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Full reports whether the ring holds Cap samples.
func (r *Ring) Full() bool { return r.size == len(r.buf) }

// Values returns a copy of the held samples, oldest first.
func (r *Ring) Values() []float64 {
	out := make([]float64, r.size)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Reset drops every sample.
func (r *Ring) Reset() {
	r.start = 0
	r.size = 0
}
