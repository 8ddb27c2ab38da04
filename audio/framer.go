package audio

// Framer accumulates capture callbacks of arbitrary size and emits frames of
// exactly Size samples. It is not safe for concurrent use.
type Framer struct {
	size    int
	pending []float32
}

func NewFramer(size int) *Framer {
	if size <= 0 {
		size = 1
	}
	return &Framer{size: size, pending: make([]float32, 0, size)}
}

// Size returns the frame length in samples.
func (f *Framer) Size() int {
	return f.size
}

// Write appends samples and returns every frame completed by them.
// Returned frames do not alias the framer's internal storage.
func (f *Framer) Write(samples []float32) [][]float32 {
	var frames [][]float32
	for len(samples) > 0 {
		need := f.size - len(f.pending)
		if need > len(samples) {
			need = len(samples)
		}
		f.pending = append(f.pending, samples[:need]...)
		samples = samples[need:]

		if len(f.pending) == f.size {
			frame := make([]float32, f.size)
			copy(frame, f.pending)
			frames = append(frames, frame)
			f.pending = f.pending[:0]
		}
	}
	return frames
}

// Pending returns how many samples are waiting for the next frame.
func (f *Framer) Pending() int {
	return len(f.pending)
}

// Reset drops any partially filled frame.
func (f *Framer) Reset() {
	f.pending = f.pending[:0]
}
