package playback

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mrsingh-rishi/teahouse/audio"
)

// ErrClosed is returned when scheduling on a scheduler whose output has been closed.
var ErrClosed = errors.New("playback: scheduler closed")

// Clock reports the current playback position of an output in seconds.
type Clock interface {
	Now() float64
}

// Source is one buffer handed to an output.
type Source interface {
	Stop()
}

// Output plays buffers at an absolute time on its own clock. onEnded is
// invoked once when the source finishes playing naturally; it is not
// invoked for sources halted with Stop, and must not be invoked from
// within Play itself.
type Output interface {
	Clock
	Play(buf audio.Buffer, at float64, onEnded func()) (Source, error)
	Close() error
}

// Scheduled describes where a buffer was placed on the output timeline.
type Scheduled struct {
	Start float64
	End   float64
}

// Scheduler keeps a cursor at the end of the last scheduled buffer so that
// consecutive buffers play back to back even when they arrive in bursts.
type Scheduler struct {
	output Output

	mu            sync.Mutex
	nextStartTime float64
	active        map[*entry]struct{}
	closed        bool
}

type entry struct {
	source Source
}

func NewScheduler(output Output) *Scheduler {
	return &Scheduler{
		output: output,
		active: make(map[*entry]struct{}),
	}
}

// Schedule places buf at max(clock, cursor) and advances the cursor by its duration.
func (s *Scheduler) Schedule(buf audio.Buffer) (Scheduled, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Scheduled{}, ErrClosed
	}

	start := s.nextStartTime
	if now := s.output.Now(); now > start {
		start = now
	}

	e := &entry{}
	src, err := s.output.Play(buf, start, func() { s.release(e) })
	if err != nil {
		return Scheduled{}, fmt.Errorf("play buffer at %.3fs: %w", start, err)
	}
	e.source = src
	s.active[e] = struct{}{}

	s.nextStartTime = start + buf.Duration()
	return Scheduled{Start: start, End: s.nextStartTime}, nil
}

func (s *Scheduler) release(e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, e)
}

// NextStartTime returns the end of the last scheduled buffer.
func (s *Scheduler) NextStartTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStartTime
}

// Active returns the number of sources that have not finished playing.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// StopAll halts every in-flight source and clears the active set.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	active := s.active
	s.active = make(map[*entry]struct{})
	s.mu.Unlock()

	for e := range active {
		if e.source != nil {
			e.source.Stop()
		}
	}
}

// Flush stops every in-flight source and rewinds the cursor so the next
// buffer starts at the current clock. Used when the remote turn is interrupted.
func (s *Scheduler) Flush() {
	s.StopAll()
	s.mu.Lock()
	s.nextStartTime = 0
	s.mu.Unlock()
}

// Close closes the output, then stops and clears all sources.
// Further calls are no-ops.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.output.Close()
	s.StopAll()
	return err
}
