package device

import (
	"encoding/binary"
	"sync"

	"github.com/mrsingh-rishi/teahouse/audio"
	"github.com/mrsingh-rishi/teahouse/queue"
)

// clip is one buffer placed at an absolute frame position.
type clip struct {
	start   uint64
	samples []float32
	onEnded func()

	mu      sync.Mutex
	stopped bool
}

func (c *clip) end() uint64 {
	return c.start + uint64(len(c.samples))
}

func (c *clip) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

func (c *clip) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// mixer renders queued clips into S16 output periods. Clips must not
// overlap and must be added in start order, which playback.Scheduler
// guarantees.
type mixer struct {
	mu       sync.Mutex
	clips    *queue.Queue[*clip]
	position uint64
}

func newMixer() *mixer {
	return &mixer{clips: queue.New[*clip]()}
}

func (m *mixer) add(buf audio.Buffer, startFrame uint64, onEnded func()) *clip {
	c := &clip{start: startFrame, samples: buf.Samples, onEnded: onEnded}
	m.mu.Lock()
	m.clips.Enqueue(c)
	m.mu.Unlock()
	return c
}

// frames returns how many frames have been rendered so far.
func (m *mixer) frames() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// render fills out with frameCount mono S16 frames, silence where no clip
// is playing, and reports clips that finished during the period.
func (m *mixer) render(out []byte, frameCount int) {
	var finished []*clip

	m.mu.Lock()
	base := m.position
	for i := 0; i < frameCount; i++ {
		f := base + uint64(i)
		var sample float32

		for {
			head, ok := m.clips.Peek()
			if !ok {
				break
			}
			if head.isStopped() {
				m.clips.Dequeue()
				continue
			}
			if head.end() <= f {
				m.clips.Dequeue()
				finished = append(finished, head)
				continue
			}
			if f >= head.start {
				sample = head.samples[f-head.start]
			}
			break
		}

		binary.LittleEndian.PutUint16(out[i*2:], uint16(audio.ToInt16(sample)))
	}
	m.position += uint64(frameCount)

	// A clip ending exactly at the period boundary is complete now.
	for {
		head, ok := m.clips.Peek()
		if !ok || head.isStopped() || head.end() > m.position {
			break
		}
		m.clips.Dequeue()
		finished = append(finished, head)
	}
	m.mu.Unlock()

	for _, c := range finished {
		if c.onEnded != nil && !c.isStopped() {
			// Never call back into the scheduler from the audio thread.
			go c.onEnded()
		}
	}
}

// reset drops every queued clip without reporting them as ended.
func (m *mixer) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clips.Drain() {
		c.Stop()
	}
}
