package device

import (
	"encoding/binary"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrsingh-rishi/teahouse/audio"
	"github.com/mrsingh-rishi/teahouse/capture"
)

func constant(v float32, n int) audio.Buffer {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return audio.Buffer{Samples: s, SampleRate: 100}
}

func samplesOf(out []byte) []int16 {
	res := make([]int16, len(out)/2)
	for i := range res {
		res[i] = int16(binary.LittleEndian.Uint16(out[i*2:]))
	}
	return res
}

func TestMixerRendersClipsAtTheirStart(t *testing.T) {
	m := newMixer()
	m.add(constant(0.5, 2), 2, nil)
	m.add(constant(-0.5, 2), 4, nil)

	out := make([]byte, 16)
	m.render(out, 8)

	assert.Equal(t, []int16{0, 0, 16384, 16384, -16384, -16384, 0, 0}, samplesOf(out))
	assert.Equal(t, uint64(8), m.frames())
}

func TestMixerReportsEndedClips(t *testing.T) {
	m := newMixer()
	var ended atomic.Int32
	m.add(constant(0.25, 4), 0, func() { ended.Add(1) })

	out := make([]byte, 4)
	m.render(out, 2)
	assert.Zero(t, ended.Load())

	m.render(out, 2)
	assert.Eventually(t, func() bool { return ended.Load() == 1 }, time.Second, time.Millisecond)
	assert.True(t, m.clips.IsEmpty())
}

func TestMixerSkipsStoppedClips(t *testing.T) {
	m := newMixer()
	var ended atomic.Int32
	c := m.add(constant(0.5, 4), 0, func() { ended.Add(1) })
	c.Stop()

	out := make([]byte, 8)
	m.render(out, 4)

	assert.Equal(t, []int16{0, 0, 0, 0}, samplesOf(out))
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, ended.Load())
}

func TestMixerReset(t *testing.T) {
	m := newMixer()
	c := m.add(constant(0.5, 4), 10, nil)
	m.reset()

	assert.True(t, c.isStopped())
	assert.True(t, m.clips.IsEmpty())
}

func TestMicStreamFramesAndResamples(t *testing.T) {
	s := newMicStream(capture.Format{SampleRate: 16000, Channels: 1, FrameSize: 4}, 48000)

	// 24 device samples at 48 kHz become 8 samples at 16 kHz, two frames.
	s.process(make([]byte, 48))

	assert.Len(t, s.frames, 2)
	frame := <-s.Frames()
	assert.Len(t, frame, 4)

	s.Stop()
	s.Stop()
	_, ok := <-s.Frames()
	assert.True(t, ok, "buffered frame survives stop")
	_, ok = <-s.Frames()
	assert.False(t, ok)
}
