package output

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/teahouse/audio"
	"github.com/mrsingh-rishi/teahouse/capture"
	"github.com/mrsingh-rishi/teahouse/model"
	"github.com/mrsingh-rishi/teahouse/types"
)

type recorder struct {
	mu   sync.Mutex
	msgs []map[string]any
}

func (r *recorder) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
	return nil
}

func (r *recorder) all() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]any(nil), r.msgs...)
}

func newTestBrowser(t *testing.T) (*Browser, *recorder) {
	rec := &recorder{}
	b, err := NewBrowser(rec, nil)
	require.NoError(t, err)
	return b, rec
}

func TestBrowserEvents(t *testing.T) {
	b, rec := newTestBrowser(t)

	b.SendStatus(types.StatusError, true)
	b.SendTranscript(types.TranscriptEntry{ID: 3, Text: "hello", Author: types.AuthorUser, IsFinal: true})

	msgs := rec.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, "status", msgs[0]["type"])
	assert.Equal(t, "error", msgs[0]["status"])
	assert.Equal(t, true, msgs[0]["unavailable"])
	entry := msgs[1]["entry"].(map[string]any)
	assert.Equal(t, "hello", entry["text"])
	assert.Equal(t, true, entry["isFinal"])
}

func TestBrowserMicrophoneFramesFedAudio(t *testing.T) {
	mic := NewBrowserMicrophone()
	stream, err := mic.Open(context.Background(), capture.Format{SampleRate: model.InputSampleRate, Channels: 1, FrameSize: 4})
	require.NoError(t, err)

	require.NoError(t, mic.Feed(string(audio.EncodeFrame([]float32{0, 0.5, 0, -0.5, 0, 0}))))

	frame := <-stream.Frames()
	assert.Equal(t, []float32{0, 0.5, 0, -0.5}, frame)

	stream.Stop()
	stream.Stop()
	_, ok := <-stream.Frames()
	assert.False(t, ok)
	assert.NoError(t, mic.Feed(string(audio.EncodeFrame(make([]float32, 8)))))
}

func TestBrowserMicrophoneCapability(t *testing.T) {
	mic := NewBrowserMicrophone()
	format := capture.Format{SampleRate: model.InputSampleRate, Channels: 1, FrameSize: model.FrameSize}

	mic.SetCapability("denied")
	_, err := mic.Open(context.Background(), format)
	assert.ErrorIs(t, err, capture.ErrPermissionDenied)

	mic.SetCapability("unsupported")
	_, err = mic.Open(context.Background(), format)
	assert.ErrorIs(t, err, capture.ErrUnsupported)

	mic.SetCapability("")
	_, err = mic.Open(context.Background(), format)
	assert.NoError(t, err)
}

func TestBrowserMicrophoneDropsWhenNotDrained(t *testing.T) {
	mic := NewBrowserMicrophone()
	stream, err := mic.Open(context.Background(), capture.Format{SampleRate: model.InputSampleRate, Channels: 1, FrameSize: 4})
	require.NoError(t, err)

	payload := string(audio.EncodeFrame(make([]float32, 4*(micBuffer+10))))
	fed := make(chan error, 1)
	go func() { fed <- mic.Feed(payload) }()

	select {
	case err := <-fed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Feed blocked on a full stream")
	}
	assert.Equal(t, 10, mic.Dropped())
	assert.Len(t, stream.Frames(), micBuffer)

	stream.Stop()
}

func TestBrowserMicrophoneRejectsBadPayload(t *testing.T) {
	mic := NewBrowserMicrophone()
	_, err := mic.Open(context.Background(), capture.Format{SampleRate: model.InputSampleRate, FrameSize: 4})
	require.NoError(t, err)

	assert.Error(t, mic.Feed("***"))
	assert.Error(t, mic.Feed("AA=="))
}

func TestBrowserSpeakerForwardsAudio(t *testing.T) {
	b, rec := newTestBrowser(t)
	start := time.Now()
	speaker := newBrowserSpeaker(b, model.OutputSampleRate, func() time.Time { return start })

	var ended atomic.Int32
	buf := audio.Buffer{Samples: make([]float32, 240), SampleRate: model.OutputSampleRate}
	_, err := speaker.Play(buf, 0, func() { ended.Add(1) })
	require.NoError(t, err)

	msgs := rec.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "audio", msgs[0]["type"])
	assert.Equal(t, float64(0), msgs[0]["startAt"])
	assert.Equal(t, float64(model.OutputSampleRate), msgs[0]["sampleRate"])

	assert.Eventually(t, func() bool { return ended.Load() == 1 }, time.Second, 5*time.Millisecond)
}

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestBrowserSpeakerClockStartsAtFirstClip(t *testing.T) {
	b, rec := newTestBrowser(t)
	clock := &stepClock{t: time.Now()}
	speaker := newBrowserSpeaker(b, model.OutputSampleRate, clock.now)

	// Time spent dialing before any audio arrives.
	clock.advance(1500 * time.Millisecond)
	assert.Zero(t, speaker.Now())

	buf := audio.Buffer{Samples: make([]float32, model.OutputSampleRate), SampleRate: model.OutputSampleRate}
	_, err := speaker.Play(buf, speaker.Now(), nil)
	require.NoError(t, err)
	assert.Equal(t, float64(0), rec.all()[0]["startAt"])

	clock.advance(500 * time.Millisecond)
	assert.InDelta(t, 0.5, speaker.Now(), 1e-9)

	require.NoError(t, speaker.Close())
}

func TestBrowserSpeakerStopAndClose(t *testing.T) {
	b, rec := newTestBrowser(t)
	speaker := NewBrowserSpeaker(b, model.OutputSampleRate)

	var ended atomic.Int32
	long := audio.Buffer{Samples: make([]float32, model.OutputSampleRate*60), SampleRate: model.OutputSampleRate}
	src, err := speaker.Play(long, speaker.Now(), func() { ended.Add(1) })
	require.NoError(t, err)

	src.Stop()
	src.Stop()
	require.NoError(t, speaker.Close())
	require.NoError(t, speaker.Close())

	msgs := rec.all()
	require.Len(t, msgs, 3)
	assert.Equal(t, "stop", msgs[1]["type"])
	assert.Equal(t, "stop", msgs[2]["type"])
	assert.Zero(t, ended.Load())

	_, err = speaker.Play(long, 0, nil)
	assert.Error(t, err)
}
