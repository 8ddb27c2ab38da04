package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/mrsingh-rishi/teahouse/audio"
	"github.com/mrsingh-rishi/teahouse/capture"
)

// DefaultCaptureRate is the rate the hardware is opened at; frames are
// resampled down to the requested format.
const DefaultCaptureRate = 48000

// Microphone opens the default capture device.
type Microphone struct {
	// DeviceRate is the hardware capture rate. Zero means the requested rate.
	DeviceRate int
	Logger     *slog.Logger
}

func NewMicrophone(logger *slog.Logger) *Microphone {
	if logger == nil {
		logger = slog.Default()
	}
	return &Microphone{DeviceRate: DefaultCaptureRate, Logger: logger}
}

// Open starts capturing. Failures to initialise the audio backend map to
// capture.ErrUnsupported and failures to open the device to
// capture.ErrPermissionDenied.
func (m *Microphone) Open(ctx context.Context, format capture.Format) (capture.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	deviceRate := m.DeviceRate
	if deviceRate <= 0 {
		deviceRate = format.SampleRate
	}

	actx, err := initContext(logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", capture.ErrUnsupported, err)
	}

	stream := newMicStream(format, deviceRate)
	stream.ctx = actx

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.SampleRate = uint32(deviceRate)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = 1
	cfg.Alsa.NoMMap = 1
	cfg.PerformanceProfile = malgo.LowLatency
	cfg.PeriodSizeInFrames = uint32(deviceRate / 100)
	cfg.Periods = 3

	bytesPerFrame := malgo.SampleSizeInBytes(malgo.FormatS16)
	stream.device, err = malgo.InitDevice(actx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if n == 0 || len(pInput) < n {
				return
			}
			stream.process(pInput[:n])
		},
	})
	if err != nil {
		freeContext(actx)
		return nil, fmt.Errorf("%w: %v", capture.ErrPermissionDenied, err)
	}
	if err := stream.device.Start(); err != nil {
		stream.device.Uninit()
		freeContext(actx)
		return nil, fmt.Errorf("%w: %v", capture.ErrPermissionDenied, err)
	}
	return stream, nil
}

// micStream turns device periods into fixed-size frames at the target rate.
type micStream struct {
	targetRate int
	deviceRate int

	ctx    *malgo.AllocatedContext
	device *malgo.Device

	framer *audio.Framer
	frames chan []float32
	done   chan struct{}

	mu       sync.Mutex
	stopOnce sync.Once
}

func newMicStream(format capture.Format, deviceRate int) *micStream {
	return &micStream{
		targetRate: format.SampleRate,
		deviceRate: deviceRate,
		framer:     audio.NewFramer(format.FrameSize),
		frames:     make(chan []float32, 64),
		done:       make(chan struct{}),
	}
}

func (s *micStream) Frames() <-chan []float32 {
	return s.frames
}

func (s *micStream) process(pcm []byte) {
	samples, err := audio.DecodePCM16(pcm)
	if err != nil {
		return
	}
	samples = audio.Resample(samples, s.deviceRate, s.targetRate)

	s.mu.Lock()
	frames := s.framer.Write(samples)
	s.mu.Unlock()

	for _, f := range frames {
		select {
		case s.frames <- f:
		case <-s.done:
			return
		}
	}
}

// Stop halts the device, then closes Frames.
func (s *micStream) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.device != nil {
			_ = s.device.Stop()
			s.device.Uninit()
		}
		if s.ctx != nil {
			freeContext(s.ctx)
		}
		close(s.frames)
	})
}
