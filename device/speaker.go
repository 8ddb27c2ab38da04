package device

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/mrsingh-rishi/teahouse/audio"
	"github.com/mrsingh-rishi/teahouse/playback"
)

// Speaker plays scheduled buffers on the default output device. Its clock is
// the number of frames the device has pulled, so scheduled start times are
// sample accurate.
type Speaker struct {
	sampleRate int
	logger     *slog.Logger

	ctx    *malgo.AllocatedContext
	device *malgo.Device
	mix    *mixer

	closeOnce sync.Once
}

// NewSpeaker opens and starts a mono S16 playback device at sampleRate.
func NewSpeaker(sampleRate int, logger *slog.Logger) (*Speaker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, err := initContext(logger)
	if err != nil {
		return nil, err
	}

	s := &Speaker{
		sampleRate: sampleRate,
		logger:     logger,
		ctx:        ctx,
		mix:        newMixer(),
	}

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format)

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.SampleRate = uint32(sampleRate)
	cfg.Playback.Format = format
	cfg.Playback.Channels = 1
	cfg.Alsa.NoMMap = 1
	cfg.PeriodSizeInFrames = uint32(sampleRate / 100) // ~10ms
	cfg.Periods = 4

	s.device, err = malgo.InitDevice(ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, frameCount uint32) {
			n := int(frameCount)
			if len(pOutput) < n*bytesPerFrame {
				n = len(pOutput) / bytesPerFrame
			}
			s.mix.render(pOutput, n)
		},
	})
	if err != nil {
		freeContext(ctx)
		return nil, fmt.Errorf("init playback device: %w", err)
	}

	if err := s.device.Start(); err != nil {
		s.device.Uninit()
		freeContext(ctx)
		return nil, fmt.Errorf("start playback device: %w", err)
	}
	return s, nil
}

// Now returns the playback position in seconds.
func (s *Speaker) Now() float64 {
	return float64(s.mix.frames()) / float64(s.sampleRate)
}

// Play queues buf to start at the given clock time.
func (s *Speaker) Play(buf audio.Buffer, at float64, onEnded func()) (playback.Source, error) {
	if buf.SampleRate != s.sampleRate {
		buf = audio.Buffer{
			Samples:    audio.Resample(buf.Samples, buf.SampleRate, s.sampleRate),
			SampleRate: s.sampleRate,
		}
	}
	start := uint64(math.Round(at * float64(s.sampleRate)))
	return s.mix.add(buf, start, onEnded), nil
}

// Close stops the device and drops pending clips. It is idempotent.
func (s *Speaker) Close() error {
	s.closeOnce.Do(func() {
		if err := s.device.Stop(); err != nil {
			s.logger.Warn("Failed to stop playback device", slog.String("error", err.Error()))
		}
		s.device.Uninit()
		s.mix.reset()
		freeContext(s.ctx)
	})
	return nil
}

func initContext(logger *slog.Logger) (*malgo.AllocatedContext, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", slog.String("message", message))
	})
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return ctx, nil
}

func freeContext(ctx *malgo.AllocatedContext) {
	_ = ctx.Uninit()
	ctx.Free()
}
