package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mrsingh-rishi/teahouse/audio"
	"github.com/mrsingh-rishi/teahouse/live"
	"github.com/mrsingh-rishi/teahouse/model"
)

// AudioSender is the outbound half of a live transport.
type AudioSender interface {
	SendAudio(chunk model.AudioChunk) error
}

// UplinkWorker encodes captured frames and pushes them on the open session.
// Frames are forwarded in capture order with no buffering or dropping.
type UplinkWorker struct {
	ctx    context.Context
	cancel context.CancelFunc

	frames <-chan []float32
	sender AudioSender
	logger *slog.Logger

	// OnFrameSent is called after each successful send with the encoded size in bytes.
	OnFrameSent func(bytes int)

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

func NewUplinkWorker(frames <-chan []float32, sender AudioSender, logger *slog.Logger) (*UplinkWorker, error) {
	if frames == nil {
		return nil, fmt.Errorf("frames channel is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("audio sender is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &UplinkWorker{
		ctx:    ctx,
		cancel: cancel,
		frames: frames,
		sender: sender,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

func (w *UplinkWorker) Start() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

func (w *UplinkWorker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case frame, ok := <-w.frames:
			if !ok {
				return
			}
			chunk := audio.EncodeFrame(frame)
			if err := w.sender.SendAudio(chunk); err != nil {
				if errors.Is(err, live.ErrClosed) {
					return
				}
				w.logger.Warn("Failed to send audio frame", slog.String("error", err.Error()))
				continue
			}
			if w.OnFrameSent != nil {
				w.OnFrameSent(len(frame) * 2)
			}
		}
	}
}

// Stop detaches the worker from the capture stream and waits for it to exit.
// It is safe to call more than once and before Start.
func (w *UplinkWorker) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
		// A worker that never started has nothing to wait for.
		w.startOnce.Do(func() { close(w.done) })
		<-w.done
	})
}
