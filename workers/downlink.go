package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mrsingh-rishi/teahouse/audio"
	"github.com/mrsingh-rishi/teahouse/live"
	"github.com/mrsingh-rishi/teahouse/model"
	"github.com/mrsingh-rishi/teahouse/playback"
	"github.com/mrsingh-rishi/teahouse/transcript"
	"github.com/mrsingh-rishi/teahouse/types"
)

// DownlinkHandlers receive lifecycle events from the downlink worker. All
// callbacks run on the worker goroutine in arrival order.
type DownlinkHandlers struct {
	OnOpen      func()
	OnEntry     func(types.TranscriptEntry)
	OnScheduled func(playback.Scheduled, int)
	OnError     func(error)
	OnClose     func(reason string)
}

// DownlinkWorker consumes transport events, reconciles transcript updates
// and schedules returned audio for playback.
type DownlinkWorker struct {
	ctx    context.Context
	cancel context.CancelFunc

	events     <-chan live.Event
	transcript *transcript.Log
	scheduler  *playback.Scheduler
	sampleRate int
	handlers   DownlinkHandlers
	logger     *slog.Logger

	startOnce sync.Once
	done      chan struct{}
}

func NewDownlinkWorker(
	events <-chan live.Event,
	log *transcript.Log,
	scheduler *playback.Scheduler,
	handlers DownlinkHandlers,
	logger *slog.Logger,
) (*DownlinkWorker, error) {
	if events == nil {
		return nil, fmt.Errorf("events channel is required")
	}
	if log == nil {
		return nil, fmt.Errorf("transcript log is required")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("playback scheduler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &DownlinkWorker{
		ctx:        ctx,
		cancel:     cancel,
		events:     events,
		transcript: log,
		scheduler:  scheduler,
		sampleRate: model.OutputSampleRate,
		handlers:   handlers,
		logger:     logger,
		done:       make(chan struct{}),
	}, nil
}

func (w *DownlinkWorker) Start() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

// Done is closed when the worker goroutine exits.
func (w *DownlinkWorker) Done() <-chan struct{} {
	return w.done
}

// Stop asks the worker to exit without waiting, so it can be called from
// inside a handler.
func (w *DownlinkWorker) Stop() {
	w.cancel()
}

func (w *DownlinkWorker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.events:
			if !ok {
				return
			}
			if w.ctx.Err() != nil {
				return
			}
			w.dispatch(ev)
		}
	}
}

func (w *DownlinkWorker) dispatch(ev live.Event) {
	switch ev.Type {
	case live.EventOpen:
		if w.handlers.OnOpen != nil {
			w.handlers.OnOpen()
		}
	case live.EventMessage:
		w.handleContent(ev.Content)
	case live.EventError:
		if w.handlers.OnError != nil {
			w.handlers.OnError(ev.Err)
		}
	case live.EventClose:
		if w.handlers.OnClose != nil {
			w.handlers.OnClose(ev.Reason)
		}
	}
}

func (w *DownlinkWorker) handleContent(c *live.ServerContent) {
	if c == nil {
		return
	}
	if t := c.InputTranscription; t != nil {
		w.applyTranscript(types.AuthorUser, t)
	}
	if t := c.OutputTranscription; t != nil {
		w.applyTranscript(types.AuthorModel, t)
	}
	if data, ok := c.AudioData(); ok {
		w.scheduleAudio(model.AudioChunk(data))
	}
	if c.Interrupted {
		w.scheduler.Flush()
	}
	if c.TurnComplete {
		if entry, ok := w.transcript.Finalize(types.AuthorModel); ok && w.handlers.OnEntry != nil {
			w.handlers.OnEntry(entry)
		}
	}
}

func (w *DownlinkWorker) applyTranscript(author types.Author, t *live.Transcription) {
	entry := w.transcript.Apply(author, t.Text, t.Final())
	if w.handlers.OnEntry != nil {
		w.handlers.OnEntry(entry)
	}
}

func (w *DownlinkWorker) scheduleAudio(chunk model.AudioChunk) {
	buf, err := audio.DecodeChunk(chunk, w.sampleRate)
	if err != nil {
		w.logger.Warn("Dropping undecodable audio chunk", slog.String("error", err.Error()))
		return
	}
	scheduled, err := w.scheduler.Schedule(buf)
	if err != nil {
		w.logger.Debug("Audio chunk not scheduled", slog.String("error", err.Error()))
		return
	}
	if w.handlers.OnScheduled != nil {
		w.handlers.OnScheduled(scheduled, len(buf.Samples)*2)
	}
}
