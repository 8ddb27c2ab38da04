// Package transcript merges incremental speech-to-text updates from both
// conversation sides into one ordered, append-only log.
package transcript

import (
	"sync"

	"github.com/mrsingh-rishi/teahouse/types"
)

// Log is safe for concurrent use. Entries are ordered by arrival; the tail
// entry of an author is rewritten in place while it is still interim.
type Log struct {
	mu      sync.RWMutex
	entries []types.TranscriptEntry
	nextID  int64
}

func NewLog() *Log {
	return &Log{nextID: 1}
}

// Apply records one transcription update and returns the resulting entry.
func (l *Log) Apply(author types.Author, text string, isFinal bool) types.TranscriptEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n := len(l.entries); n > 0 {
		last := &l.entries[n-1]
		if last.Author == author && !last.IsFinal {
			last.Text = text
			last.IsFinal = isFinal
			return *last
		}
	}

	entry := types.TranscriptEntry{
		ID:      l.nextID,
		Text:    text,
		Author:  author,
		IsFinal: isFinal,
	}
	l.nextID++
	l.entries = append(l.entries, entry)
	return entry
}

// Finalize freezes the tail entry if it is still open, for example when the
// remote side reports the end of a turn without a final transcription.
func (l *Log) Finalize(author types.Author) (types.TranscriptEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.entries)
	if n == 0 {
		return types.TranscriptEntry{}, false
	}
	last := &l.entries[n-1]
	if last.Author != author || last.IsFinal {
		return types.TranscriptEntry{}, false
	}
	last.IsFinal = true
	return *last, true
}

// Entries returns a copy of the log.
func (l *Log) Entries() []types.TranscriptEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.TranscriptEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reset clears the log. Entry IDs keep increasing across resets.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
