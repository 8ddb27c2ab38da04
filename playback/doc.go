// Package playback schedules decoded audio buffers for gapless sequential
// playback on an output clock and tracks the sources still in flight.
package playback
