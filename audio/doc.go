// Package audio converts between float samples, 16-bit little-endian PCM and
// the base64 payloads carried on the live session. It also re-blocks capture
// callbacks into fixed-size frames and resamples device audio when needed.
package audio
