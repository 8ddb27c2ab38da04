// Package device binds the Tea House to the local sound card through
// miniaudio (malgo): a microphone implementing capture.Device and a speaker
// implementing playback.Output.
package device
