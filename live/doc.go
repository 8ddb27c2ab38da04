// Package live is the transport for the remote speech-dialogue service
// (Gemini Live BidiGenerateContent). It turns the vendor websocket into a
// channel of lifecycle and content events plus a method for sending audio.
package live
