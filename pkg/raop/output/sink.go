package output

import "errors"

// SinkState mirrors the playback device's tri-state play status.
type SinkState int

const (
	SinkStopped SinkState = iota
	SinkPlaying
	SinkPaused
)

// ErrSinkFault is returned (wrapped) by Sink methods, or by Write, to
// signal an unrecoverable device fault — device loss, a driver panic
// surfaced as an error, anything that should make the playback loop
// mute, stop, release and exit rather than retry. A plain error from
// Write without this sentinel is treated as a recoverable short write
// and retried until the payload drains or the queue is closing.
var ErrSinkFault = errors.New("output: sink fault")

// Sink is the downstream, device-facing capability the playback loop
// drives. Implementations may be a real audio device (OtoSink) or a
// test double.
type Sink interface {
	Play() error
	Stop() error
	Release() error
	// Write may perform a short write; callers retry with the
	// remaining slice until it is fully consumed. An error wrapping
	// ErrSinkFault aborts the playback loop; any other error is
	// logged and retried.
	Write(p []byte) (n int, err error)
	// SetVolume sets linear gain in [0.0, 1.0].
	SetVolume(linear float32) error
	// PlaybackHeadPosition returns the device's monotonic sample
	// counter, modulo 2^32.
	PlaybackHeadPosition() (uint32, error)
	PlayState() (SinkState, error)
}
