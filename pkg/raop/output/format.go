package output

import "math"

// ChannelMode controls the in-place channel remap applied to stereo
// 16-bit payloads immediately before they are written to the sink.
type ChannelMode int

const (
	// ChannelStereo leaves the payload untouched.
	ChannelStereo ChannelMode = iota
	// ChannelOnlyLeft duplicates the left channel into the right.
	ChannelOnlyLeft
	// ChannelOnlyRight duplicates the right channel into the left.
	ChannelOnlyRight
)

// Format describes the line's audio format and packetization.
type Format struct {
	// SampleRate in Hz.
	SampleRate float64
	// BytesPerFrame is bytes per sample times channel count.
	BytesPerFrame int
	// FramesPerPacket is used both as the expected packet size and as
	// the number of silence frames written on underrun/idle.
	FramesPerPacket int
	// ChannelMode selects the remap applied before writing, only
	// meaningful when BytesPerFrame == 4 (stereo 16-bit).
	ChannelMode ChannelMode
}

const (
	// QueueLengthMaxSeconds is the rejection threshold for packets
	// scheduled too far in the future.
	QueueLengthMaxSeconds = 10.0
	// BufferSizeSeconds sizes the requested device buffer.
	BufferSizeSeconds = 0.05
	// TimingPrecision is the tolerance writeAligned treats as "exact".
	TimingPrecision = 0.001
)

// DesiredBufferBytes returns the smallest power of two at least as
// large as BufferSizeSeconds worth of audio at the given format: the
// device buffer size to request when opening the sink.
func DesiredBufferBytes(f Format) int {
	want := BufferSizeSeconds * f.SampleRate * float64(f.BytesPerFrame)
	if want <= 1 {
		return 1
	}
	exp := math.Ceil(math.Log2(want))
	return int(math.Pow(2, exp))
}
