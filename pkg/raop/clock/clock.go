package clock

// EpochOffset1900 is the number of seconds between the NTP epoch
// (1900-01-01) and the Unix epoch (1970-01-01). Seconds-time values
// throughout this module are NTP-style seconds since 1900.
const EpochOffset1900 = 2208988800.0

// Clock maps local device sample position (line time) onto the
// sender's frame time and onto NTP-style seconds time, and back.
//
// All getters may be called concurrently with playback-thread mutation
// of the underlying line position; implementations must guarantee each
// call observes a consistent snapshot of the offset fields and the
// frame counter together.
type Clock interface {
	// NowLineTime returns the current device head position, 0 if the
	// device has not started playing yet.
	NowLineTime() uint64
	// NextLineTime returns the line time of the next sample to be
	// written.
	NextLineTime() uint64
	// NowFrameTime returns NowLineTime translated into frame time.
	NowFrameTime() uint64
	// NextFrameTime returns NextLineTime translated into frame time.
	NextFrameTime() uint64
	// NowSecondsTime returns the current position in NTP seconds.
	NowSecondsTime() float64
	// NextSecondsTime returns NextLineTime's position in NTP seconds.
	NextSecondsTime() float64
	// ConvertFrameToSecondsTime converts a frame time to NTP seconds
	// using the clock's current offsets.
	ConvertFrameToSecondsTime(frameTime uint64) float64
	// ConvertFrameToLineTime converts a frame time to a line time
	// using the clock's current frame-time offset. The result may be
	// negative if frameTime predates line time zero.
	ConvertFrameToLineTime(frameTime uint64) int64
	// SetFrameTime retargets the clock: frameTime is defined to occur
	// at secondsTime. If secondsTime is 0, the call is interpreted as
	// "best effort immediate" and frameTime is pinned to the current
	// line position instead of a calibrated seconds time.
	SetFrameTime(frameTime uint64, secondsTime float64)
}
