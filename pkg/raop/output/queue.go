package output

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/airsync-go/raopcore/pkg/raop/clock"
)

// Queue is the audio output queue: it schedules incoming PCM packets
// onto a sink's write position, and it is the concrete implementation
// of the clock.Clock contract — the sink's line position is the only
// authoritative clock this receiver has.
type Queue struct {
	format Format
	sink   Sink
	logger *logrus.Logger

	packets *packetQueue
	silence []byte

	closing atomic.Bool

	mu                  sync.Mutex
	lineFramesWritten   uint64
	frameTimeOffset     int64
	secondsTimeOffset   float64
	latestSeenFrameTime uint64
	requestedGain       float32
	trackVolume         float32
	lastPosition32      uint32
	totalPosition64     uint64
	positionValid       bool

	done chan struct{}
}

// New constructs a Queue for the given format and sink. The queue does
// not own the playback goroutine until Start is called.
func New(format Format, sink Sink, logger *logrus.Logger) *Queue {
	if logger == nil {
		logger = logrus.New()
	}

	q := &Queue{
		format:  format,
		sink:    sink,
		logger:  logger,
		packets: newPacketQueue(),
		silence: generateSilenceBytes(format.FramesPerPacket, format.BytesPerFrame),
		done:    make(chan struct{}),
	}
	return q
}

// generateSilenceBytes fills n frames worth of silence using the
// repeating 0x80 0x00 byte pattern that is digital silence for 16-bit
// signed little-endian PCM.
func generateSilenceBytes(frames, bytesPerFrame int) []byte {
	buf := make([]byte, frames*bytesPerFrame)
	for i := range buf {
		if i%2 == 0 {
			buf[i] = 0x80
		} else {
			buf[i] = 0x00
		}
	}
	return buf
}

// Start mutes the sink, starts playback, waits for the sink
// to reach SinkPlaying, stamps secondsTimeOffset exactly once at that
// transition, then launches the playback goroutine. Stamping the
// offset at construction time and again at the PLAYING transition
// would race two writers against each other with the outcome decided
// by timing accident; setting it exactly once, here, avoids that.
func (q *Queue) Start(ctx context.Context) error {
	if err := q.sink.SetVolume(0); err != nil {
		q.logger.WithError(err).Warn("failed to mute sink before start")
	}
	if err := q.sink.Play(); err != nil {
		return fmt.Errorf("output: start sink: %w", err)
	}

	for {
		state, err := q.sink.PlayState()
		if err != nil {
			return fmt.Errorf("output: query sink state: %w", err)
		}
		if state == SinkPlaying {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}

	q.mu.Lock()
	q.secondsTimeOffset = clock.EpochOffset1900 + float64(time.Now().UnixNano())/1e9
	q.mu.Unlock()

	go q.runLoop()
	return nil
}

// Done returns a channel closed once the playback goroutine has run
// its exit responsibilities (mute, stop, release).
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Close marks the queue as closing. All loops observe this at their
// next iteration boundary or retry point.
func (q *Queue) Close() {
	q.closing.Store(true)
}

// Enqueue schedules samples for playback at frameTime. A packet is
// rejected if it arrived too late to play (its scheduled end falls
// more than one packet duration before the next unwritten line
// position) or too early (its scheduled end is further in the future
// than the queue is willing to hold).
func (q *Queue) Enqueue(frameTime uint64, samples []byte) bool {
	bytesPerFrame := q.format.BytesPerFrame
	sampleRate := q.format.SampleRate

	packetSeconds := float64(len(samples)) / (float64(bytesPerFrame) * sampleRate)
	frameCount := int64(len(samples) / bytesPerFrame)

	q.mu.Lock()
	entryLineTime := q.convertFrameToLineTimeLocked(frameTime)
	nextLT := int64(q.lineFramesWritten)
	if frameTime > q.latestSeenFrameTime {
		q.latestSeenFrameTime = frameTime
	}
	q.mu.Unlock()

	delaySeconds := float64(entryLineTime+frameCount-nextLT) / sampleRate

	if delaySeconds < -packetSeconds {
		q.logger.WithFields(logrus.Fields{
			"frame_time": frameTime,
			"late_by_s":  -delaySeconds,
		}).Warn("audio data arrived too late, dropping")
		return false
	}
	// The threshold is compared against delaySeconds itself, not
	// delaySeconds minus packetSeconds, so a packet whose end is far
	// enough in the future is rejected even if its start is not.
	if delaySeconds > QueueLengthMaxSeconds {
		q.logger.WithFields(logrus.Fields{
			"frame_time": frameTime,
			"early_by_s": delaySeconds,
		}).Warn("audio data arrived too early, dropping")
		return false
	}

	owned := append([]byte(nil), samples...)
	q.packets.Put(frameTime, owned)
	return true
}

// Flush removes all queued packets.
func (q *Queue) Flush() {
	q.packets.Clear()
}

// SetGain sets the user-requested linear gain, applied by the
// playback loop on its next opportunity.
func (q *Queue) SetGain(gain float32) {
	if gain < 0 {
		gain = 0
	}
	if gain > 1 {
		gain = 1
	}

	q.mu.Lock()
	q.requestedGain = gain
	q.mu.Unlock()
}

// GetGain returns the user-requested linear gain.
func (q *Queue) GetGain() float32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.requestedGain
}

// Stats reports queue depth and the latest observed frame time, for
// operational dashboards.
type Stats struct {
	QueueDepth          int
	LineFramesWritten   uint64
	LatestSeenFrameTime uint64
	AppliedGain         float32
}

// Stats returns a snapshot of queue/playback state.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	return Stats{
		QueueDepth:          q.packets.Len(),
		LineFramesWritten:   q.lineFramesWritten,
		LatestSeenFrameTime: q.latestSeenFrameTime,
		AppliedGain:         q.trackVolume,
	}
}

// --- clock.Clock ---

func (q *Queue) NowLineTime() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.nowLineTimeLocked()
}

func (q *Queue) NextLineTime() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lineFramesWritten
}

func (q *Queue) NowFrameTime() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return uint64(int64(q.nowLineTimeLocked()) + q.frameTimeOffset)
}

func (q *Queue) NextFrameTime() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return uint64(int64(q.lineFramesWritten) + q.frameTimeOffset)
}

func (q *Queue) NowSecondsTime() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.secondsTimeOffset + float64(q.nowLineTimeLocked())/q.format.SampleRate
}

func (q *Queue) NextSecondsTime() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.secondsTimeOffset + float64(q.lineFramesWritten)/q.format.SampleRate
}

func (q *Queue) ConvertFrameToSecondsTime(frameTime uint64) float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.secondsTimeOffset + float64(int64(frameTime)-q.frameTimeOffset)/q.format.SampleRate
}

func (q *Queue) ConvertFrameToLineTime(frameTime uint64) int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.convertFrameToLineTimeLocked(frameTime)
}

// SetFrameTime retargets the clock. secondsTime == 0 means "best
// effort immediate": pin frameTime to the current line position
// instead of deriving a line time from an uncalibrated seconds value.
func (q *Queue) SetFrameTime(frameTime uint64, secondsTime float64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var lineTime int64
	if secondsTime == 0 {
		lineTime = int64(q.nowLineTimeLocked())
	} else {
		lineTime = int64(math.Round((secondsTime - q.secondsTimeOffset) * q.format.SampleRate))
	}

	previous := q.frameTimeOffset
	q.frameTimeOffset = int64(frameTime) - lineTime

	q.logger.WithFields(logrus.Fields{
		"adjustment_frames": q.frameTimeOffset - previous,
		"frame_time":        frameTime,
		"seconds_time":      secondsTime,
	}).Debug("clock retargeted")
}

func (q *Queue) convertFrameToLineTimeLocked(frameTime uint64) int64 {
	return int64(frameTime) - q.frameTimeOffset
}

// nowLineTimeLocked must be called with q.mu held. It queries the sink
// for its current 32-bit head position and reconstructs the 64-bit
// monotonic position, detecting at most one wraparound per call.
func (q *Queue) nowLineTimeLocked() uint64 {
	state, err := q.sink.PlayState()
	if err != nil {
		q.logger.WithError(err).Warn("failed to query sink play state")
		return q.totalPosition64 + uint64(q.lastPosition32)
	}
	if state != SinkPlaying {
		return 0
	}

	pos32, err := q.sink.PlaybackHeadPosition()
	if err != nil {
		q.logger.WithError(err).Warn("failed to query sink head position")
		return q.totalPosition64 + uint64(q.lastPosition32)
	}

	if q.positionValid && pos32 < q.lastPosition32 && q.lastPosition32 > 0x80000000 && pos32 < 0x7FFFFFFF {
		q.totalPosition64 += 0x100000000
	}
	q.lastPosition32 = pos32
	q.positionValid = true

	return q.totalPosition64 + uint64(pos32)
}
