package output

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testFormat() Format {
	return Format{
		SampleRate:      44100,
		BytesPerFrame:   4,
		FramesPerPacket: 352,
		ChannelMode:     ChannelStereo,
	}
}

func testQueue(t *testing.T, sink *fakeSink) *Queue {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(testFormat(), sink, logger)
}

// S1: a packet scheduled exactly at the line's current write position
// is written through unchanged.
func TestWriteAlignedExact(t *testing.T) {
	q := testQueue(t, newFakeSink())

	payload := make([]byte, 16) // 4 frames
	ok := q.writeAligned(payload, 0)

	require.True(t, ok)
	require.Equal(t, uint64(4), q.NextLineTime())
}

// S4: a gap between the current write position and the target time is
// filled with silence before the payload is written.
func TestWriteAlignedGapFilledWithSilence(t *testing.T) {
	sink := newFakeSink()
	q := testQueue(t, sink)

	payload := make([]byte, 16)
	for i := range payload {
		payload[i] = 0xAB
	}

	ok := q.writeAligned(payload, 100)
	require.True(t, ok)
	require.Equal(t, uint64(104), q.NextLineTime())

	// First 400 bytes (100 frames) are the 0x80/0x00 silence pattern.
	require.Equal(t, byte(0x80), sink.written[0])
	require.Equal(t, byte(0x00), sink.written[1])
	require.Equal(t, byte(0xAB), sink.written[400])
}

// S5: a payload that overlaps the already-written region is trimmed
// to start exactly where the line left off.
func TestWriteAlignedOverlapTrimmed(t *testing.T) {
	sink := newFakeSink()
	q := testQueue(t, sink)
	q.advanceLineFramesWritten(120) // pretend 120 frames already written

	payload := make([]byte, 800) // 200 frames, target overlaps the first 100
	for i := range payload {
		payload[i] = byte(i)
	}

	ok := q.writeAligned(payload, 20)
	require.True(t, ok)
	require.Equal(t, uint64(220), q.NextLineTime())
	require.Equal(t, payload[400:], sink.written)
}

// An overlap that consumes the whole payload is dropped rather than
// clamped and replayed.
func TestWriteAlignedOverlapDropsFullyConsumedPayload(t *testing.T) {
	sink := newFakeSink()
	q := testQueue(t, sink)
	q.advanceLineFramesWritten(300)

	payload := make([]byte, 16) // 4 frames, entirely behind the line
	ok := q.writeAligned(payload, 0)

	require.True(t, ok)
	require.Empty(t, sink.written)
	require.Equal(t, uint64(300), q.NextLineTime())
}

// S2: a packet whose scheduling delay is more negative than its own
// duration is rejected outright.
func TestEnqueueRejectsTooLatePacket(t *testing.T) {
	sink := newFakeSink()
	q := testQueue(t, sink)
	q.advanceLineFramesWritten(100000)
	q.SetFrameTime(0, 0)

	ok := q.Enqueue(0, make([]byte, 16))
	require.False(t, ok)
	require.Equal(t, 0, q.packets.Len())
}

// S3: a packet scheduled further in the future than the maximum queue
// length is rejected.
func TestEnqueueRejectsTooEarlyPacket(t *testing.T) {
	q := testQueue(t, newFakeSink())
	q.SetFrameTime(0, 0)

	farFuture := uint64(QueueLengthMaxSeconds*testFormat().SampleRate) + 100000
	ok := q.Enqueue(farFuture, make([]byte, 16))
	require.False(t, ok)
	require.Equal(t, 0, q.packets.Len())
}

func TestEnqueueAcceptsInRangePacket(t *testing.T) {
	q := testQueue(t, newFakeSink())
	q.SetFrameTime(1000, 0)

	ok := q.Enqueue(1000, make([]byte, 16))
	require.True(t, ok)
	require.Equal(t, 1, q.packets.Len())
}

// S7: the 32-bit device position counter wraps through 2^32 and the
// reconstructed 64-bit line time must add exactly one wrap, not
// 0xFFFFFFFF.
func TestNowLineTimeReconstructsWraparound(t *testing.T) {
	sink := newFakeSink()
	q := testQueue(t, sink)
	require.NoError(t, sink.Play())

	sink.setPosition(0xFFFFFF00)
	require.Equal(t, uint64(0xFFFFFF00), q.NowLineTime())

	sink.setPosition(0xFFFFFFFF)
	require.Equal(t, uint64(0xFFFFFFFF), q.NowLineTime())

	sink.setPosition(0x00000100)
	require.Equal(t, uint64(0x100000100), q.NowLineTime())

	sink.setPosition(0x00000200)
	require.Equal(t, uint64(0x100000200), q.NowLineTime())
}

func TestSetFrameTimeImmediatePinsToCurrentLinePosition(t *testing.T) {
	sink := newFakeSink()
	q := testQueue(t, sink)
	require.NoError(t, sink.Play())
	sink.setPosition(500)

	q.SetFrameTime(9000, 0)

	require.Equal(t, uint64(9000), q.NowFrameTime())
}

func TestNowFrameTimeIsConsistentSnapshot(t *testing.T) {
	sink := newFakeSink()
	q := testQueue(t, sink)
	require.NoError(t, sink.Play())
	sink.setPosition(50)

	q.SetFrameTime(1000, 0)
	q.advanceLineFramesWritten(50)

	require.Equal(t, q.NextFrameTime(), q.NowFrameTime())
}
