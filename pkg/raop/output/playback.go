package output

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// runLoop is the single dedicated task that owns the sink. It never
// shares an executor with network I/O, and Start launches it in its
// own goroutine once the sink has reached SinkPlaying.
func (q *Queue) runLoop() {
	defer q.finish()

	lineMuted := true
	warnedGap := false

	for !q.closing.Load() {
		frameTime, payload, ok := q.packets.Min()
		if !ok {
			if !lineMuted {
				lineMuted = true
				q.muteLine()
				q.logger.Debug("queue empty, muting line")
			}
			if !q.writeRawRetry(q.silence) {
				return // sink fault; the deferred finish mutes, stops and releases
			}
			continue
		}

		entryLineTime := q.ConvertFrameToLineTime(frameTime)
		nextLT := int64(q.NextLineTime())
		gapFrames := entryLineTime - nextLT
		framesPerPacket := int64(q.format.FramesPerPacket)

		switch {
		case gapFrames < -framesPerPacket:
			// Irrecoverably late: drop, no silence written this
			// iteration.
			q.packets.Remove(frameTime)
			q.logger.WithFields(logrus.Fields{
				"frame_time": frameTime,
				"late_by":    -gapFrames,
			}).Warn("queued packet scheduled too far in the past, dropping")
			continue

		case gapFrames < framesPerPacket:
			warnedGap = false
			if lineMuted {
				lineMuted = false
				q.applyGain()
				q.logger.Debug("audio data available, un-muting line")
			} else if q.currentGainMismatch() {
				q.applyGain()
			}

			q.packets.Remove(frameTime)
			payload = alignToFrames(payload, q.format.BytesPerFrame, q.logger)
			if !q.writeAligned(payload, entryLineTime) {
				return // sink fault; the deferred finish mutes, stops and releases
			}

		default:
			if !warnedGap {
				warnedGap = true
				q.logger.WithFields(logrus.Fields{
					"next_line_time": nextLT,
					"gap_frames":     gapFrames,
				}).Warn("audio data missing, filling with silence")
			}
			if !q.writeRawRetry(q.silence) {
				return // sink fault; the deferred finish mutes, stops and releases
			}
		}
	}
}

// alignToFrames truncates payload to a whole number of frames,
// warning on the dropped remainder.
func alignToFrames(payload []byte, bytesPerFrame int, logger *logrus.Logger) []byte {
	if rem := len(payload) % bytesPerFrame; rem != 0 {
		logger.WithField("dropped_bytes", rem).Warn("payload length not a multiple of bytesPerFrame, truncating")
		payload = payload[:len(payload)-rem]
	}
	return payload
}

// writeAligned guarantees samples land at targetLT, inserting silence
// for a gap or trimming the payload for an overlap. Returns false if
// a sink fault aborted the write.
func (q *Queue) writeAligned(samples []byte, targetLT int64) bool {
	bytesPerFrame := int64(q.format.BytesPerFrame)
	sampleRate := q.format.SampleRate

	for !q.closing.Load() {
		endLT := int64(q.NextLineTime())
		errFrames := targetLT - endLT
		errSeconds := float64(errFrames) / sampleRate

		if absFloat(errSeconds) <= TimingPrecision {
			remapChannels(samples, q.format)
			return q.writeRawRetry(samples)
		}

		if errFrames > 0 {
			if !q.writeRawRetry(generateSilenceBytes(int(errFrames), q.format.BytesPerFrame)) {
				return false
			}
			continue
		}

		// Overlap: the payload starts before the line's current end.
		advanceBytes := (endLT - targetLT) * bytesPerFrame
		if advanceBytes >= int64(len(samples)) {
			// The overlap consumes the whole payload: drop the packet
			// rather than clamp and replay an already-written region.
			q.logger.Debug("overlap consumes entire payload, dropping packet")
			return true
		}
		samples = samples[advanceBytes:]
		targetLT = endLT
	}
	return true
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// remapChannels performs the in-place channel duplication needed to
// play a mono source as left-only or right-only on a stereo line.
// Only stereo 16-bit (bytesPerFrame == 4) payloads are affected.
func remapChannels(samples []byte, format Format) {
	if format.BytesPerFrame != 4 {
		return
	}

	switch format.ChannelMode {
	case ChannelOnlyLeft:
		for i := 0; i+4 <= len(samples); i += 4 {
			samples[i+2] = samples[i]
			samples[i+3] = samples[i+1]
		}
	case ChannelOnlyRight:
		for i := 0; i+4 <= len(samples); i += 4 {
			samples[i] = samples[i+2]
			samples[i+1] = samples[i+3]
		}
	}
}

// writeRawRetry drives the sink write discipline: retry on
// short/zero writes, abort on ErrSinkFault, advance
// lineFramesWritten by the frames actually written.
func (q *Queue) writeRawRetry(data []byte) bool {
	bytesPerFrame := q.format.BytesPerFrame

	for len(data) > 0 && !q.closing.Load() {
		n, err := q.sink.Write(data)
		if err != nil {
			if errors.Is(err, ErrSinkFault) {
				q.logger.WithError(err).Error("sink fault, aborting playback loop")
				return false
			}
			q.logger.WithError(err).Warn("sink write error, retrying")
		}
		if n < 0 {
			n = 0
		}
		if n > 0 {
			data = data[n:]
			q.advanceLineFramesWritten(n / bytesPerFrame)
		}
	}
	return true
}

func (q *Queue) advanceLineFramesWritten(frames int) {
	q.mu.Lock()
	q.lineFramesWritten += uint64(frames)
	q.mu.Unlock()
}

func (q *Queue) muteLine() {
	q.setLineGain(0)
}

func (q *Queue) applyGain() {
	q.mu.Lock()
	gain := q.requestedGain
	q.mu.Unlock()
	q.setLineGain(gain)
}

func (q *Queue) currentGainMismatch() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.trackVolume != q.requestedGain
}

func (q *Queue) setLineGain(gain float32) {
	if err := q.sink.SetVolume(gain); err != nil {
		q.logger.WithError(err).Warn("failed to set sink volume")
	}
	q.mu.Lock()
	q.trackVolume = gain
	q.mu.Unlock()
}

// finish implements the playback goroutine's exit responsibilities:
// mute, stop, release, then signal Done.
func (q *Queue) finish() {
	q.muteLine()
	if err := q.sink.Stop(); err != nil {
		q.logger.WithError(err).Warn("failed to stop sink")
	}
	if err := q.sink.Release(); err != nil {
		q.logger.WithError(err).Warn("failed to release sink")
	}
	close(q.done)
}
