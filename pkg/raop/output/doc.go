// Package output implements the audio output queue: a time-indexed
// packet buffer that schedules decoded PCM against a local device
// clock, fills gaps with silence, drops packets that arrive too late
// or too far in the future, mutes cleanly during underruns, and
// survives a 32-bit playback-head counter wrap.
//
// Queue implements clock.Clock directly, the same way the original
// AudioOutputQueue implements AudioClock: the line-position state the
// clock contract reads (lineFramesWritten, the 32→64 bit position
// reconstruction) is owned by the queue's playback goroutine under the
// same mutex that protects the clock's offset fields.
package output
