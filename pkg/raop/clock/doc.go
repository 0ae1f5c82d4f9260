// Package clock defines the contract that maps local sample position
// (line time), the sender's frame position (frame time) and wall-clock
// seconds onto each other.
//
// There is deliberately no constructor here: the concrete
// implementation lives on output.Queue, because the line-position
// bookkeeping the contract depends on (lineFramesWritten, the 32→64
// bit device position reconstruction) is owned by the playback queue,
// under the same mutex that protects the clock's offset fields.
package clock
