// Package wire implements the small slice of the RAOP RTP
// control-message surface this module consumes: TimingRequest,
// TimingResponse and Sync. Packet framing and decode for the audio
// data path itself live elsewhere — this package only carries the
// three timing/sync message kinds exchanged over the timing and control
// channels.
//
// Messages are framed as RTP packets (github.com/pion/rtp) with a
// fixed-point NTP-64 payload, the same shape toxcore's av/rtp package
// uses to frame Opus audio frames over a different transport.
package wire
