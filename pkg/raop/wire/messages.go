package wire

import (
	"fmt"

	"github.com/pion/rtp"
)

// Payload types for the RAOP control messages this package frames.
const (
	PayloadTypeTimingRequest  uint8 = 82
	PayloadTypeTimingResponse uint8 = 83
	PayloadTypeSync           uint8 = 84
)

// TimingRequest carries a single send timestamp; the other two fields
// are placeholders filled in by the sender on response.
type TimingRequest struct {
	ReceivedTime  uint64 // NTP-64, zero on the wire, filled by the sender
	ReferenceTime uint64 // NTP-64, zero on the wire, filled by the sender
	SendTime      uint64 // NTP-64, seconds the request left this host
}

// TimingResponse carries all three timestamps populated by the sender.
type TimingResponse struct {
	ReceivedTime  uint64 // NTP-64, sender's arrival time of our request
	ReferenceTime uint64 // NTP-64, sender's record of our original send
	SendTime      uint64 // NTP-64, sender's transmit time
}

// Sync carries the sender's current wall-clock/frame-time triple.
type Sync struct {
	Time                  uint64 // NTP-64, sender clock at send time
	TimeStamp             uint32 // RTP frame timestamp
	TimeStampMinusLatency uint32 // RTP frame timestamp minus output latency
}

const (
	timingPayloadLen = 24 // 3 NTP-64 fields
	syncPayloadLen   = 16 // 1 NTP-64 field + 2 uint32 fields
)

func newHeader(payloadType uint8, seq uint16) rtp.Header {
	return rtp.Header{
		Version:        2,
		PayloadType:    payloadType,
		SequenceNumber: seq,
	}
}

// MarshalTimingRequest frames a TimingRequest as an RTP packet.
func MarshalTimingRequest(req TimingRequest, seq uint16) ([]byte, error) {
	payload := make([]byte, timingPayloadLen)
	putUint64(payload[0:8], req.ReceivedTime)
	putUint64(payload[8:16], req.ReferenceTime)
	putUint64(payload[16:24], req.SendTime)

	pkt := &rtp.Packet{Header: newHeader(PayloadTypeTimingRequest, seq), Payload: payload}
	return pkt.Marshal()
}

// UnmarshalTimingResponse parses an RTP-framed TimingResponse.
func UnmarshalTimingResponse(data []byte) (TimingResponse, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return TimingResponse{}, fmt.Errorf("wire: unmarshal timing response: %w", err)
	}
	if len(pkt.Payload) < timingPayloadLen {
		return TimingResponse{}, fmt.Errorf("wire: timing response payload too short: %d bytes", len(pkt.Payload))
	}

	return TimingResponse{
		ReceivedTime:  getUint64(pkt.Payload[0:8]),
		ReferenceTime: getUint64(pkt.Payload[8:16]),
		SendTime:      getUint64(pkt.Payload[16:24]),
	}, nil
}

// MarshalSync frames a Sync message as an RTP packet. Exposed mainly
// for tests and for senders exercising this module against a real
// client; a receiver only ever unmarshals Sync messages.
func MarshalSync(sync Sync, seq uint16) ([]byte, error) {
	payload := make([]byte, syncPayloadLen)
	putUint64(payload[0:8], sync.Time)
	putUint32(payload[8:12], sync.TimeStamp)
	putUint32(payload[12:16], sync.TimeStampMinusLatency)

	pkt := &rtp.Packet{Header: newHeader(PayloadTypeSync, seq), Payload: payload}
	return pkt.Marshal()
}

// UnmarshalSync parses an RTP-framed Sync message.
func UnmarshalSync(data []byte) (Sync, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return Sync{}, fmt.Errorf("wire: unmarshal sync: %w", err)
	}
	if len(pkt.Payload) < syncPayloadLen {
		return Sync{}, fmt.Errorf("wire: sync payload too short: %d bytes", len(pkt.Payload))
	}

	return Sync{
		Time:                  getUint64(pkt.Payload[0:8]),
		TimeStamp:             getUint32(pkt.Payload[8:12]),
		TimeStampMinusLatency: getUint32(pkt.Payload[12:16]),
	}, nil
}

// UnmarshalTimingRequest parses an RTP-framed TimingRequest. Exposed
// for sender-side test fixtures that generate requests this module's
// Synchronizer would otherwise emit.
func UnmarshalTimingRequest(data []byte) (TimingRequest, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return TimingRequest{}, fmt.Errorf("wire: unmarshal timing request: %w", err)
	}
	if len(pkt.Payload) < timingPayloadLen {
		return TimingRequest{}, fmt.Errorf("wire: timing request payload too short: %d bytes", len(pkt.Payload))
	}

	return TimingRequest{
		ReceivedTime:  getUint64(pkt.Payload[0:8]),
		ReferenceTime: getUint64(pkt.Payload[8:16]),
		SendTime:      getUint64(pkt.Payload[16:24]),
	}, nil
}

// MarshalTimingResponse frames a TimingResponse as an RTP packet.
// Exposed for sender-side test fixtures.
func MarshalTimingResponse(resp TimingResponse, seq uint16) ([]byte, error) {
	payload := make([]byte, timingPayloadLen)
	putUint64(payload[0:8], resp.ReceivedTime)
	putUint64(payload[8:16], resp.ReferenceTime)
	putUint64(payload[16:24], resp.SendTime)

	pkt := &rtp.Packet{Header: newHeader(PayloadTypeTimingResponse, seq), Payload: payload}
	return pkt.Marshal()
}
