package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNTP64RoundTrip(t *testing.T) {
	cases := []float64{0, 1, 0.5, 3608523412.125, 2208988800.0}

	for _, seconds := range cases {
		ntp := SecondsToNTP64(seconds)
		got := NTP64ToSeconds(ntp)

		require.InDelta(t, seconds, got, 1e-6, "round trip for %v", seconds)
	}
}

func TestTimingRequestRoundTrip(t *testing.T) {
	req := TimingRequest{SendTime: SecondsToNTP64(1234.5)}

	data, err := MarshalTimingRequest(req, 7)
	require.NoError(t, err)

	got, err := UnmarshalTimingRequest(data)
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestTimingResponseRoundTrip(t *testing.T) {
	resp := TimingResponse{
		ReceivedTime:  SecondsToNTP64(100),
		ReferenceTime: SecondsToNTP64(99.99),
		SendTime:      SecondsToNTP64(100.01),
	}

	data, err := MarshalTimingResponse(resp, 1)
	require.NoError(t, err)

	got, err := UnmarshalTimingResponse(data)
	require.NoError(t, err)
	require.Equal(t, resp, got)
}

func TestSyncRoundTrip(t *testing.T) {
	sync := Sync{
		Time:                  SecondsToNTP64(42.5),
		TimeStamp:             1000,
		TimeStampMinusLatency: 900,
	}

	data, err := MarshalSync(sync, 3)
	require.NoError(t, err)

	got, err := UnmarshalSync(data)
	require.NoError(t, err)
	require.Equal(t, sync, got)
}

func TestUnmarshalRejectsShortPayload(t *testing.T) {
	// A valid Sync packet, truncated so only 2 payload bytes remain.
	data, err := MarshalSync(Sync{}, 0)
	require.NoError(t, err)

	truncated := data[:len(data)-syncPayloadLen+2]
	_, err = UnmarshalSync(truncated)
	require.Error(t, err)
}
