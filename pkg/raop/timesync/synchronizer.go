package timesync

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/airsync-go/raopcore/pkg/raop/avg"
	"github.com/airsync-go/raopcore/pkg/raop/clock"
	"github.com/airsync-go/raopcore/pkg/raop/wire"
)

// RequestInterval is the period between outgoing TimingRequests.
const RequestInterval = 3 * time.Second

// Transport sends an already-framed TimingRequest to the remote peer.
// It is the network-facing seam; Synchronizer itself never touches a
// socket.
type Transport interface {
	SendTimingRequest(req wire.TimingRequest) error
}

// Synchronizer maintains a weighted running estimate of the offset
// between the local audio clock's seconds time and the remote
// sender's NTP clock, from round-trip TimingRequest/TimingResponse
// exchanges.
type Synchronizer struct {
	clock     clock.Clock
	transport Transport
	logger    *logrus.Logger

	offset avg.Averager
}

// NewSynchronizer constructs a Synchronizer bound to clk for local
// seconds-time readings and transport for sending requests.
func NewSynchronizer(clk clock.Clock, transport Transport, logger *logrus.Logger) *Synchronizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Synchronizer{clock: clk, transport: transport, logger: logger}
}

// Run sends a TimingRequest every RequestInterval until ctx is done.
// Callers launch this in its own goroutine; it never shares a
// goroutine with playback or with response handling.
func (s *Synchronizer) Run(ctx context.Context) {
	ticker := time.NewTicker(RequestInterval)
	defer ticker.Stop()

	s.sendRequest()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sendRequest()
		}
	}
}

func (s *Synchronizer) sendRequest() {
	req := wire.TimingRequest{
		ReceivedTime:  0, // filled in by the remote peer
		ReferenceTime: 0, // filled in by the remote peer
		SendTime:      wire.SecondsToNTP64(s.clock.NowSecondsTime()),
	}
	if err := s.transport.SendTimingRequest(req); err != nil {
		s.logger.WithError(err).Warn("failed to send timing request")
	}
}

// HandleTimingResponse folds a response into the running offset
// estimate, weighting it by how tight the round trip was.
func (s *Synchronizer) HandleTimingResponse(resp wire.TimingResponse) {
	localReceive := s.clock.NowSecondsTime()

	referenceTime := wire.NTP64ToSeconds(resp.ReferenceTime)
	receivedTime := wire.NTP64ToSeconds(resp.ReceivedTime)
	sendTime := wire.NTP64ToSeconds(resp.SendTime)

	localSecondsTime := (localReceive + referenceTime) * 0.5
	remoteSecondsTime := (receivedTime + sendTime) * 0.5
	remoteSecondsOffset := remoteSecondsTime - localSecondsTime

	localInterval := localReceive - referenceTime
	remoteInterval := sendTime - receivedTime
	transmissionTime := localInterval - remoteInterval
	if transmissionTime < 0 {
		transmissionTime = 0
	}
	weight := 1e-6 / (transmissionTime + 1e-3)

	s.offset.Add(remoteSecondsOffset, weight)

	s.logger.WithFields(logrus.Fields{
		"offset_s":            remoteSecondsOffset,
		"weight":              weight,
		"transmission_time_s": transmissionTime,
	}).Debug("timing response processed")
}

// ConvertRemoteToLocal converts a remote NTP seconds time to local
// seconds time using the current offset estimate. ok is false until
// at least one TimingResponse has been processed.
func (s *Synchronizer) ConvertRemoteToLocal(remoteSecondsTime float64) (float64, bool) {
	offset, ok := s.offset.GetOK()
	if !ok {
		return 0, false
	}
	return remoteSecondsTime - offset, true
}

// OffsetSeconds returns the current remote-minus-local seconds offset
// estimate. ok is false until at least one TimingResponse has been
// processed.
func (s *Synchronizer) OffsetSeconds() (float64, bool) {
	return s.offset.GetOK()
}
