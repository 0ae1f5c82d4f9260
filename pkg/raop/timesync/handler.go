package timesync

import (
	"github.com/sirupsen/logrus"

	"github.com/airsync-go/raopcore/pkg/raop/clock"
	"github.com/airsync-go/raopcore/pkg/raop/wire"
)

// Handler retargets an audio clock's frame-to-line mapping from
// incoming Sync messages, correcting for transmission delay using a
// Synchronizer's offset estimate once one is available.
type Handler struct {
	clock monotonicSetter
	sync  *Synchronizer
	logger *logrus.Logger
}

// monotonicSetter is the subset of clock.Clock a Handler needs.
type monotonicSetter interface {
	SetFrameTime(frameTime uint64, secondsTime float64)
}

var _ monotonicSetter = clock.Clock(nil)

// NewHandler constructs a Handler that retargets clk using offset
// estimates from sync.
func NewHandler(clk clock.Clock, sync *Synchronizer, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{clock: clk, sync: sync, logger: logger}
}

// HandleSync applies an incoming Sync message to the clock.
func (h *Handler) HandleSync(msg wire.Sync) {
	remoteSecondsTime := wire.NTP64ToSeconds(msg.Time)

	localSecondsTime, ok := h.sync.ConvertRemoteToLocal(remoteSecondsTime)
	if !ok {
		h.logger.Warn("not yet time-synchronized, cannot correct latency of sync packet")
		h.clock.SetFrameTime(uint64(msg.TimeStampMinusLatency), 0.0)
		return
	}

	h.clock.SetFrameTime(uint64(msg.TimeStampMinusLatency), localSecondsTime)
}
