package timesync

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/airsync-go/raopcore/pkg/raop/wire"
)

type fakeClock struct {
	nowSeconds float64
	frameTime  uint64
	secondsArg float64
}

func (c *fakeClock) NowLineTime() uint64                              { return 0 }
func (c *fakeClock) NextLineTime() uint64                             { return 0 }
func (c *fakeClock) NowFrameTime() uint64                             { return 0 }
func (c *fakeClock) NextFrameTime() uint64                            { return 0 }
func (c *fakeClock) NowSecondsTime() float64                          { return c.nowSeconds }
func (c *fakeClock) NextSecondsTime() float64                         { return c.nowSeconds }
func (c *fakeClock) ConvertFrameToSecondsTime(frameTime uint64) float64 { return 0 }
func (c *fakeClock) ConvertFrameToLineTime(frameTime uint64) int64    { return 0 }
func (c *fakeClock) SetFrameTime(frameTime uint64, secondsTime float64) {
	c.frameTime = frameTime
	c.secondsArg = secondsTime
}

type fakeTransport struct {
	sent []wire.TimingRequest
}

func (t *fakeTransport) SendTimingRequest(req wire.TimingRequest) error {
	t.sent = append(t.sent, req)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// S6: after enough TimingResponses, ConvertRemoteToLocal converges
// toward the true offset between remote and local clocks.
func TestSynchronizerConvergesOnOffset(t *testing.T) {
	clk := &fakeClock{nowSeconds: 1000.0}
	s := NewSynchronizer(clk, &fakeTransport{}, quietLogger())

	const trueOffset = 5.0 // remote is 5s ahead of local

	for i := 0; i < 50; i++ {
		local := 1000.0 + float64(i)
		remote := local + trueOffset
		clk.nowSeconds = local + 0.0005

		resp := wire.TimingResponse{
			ReferenceTime: wire.SecondsToNTP64(local),
			ReceivedTime:  wire.SecondsToNTP64(remote),
			SendTime:      wire.SecondsToNTP64(remote),
		}
		s.HandleTimingResponse(resp)
	}

	local, ok := s.ConvertRemoteToLocal(1042.0 + trueOffset)
	require.True(t, ok)
	require.InDelta(t, 1042.0, local, 0.01)
}

func TestSynchronizerBeforeAnyResponseIsNotOK(t *testing.T) {
	clk := &fakeClock{nowSeconds: 1.0}
	s := NewSynchronizer(clk, &fakeTransport{}, quietLogger())

	_, ok := s.ConvertRemoteToLocal(42.0)
	require.False(t, ok)
}

func TestHandlerFallsBackToZeroOffsetBeforeSync(t *testing.T) {
	clk := &fakeClock{nowSeconds: 1.0}
	s := NewSynchronizer(clk, &fakeTransport{}, quietLogger())
	h := NewHandler(clk, s, quietLogger())

	h.HandleSync(wire.Sync{
		Time:                  wire.SecondsToNTP64(123.0),
		TimeStampMinusLatency: 555,
	})

	require.Equal(t, uint64(555), clk.frameTime)
	require.Equal(t, 0.0, clk.secondsArg)
}

func TestHandlerCorrectsForTransmissionDelayAfterSync(t *testing.T) {
	clk := &fakeClock{nowSeconds: 1000.0}
	s := NewSynchronizer(clk, &fakeTransport{}, quietLogger())

	resp := wire.TimingResponse{
		ReferenceTime: wire.SecondsToNTP64(1000.0),
		ReceivedTime:  wire.SecondsToNTP64(1002.0),
		SendTime:      wire.SecondsToNTP64(1002.0),
	}
	clk.nowSeconds = 1000.0005
	s.HandleTimingResponse(resp)

	h := NewHandler(clk, s, quietLogger())
	h.HandleSync(wire.Sync{
		Time:                  wire.SecondsToNTP64(1010.0),
		TimeStampMinusLatency: 777,
	})

	require.Equal(t, uint64(777), clk.frameTime)
	require.InDelta(t, 1008.0, clk.secondsArg, 0.01)
}
