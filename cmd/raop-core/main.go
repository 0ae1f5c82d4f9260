// Command raop-core runs a standalone RAOP timing/buffering/playback
// receiver: it advertises itself via mDNS, accepts TimingResponse and
// Sync messages over UDP, keeps an audio clock synchronized to the
// sender, and drains a scheduled output queue to a real sound device.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/airsync-go/raopcore/internal/discovery"
	"github.com/airsync-go/raopcore/internal/status"
	"github.com/airsync-go/raopcore/pkg/raop/output"
	"github.com/airsync-go/raopcore/pkg/raop/timesync"
	"github.com/airsync-go/raopcore/pkg/raop/wire"
)

var (
	name        = flag.String("name", "", "receiver name advertised via mDNS (default: hostname)")
	timingPort  = flag.Int("timing-port", 6002, "UDP port for TimingRequest/TimingResponse exchange")
	controlPort = flag.Int("control-port", 6001, "UDP port for Sync messages")
	remoteAddr  = flag.String("remote", "", "sender's timing UDP address (host:port); required to send timing requests")
	sampleRate  = flag.Float64("rate", 44100, "audio sample rate in Hz")
	stereo      = flag.Bool("stereo", true, "stereo (16-bit, 4 bytes/frame) vs mono (2 bytes/frame)")
	noMDNS      = flag.Bool("no-mdns", false, "disable mDNS advertisement")
	debug       = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	receiverName := *name
	if receiverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		receiverName = fmt.Sprintf("%s-raop-core", hostname)
	}

	format := output.Format{
		SampleRate:      *sampleRate,
		BytesPerFrame:   2,
		FramesPerPacket: 352,
		ChannelMode:     output.ChannelStereo,
	}
	if *stereo {
		format.BytesPerFrame = 4
	}

	sink, err := output.NewOtoSink(format)
	if err != nil {
		logger.WithError(err).Fatal("failed to open audio output")
	}

	queue := output.New(format, sink, logger)

	timingConn, err := net.ListenUDP("udp", &net.UDPAddr{Port: *timingPort})
	if err != nil {
		logger.WithError(err).Fatal("failed to open timing socket")
	}
	defer timingConn.Close()

	controlConn, err := net.ListenUDP("udp", &net.UDPAddr{Port: *controlPort})
	if err != nil {
		logger.WithError(err).Fatal("failed to open control socket")
	}
	defer controlConn.Close()

	transport := &udpTimingTransport{conn: timingConn}
	if *remoteAddr != "" {
		addr, err := net.ResolveUDPAddr("udp", *remoteAddr)
		if err != nil {
			logger.WithError(err).Fatal("failed to resolve remote timing address")
		}
		transport.setRemote(addr)
	}

	synchronizer := timesync.NewSynchronizer(queue, transport, logger)
	handler := timesync.NewHandler(queue, synchronizer, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.WithField("signal", sig).Info("shutting down")
		cancel()
		queue.Close()
	}()

	if err := queue.Start(ctx); err != nil {
		logger.WithError(err).Fatal("failed to start output queue")
	}

	go synchronizer.Run(ctx)
	go readTimingResponses(ctx, timingConn, transport, synchronizer, logger)
	go readSyncMessages(ctx, controlConn, handler, logger)

	if !*noMDNS {
		sessionID := uuid.NewString()
		adv := discovery.NewAdvertiser(receiverName, *controlPort, []string{"tp=UDP", "sm=false", "sessionid=" + sessionID}, logger)
		if err := adv.Run(ctx); err != nil {
			logger.WithError(err).Warn("failed to advertise mDNS record")
		}
	}

	volCtrl := status.NewVolumeControl()
	program := status.Run(receiverName, volCtrl)
	go pumpDashboard(ctx, program, queue, synchronizer, volCtrl)

	if _, err := program.Run(); err != nil {
		logger.WithError(err).Fatal("dashboard exited with error")
	}

	cancel()
	queue.Close()
	<-queue.Done()
}

// udpTimingTransport sends TimingRequests to the configured remote
// address or, if none was configured, to the address the first timing
// response arrived from, and assigns increasing sequence numbers.
type udpTimingTransport struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
	seq    uint16
}

func (t *udpTimingTransport) setRemote(addr *net.UDPAddr) {
	t.remote = addr
}

func (t *udpTimingTransport) SendTimingRequest(req wire.TimingRequest) error {
	if t.remote == nil {
		return fmt.Errorf("no remote timing address known yet")
	}

	t.seq++
	data, err := wire.MarshalTimingRequest(req, t.seq)
	if err != nil {
		return fmt.Errorf("marshal timing request: %w", err)
	}
	_, err = t.conn.WriteToUDP(data, t.remote)
	return err
}

func readTimingResponses(ctx context.Context, conn *net.UDPConn, transport *udpTimingTransport, synchronizer *timesync.Synchronizer, logger *logrus.Logger) {
	buf := make([]byte, 2048)
	for {
		if ctx.Err() != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}

		if transport.remote == nil {
			transport.setRemote(remote)
		}

		resp, err := wire.UnmarshalTimingResponse(buf[:n])
		if err != nil {
			logger.WithError(err).Debug("dropping malformed timing response")
			continue
		}
		synchronizer.HandleTimingResponse(resp)
	}
}

func readSyncMessages(ctx context.Context, conn *net.UDPConn, handler *timesync.Handler, logger *logrus.Logger) {
	buf := make([]byte, 2048)
	for {
		if ctx.Err() != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}

		msg, err := wire.UnmarshalSync(buf[:n])
		if err != nil {
			logger.WithError(err).Debug("dropping malformed sync message")
			continue
		}
		handler.HandleSync(msg)
	}
}

func pumpDashboard(ctx context.Context, program *tea.Program, queue *output.Queue, synchronizer *timesync.Synchronizer, volCtrl *status.VolumeControl) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case gain := <-volCtrl.Changes:
			queue.SetGain(gain.Gain)
		case <-ticker.C:
			offset, ok := synchronizer.OffsetSeconds()
			program.Send(status.StatusMsg{
				Connected: true,
				Synced:    ok,
				OffsetMS:  offset * 1000,
				Stats:     queue.Stats(),
			})
		}
	}
}
