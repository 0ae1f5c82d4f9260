package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// OtoSink is a Sink backed by github.com/ebitengine/oto/v3, grounded
// on the teacher's persistent io.Pipe-fed player. oto exposes neither
// a hardware head position nor a stop/pause transition, so both are
// synthesized here: PlaybackHeadPosition counts frames actually
// handed to the pipe, and PlayState tracks Play/Stop calls rather than
// querying the device.
type OtoSink struct {
	format Format

	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter

	mu       sync.Mutex
	state    SinkState
	volume   float32
	position atomic.Uint32
}

// NewOtoSink creates an oto context for format and returns a Sink
// driving it. Only one oto.Context may exist per process; callers
// must not call this more than once.
func NewOtoSink(format Format) (*OtoSink, error) {
	channels := 1
	if format.BytesPerFrame == 4 {
		channels = 2
	}

	op := &oto.NewContextOptions{
		SampleRate:   int(format.SampleRate),
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   0,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("output: create oto context: %w", err)
	}
	<-readyChan

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.SetVolume(1)

	return &OtoSink{
		format:     format,
		otoCtx:     ctx,
		player:     player,
		pipeReader: pr,
		pipeWriter: pw,
		volume:     1,
	}, nil
}

func (s *OtoSink) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.player.Play()
	s.state = SinkPlaying
	return nil
}

func (s *OtoSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.player.Pause()
	s.state = SinkStopped
	return nil
}

func (s *OtoSink) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pipeWriter.Close(); err != nil {
		return fmt.Errorf("%w: close pipe writer: %v", ErrSinkFault, err)
	}
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("%w: close player: %v", ErrSinkFault, err)
	}
	s.state = SinkStopped
	return nil
}

// Write feeds data to the persistent player's pipe. oto's pipe
// consumes a write in full or blocks, so this never returns a
// partial-write error in practice; it still reports n accurately.
func (s *OtoSink) Write(p []byte) (int, error) {
	n, err := s.pipeWriter.Write(p)
	if n > 0 {
		s.position.Add(uint32(n / s.format.BytesPerFrame))
	}
	if err != nil {
		return n, fmt.Errorf("%w: pipe write: %v", ErrSinkFault, err)
	}
	return n, nil
}

func (s *OtoSink) SetVolume(linear float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = linear
	s.player.SetVolume(float64(linear))
	return nil
}

// PlaybackHeadPosition returns the frame count written to the pipe so
// far, truncated to 32 bits, standing in for a hardware position
// counter that oto does not expose.
func (s *OtoSink) PlaybackHeadPosition() (uint32, error) {
	return s.position.Load(), nil
}

func (s *OtoSink) PlayState() (SinkState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state, nil
}
