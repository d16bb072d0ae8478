package media

import (
	"log/slog"
	"net"
	"sync"
)

// Player streams the ring and ringback cues to a UDP cue sink. The two
// cues are independent streams; each Start restarts its cue from the top
// of the cadence, mirroring an audio element being rewound before play.
//
// Playback failure is never surfaced: a cue that cannot reach the sink
// logs once and stops, and call handling continues unaffected.
type Player struct {
	sinkAddr string
	codec    Codec

	mu       sync.Mutex
	ring     *toneLoop
	ringback *toneLoop
}

// NewPlayer creates a tone player streaming to sinkAddr (host:port).
func NewPlayer(sinkAddr string, codec Codec) *Player {
	return &Player{sinkAddr: sinkAddr, codec: codec}
}

// StartRing starts the incoming-call ring cue.
func (p *Player) StartRing() { p.start(&p.ring, ToneRing) }

// StopRing stops the incoming-call ring cue.
func (p *Player) StopRing() { p.stop(&p.ring) }

// StartRingback starts the outgoing-call ringback cue.
func (p *Player) StartRingback() { p.start(&p.ringback, ToneRingback) }

// StopRingback stops the outgoing-call ringback cue.
func (p *Player) StopRingback() { p.stop(&p.ringback) }

// Close stops both cues.
func (p *Player) Close() {
	p.StopRing()
	p.StopRingback()
}

func (p *Player) start(slot **toneLoop, tone ToneSpec) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if *slot != nil {
		(*slot).stop()
	}

	loop, err := newToneLoop(p.sinkAddr, p.codec, tone)
	if err != nil {
		slog.Warn("[Media] Cue playback unavailable", "tone", tone.Name, "sink", p.sinkAddr, "error", err)
		*slot = nil
		return
	}
	*slot = loop
	slog.Debug("[Media] Cue started", "tone", tone.Name)
}

func (p *Player) stop(slot **toneLoop) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if *slot != nil {
		(*slot).stop()
		*slot = nil
	}
}

// toneLoop is one running cue stream.
type toneLoop struct {
	cancel chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newToneLoop(sinkAddr string, codec Codec, tone ToneSpec) (*toneLoop, error) {
	remote, err := net.ResolveUDPAddr("udp", sinkAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, err
	}

	l := &toneLoop{
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}

	frames := tone.Frames(codec)
	writer := NewRTPStreamWriter(conn, remote, codec)

	go func() {
		defer close(l.done)
		defer conn.Close()
		defer writer.Close()

		for {
			for _, frame := range frames {
				select {
				case <-l.cancel:
					return
				default:
				}
				if _, err := writer.Write(frame); err != nil {
					slog.Debug("[Media] Cue stream ended", "tone", tone.Name, "error", err)
					return
				}
			}
		}
	}()

	return l, nil
}

func (l *toneLoop) stop() {
	l.once.Do(func() { close(l.cancel) })
	<-l.done
}

// NopController discards all cue commands. Used when no cue sink is
// configured and as the flow's default.
type NopController struct{}

// StartRing implements the cue surface as a no-op.
func (NopController) StartRing() {}

// StopRing implements the cue surface as a no-op.
func (NopController) StopRing() {}

// StartRingback implements the cue surface as a no-op.
func (NopController) StartRingback() {}

// StopRingback implements the cue surface as a no-op.
func (NopController) StopRingback() {}
