package media

import (
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/pion/rtp"
)

// RTPStreamWriter writes tone payloads as RTP packets with clock-based
// pacing, so a cue sink hears the cadence in real time without drift.
type RTPStreamWriter struct {
	conn       net.PacketConn
	remoteAddr net.Addr

	ssrc      uint32
	pt        uint8
	seq       uint16
	timestamp uint32

	codec  Codec
	ticker *time.Ticker

	mu     sync.Mutex
	closed bool
}

// NewRTPStreamWriter creates a clock-paced RTP writer toward remote.
func NewRTPStreamWriter(conn net.PacketConn, remote net.Addr, codec Codec) *RTPStreamWriter {
	return &RTPStreamWriter{
		conn:       conn,
		remoteAddr: remote,
		ssrc:       rand.Uint32(),
		pt:         codec.PayloadType,
		seq:        uint16(rand.Uint32() & 0x7FFF),
		timestamp:  rand.Uint32() & 0x7FFFFFFF,
		codec:      codec,
		ticker:     time.NewTicker(codec.SampleDur),
	}
}

// Write sends one frame payload, blocking until the next clock tick.
// Implements io.Writer.
func (w *RTPStreamWriter) Write(payload []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, net.ErrClosed
	}

	<-w.ticker.C

	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    w.pt,
			SequenceNumber: w.seq,
			Timestamp:      w.timestamp,
			SSRC:           w.ssrc,
		},
		Payload: payload,
	}

	data, err := pkt.Marshal()
	if err != nil {
		return 0, err
	}

	if _, err := w.conn.WriteTo(data, w.remoteAddr); err != nil {
		return 0, err
	}

	w.seq++
	w.timestamp += w.codec.TimestampIncrement()

	return len(payload), nil
}

// Close stops the pacing clock. The underlying conn is the caller's.
func (w *RTPStreamWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.ticker.Stop()
	return nil
}
