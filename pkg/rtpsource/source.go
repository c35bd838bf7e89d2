package rtpsource

import (
	"fmt"
	"io"

	"github.com/pion/rtp/v2"

	"github.com/nazca/isomux/pkg/mux"
)

// ErrClockRateZero is returned by NewSource when a track's clock rate
// could not be established, since every conversion below depends on
// dividing by it.
var ErrClockRateZero = fmt.Errorf("rtpsource: clock rate is zero")

// FrameHandler is called once per accumulated frame (one or more RTP
// packets sharing a timestamp, terminated by the marker bit), with the
// concatenated payload bytes and the frame's RTP timestamp.
type FrameHandler func(payload []byte, rtpTimestamp uint32, marker bool)

// Depacketizer accumulates RTP packets belonging to one media track
// into frames, the way rtpcleaner.Cleaner groups packets ahead of the
// mp4 muxer, but codec-agnostically: payloads are simply concatenated
// per RTP timestamp run, since this package has no codec-specific NALU
// reassembly (the mux.Importer codecs own that).
type Depacketizer struct {
	track MediaTrack

	havePending  bool
	pendingTS    uint32
	pendingBytes []byte
}

// NewDepacketizer returns a depacketizer for track.
func NewDepacketizer(track MediaTrack) (*Depacketizer, error) {
	if track.ClockRate == 0 {
		return nil, ErrClockRateZero
	}
	return &Depacketizer{track: track}, nil
}

// Feed processes one RTP packet, invoking handle once a full frame
// (one RTP timestamp's worth of packets) has been assembled.
func (d *Depacketizer) Feed(pkt *rtp.Packet, handle FrameHandler) {
	if d.havePending && pkt.Timestamp != d.pendingTS {
		handle(d.pendingBytes, d.pendingTS, true)
		d.havePending = false
		d.pendingBytes = nil
	}
	d.pendingTS = pkt.Timestamp
	d.pendingBytes = append(d.pendingBytes, pkt.Payload...)
	d.havePending = true
	if pkt.Marker {
		handle(d.pendingBytes, d.pendingTS, true)
		d.havePending = false
		d.pendingBytes = nil
	}
}

// Flush emits any frame still pending (the stream ended mid-frame or
// without a final marker bit).
func (d *Depacketizer) Flush(handle FrameHandler) {
	if !d.havePending {
		return
	}
	handle(d.pendingBytes, d.pendingTS, true)
	d.havePending = false
	d.pendingBytes = nil
}

// TimestampToMediaUnits rescales an RTP timestamp delta (in the
// track's own RTP clock rate) to the track's ISOBMFF media timescale.
func (d *Depacketizer) TimestampToMediaUnits(rtpDelta uint32, mediaTimescale uint32) int64 {
	return int64(rtpDelta) * int64(mediaTimescale) / int64(d.track.ClockRate)
}

// Source reads RTP packets off a packet source (ordinarily a UDP
// connection, or a test fixture), depacketizes them, and publishes
// each assembled frame as a mux.Sample on Samples. The container
// engine never spawns this goroutine itself; the caller runs it and
// drains Samples, calling Root.AppendSample from its own goroutine.
type Source struct {
	Samples chan mux.Sample
	Errs    chan error

	dep            *Depacketizer
	entryIndex     mux.SampleDescriptionIndex
	mediaTimescale uint32

	firstTS   uint32
	haveFirst bool
}

// NewSource returns a Source for track, publishing samples against
// entryIndex (as returned by Root.AddSampleEntry) scaled into
// mediaTimescale units.
func NewSource(track MediaTrack, entryIndex mux.SampleDescriptionIndex, mediaTimescale uint32) (*Source, error) {
	dep, err := NewDepacketizer(track)
	if err != nil {
		return nil, err
	}
	return &Source{
		Samples:        make(chan mux.Sample, 64),
		Errs:           make(chan error, 1),
		dep:            dep,
		entryIndex:     entryIndex,
		mediaTimescale: mediaTimescale,
	}, nil
}

// Run reads packets from next until it returns io.EOF or an error,
// depacketizing each into Samples. It blocks, so callers run it in
// its own goroutine; close(stop) requests an early return.
func (s *Source) Run(next func() (*rtp.Packet, error), stop <-chan struct{}) {
	defer close(s.Samples)
	for {
		select {
		case <-stop:
			s.dep.Flush(s.emit)
			return
		default:
		}

		pkt, err := next()
		if err != nil {
			if err != io.EOF {
				s.Errs <- fmt.Errorf("rtpsource: read packet: %w", err)
			}
			s.dep.Flush(s.emit)
			return
		}
		s.dep.Feed(pkt, s.emit)
	}
}

func (s *Source) emit(payload []byte, rtpTimestamp uint32, marker bool) {
	if len(payload) == 0 {
		return
	}
	if !s.haveFirst {
		s.firstTS = rtpTimestamp
		s.haveFirst = true
	}
	ts := s.dep.TimestampToMediaUnits(rtpTimestamp-s.firstTS, s.mediaTimescale)
	s.Samples <- mux.Sample{
		DTS:   ts,
		CTS:   ts,
		Data:  append([]byte(nil), payload...),
		Index: s.entryIndex,
		Prop:  mux.SampleProperty{RandomAccessType: mux.RandomAccessSync},
	}
}
