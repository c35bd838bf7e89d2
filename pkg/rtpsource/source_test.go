package rtpsource

import (
	"errors"
	"io"
	"testing"

	"github.com/pion/rtp/v2"
	"github.com/stretchr/testify/require"

	"github.com/nazca/isomux/pkg/mux"
)

func pkt(ts uint32, marker bool, payload []byte) *rtp.Packet {
	return &rtp.Packet{
		Header:  rtp.Header{Version: 2, PayloadType: 96, Timestamp: ts, Marker: marker},
		Payload: payload,
	}
}

func TestDepacketizerFeedSinglePacketFrame(t *testing.T) {
	d, err := NewDepacketizer(MediaTrack{ClockRate: 90000})
	require.NoError(t, err)

	var frames [][]byte
	d.Feed(pkt(1000, true, []byte{0x01, 0x02}), func(payload []byte, rtpTimestamp uint32, marker bool) {
		frames = append(frames, payload)
		require.Equal(t, uint32(1000), rtpTimestamp)
		require.True(t, marker)
	})
	require.Equal(t, [][]byte{{0x01, 0x02}}, frames)
}

func TestDepacketizerFeedAccumulatesAcrossPackets(t *testing.T) {
	d, err := NewDepacketizer(MediaTrack{ClockRate: 90000})
	require.NoError(t, err)

	var frames [][]byte
	handle := func(payload []byte, rtpTimestamp uint32, marker bool) {
		frames = append(frames, append([]byte(nil), payload...))
	}
	d.Feed(pkt(1000, false, []byte{0x01}), handle)
	d.Feed(pkt(1000, false, []byte{0x02}), handle)
	d.Feed(pkt(1000, true, []byte{0x03}), handle)

	require.Equal(t, [][]byte{{0x01, 0x02, 0x03}}, frames)
}

func TestDepacketizerFeedClosesOnTimestampChange(t *testing.T) {
	d, err := NewDepacketizer(MediaTrack{ClockRate: 90000})
	require.NoError(t, err)

	var frames [][]byte
	handle := func(payload []byte, rtpTimestamp uint32, marker bool) {
		frames = append(frames, append([]byte(nil), payload...))
	}
	d.Feed(pkt(1000, false, []byte{0x01}), handle)
	d.Feed(pkt(2000, true, []byte{0x02}), handle)

	require.Equal(t, [][]byte{{0x01}, {0x02}}, frames)
}

func TestDepacketizerFlushEmitsPending(t *testing.T) {
	d, err := NewDepacketizer(MediaTrack{ClockRate: 90000})
	require.NoError(t, err)

	var frames [][]byte
	handle := func(payload []byte, rtpTimestamp uint32, marker bool) {
		frames = append(frames, append([]byte(nil), payload...))
	}
	d.Feed(pkt(1000, false, []byte{0x01}), handle)
	d.Flush(handle)
	require.Equal(t, [][]byte{{0x01}}, frames)

	frames = nil
	d.Flush(handle)
	require.Empty(t, frames)
}

func TestNewDepacketizerRejectsZeroClockRate(t *testing.T) {
	_, err := NewDepacketizer(MediaTrack{ClockRate: 0})
	require.ErrorIs(t, err, ErrClockRateZero)
}

func TestDepacketizerTimestampToMediaUnits(t *testing.T) {
	d, err := NewDepacketizer(MediaTrack{ClockRate: 90000})
	require.NoError(t, err)
	require.Equal(t, int64(1000), d.TimestampToMediaUnits(90000, 1000))
}

func TestSourceRunEmitsSamplesWithFirstTimestampAsZero(t *testing.T) {
	s, err := NewSource(MediaTrack{ClockRate: 90000}, 1, 1000)
	require.NoError(t, err)

	packets := []*rtp.Packet{
		pkt(5000, true, []byte{0x01}),
		pkt(5090, true, []byte{0x02}),
	}
	i := 0
	next := func() (*rtp.Packet, error) {
		if i >= len(packets) {
			return nil, io.EOF
		}
		p := packets[i]
		i++
		return p, nil
	}

	done := make(chan struct{})
	var samples []mux.Sample
	go func() {
		for sample := range s.Samples {
			samples = append(samples, sample)
		}
		close(done)
	}()
	s.Run(next, nil)
	<-done

	require.Len(t, samples, 2)
	require.Equal(t, int64(0), samples[0].DTS)
	require.Equal(t, int64(1), samples[1].DTS)
	require.Equal(t, mux.SampleDescriptionIndex(1), samples[0].Index)
	require.Equal(t, mux.RandomAccessSync, samples[0].Prop.RandomAccessType)
}

func TestSourceRunSurfacesReadErrors(t *testing.T) {
	s, err := NewSource(MediaTrack{ClockRate: 90000}, 1, 1000)
	require.NoError(t, err)

	readErr := errors.New("boom")
	next := func() (*rtp.Packet, error) { return nil, readErr }

	go func() {
		for range s.Samples {
		}
	}()
	s.Run(next, nil)
	err = <-s.Errs
	require.ErrorIs(t, err, readErr)
}

func TestSourceRunStopsOnStopChannel(t *testing.T) {
	s, err := NewSource(MediaTrack{ClockRate: 90000}, 1, 1000)
	require.NoError(t, err)

	stop := make(chan struct{})
	close(stop)

	blocked := func() (*rtp.Packet, error) {
		t.Fatal("next should not be called once stop is closed")
		return nil, nil
	}

	done := make(chan struct{})
	go func() {
		for range s.Samples {
		}
		close(done)
	}()
	s.Run(blocked, stop)
	<-done
}
