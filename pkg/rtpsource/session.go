// Package rtpsource turns an incoming RTP stream, described by an SDP
// session description, into the mux.Sample contract the container
// engine consumes: a representative elementary-stream producer beyond
// file-based importers, grounded in the RTP/SDP track setup in
// pkg/video/gortsplib/track_h264.go and tracks.go.
package rtpsource

import (
	"fmt"
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"
)

// MediaTrack is one SDP media description reduced to the fields a
// depacketizer needs: which payload type carries it, at what RTP
// clock rate, and which control attribute identifies its RTSP
// sub-stream, mirroring trackBase/newTrackH264FromMediaDescription's
// fmtp/rtpmap extraction.
type MediaTrack struct {
	Media        string // "video", "audio", "text"
	PayloadType  uint8
	ClockRate    uint32
	EncodingName string
	Control      string
}

// ErrNoRTPMap is returned when a media description carries no rtpmap
// attribute for its payload type, leaving the clock rate unknown.
var ErrNoRTPMap = fmt.Errorf("rtpsource: missing rtpmap attribute")

// ParseSessionDescription parses raw SDP bytes (as received over
// RTSP DESCRIBE or handed to a standalone RTP receiver out of band)
// into one MediaTrack per media description.
func ParseSessionDescription(raw []byte) ([]MediaTrack, error) {
	var sd psdp.SessionDescription
	if err := sd.Unmarshal(raw); err != nil {
		return nil, fmt.Errorf("rtpsource: parse session description: %w", err)
	}

	tracks := make([]MediaTrack, 0, len(sd.MediaDescriptions))
	for _, md := range sd.MediaDescriptions {
		if len(md.MediaName.Formats) == 0 {
			continue
		}
		pt, err := strconv.ParseUint(md.MediaName.Formats[0], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("rtpsource: invalid payload type %q: %w", md.MediaName.Formats[0], err)
		}
		t := MediaTrack{
			Media:       md.MediaName.Media,
			PayloadType: uint8(pt),
		}
		if control, ok := md.Attribute("control"); ok {
			t.Control = control
		}
		name, clockRate, err := rtpmapFor(md, t.PayloadType)
		if err != nil {
			return nil, err
		}
		t.EncodingName = name
		t.ClockRate = clockRate
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// rtpmapFor extracts "a=rtpmap:<pt> <encoding>/<clock-rate>[/<channels>]"
// for payloadType, following fillParamsFromMediaDescription's
// strings.SplitN/Split fmtp parsing style.
func rtpmapFor(md *psdp.MediaDescription, payloadType uint8) (string, uint32, error) {
	prefix := strconv.FormatUint(uint64(payloadType), 10) + " "
	for _, attr := range md.Attributes {
		if attr.Key != "rtpmap" || !strings.HasPrefix(attr.Value, prefix) {
			continue
		}
		rest := strings.TrimPrefix(attr.Value, prefix)
		parts := strings.SplitN(rest, "/", 3)
		if len(parts) < 2 {
			return "", 0, fmt.Errorf("rtpsource: malformed rtpmap %q: %w", attr.Value, ErrNoRTPMap)
		}
		clockRate, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return "", 0, fmt.Errorf("rtpsource: malformed rtpmap clock rate %q: %w", parts[1], err)
		}
		return parts[0], uint32(clockRate), nil
	}
	return "", 0, fmt.Errorf("rtpsource: payload type %d: %w", payloadType, ErrNoRTPMap)
}
