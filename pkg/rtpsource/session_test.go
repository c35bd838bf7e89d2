package rtpsource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testSDP = "v=0\r\n" +
	"o=- 0 0 IN IP4 127.0.0.1\r\n" +
	"s=stream\r\n" +
	"c=IN IP4 127.0.0.1\r\n" +
	"t=0 0\r\n" +
	"m=video 0 RTP/AVP 96\r\n" +
	"a=control:trackID=0\r\n" +
	"a=rtpmap:96 H264/90000\r\n" +
	"m=audio 0 RTP/AVP 97\r\n" +
	"a=control:trackID=1\r\n" +
	"a=rtpmap:97 MPEG4-GENERIC/48000/2\r\n"

func TestParseSessionDescription(t *testing.T) {
	tracks, err := ParseSessionDescription([]byte(testSDP))
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	require.Equal(t, "video", tracks[0].Media)
	require.Equal(t, uint8(96), tracks[0].PayloadType)
	require.Equal(t, "H264", tracks[0].EncodingName)
	require.Equal(t, uint32(90000), tracks[0].ClockRate)
	require.Equal(t, "trackID=0", tracks[0].Control)

	require.Equal(t, "audio", tracks[1].Media)
	require.Equal(t, uint8(97), tracks[1].PayloadType)
	require.Equal(t, "MPEG4-GENERIC", tracks[1].EncodingName)
	require.Equal(t, uint32(48000), tracks[1].ClockRate)
}

func TestParseSessionDescriptionMissingRTPMap(t *testing.T) {
	sdp := "v=0\r\n" +
		"o=- 0 0 IN IP4 127.0.0.1\r\n" +
		"s=stream\r\n" +
		"t=0 0\r\n" +
		"m=video 0 RTP/AVP 96\r\n"
	_, err := ParseSessionDescription([]byte(sdp))
	require.ErrorIs(t, err, ErrNoRTPMap)
}

func TestParseSessionDescriptionInvalidPayloadType(t *testing.T) {
	sdp := "v=0\r\n" +
		"o=- 0 0 IN IP4 127.0.0.1\r\n" +
		"s=stream\r\n" +
		"t=0 0\r\n" +
		"m=video 0 RTP/AVP notanumber\r\n"
	_, err := ParseSessionDescription([]byte(sdp))
	require.Error(t, err)
}

func TestParseSessionDescriptionSingleMediaWithoutControl(t *testing.T) {
	sdp := "v=0\r\n" +
		"o=- 0 0 IN IP4 127.0.0.1\r\n" +
		"s=stream\r\n" +
		"t=0 0\r\n" +
		"m=video 0 RTP/AVP 96\r\n" +
		"a=rtpmap:96 H264/90000\r\n"
	tracks, err := ParseSessionDescription([]byte(sdp))
	require.NoError(t, err)
	require.Len(t, tracks, 1)
}
