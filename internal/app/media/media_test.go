package media

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		clock string
		want  float64
	}{
		{"00:00:10", 10},
		{"00:01:00", 60},
		{"01:02:03.5", 3723.5},
		{"01:42:37.33", 6157.33},
		{"10:00:00", 36000},
	}

	for _, tc := range cases {
		got, ok := ParseClock(tc.clock)
		require.True(t, ok, "clock %q", tc.clock)
		require.InDelta(t, tc.want, got, 0.001, "clock %q", tc.clock)
	}

	for _, bad := range []string{"", "1:2", "01:60:00", "01:00:61", "abc", "-01:00:00"} {
		_, ok := ParseClock(bad)
		require.False(t, ok, "clock %q", bad)
	}
}

func TestTranscodeArgs(t *testing.T) {
	args := transcodeArgs(0, "192k")
	require.NotContains(t, args, "-ss")
	require.Contains(t, args, "pipe:0")
	require.Equal(t, "pipe:1", args[len(args)-1])

	// Видео копируется, аудио перекодируется в стерео AAC
	require.Subset(t, args, []string{"-c:v", "copy", "-c:a", "aac", "-ac", "2", "-b:a", "192k"})
	require.Subset(t, args, []string{"-f", "matroska"})
}

func TestTranscodeArgs_WithSeek(t *testing.T) {
	args := transcodeArgs(90.5, "128k")

	// -ss должен стоять до -i: перемотка по входу
	var ssIdx, inputIdx int = -1, -1
	for i, arg := range args {
		switch arg {
		case "-ss":
			ssIdx = i
		case "-i":
			inputIdx = i
		}
	}
	require.GreaterOrEqual(t, ssIdx, 0)
	require.Greater(t, inputIdx, ssIdx)
	require.Equal(t, "90.5", args[ssIdx+1])
}

const sampleProbeOutput = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "h264",
      "codec_type": "video",
      "width": 1920,
      "height": 1080,
      "pix_fmt": "yuv420p"
    },
    {
      "index": 1,
      "codec_name": "eac3",
      "codec_type": "audio",
      "channels": 6,
      "channel_layout": "5.1(side)",
      "sample_rate": "48000"
    }
  ],
  "format": {
    "duration": "6131.500000",
    "bit_rate": "2837561",
    "size": "2174821376"
  }
}`

func TestVideoInfo_FromProbeOutput(t *testing.T) {
	var info VideoInfo
	require.NoError(t, json.Unmarshal([]byte(sampleProbeOutput), &info))

	require.Equal(t, "eac3", info.FirstAudioCodec())
	require.InDelta(t, 6131.5, info.DurationSeconds(), 0.001)
}

func TestVideoInfo_MissingPieces(t *testing.T) {
	var info VideoInfo
	require.NoError(t, json.Unmarshal([]byte(`{"streams":[],"format":{}}`), &info))

	require.Empty(t, info.FirstAudioCodec())
	require.Zero(t, info.DurationSeconds())
}

func TestVideoInfo_UppercaseCodecNormalized(t *testing.T) {
	info := VideoInfo{Streams: []Stream{{CodecType: "audio", CodecName: "DTS"}}}
	require.Equal(t, "dts", info.FirstAudioCodec())
}
