package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// VideoInfo структура для хранения информации о видео
type VideoInfo struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	PixFmt        string `json:"pix_fmt,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	ChannelLayout string `json:"channel_layout,omitempty"`
	SampleRate    string `json:"sample_rate,omitempty"`
	BitRate       string `json:"bit_rate,omitempty"`
}

type Format struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
	Size     string `json:"size"`
}

// ProbeURL получает информацию о потоке через ffprobe. Контекст убивает
// процесс, если он не уложился в отведённое время.
func ProbeURL(ctx context.Context, url string) (*VideoInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		url,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	var info VideoInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	return &info, nil
}

// FirstAudioCodec возвращает кодек первого аудиопотока, "" если его нет.
func (v *VideoInfo) FirstAudioCodec() string {
	for _, stream := range v.Streams {
		if stream.CodecType == "audio" {
			return strings.ToLower(stream.CodecName)
		}
	}
	return ""
}

// DurationSeconds возвращает длительность контейнера, 0 если неизвестна.
func (v *VideoInfo) DurationSeconds() float64 {
	seconds, err := strconv.ParseFloat(v.Format.Duration, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}
