package util

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// VideoInfo holds probed video metadata.
type VideoInfo struct {
	Duration float64 `json:"duration"` // seconds
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Format   string  `json:"format"`
	Size     int64   `json:"size"`
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
		Format   string `json:"format_name"`
	} `json:"format"`
}

// GetVideoInfo probes a local video file with ffprobe. Duration falls back
// to 0 and size to the filesystem size when the container omits them.
func GetVideoInfo(path string) (*VideoInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("video file not found: %w", err)
	}

	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	var probed probeOutput
	if err := json.Unmarshal([]byte(raw), &probed); err != nil {
		return nil, fmt.Errorf("unreadable ffprobe output: %w", err)
	}

	info := &VideoInfo{Format: "unknown"}

	for _, s := range probed.Streams {
		if s.CodecType == "video" {
			info.Width, info.Height = s.Width, s.Height
			break
		}
	}

	info.Duration, _ = strconv.ParseFloat(probed.Format.Duration, 64)

	info.Size, err = strconv.ParseInt(probed.Format.Size, 10, 64)
	if err != nil {
		info.Size = stat.Size()
	}

	// format_name lists aliases like "mov,mp4,m4a", keep the first.
	if names := strings.Split(probed.Format.Format, ","); len(names) > 0 && names[0] != "" {
		info.Format = names[0]
	}

	return info, nil
}
