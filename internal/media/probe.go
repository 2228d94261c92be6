// Package media wraps the external ffmpeg/ffprobe tools: probing input
// properties, running a render command, and parsing its diagnostic stream.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeResult holds the input properties the engine needs before rendering.
type ProbeResult struct {
	Duration float64
	Width    int
	Height   int
}

// FFprobe probes media files by executing the ffprobe binary.
type FFprobe struct {
	Path string
}

func NewFFprobe(path string) *FFprobe {
	if strings.TrimSpace(path) == "" {
		path = "ffprobe"
	}
	return &FFprobe{Path: path}
}

// Probe returns the duration and pixel dimensions of the first video stream.
// A failure here means the input is unreadable and is fatal for the job.
func (p *FFprobe) Probe(ctx context.Context, path string) (ProbeResult, error) {
	cmd := exec.CommandContext(ctx, p.Path,
		"-v", "error",
		"-show_entries", "format=duration",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbeOutput(out)
}

func parseProbeOutput(out []byte) (ProbeResult, error) {
	var probe struct {
		Streams []struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return ProbeResult{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil || duration <= 0 {
		return ProbeResult{}, fmt.Errorf("ffprobe reported no usable duration (%q)", probe.Format.Duration)
	}

	for _, s := range probe.Streams {
		if s.Width > 0 && s.Height > 0 {
			return ProbeResult{Duration: duration, Width: s.Width, Height: s.Height}, nil
		}
	}
	return ProbeResult{}, fmt.Errorf("ffprobe found no video stream with dimensions")
}
