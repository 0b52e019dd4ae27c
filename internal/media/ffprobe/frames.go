package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

type frameRecord struct {
	BestEffortTimestampTime string `json:"best_effort_timestamp_time"`
	PktPtsTime              string `json:"pkt_pts_time"`
	PktDtsTime              string `json:"pkt_dts_time"`
}

type framesPayload struct {
	Frames []frameRecord `json:"frames"`
}

// FrameTimestamps executes ffprobe -show_frames for the video stream and
// returns one timestamp per frame in decode order. Each frame uses the
// first usable field in the chain best_effort_timestamp_time, pkt_pts_time,
// pkt_dts_time; the result is normalized to be monotonic and rebased to
// start at zero.
func FrameTimestamps(ctx context.Context, binary string, path string) ([]float64, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ffprobe frames: empty path")
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error", "-hide_banner",
		"-select_streams", "v:0",
		"-show_frames",
		"-show_entries", "frame=best_effort_timestamp_time,pkt_pts_time,pkt_dts_time",
		"-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe frames: %w: %s", err, strings.TrimSpace(string(output)))
	}

	return ParseFrameTimestamps(output)
}

// ParseFrameTimestamps decodes a -show_frames JSON payload and applies the
// timestamp fallback chain and monotonic normalization.
func ParseFrameTimestamps(payload []byte) ([]float64, error) {
	var doc framesPayload
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("ffprobe frames parse: %w", err)
	}

	timestamps := make([]float64, 0, len(doc.Frames))
	for i, frame := range doc.Frames {
		value, ok := frame.timestamp()
		if !ok {
			return nil, fmt.Errorf("ffprobe frames: frame %d has no usable timestamp", i)
		}
		timestamps = append(timestamps, value)
	}
	return NormalizeTimestamps(timestamps), nil
}

func (f frameRecord) timestamp() (float64, bool) {
	for _, candidate := range []string{f.BestEffortTimestampTime, f.PktPtsTime, f.PktDtsTime} {
		cleaned := strings.TrimSpace(candidate)
		if cleaned == "" || strings.EqualFold(cleaned, "N/A") {
			continue
		}
		value := parseFloat(cleaned)
		if value == value { // not NaN
			return value, true
		}
	}
	return 0, false
}

// NormalizeTimestamps clamps negatives and regressions so the sequence is
// monotonically non-decreasing, then rebases it to start at zero. Streams
// with negative start offsets or out-of-order decode timestamps come out
// usable for cutting.
func NormalizeTimestamps(timestamps []float64) []float64 {
	if len(timestamps) == 0 {
		return timestamps
	}

	out := make([]float64, len(timestamps))
	copy(out, timestamps)

	if out[0] < 0 {
		out[0] = 0
	}
	for i := 1; i < len(out); i++ {
		if out[i] < out[i-1] {
			out[i] = out[i-1]
		}
	}

	base := out[0]
	if base != 0 {
		for i := range out {
			out[i] -= base
		}
	}
	return out
}
