package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"framecut/internal/logging"
	"framecut/internal/services"
)

// GenerateOutput cuts each confirmed range into
// {outputDir}/{stem}/{stem}_{n}.mp4, re-encoding with libx264 and resetting
// timestamps so every segment starts at zero. Ranges are inclusive in
// frames; the cut window ends at the next frame's timestamp so the end
// frame is included.
func (p *Processor) GenerateOutput(ctx context.Context, path string, prepared *PreparedData, ranges []Range, outputDir string, opts GenerateOptions) (string, error) {
	if prepared == nil || len(prepared.FrameIndex) == 0 {
		return "", services.Wrap(services.ErrValidation, "media", "generate", "no prepared data for input", nil)
	}
	if len(ranges) == 0 {
		return "", services.Wrap(services.ErrValidation, "media", "generate", "no ranges to cut", nil)
	}

	if err := CheckCompatibility(prepared.Metadata); err != nil && !opts.Force {
		var incompatible *IncompatibleError
		if errors.As(err, &incompatible) {
			incompatible.Path = path
		}
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	segmentDir := filepath.Join(outputDir, stem)
	if err := os.MkdirAll(segmentDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrIO, "media", "generate", "create segment directory", err)
	}

	if _, err := p.CutRanges(ctx, path, prepared, ranges, segmentDir, opts); err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %d segment(s) to %s", len(ranges), segmentDir), nil
}

// CutRanges cuts each range of path into dir as {stem}_{n}.mp4 and returns
// the written files in range order. The directory must exist.
func (p *Processor) CutRanges(ctx context.Context, path string, prepared *PreparedData, ranges []Range, dir string, opts GenerateOptions) ([]string, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	targets := make([]string, 0, len(ranges))
	for i, r := range ranges {
		start, end, err := CutWindow(prepared, r)
		if err != nil {
			return nil, err
		}
		target := filepath.Join(dir, fmt.Sprintf("%s_%d.mp4", stem, i+1))
		if err := p.cutSegment(ctx, path, target, start, end, opts); err != nil {
			return nil, err
		}
		p.logger.Info("wrote segment",
			logging.String("target", target),
			logging.Float64("start", start),
			logging.Float64("end", end))
		targets = append(targets, target)
	}
	return targets, nil
}

// CheckCompatibility is the pre-flight check run before cutting. Inputs
// whose resolution or duration could not be probed fail with an
// IncompatibleError, which the force option overrides.
func CheckCompatibility(metadata Metadata) error {
	var problems []string
	if metadata.Width <= 0 || metadata.Height <= 0 {
		problems = append(problems, "resolution unknown")
	}
	if metadata.Duration <= 0 {
		problems = append(problems, "duration unknown")
	}
	if len(problems) > 0 {
		return &IncompatibleError{Detail: strings.Join(problems, "; ")}
	}
	return nil
}

// CutWindow converts an inclusive frame range into a timestamp window. The
// end boundary is the next frame's timestamp, or the file duration for the
// final frame, so the range's end frame lands inside the cut.
func CutWindow(prepared *PreparedData, r Range) (float64, float64, error) {
	index := prepared.FrameIndex
	if r.Start < 0 || r.End >= len(index) || r.Start >= r.End {
		return 0, 0, services.Wrap(services.ErrValidation, "media", "generate",
			fmt.Sprintf("range [%d, %d] outside frame index of %d", r.Start, r.End, len(index)), nil)
	}

	start := index[r.Start].TimestampSeconds
	var end float64
	if r.End+1 < len(index) {
		end = index[r.End+1].TimestampSeconds
	} else {
		end = prepared.Metadata.Duration
	}
	if end <= start {
		return 0, 0, services.Wrap(services.ErrProcessing, "media", "generate",
			fmt.Sprintf("degenerate cut window [%g, %g]", start, end), nil)
	}
	return start, end, nil
}

func (p *Processor) cutSegment(ctx context.Context, source, target string, start, end float64, opts GenerateOptions) error {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", source,
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-c:v", "libx264",
		"-crf", strconv.Itoa(opts.CRF),
		"-preset", opts.Preset,
		"-c:a", "aac",
		"-b:a", opts.AudioBitrate,
		"-vf", "setpts=PTS-STARTPTS",
		"-af", "asetpts=PTS-STARTPTS",
		"-y", target,
	}
	cmd := exec.CommandContext(ctx, p.ffmpeg, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return services.Wrap(services.ErrProcessing, "media", "generate",
			fmt.Sprintf("cut %s: %s", filepath.Base(target), strings.TrimSpace(string(output))), err)
	}
	return nil
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 6, 64)
}
