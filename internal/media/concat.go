package media

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"framecut/internal/logging"
	"framecut/internal/media/ffprobe"
	"framecut/internal/services"
)

// ConcatInput describes one clip entering a concatenation.
type ConcatInput struct {
	Path     string
	Width    int
	Height   int
	Duration float64
	HasAudio bool
}

// BuildConcatFilter assembles the filter_complex graph that scales and pads
// every input to the target resolution, resets timestamps, fills silence for
// clips without an audio stream, and concatenates the results into
// [outv]/[outa].
func BuildConcatFilter(inputs []ConcatInput, width, height int) (string, error) {
	if len(inputs) == 0 {
		return "", services.Wrap(services.ErrValidation, "media", "concat", "no inputs for filter", nil)
	}

	parts := make([]string, 0, 2*len(inputs)+1)
	for i, input := range inputs {
		parts = append(parts, fmt.Sprintf(
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,format=yuv420p,setpts=PTS-STARTPTS[v%d]",
			i, width, height, width, height, i))

		if input.HasAudio {
			parts = append(parts, fmt.Sprintf(
				"[%d:a]aresample=async=1:first_pts=0,aformat=sample_rates=48000:channel_layouts=stereo,asetpts=PTS-STARTPTS[a%d]",
				i, i))
			continue
		}
		// A silent track the length of the clip keeps the concat streams
		// paired.
		if input.Duration <= 0 {
			return "", services.Wrap(services.ErrValidation, "media", "concat",
				fmt.Sprintf("clip %s has no audio and no known duration to fill", filepath.Base(input.Path)), nil)
		}
		parts = append(parts, fmt.Sprintf(
			"anullsrc=channel_layout=stereo:sample_rate=48000,atrim=duration=%.6f,asetpts=PTS-STARTPTS[a%d]",
			input.Duration, i))
	}

	var joins strings.Builder
	for i := range inputs {
		fmt.Fprintf(&joins, "[v%d][a%d]", i, i)
	}
	parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[outv][outa]", joins.String(), len(inputs)))
	return strings.Join(parts, ";"), nil
}

// ConcatSources joins the given clips into a single file at outputPath,
// re-encoding everything so mixed sources stay in sync. The first clip's
// resolution is the target; the rest are scaled and padded to match. A clip
// whose resolution or duration cannot be probed fails the whole join with an
// IncompatibleError.
func (p *Processor) ConcatSources(ctx context.Context, paths []string, outputPath string, opts GenerateOptions) (string, error) {
	if len(paths) < 2 {
		return "", services.Wrap(services.ErrValidation, "media", "concat", "need at least two clips to join", nil)
	}

	inputs := make([]ConcatInput, 0, len(paths))
	for _, path := range paths {
		input, err := p.probeConcatInput(ctx, path)
		if err != nil {
			return "", err
		}
		inputs = append(inputs, input)
	}

	filter, err := BuildConcatFilter(inputs, inputs[0].Width, inputs[0].Height)
	if err != nil {
		return "", err
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	for _, input := range inputs {
		args = append(args, "-i", input.Path)
	}
	args = append(args,
		"-filter_complex", filter,
		"-map", "[outv]",
		"-map", "[outa]",
		"-vsync", "vfr",
		"-c:v", "libx264",
		"-preset", opts.Preset,
		"-crf", strconv.Itoa(opts.CRF),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", opts.AudioBitrate,
		"-fflags", "+genpts",
		"-avoid_negative_ts", "make_zero",
		"-shortest",
		"-y", outputPath,
	)

	cmd := exec.CommandContext(ctx, p.ffmpeg, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", services.Wrap(services.ErrProcessing, "media", "concat",
			fmt.Sprintf("join %s: %s", filepath.Base(outputPath), strings.TrimSpace(string(output))), err)
	}

	p.logger.Info("joined clips",
		logging.String("target", outputPath),
		logging.Int("clips", len(paths)))
	return fmt.Sprintf("joined %d clip(s) into %s", len(paths), outputPath), nil
}

func (p *Processor) probeConcatInput(ctx context.Context, path string) (ConcatInput, error) {
	result, err := ffprobe.Inspect(ctx, p.ffprobe, path)
	if err != nil {
		return ConcatInput{}, services.Wrap(services.ErrPreparation, "media", "concat", "probe clip", err)
	}
	video, ok := result.FirstVideoStream()
	if !ok {
		return ConcatInput{}, &IncompatibleError{Path: path, Detail: "no video stream"}
	}

	input := ConcatInput{
		Path:     path,
		Width:    video.Width,
		Height:   video.Height,
		Duration: result.DurationSeconds(),
		HasAudio: result.HasAudioStream(),
	}
	var problems []string
	if input.Width <= 0 || input.Height <= 0 {
		problems = append(problems, "resolution unknown")
	}
	if input.Duration <= 0 {
		problems = append(problems, "duration unknown")
	}
	if len(problems) > 0 {
		return ConcatInput{}, &IncompatibleError{Path: path, Detail: strings.Join(problems, "; ")}
	}
	return input, nil
}
