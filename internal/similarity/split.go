package similarity

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"framecut/internal/media"
)

// ErrNothingLeft is returned when skip options drop every detected segment.
var ErrNothingLeft = errors.New("similarity: skip options left no segments")

// ErrTooFewFrames is returned when a file has too few frames to split.
var ErrTooFewFrames = errors.New("similarity: too few frames to split")

// ImageLoader reads a preview image from disk. Overridable in tests.
type ImageLoader func(path string) (image.Image, error)

// LoadImage is the default loader for frame thumbnails.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Options tunes split detection.
type Options struct {
	Algorithm Algorithm
	// Threshold below which consecutive frames are considered a scene cut.
	Threshold float64
	// MinFrames is the minimum segment length in frames.
	MinFrames int
	SkipFirst bool
	SkipLast  bool
	// Loader defaults to LoadImage.
	Loader ImageLoader
}

// DetectRanges walks the frame index, scores consecutive thumbnails, and
// returns inclusive frame ranges split at scene cuts. The last range always
// extends to the final frame.
func DetectRanges(ctx context.Context, frames []media.FrameIndexEntry, opts Options) ([]media.Range, error) {
	if len(frames) < 2 {
		return nil, ErrTooFewFrames
	}
	scorer, err := NewScorer(opts.Algorithm)
	if err != nil {
		return nil, err
	}
	loader := opts.Loader
	if loader == nil {
		loader = LoadImage
	}
	// A cuttable segment spans at least two frames.
	minFrames := opts.MinFrames
	if minFrames < 2 {
		minFrames = 2
	}

	var ranges []media.Range
	segmentStart := frames[0].FrameNumber

	previous, err := loader(frames[0].PreviewRef)
	if err != nil {
		return nil, fmt.Errorf("load frame %d: %w", frames[0].FrameNumber, err)
	}

	for i := 1; i < len(frames); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current, err := loader(frames[i].PreviewRef)
		if err != nil {
			return nil, fmt.Errorf("load frame %d: %w", frames[i].FrameNumber, err)
		}

		score, err := scorer.Score(previous, current)
		if err != nil {
			return nil, err
		}

		segmentLength := frames[i].FrameNumber - segmentStart
		if score < opts.Threshold && segmentLength >= minFrames {
			ranges = append(ranges, media.Range{Start: segmentStart, End: frames[i-1].FrameNumber})
			segmentStart = frames[i].FrameNumber
		}
		previous = current
	}

	// The tail always reaches the final frame. A cut at the last comparison
	// would leave a one-frame tail, which cannot be cut; fold it into the
	// preceding segment instead.
	lastFrame := frames[len(frames)-1].FrameNumber
	if len(ranges) > 0 && segmentStart == lastFrame {
		ranges[len(ranges)-1].End = lastFrame
	} else {
		ranges = append(ranges, media.Range{Start: segmentStart, End: lastFrame})
	}

	if opts.SkipFirst {
		ranges = ranges[1:]
	}
	if opts.SkipLast && len(ranges) > 0 {
		ranges = ranges[:len(ranges)-1]
	}
	if len(ranges) == 0 {
		return nil, ErrNothingLeft
	}
	return ranges, nil
}

// MinFramesFor converts a minimum duration in seconds to frames at the
// given frame rate, never below one.
func MinFramesFor(minDuration, frameRate float64) int {
	frames := int(minDuration * frameRate)
	if frames < 1 {
		return 1
	}
	return frames
}
