package config

import (
	"fmt"
	"strings"
)

var splitAlgorithms = map[string]bool{
	"histogram":  true,
	"ssim":       true,
	"frame_diff": true,
}

// Validate checks that the configuration is usable for a batch session.
// It expects normalize to have run first.
func (c *Config) Validate() error {
	var problems []string

	if c.Tools.FFmpeg == "" {
		problems = append(problems, "tools.ffmpeg must not be empty")
	}
	if c.Tools.FFprobe == "" {
		problems = append(problems, "tools.ffprobe must not be empty")
	}
	if c.Tools.ThumbnailWidth < 16 {
		problems = append(problems, fmt.Sprintf("tools.thumbnail_width must be at least 16, got %d", c.Tools.ThumbnailWidth))
	}
	if c.Tools.ThumbnailQuality < 1 || c.Tools.ThumbnailQuality > 31 {
		problems = append(problems, fmt.Sprintf("tools.thumbnail_quality must be between 1 and 31, got %d", c.Tools.ThumbnailQuality))
	}
	if c.Listing.MaxDepth < 1 {
		problems = append(problems, fmt.Sprintf("listing.max_depth must be at least 1, got %d", c.Listing.MaxDepth))
	}
	if c.Prefetch.Window < 1 {
		problems = append(problems, fmt.Sprintf("prefetch.window must be at least 1, got %d", c.Prefetch.Window))
	}
	if c.Generate.CRF < 0 || c.Generate.CRF > 51 {
		problems = append(problems, fmt.Sprintf("generate.crf must be between 0 and 51, got %d", c.Generate.CRF))
	}
	if !splitAlgorithms[c.AutoSplit.Algorithm] {
		problems = append(problems, fmt.Sprintf("auto_split.algorithm %q is not one of histogram, ssim, frame_diff", c.AutoSplit.Algorithm))
	}
	if c.AutoSplit.Threshold <= 0 || c.AutoSplit.Threshold > 1 {
		problems = append(problems, fmt.Sprintf("auto_split.threshold must be in (0, 1], got %g", c.AutoSplit.Threshold))
	}
	if c.AutoSplit.MinDuration <= 0 {
		problems = append(problems, fmt.Sprintf("auto_split.min_duration must be positive, got %g", c.AutoSplit.MinDuration))
	}
	switch c.Unattended.OnSuccess {
	case "keep", "delete":
	default:
		problems = append(problems, fmt.Sprintf("unattended.on_success %q is not one of keep, delete", c.Unattended.OnSuccess))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
