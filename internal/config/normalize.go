package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeListing()
	c.normalizePrefetch()
	c.normalizeGenerate()
	c.normalizeAutoSplit()
	c.normalizeUnattended()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
	if c.Tools.ThumbnailWidth <= 0 {
		c.Tools.ThumbnailWidth = defaultThumbnailWidth
	}
	if c.Tools.ThumbnailQuality <= 0 {
		c.Tools.ThumbnailQuality = defaultThumbnailQuality
	}
}

func (c *Config) normalizeListing() {
	if c.Listing.MaxDepth <= 0 {
		c.Listing.MaxDepth = defaultListingMaxDepth
	}
}

func (c *Config) normalizePrefetch() {
	if c.Prefetch.Window <= 0 {
		c.Prefetch.Window = defaultPrefetchWindow
	}
}

func (c *Config) normalizeGenerate() {
	if c.Generate.CRF <= 0 {
		c.Generate.CRF = defaultGenerateCRF
	}
	c.Generate.Preset = strings.TrimSpace(c.Generate.Preset)
	if c.Generate.Preset == "" {
		c.Generate.Preset = defaultGeneratePreset
	}
	c.Generate.AudioBitrate = strings.TrimSpace(c.Generate.AudioBitrate)
	if c.Generate.AudioBitrate == "" {
		c.Generate.AudioBitrate = defaultAudioBitrate
	}
}

func (c *Config) normalizeAutoSplit() {
	c.AutoSplit.Algorithm = strings.ToLower(strings.TrimSpace(c.AutoSplit.Algorithm))
	if c.AutoSplit.Algorithm == "" {
		c.AutoSplit.Algorithm = defaultSplitAlgorithm
	}
	if c.AutoSplit.Threshold == 0 {
		c.AutoSplit.Threshold = defaultSplitThreshold
	}
	if c.AutoSplit.MinDuration <= 0 {
		c.AutoSplit.MinDuration = defaultSplitMinDuration
	}
}

func (c *Config) normalizeUnattended() {
	c.Unattended.OnSuccess = strings.ToLower(strings.TrimSpace(c.Unattended.OnSuccess))
	if c.Unattended.OnSuccess == "" {
		c.Unattended.OnSuccess = defaultOnSuccess
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
