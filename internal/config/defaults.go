package config

const (
	defaultLogDir           = "~/.local/share/framecut/logs"
	defaultScratchDir       = "~/.cache/framecut/frames"
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultThumbnailWidth   = 320
	defaultThumbnailQuality = 3
	defaultListingMaxDepth  = 1
	defaultPrefetchWindow   = 2
	defaultGenerateCRF      = 18
	defaultGeneratePreset   = "fast"
	defaultAudioBitrate     = "192k"
	defaultSplitAlgorithm   = "histogram"
	defaultSplitThreshold   = 0.7
	defaultSplitMinDuration = 2.0
	defaultOnSuccess        = "keep"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:     defaultLogDir,
			ScratchDir: defaultScratchDir,
		},
		Tools: Tools{
			FFmpeg:           defaultFFmpegBinary,
			FFprobe:          defaultFFprobeBinary,
			ThumbnailWidth:   defaultThumbnailWidth,
			ThumbnailQuality: defaultThumbnailQuality,
		},
		Listing: Listing{
			MaxDepth: defaultListingMaxDepth,
		},
		Prefetch: Prefetch{
			Window:       defaultPrefetchWindow,
			CacheEnabled: true,
		},
		Generate: Generate{
			CRF:          defaultGenerateCRF,
			Preset:       defaultGeneratePreset,
			AudioBitrate: defaultAudioBitrate,
		},
		AutoSplit: AutoSplit{
			Algorithm:   defaultSplitAlgorithm,
			Threshold:   defaultSplitThreshold,
			MinDuration: defaultSplitMinDuration,
		},
		Unattended: Unattended{
			OnSuccess: defaultOnSuccess,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
