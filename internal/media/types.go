package media

import "context"

// Metadata describes a probed media file.
type Metadata struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameRate  float64 `json:"frame_rate"`
	Duration   float64 `json:"duration"`
	FrameCount int     `json:"frame_count"`
	Codec      string  `json:"codec"`
}

// FrameIndexEntry links a frame number to its timestamp and preview image.
type FrameIndexEntry struct {
	FrameNumber      int     `json:"frame_number"`
	TimestampSeconds float64 `json:"timestamp_seconds"`
	PreviewRef       string  `json:"preview_ref"`
}

// PreparedData is the cached result of preparing a task for editing.
type PreparedData struct {
	Metadata   Metadata          `json:"metadata"`
	FrameIndex []FrameIndexEntry `json:"frame_index"`
}

// Progress reports preparation or generation progress for one file.
type Progress struct {
	Path            string
	Message         string
	PercentComplete float64
}

// Range is an inclusive frame range [Start, End].
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// GenerateOptions tunes output generation.
type GenerateOptions struct {
	CRF          int
	Preset       string
	AudioBitrate string
	// Force re-encodes inputs that failed the compatibility check.
	Force bool
}

// Lister enumerates the media files of a batch.
type Lister interface {
	ListMediaFiles(root string) ([]string, error)
}

// Preparer probes a file and builds its frame index.
type Preparer interface {
	PrepareTask(ctx context.Context, path string, progress func(Progress)) (*PreparedData, error)
}

// Generator cuts confirmed ranges into output segment files.
type Generator interface {
	GenerateOutput(ctx context.Context, path string, prepared *PreparedData, ranges []Range, outputDir string, opts GenerateOptions) (string, error)
}

// Remover deletes a source file after its outputs are generated.
type Remover interface {
	DeleteSource(path string) error
}
