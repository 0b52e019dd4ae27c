package media

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"framecut/internal/config"
	"framecut/internal/logging"
	"framecut/internal/media/ffprobe"
	"framecut/internal/services"
)

// Processor shells out to ffmpeg and ffprobe. It implements Lister,
// Preparer, Generator, and Remover.
type Processor struct {
	ffmpeg           string
	ffprobe          string
	scratchDir       string
	thumbnailWidth   int
	thumbnailQuality int
	maxDepth         int
	logger           *slog.Logger
}

// NewProcessor builds a processor from configuration.
func NewProcessor(cfg *config.Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		ffmpeg:           cfg.FFmpegBinary(),
		ffprobe:          cfg.FFprobeBinary(),
		scratchDir:       cfg.Paths.ScratchDir,
		thumbnailWidth:   cfg.Tools.ThumbnailWidth,
		thumbnailQuality: cfg.Tools.ThumbnailQuality,
		maxDepth:         cfg.Listing.MaxDepth,
		logger:           logging.NewComponentLogger(logger, "media"),
	}
}

// ListMediaFiles lists the batch inputs under root.
func (p *Processor) ListMediaFiles(root string) ([]string, error) {
	return ListMediaFiles(root, p.maxDepth)
}

// PrepareTask probes path, extracts frame thumbnails into the scratch
// directory, and builds the frame index. Progress percentages are
// non-decreasing per path.
func (p *Processor) PrepareTask(ctx context.Context, path string, progress func(Progress)) (*PreparedData, error) {
	report := func(message string, percent float64) {
		if progress != nil {
			progress(Progress{Path: path, Message: message, PercentComplete: percent})
		}
	}

	report("probing metadata", 5)
	metadata, err := p.probe(ctx, path)
	if err != nil {
		return nil, err
	}

	report("indexing frame timestamps", 25)
	timestamps, err := ffprobe.FrameTimestamps(ctx, p.ffprobe, path)
	if err != nil {
		return nil, services.Wrap(services.ErrPreparation, "media", "prepare", "index frames", err)
	}
	if len(timestamps) == 0 {
		return nil, services.Wrap(services.ErrPreparation, "media", "prepare", "no video frames found", nil)
	}

	report("extracting thumbnails", 50)
	previewDir, err := p.extractThumbnails(ctx, path)
	if err != nil {
		return nil, err
	}
	previews, err := sortedPreviews(previewDir)
	if err != nil {
		return nil, services.Wrap(services.ErrPreparation, "media", "prepare", "read thumbnails", err)
	}

	count := len(timestamps)
	if len(previews) < count {
		count = len(previews)
	}
	if count == 0 {
		return nil, services.Wrap(services.ErrPreparation, "media", "prepare", "thumbnail extraction produced no frames", nil)
	}

	index := make([]FrameIndexEntry, 0, count)
	for i := 0; i < count; i++ {
		index = append(index, FrameIndexEntry{
			FrameNumber:      i,
			TimestampSeconds: timestamps[i],
			PreviewRef:       previews[i],
		})
	}
	metadata.FrameCount = count

	report("prepared", 100)
	return &PreparedData{Metadata: metadata, FrameIndex: index}, nil
}

func (p *Processor) probe(ctx context.Context, path string) (Metadata, error) {
	result, err := ffprobe.Inspect(ctx, p.ffprobe, path)
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrPreparation, "media", "prepare", "probe", err)
	}
	video, ok := result.FirstVideoStream()
	if !ok {
		return Metadata{}, services.Wrap(services.ErrPreparation, "media", "prepare", "no video stream", nil)
	}

	duration := result.DurationSeconds()
	return Metadata{
		Width:      video.Width,
		Height:     video.Height,
		FrameRate:  video.FrameRate(),
		Duration:   duration,
		FrameCount: video.FrameCount(duration),
		Codec:      video.CodecName,
	}, nil
}

// extractThumbnails writes scaled jpeg frames for path into a scratch
// subdirectory keyed by a hash of the path. An existing directory is reused.
func (p *Processor) extractThumbnails(ctx context.Context, path string) (string, error) {
	dir := filepath.Join(p.scratchDir, pathKey(path))
	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return dir, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrPreparation, "media", "prepare", "create scratch directory", err)
	}

	pattern := filepath.Join(dir, "frame_%06d.jpg")
	cmd := exec.CommandContext(ctx, p.ffmpeg,
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-vf", fmt.Sprintf("scale=%d:-1", p.thumbnailWidth),
		"-vsync", "0",
		"-q:v", fmt.Sprintf("%d", p.thumbnailQuality),
		"-y", pattern)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", services.Wrap(services.ErrPreparation, "media", "prepare",
			fmt.Sprintf("extract thumbnails: %s", strings.TrimSpace(string(output))), err)
	}
	return dir, nil
}

func sortedPreviews(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	previews := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		previews = append(previews, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(previews)
	return previews, nil
}

// pathKey derives a stable scratch directory name for a source path.
func pathKey(path string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	return fmt.Sprintf("%016x", h.Sum64())
}

// DeleteSource removes a source file after its outputs are generated.
func (p *Processor) DeleteSource(path string) error {
	if err := os.Remove(path); err != nil {
		return services.Wrap(services.ErrIO, "media", "delete", path, err)
	}
	return nil
}
