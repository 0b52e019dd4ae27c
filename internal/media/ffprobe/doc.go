// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no framecut-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties including frame rates and counts
//   - Format: container-level metadata (duration, size, bitrate)
//
// Entry points:
//   - Inspect: executes ffprobe with frame counting and returns a Result
//   - FrameTimestamps: executes ffprobe -show_frames and returns per-frame
//     timestamps with the best-effort fallback chain applied
package ffprobe
