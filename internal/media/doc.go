// Package media is the boundary between the batch pipeline and the
// ffmpeg/ffprobe toolchain.
//
// The Lister, Preparer, Generator, and Remover interfaces are what the core
// consumes; Processor implements all four by shelling out. Tests elsewhere
// substitute fakes.
package media
