// Package checkpoint persists batch progress to a JSON sidecar in the
// output directory so interrupted sessions resume where they left off.
//
// Writes are atomic (temp file plus rename). A missing or malformed sidecar
// reads as no checkpoint at all; resume never aborts on a bad file.
package checkpoint
