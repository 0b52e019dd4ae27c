// Package services defines the shared error taxonomy for framecut components.
//
// Failures are tagged with sentinel markers (validation, preparation,
// processing, incompatible inputs, persistence, io) via Wrap so callers can
// classify them with errors.Is without string matching. IsRetriable and
// NeedsDecision express the two classifications the pipeline acts on.
package services
