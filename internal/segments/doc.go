// Package segments models the frame-range selection for the task being
// edited.
//
// An Editor holds one open range that only grows, plus the ordered list of
// confirmed ranges. Selections are transient: they are rebuilt per task and
// never checkpointed.
package segments
