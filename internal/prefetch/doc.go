// Package prefetch prepares upcoming tasks ahead of the active one.
//
// Preparation is single-flight per path. Re-arming the window never cancels
// work already in flight; a preparation that outlives its window still
// caches its result for when the task comes back around.
package prefetch
