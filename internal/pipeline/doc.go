// Package pipeline drives one batch session through its states.
//
// The Controller owns every user-visible transition: AwaitingSelection,
// Editing, Generating, AwaitingDisposition, and Finished. Preparation and
// generation run through collaborators; the controller is the only writer
// of its own state, so commands observe a consistent view.
package pipeline
