// Package main hosts the framecut CLI entrypoint and command graph.
//
// The Cobra-based command tree wires terminal invocations into the batch
// pipeline: interactive editing, unattended scene splitting, checkpoint
// inspection, and configuration scaffolding. It centralizes configuration
// resolution, session locking, and structured logging setup so subcommands
// can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
