// Package batch owns the in-memory task list for one editing session.
//
// The Store is the single writer of task status. Every mutation snapshots the
// batch and hands it to the configured saver while the store lock is held, so
// persisted checkpoints always reflect mutations in the order they happened.
package batch
