// Package persist writes task collection snapshots to a key-value store
// in the background.
//
// A Queue owns a single writer goroutine, so snapshots reach the store in
// the order they were submitted. Each snapshot replaces the whole stored
// value, which means a snapshot that is superseded before its write starts
// can be dropped: the store always converges on the newest submission.
//
// Write errors are logged and counted, never returned to the submitter.
// Flush waits for everything submitted so far; Close flushes and stops the
// writer.
package persist
