// Package state defines the persistence-facing contract used by the parameter
// store, plus the adapters that satisfy it.
//
// Responsibilities:
//   - Store[T] only loads/saves a single snapshot for a single Ref.
//   - FileStore[T] persists snapshots as indented JSON files, written through a
//     temp file and renamed into place, with configurable permission bits.
//   - ReadOnly wraps any Store so it can serve as a migration source that is
//     never written to.
//   - MemoryStore[T] is an in-memory adapter for tests and examples.
//
// Load distinguishes three outcomes:
//
//	ok=true,  err=nil  snapshot decoded
//	ok=false, err=nil  nothing stored at ref (missing file)
//	ok=false, err!=nil stored data could not be read or decoded (ErrCorrupt)
//
// Save failures are reported as *WriteError so callers can decide whether a
// retry makes sense (see IsRetryable).
package state
