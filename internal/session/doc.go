// Package session holds the editing state for annotating images: one Session
// per image slice, and a Workspace that tracks which slice is active.
//
// A Session owns the committed annotation Store for its slice together with
// two transient buffers, one for brush strokes and one for eraser strokes.
// Each buffer moves through the same life cycle:
//
//	Idle -> Accumulating (first stroke point) -> Committed | Discarded -> Idle
//
// Committing the brush buffer turns every sufficiently large connected region
// into a new polygon annotation. Committing the eraser buffer subtracts it from
// every polygon annotation in every class; annotations split into several
// pieces are numbered so the pieces stay identifiable.
//
// Pending suggestions from detectors or external models live beside the Store
// and only enter it when accepted.
//
// # Change Reporting
//
// Every mutating operation returns a ChangeSet listing the inserted, updated
// and removed records. The session never notifies anyone itself; the caller
// decides what to do with the ChangeSet (persist it, push a notification).
//
// # Thread Safety
//
// Neither Session nor Workspace holds locks. A single goroutine must own them,
// or callers must serialize access.
package session
