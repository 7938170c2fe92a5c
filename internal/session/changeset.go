package session

import "errors"

var (
	// ErrUnknownClass is returned when a commit or add names a class that is
	// not registered in the ClassMap.
	ErrUnknownClass = errors.New("unknown class")

	// ErrUnknownSuggestion is returned when accept or reject names a
	// suggestion id that is not pending.
	ErrUnknownSuggestion = errors.New("unknown suggestion")

	// ErrNoActiveImage is returned for edits that arrive before any image has
	// been opened.
	ErrNoActiveImage = errors.New("no active image")

	// ErrPendingEdits is returned when switching slices while strokes are
	// still uncommitted and no resolution was given.
	ErrPendingEdits = errors.New("pending edits on the active slice")

	// ErrInvalidRadius is returned for brush or eraser radii below 1.
	ErrInvalidRadius = errors.New("radius must be at least 1")
)

// Ref names one annotation record.
type Ref struct {
	Class string `json:"class"`
	ID    string `json:"id"`
}

// ChangeSet reports the effect of one operation on the Store.
type ChangeSet struct {
	Inserted []Ref `json:"inserted,omitempty"`
	Updated  []Ref `json:"updated,omitempty"`
	Removed  []Ref `json:"removed,omitempty"`

	// Dropped is set when a paint commit discarded the buffer because no
	// class was active.
	Dropped bool `json:"dropped,omitempty"`
}

// Empty reports whether the Store was left unchanged.
func (c ChangeSet) Empty() bool {
	return len(c.Inserted) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

// Merge appends the changes in o to c.
func (c *ChangeSet) Merge(o ChangeSet) {
	c.Inserted = append(c.Inserted, o.Inserted...)
	c.Updated = append(c.Updated, o.Updated...)
	c.Removed = append(c.Removed, o.Removed...)
	c.Dropped = c.Dropped || o.Dropped
}
