package session

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
)

// Suggest queues candidate annotations for review. Candidates without an ID
// get one. All candidates are validated before any is queued.
//
// Returns the queued candidates with their IDs.
func (s *Session) Suggest(items []annotation.Suggestion) ([]annotation.Suggestion, error) {
	queued := make([]annotation.Suggestion, 0, len(items))
	for i, sg := range items {
		if err := sg.Validate(); err != nil {
			return nil, fmt.Errorf("suggestion %d: %w", i, err)
		}
		if sg.CategoryName == "" {
			return nil, fmt.Errorf("suggestion %d: %w: empty class name", i, ErrUnknownClass)
		}
		if sg.ID == "" {
			sg.ID = uuid.NewString()
		}
		queued = append(queued, sg)
	}
	s.suggestions = append(s.suggestions, queued...)
	return queued, nil
}

// Suggestions lists the pending candidates in arrival order.
func (s *Session) Suggestions() []annotation.Suggestion {
	return slices.Clone(s.suggestions)
}

// Accept moves the named candidates into the store, or every pending
// candidate when ids is empty.
//
// Classes are registered on demand. Score and source are dropped; the stored
// record keeps only geometry and class. Unknown ids return
// ErrUnknownSuggestion before anything changes.
func (s *Session) Accept(ids []string) (ChangeSet, error) {
	picked, err := s.pick(ids)
	if err != nil {
		return ChangeSet{}, err
	}

	var cs ChangeSet
	kept := s.suggestions[:0:0]
	for i, sg := range s.suggestions {
		if !picked[i] {
			kept = append(kept, sg)
			continue
		}
		id, _ := s.classes.Ensure(sg.CategoryName)
		a := sg.Annotation(id)
		s.store.Append(a)
		cs.Inserted = append(cs.Inserted, Ref{Class: a.CategoryName, ID: a.ID})
	}
	s.suggestions = kept
	return cs, nil
}

// Reject drops the named candidates, or all of them when ids is empty, and
// returns how many were dropped. The store is not touched.
func (s *Session) Reject(ids []string) (int, error) {
	picked, err := s.pick(ids)
	if err != nil {
		return 0, err
	}
	kept := s.suggestions[:0:0]
	for i, sg := range s.suggestions {
		if !picked[i] {
			kept = append(kept, sg)
		}
	}
	n := len(s.suggestions) - len(kept)
	s.suggestions = kept
	return n, nil
}

// pick resolves ids to positions in the pending list.
func (s *Session) pick(ids []string) (map[int]bool, error) {
	picked := make(map[int]bool, len(s.suggestions))
	if len(ids) == 0 {
		for i := range s.suggestions {
			picked[i] = true
		}
		return picked, nil
	}
	for _, id := range ids {
		i := slices.IndexFunc(s.suggestions, func(sg annotation.Suggestion) bool { return sg.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSuggestion, id)
		}
		picked[i] = true
	}
	return picked, nil
}
