package annotation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("annotation: not found")

// Store is the authoritative mapping from class name to an ordered list of
// annotations for one image or slice.
//
// A Store is not safe for concurrent use. It is owned by a single editing
// session; callers that share it across goroutines must serialize access.
type Store struct {
	order []string
	lists map[string][]Annotation
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{lists: make(map[string][]Annotation)}
}

// Classes returns the class names in insertion order.
func (s *Store) Classes() []string { return slices.Clone(s.order) }

// Get returns a copy of the list for class. The copy shares point slices with
// the store; use Annotation.Clone before mutating geometry.
func (s *Store) Get(class string) []Annotation {
	return slices.Clone(s.lists[class])
}

// All iterates classes in order with their lists.
func (s *Store) All() iter.Seq2[string, []Annotation] {
	return func(yield func(string, []Annotation) bool) {
		for _, class := range s.order {
			if !yield(class, s.lists[class]) {
				return
			}
		}
	}
}

// Append adds a to the end of its class list, creating the class entry if
// needed. The class is taken from a.CategoryName.
func (s *Store) Append(a Annotation) {
	class := a.CategoryName
	if _, ok := s.lists[class]; !ok {
		s.order = append(s.order, class)
	}
	s.lists[class] = append(s.lists[class], a)
}

// Replace swaps in new lists for the given classes in one step. Classes
// already in the store keep their position; new classes are appended in
// sorted order. Classes not mentioned in lists are left untouched.
func (s *Store) Replace(lists map[string][]Annotation) {
	var added []string
	for class := range lists {
		if _, ok := s.lists[class]; !ok {
			added = append(added, class)
		}
	}
	sort.Strings(added)
	s.order = append(s.order, added...)
	for class, list := range lists {
		s.lists[class] = list
	}
}

// Find returns the record with the given ID.
func (s *Store) Find(id string) (Annotation, bool) {
	for _, class := range s.order {
		for _, a := range s.lists[class] {
			if a.ID == id {
				return a, true
			}
		}
	}
	return Annotation{}, false
}

// Remove deletes the record with the given ID. The class entry is kept even
// when its list becomes empty.
func (s *Store) Remove(id string) (Annotation, error) {
	for _, class := range s.order {
		list := s.lists[class]
		for i, a := range list {
			if a.ID == id {
				s.lists[class] = slices.Delete(slices.Clone(list), i, i+1)
				return a, nil
			}
		}
	}
	return Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Len returns the total number of records across all classes.
func (s *Store) Len() int {
	n := 0
	for _, list := range s.lists {
		n += len(list)
	}
	return n
}

// MaxNumber returns the largest fragment number in class, or 0 if none.
func (s *Store) MaxNumber(class string) int {
	m := 0
	for _, a := range s.lists[class] {
		if a.Number != nil {
			m = max(m, *a.Number)
		}
	}
	return m
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	out := &Store{order: slices.Clone(s.order), lists: make(map[string][]Annotation, len(s.lists))}
	for class, list := range s.lists {
		cp := make([]Annotation, len(list))
		for i, a := range list {
			cp[i] = a.Clone()
		}
		out.lists[class] = cp
	}
	return out
}

// MarshalJSON writes the store as a JSON object keyed by class name, in class
// order.
func (s *Store) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, class := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(class)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		list := s.lists[class]
		if list == nil {
			list = []Annotation{}
		}
		val, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("class %q: %w", class, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keyed by class name, keeping key order.
func (s *Store) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("annotation store: expected object, got %v", tok)
	}
	fresh := NewStore()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		class, ok := tok.(string)
		if !ok {
			return fmt.Errorf("annotation store: expected class name, got %v", tok)
		}
		var list []Annotation
		if err := dec.Decode(&list); err != nil {
			return fmt.Errorf("class %q: %w", class, err)
		}
		if _, dup := fresh.lists[class]; !dup {
			fresh.order = append(fresh.order, class)
		}
		if list == nil {
			list = []Annotation{}
		}
		fresh.lists[class] = list
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = *fresh
	return nil
}
