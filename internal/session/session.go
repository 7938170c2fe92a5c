package session

import (
	"fmt"
	"image"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/contour"
	"github.com/ironsheep/annotate-mcp/internal/raster"
)

// Option configures a Session at construction.
type Option func(*Session)

// WithAreaThreshold sets the minimum contour area kept by commits. Contours
// with area at or below the threshold are dropped.
func WithAreaThreshold(threshold float64) Option {
	return func(s *Session) { s.areaThreshold = threshold }
}

// WithStore starts the session from an existing store, as when annotations
// are loaded from storage.
func WithStore(store *annotation.Store) Option {
	return func(s *Session) {
		if store != nil {
			s.store = store
		}
	}
}

// WithInterpolation controls whether consecutive stroke points are joined
// by intermediate discs.
func WithInterpolation(on bool) Option {
	return func(s *Session) { s.interpolate = on }
}

// Session is the editing state for one image slice.
type Session struct {
	width, height int
	classes       *annotation.ClassMap
	store         *annotation.Store

	paint *raster.Mask
	erase *raster.Mask

	suggestions []annotation.Suggestion

	areaThreshold float64
	interpolate   bool
}

// New creates a session for a width×height image. The class map is shared
// with the caller, which usually owns it at workspace level.
//
// Returns raster.ErrInvalidSize if either dimension is not positive.
func New(width, height int, classes *annotation.ClassMap, opts ...Option) (*Session, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", raster.ErrInvalidSize, width, height)
	}
	if classes == nil {
		classes = annotation.NewClassMap()
	}
	s := &Session{
		width:         width,
		height:        height,
		classes:       classes,
		store:         annotation.NewStore(),
		areaThreshold: contour.DefaultAreaThreshold,
		interpolate:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Size returns the image dimensions the session was created for.
func (s *Session) Size() (width, height int) { return s.width, s.height }

// Store returns the committed annotations. Callers must not mutate it while
// the session is in use elsewhere.
func (s *Session) Store() *annotation.Store { return s.store }

// Classes returns the shared class map.
func (s *Session) Classes() *annotation.ClassMap { return s.classes }

// Paint stamps brush discs of the given radius at each point, allocating the
// paint buffer on the first point. Points outside the image are clipped.
func (s *Session) Paint(points []image.Point, radius int) error {
	return s.stroke(&s.paint, points, radius)
}

// Erase stamps eraser discs, like Paint but into the eraser buffer.
func (s *Session) Erase(points []image.Point, radius int) error {
	return s.stroke(&s.erase, points, radius)
}

func (s *Session) stroke(buf **raster.Mask, points []image.Point, radius int) error {
	if len(points) == 0 {
		return nil
	}
	if *buf == nil {
		m, err := raster.New(s.width, s.height)
		if err != nil {
			return err
		}
		*buf = m
	}
	(*buf).StampStroke(points, radius, raster.Foreground, s.interpolate)
	return nil
}

// HasPendingEdits reports whether either buffer holds uncommitted strokes.
func (s *Session) HasPendingEdits() bool {
	return s.paint != nil || s.erase != nil
}

// PendingPaint returns the brush buffer, or nil when idle. The mask must be
// treated as read-only.
func (s *Session) PendingPaint() *raster.Mask { return s.paint }

// PendingErase returns the eraser buffer, or nil when idle. The mask must be
// treated as read-only.
func (s *Session) PendingErase() *raster.Mask { return s.erase }

// CommitPaint turns the brush buffer into polygon annotations of class.
//
// Each connected region whose contour area exceeds the threshold becomes one
// new annotation appended to the class list, in extractor order. New records
// carry no fragment number.
//
// An empty class drops the buffer and reports Dropped without error. A class
// that is not registered returns ErrUnknownClass and keeps the buffer so the
// caller can select a class and retry. Committing with no pending strokes is
// a no-op.
func (s *Session) CommitPaint(class string) (ChangeSet, error) {
	if s.paint == nil {
		return ChangeSet{}, nil
	}
	if class == "" {
		s.paint = nil
		return ChangeSet{Dropped: true}, nil
	}
	id, ok := s.classes.Lookup(class)
	if !ok {
		return ChangeSet{}, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}

	var cs ChangeSet
	for poly := range contour.Extract(s.paint, s.areaThreshold) {
		a := annotation.NewPolygon(poly, id, class)
		s.store.Append(a)
		cs.Inserted = append(cs.Inserted, Ref{Class: class, ID: a.ID})
	}
	s.paint = nil
	return cs, nil
}

// CommitErase subtracts the eraser buffer from every polygon annotation.
//
// For each polygon the eraser touches, the remaining pixels are re-traced:
//   - no surviving contour removes the record;
//   - one survivor replaces the outline, keeping ID and number;
//   - several survivors keep the ID on the first and insert the others as
//     new records, numbered through one Numberer per class.
//
// Polygons the eraser does not touch and rectangle records are kept as they
// are. New class lists are built aside and swapped into the store only after
// every class has been processed, so an error leaves the store and the
// eraser buffer untouched.
func (s *Session) CommitErase() (ChangeSet, error) {
	if s.erase == nil {
		return ChangeSet{}, nil
	}
	eraser := s.erase
	reach := eraser.ForegroundBounds()

	var cs ChangeSet
	lists := make(map[string][]annotation.Annotation)
	for class, list := range s.store.All() {
		numberer := annotation.NewNumberer(s.store.MaxNumber(class))
		next := make([]annotation.Annotation, 0, len(list))
		changed := false

		for _, a := range list {
			if a.Kind != annotation.Polygon || !a.Bounds().Overlaps(reach) {
				next = append(next, a)
				continue
			}
			m, err := a.Rasterize(s.width, s.height)
			if err != nil {
				return ChangeSet{}, fmt.Errorf("rasterize %s: %w", a.ID, err)
			}
			if !raster.Intersects(m, eraser) {
				next = append(next, a)
				continue
			}
			rest, err := raster.Subtract(m, eraser)
			if err != nil {
				return ChangeSet{}, fmt.Errorf("subtract from %s: %w", a.ID, err)
			}
			parts := contour.Collect(contour.Extract(rest, s.areaThreshold))
			changed = true

			switch len(parts) {
			case 0:
				cs.Removed = append(cs.Removed, Ref{Class: class, ID: a.ID})
			case 1:
				updated := a.Clone()
				updated.Segmentation = parts[0]
				next = append(next, updated)
				cs.Updated = append(cs.Updated, Ref{Class: class, ID: a.ID})
			default:
				numbers := numberer.Assign(a.Number, len(parts))
				for i, part := range parts {
					var frag annotation.Annotation
					if i == 0 {
						frag = a.Clone()
						frag.Segmentation = part
						cs.Updated = append(cs.Updated, Ref{Class: class, ID: a.ID})
					} else {
						frag = annotation.NewPolygon(part, a.CategoryID, a.CategoryName)
						cs.Inserted = append(cs.Inserted, Ref{Class: class, ID: frag.ID})
					}
					frag.Number = annotation.IntPtr(numbers[i])
					next = append(next, frag)
				}
			}
		}
		if changed {
			lists[class] = next
		}
	}

	if len(lists) > 0 {
		s.store.Replace(lists)
	}
	s.erase = nil
	return cs, nil
}

// DiscardPaint drops the brush buffer. The store is not touched.
func (s *Session) DiscardPaint() ChangeSet {
	s.paint = nil
	return ChangeSet{}
}

// DiscardErase drops the eraser buffer. The store is not touched.
func (s *Session) DiscardErase() ChangeSet {
	s.erase = nil
	return ChangeSet{}
}

// AddPolygon appends a hand-drawn polygon to a registered class.
func (s *Session) AddPolygon(class string, points []image.Point) (ChangeSet, error) {
	id, ok := s.classes.Lookup(class)
	if !ok {
		return ChangeSet{}, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	if len(points) < 3 {
		return ChangeSet{}, fmt.Errorf("%w: polygon needs at least 3 points, got %d",
			annotation.ErrInvalidGeometry, len(points))
	}
	a := annotation.NewPolygon(points, id, class)
	s.store.Append(a)
	return ChangeSet{Inserted: []Ref{{Class: class, ID: a.ID}}}, nil
}

// AddRectangle appends a box annotation to a registered class.
func (s *Session) AddRectangle(class string, box annotation.BBox) (ChangeSet, error) {
	id, ok := s.classes.Lookup(class)
	if !ok {
		return ChangeSet{}, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	a := annotation.NewRectangle(box, id, class)
	if err := a.Validate(); err != nil {
		return ChangeSet{}, err
	}
	s.store.Append(a)
	return ChangeSet{Inserted: []Ref{{Class: class, ID: a.ID}}}, nil
}

// Delete removes one record by ID.
func (s *Session) Delete(id string) (ChangeSet, error) {
	a, err := s.store.Remove(id)
	if err != nil {
		return ChangeSet{}, err
	}
	return ChangeSet{Removed: []Ref{{Class: a.CategoryName, ID: a.ID}}}, nil
}

// AnnotationMask rasterizes one committed record at image size.
func (s *Session) AnnotationMask(id string) (*raster.Mask, error) {
	a, ok := s.store.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", annotation.ErrNotFound, id)
	}
	return a.Rasterize(s.width, s.height)
}
