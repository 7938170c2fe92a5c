package session

import (
	"fmt"
	"image"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/contour"
	"github.com/ironsheep/annotate-mcp/internal/raster"
)

// SliceKey identifies one editable image plane. Single images use slice 0.
type SliceKey struct {
	Image string `json:"image"`
	Slice int    `json:"slice"`
}

// String formats the key as "<image>#<slice>", the form used for storage keys.
func (k SliceKey) String() string {
	return fmt.Sprintf("%s#%d", k.Image, k.Slice)
}

// Resolution says what to do with pending strokes when switching slices.
type Resolution int

const (
	// ResolveNone refuses to switch while edits are pending.
	ResolveNone Resolution = iota
	// ResolveCommit commits pending paint (with the active class) and
	// pending erase before switching.
	ResolveCommit
	// ResolveDiscard drops pending strokes before switching.
	ResolveDiscard
)

// ParseResolution maps "commit", "discard" and "" to a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch s {
	case "", "none":
		return ResolveNone, nil
	case "commit":
		return ResolveCommit, nil
	case "discard":
		return ResolveDiscard, nil
	default:
		return ResolveNone, fmt.Errorf("unknown resolution %q (use commit or discard)", s)
	}
}

// Config holds the editor settings shared by every session in a workspace.
type Config struct {
	PaintRadius   int
	EraserRadius  int
	AreaThreshold float64
	Interpolate   bool
}

// DefaultConfig returns radius 10 for both tools and the default contour area
// threshold.
func DefaultConfig() Config {
	return Config{
		PaintRadius:   10,
		EraserRadius:  10,
		AreaThreshold: contour.DefaultAreaThreshold,
		Interpolate:   true,
	}
}

// Workspace tracks the class map, tool settings, and one Session per slice,
// with at most one slice active.
type Workspace struct {
	cfg      Config
	classes  *annotation.ClassMap
	sessions map[SliceKey]*Session

	active      *Session
	activeKey   SliceKey
	activeClass string
}

// NewWorkspace creates an empty workspace. Radii below 1 are raised to 1.
func NewWorkspace(cfg Config) *Workspace {
	cfg.PaintRadius = max(cfg.PaintRadius, 1)
	cfg.EraserRadius = max(cfg.EraserRadius, 1)
	return &Workspace{
		cfg:      cfg,
		classes:  annotation.NewClassMap(),
		sessions: make(map[SliceKey]*Session),
	}
}

// Classes returns the class map shared by all sessions.
func (w *Workspace) Classes() *annotation.ClassMap { return w.classes }

// Has reports whether a session exists for key.
func (w *Workspace) Has(key SliceKey) bool {
	_, ok := w.sessions[key]
	return ok
}

// Open activates the slice key, creating its session on first use with the
// given dimensions and options (typically WithStore for preloaded data).
//
// If the active session has pending strokes, res decides what happens to
// them. ResolveNone returns ErrPendingEdits and leaves everything as it was.
// The returned ChangeSet holds whatever ResolveCommit changed on the slice
// being left.
func (w *Workspace) Open(key SliceKey, width, height int, res Resolution, opts ...Option) (*Session, ChangeSet, error) {
	if w.active != nil && key == w.activeKey {
		return w.active, ChangeSet{}, nil
	}

	s, ok := w.sessions[key]
	if !ok {
		base := []Option{WithAreaThreshold(w.cfg.AreaThreshold), WithInterpolation(w.cfg.Interpolate)}
		var err error
		s, err = New(width, height, w.classes, append(base, opts...)...)
		if err != nil {
			return nil, ChangeSet{}, err
		}
	}

	var resolved ChangeSet
	if w.active != nil && w.active.HasPendingEdits() {
		switch res {
		case ResolveCommit:
			cs, err := w.commitAll()
			if err != nil {
				return nil, ChangeSet{}, err
			}
			resolved = cs
		case ResolveDiscard:
			w.active.DiscardPaint()
			w.active.DiscardErase()
		default:
			return nil, ChangeSet{}, fmt.Errorf("%w: %s", ErrPendingEdits, w.activeKey)
		}
	}

	w.sessions[key] = s
	w.active = s
	w.activeKey = key
	return s, resolved, nil
}

func (w *Workspace) commitAll() (ChangeSet, error) {
	cs, err := w.active.CommitPaint(w.activeClass)
	if err != nil {
		return ChangeSet{}, err
	}
	erased, err := w.active.CommitErase()
	if err != nil {
		return ChangeSet{}, err
	}
	cs.Merge(erased)
	return cs, nil
}

// Active returns the active session and its key, or ErrNoActiveImage.
func (w *Workspace) Active() (*Session, SliceKey, error) {
	if w.active == nil {
		return nil, SliceKey{}, ErrNoActiveImage
	}
	return w.active, w.activeKey, nil
}

// AddClass registers name, returning its category id and whether it is new.
func (w *Workspace) AddClass(name string) (int, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("%w: empty class name", ErrUnknownClass)
	}
	id, created := w.classes.Ensure(name)
	return id, created, nil
}

// SelectClass makes name the class used by paint commits. An empty name
// clears the selection.
func (w *Workspace) SelectClass(name string) error {
	if name != "" {
		if _, ok := w.classes.Lookup(name); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownClass, name)
		}
	}
	w.activeClass = name
	return nil
}

// ActiveClass returns the selected class, or "" if none.
func (w *Workspace) ActiveClass() string { return w.activeClass }

// SetBrushRadius sets the default paint radius.
func (w *Workspace) SetBrushRadius(r int) error {
	if r < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidRadius, r)
	}
	w.cfg.PaintRadius = r
	return nil
}

// SetEraserRadius sets the default eraser radius.
func (w *Workspace) SetEraserRadius(r int) error {
	if r < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidRadius, r)
	}
	w.cfg.EraserRadius = r
	return nil
}

// Radii returns the current paint and eraser radii.
func (w *Workspace) Radii() (paint, eraser int) {
	return w.cfg.PaintRadius, w.cfg.EraserRadius
}

// Paint strokes the active session's brush buffer. A radius of 0 uses the
// workspace default.
func (w *Workspace) Paint(points []image.Point, radius int) error {
	s, _, err := w.Active()
	if err != nil {
		return err
	}
	if radius <= 0 {
		radius = w.cfg.PaintRadius
	}
	return s.Paint(points, radius)
}

// Erase strokes the active session's eraser buffer. A radius of 0 uses the
// workspace default.
func (w *Workspace) Erase(points []image.Point, radius int) error {
	s, _, err := w.Active()
	if err != nil {
		return err
	}
	if radius <= 0 {
		radius = w.cfg.EraserRadius
	}
	return s.Erase(points, radius)
}

// CommitPaint commits the active session's brush buffer with the active class.
func (w *Workspace) CommitPaint() (ChangeSet, error) {
	s, _, err := w.Active()
	if err != nil {
		return ChangeSet{}, err
	}
	return s.CommitPaint(w.activeClass)
}

// CommitErase commits the active session's eraser buffer.
func (w *Workspace) CommitErase() (ChangeSet, error) {
	s, _, err := w.Active()
	if err != nil {
		return ChangeSet{}, err
	}
	return s.CommitErase()
}

// PendingMasks returns the brush and eraser buffers of the active session.
// Either may be nil.
func (w *Workspace) PendingMasks() (paint, erase *raster.Mask) {
	if w.active == nil {
		return nil, nil
	}
	return w.active.PendingPaint(), w.active.PendingErase()
}
