package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/google/uuid"

	"github.com/ironsheep/annotate-mcp/internal/raster"
)

// Kind distinguishes the geometry carried by an Annotation.
type Kind int

const (
	// Polygon annotations carry a closed outline in Segmentation.
	Polygon Kind = iota
	// Rectangle annotations carry an axis-aligned box in BBox.
	Rectangle
)

// String returns "polygon" or "rectangle".
func (k Kind) String() string {
	switch k {
	case Polygon:
		return "polygon"
	case Rectangle:
		return "rectangle"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ErrInvalidGeometry is returned for records that carry no usable geometry.
var ErrInvalidGeometry = errors.New("annotation: invalid geometry")

// BBox is an axis-aligned box: top-left corner plus size, in pixels.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the box to an image.Rectangle.
func (b BBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Annotation is one committed record in a class list.
type Annotation struct {
	// ID identifies the record in change reports. It is never reused.
	ID string

	Kind         Kind
	Segmentation []image.Point
	BBox         BBox

	CategoryID   int
	CategoryName string

	// Number is set on fragments produced by an eraser split, and kept by any
	// record that already had one.
	Number *int
}

// NewPolygon builds a polygon annotation with a fresh ID.
func NewPolygon(points []image.Point, categoryID int, categoryName string) Annotation {
	return Annotation{
		ID:           uuid.NewString(),
		Kind:         Polygon,
		Segmentation: slices.Clone(points),
		CategoryID:   categoryID,
		CategoryName: categoryName,
	}
}

// NewRectangle builds a rectangle annotation with a fresh ID.
func NewRectangle(box BBox, categoryID int, categoryName string) Annotation {
	return Annotation{
		ID:           uuid.NewString(),
		Kind:         Rectangle,
		BBox:         box,
		CategoryID:   categoryID,
		CategoryName: categoryName,
	}
}

// IntPtr returns a pointer to a copy of v.
func IntPtr(v int) *int { return &v }

// Validate checks that the record carries geometry matching its kind.
func (a Annotation) Validate() error {
	switch a.Kind {
	case Polygon:
		if len(a.Segmentation) == 0 {
			return fmt.Errorf("%w: polygon without points", ErrInvalidGeometry)
		}
	case Rectangle:
		if a.BBox.Width <= 0 || a.BBox.Height <= 0 {
			return fmt.Errorf("%w: rectangle %dx%d", ErrInvalidGeometry, a.BBox.Width, a.BBox.Height)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidGeometry, a.Kind)
	}
	return nil
}

// Bounds returns the pixel extent of the record. Max is exclusive.
func (a Annotation) Bounds() image.Rectangle {
	if a.Kind == Rectangle {
		return a.BBox.Rect()
	}
	if len(a.Segmentation) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: a.Segmentation[0], Max: a.Segmentation[0].Add(image.Pt(1, 1))}
	for _, p := range a.Segmentation[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}

// Rasterize draws the record into a new width×height mask. Polygons use the
// inclusive even-odd fill; rectangles cover [X, X+Width) × [Y, Y+Height).
func (a Annotation) Rasterize(width, height int) (*raster.Mask, error) {
	m, err := raster.New(width, height)
	if err != nil {
		return nil, err
	}
	if a.Kind == Rectangle {
		m.FillRect(a.BBox.Rect(), raster.Foreground)
	} else {
		m.FillPolygon(a.Segmentation, raster.Foreground)
	}
	return m, nil
}

// Clone returns a deep copy sharing no slices or pointers with a.
func (a Annotation) Clone() Annotation {
	out := a
	out.Segmentation = slices.Clone(a.Segmentation)
	if a.Number != nil {
		out.Number = IntPtr(*a.Number)
	}
	return out
}

type wireAnnotation struct {
	ID           string `json:"id,omitempty"`
	Segmentation []int  `json:"segmentation,omitempty"`
	BBox         []int  `json:"bbox,omitempty"`
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name"`
	Number       *int   `json:"number,omitempty"`
}

// MarshalJSON writes the persisted record shape with a flat segmentation.
func (a Annotation) MarshalJSON() ([]byte, error) {
	w := wireAnnotation{
		ID:           a.ID,
		CategoryID:   a.CategoryID,
		CategoryName: a.CategoryName,
		Number:       a.Number,
	}
	switch a.Kind {
	case Polygon:
		w.Segmentation = FlattenPoints(a.Segmentation)
	case Rectangle:
		w.BBox = []int{a.BBox.X, a.BBox.Y, a.BBox.Width, a.BBox.Height}
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the persisted record shape. Exactly one of
// "segmentation" and "bbox" must be present.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var w wireAnnotation
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Annotation{
		ID:           w.ID,
		CategoryID:   w.CategoryID,
		CategoryName: w.CategoryName,
		Number:       w.Number,
	}
	kind, pts, box, err := decodeGeometry(w.Segmentation, w.BBox)
	if err != nil {
		return err
	}
	out.Kind, out.Segmentation, out.BBox = kind, pts, box
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	*a = out
	return nil
}

// decodeGeometry picks the record kind from whichever of the flat
// segmentation and the bbox list is present.
func decodeGeometry(seg, bbox []int) (Kind, []image.Point, BBox, error) {
	switch {
	case len(seg) > 0 && len(bbox) > 0:
		return 0, nil, BBox{}, fmt.Errorf("%w: both segmentation and bbox present", ErrInvalidGeometry)
	case len(seg) > 0:
		pts, err := UnflattenPoints(seg)
		if err != nil {
			return 0, nil, BBox{}, err
		}
		return Polygon, pts, BBox{}, nil
	case len(bbox) == 4:
		return Rectangle, nil, BBox{X: bbox[0], Y: bbox[1], Width: bbox[2], Height: bbox[3]}, nil
	default:
		return 0, nil, BBox{}, fmt.Errorf("%w: need segmentation or a 4-element bbox", ErrInvalidGeometry)
	}
}

// FlattenPoints converts points to [x0,y0,x1,y1,...].
func FlattenPoints(pts []image.Point) []int {
	flat := make([]int, 0, 2*len(pts))
	for _, p := range pts {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

// UnflattenPoints converts [x0,y0,x1,y1,...] to points. An odd-length list is
// an error.
func UnflattenPoints(flat []int) ([]image.Point, error) {
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("%w: odd coordinate count %d", ErrInvalidGeometry, len(flat))
	}
	pts := make([]image.Point, len(flat)/2)
	for i := range pts {
		pts[i] = image.Pt(flat[2*i], flat[2*i+1])
	}
	return pts, nil
}
