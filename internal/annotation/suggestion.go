package annotation

import (
	"encoding/json"
	"image"
	"slices"

	"github.com/google/uuid"
)

// Suggestion sources.
const (
	SourceShapes   = "shapes"
	SourceSegment  = "segment"
	SourceOCR      = "ocr"
	SourceExternal = "external"
)

// Suggestion is a candidate annotation produced by a detector or model. It is
// held outside the Store until accepted, and never takes part in eraser
// commits while pending.
type Suggestion struct {
	ID           string        `json:"id"`
	Kind         Kind          `json:"-"`
	Segmentation []image.Point `json:"-"`
	BBox         BBox          `json:"-"`
	CategoryName string        `json:"category_name"`

	// Score and Source are transient: they are dropped on accept.
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// NewPolygonSuggestion builds a polygon candidate with a fresh ID.
func NewPolygonSuggestion(points []image.Point, class string, score float64, source string) Suggestion {
	return Suggestion{
		ID:           uuid.NewString(),
		Kind:         Polygon,
		Segmentation: slices.Clone(points),
		CategoryName: class,
		Score:        score,
		Source:       source,
	}
}

// NewBoxSuggestion builds a rectangle candidate with a fresh ID.
func NewBoxSuggestion(box BBox, class string, score float64, source string) Suggestion {
	return Suggestion{
		ID:           uuid.NewString(),
		Kind:         Rectangle,
		BBox:         box,
		CategoryName: class,
		Score:        score,
		Source:       source,
	}
}

// Annotation converts the suggestion into a committed record for the given
// category id, stripping the transient fields. The record gets a fresh ID so
// suggestion and annotation identities never mix.
func (s Suggestion) Annotation(categoryID int) Annotation {
	if s.Kind == Rectangle {
		return NewRectangle(s.BBox, categoryID, s.CategoryName)
	}
	return NewPolygon(s.Segmentation, categoryID, s.CategoryName)
}

// Validate checks the suggestion geometry the same way Annotation does.
func (s Suggestion) Validate() error {
	return Annotation{Kind: s.Kind, Segmentation: s.Segmentation, BBox: s.BBox}.Validate()
}

// MarshalJSON includes the geometry in persisted form alongside the transient
// fields.
func (s Suggestion) MarshalJSON() ([]byte, error) {
	type plain Suggestion
	out := struct {
		plain
		Kind         string `json:"kind"`
		Segmentation []int  `json:"segmentation,omitempty"`
		BBox         []int  `json:"bbox,omitempty"`
	}{plain: plain(s), Kind: s.Kind.String()}
	if s.Kind == Rectangle {
		out.BBox = []int{s.BBox.X, s.BBox.Y, s.BBox.Width, s.BBox.Height}
	} else {
		out.Segmentation = FlattenPoints(s.Segmentation)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a candidate in persisted form: "segmentation" or "bbox",
// "category_name", and optional "score", "source" and "id".
func (s *Suggestion) UnmarshalJSON(data []byte) error {
	var w struct {
		ID           string  `json:"id"`
		Segmentation []int   `json:"segmentation"`
		BBox         []int   `json:"bbox"`
		CategoryName string  `json:"category_name"`
		Score        float64 `json:"score"`
		Source       string  `json:"source"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Suggestion{ID: w.ID, CategoryName: w.CategoryName, Score: w.Score, Source: w.Source}
	kind, pts, box, err := decodeGeometry(w.Segmentation, w.BBox)
	if err != nil {
		return err
	}
	out.Kind, out.Segmentation, out.BBox = kind, pts, box
	if out.Source == "" {
		out.Source = SourceExternal
	}
	*s = out
	return nil
}
