//go:build gocv

package contour

import (
	"image"
	"sort"
	"testing"
)

func TestExtractOpenCV_MatchesExtract(t *testing.T) {
	m := newMask(t, 120, 80)
	m.StampDisc(image.Pt(25, 25), 12, 255)
	m.FillRect(image.Rect(60, 10, 100, 40), 255)
	m.StampDisc(image.Pt(80, 65), 8, 255)
	m.Set(5, 75, 255)

	ours := Collect(Extract(m, DefaultAreaThreshold))
	theirs, err := ExtractOpenCV(m, DefaultAreaThreshold)
	if err != nil {
		t.Fatalf("ExtractOpenCV failed: %v", err)
	}
	if len(ours) != len(theirs) {
		t.Fatalf("Extract found %d regions, OpenCV %d", len(ours), len(theirs))
	}

	bounds := func(ps []Polygon) []image.Rectangle {
		out := make([]image.Rectangle, len(ps))
		for i, p := range ps {
			out[i] = p.Bounds()
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Min.X != out[j].Min.X {
				return out[i].Min.X < out[j].Min.X
			}
			return out[i].Min.Y < out[j].Min.Y
		})
		return out
	}
	a, b := bounds(ours), bounds(theirs)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("region %d: Extract bounds %v, OpenCV %v", i, a[i], b[i])
		}
	}
}
