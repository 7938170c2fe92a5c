package raster

import (
	"fmt"
	"image"
	"math"
	"slices"
)

// Rasterize fills a new width×height mask with the interior of poly.
//
// The fill rule is even-odd with pixel centers at integer coordinates, and the
// boundary is inclusive: every edge is also drawn, so a polygon traced through
// boundary pixel centers covers exactly the region it was traced from.
// Vertices outside the mask are clipped. An empty polygon yields an empty mask.
//
// Returns ErrInvalidSize if the dimensions are not positive.
func Rasterize(poly []image.Point, width, height int) (*Mask, error) {
	m, err := New(width, height)
	if err != nil {
		return nil, err
	}
	m.FillPolygon(poly, Foreground)
	return m, nil
}

// FillPolygon writes value into every pixel inside or on poly.
func (m *Mask) FillPolygon(poly []image.Point, value uint8) {
	n := len(poly)
	if n == 0 {
		return
	}

	minY, maxY := poly[0].Y, poly[0].Y
	for _, p := range poly[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	minY = max(minY, 0)
	maxY = min(maxY, m.height-1)

	// Scanline fill. An edge contributes a crossing on row y when y lies in
	// the half-open interval [min(ya,yb), max(ya,yb)); horizontal edges never
	// cross and are covered by the outline pass below.
	xs := make([]float64, 0, 16)
	for y := minY; y <= maxY; y++ {
		xs = xs[:0]
		for i := 0; i < n; i++ {
			a, b := poly[i], poly[(i+1)%n]
			if a.Y == b.Y {
				continue
			}
			lo, hi := a, b
			if lo.Y > hi.Y {
				lo, hi = hi, lo
			}
			if y < lo.Y || y >= hi.Y {
				continue
			}
			t := float64(y-lo.Y) / float64(hi.Y-lo.Y)
			xs = append(xs, float64(lo.X)+t*float64(hi.X-lo.X))
		}
		slices.Sort(xs)
		for k := 0; k+1 < len(xs); k += 2 {
			x0 := max(int(math.Ceil(xs[k])), 0)
			x1 := min(int(math.Floor(xs[k+1])), m.width-1)
			for x := x0; x <= x1; x++ {
				m.pix[y*m.width+x] = value
			}
		}
	}

	for i := 0; i < n; i++ {
		m.line(poly[i], poly[(i+1)%n], value)
	}
}

// FillRect writes value into the rectangle r, clipped to the mask.
func (m *Mask) FillRect(r image.Rectangle, value uint8) {
	r = r.Intersect(m.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.pix[y*m.width : (y+1)*m.width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = value
		}
	}
}

// line draws a Bresenham segment between a and b inclusive.
func (m *Mask) line(a, b image.Point, value uint8) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		m.Set(x, y, value)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// Subtract returns a new mask equal to mask AND NOT eraser: a pixel stays set
// when it is set in mask and not set in eraser. Set pixels keep their value
// from mask.
//
// Subtracting the same eraser twice gives the same result as subtracting it
// once. Returns ErrSizeMismatch if the masks differ in size.
func Subtract(mask, eraser *Mask) (*Mask, error) {
	if mask.width != eraser.width || mask.height != eraser.height {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch,
			mask.width, mask.height, eraser.width, eraser.height)
	}
	out := mask.Clone()
	for i, v := range eraser.pix {
		if v != 0 {
			out.pix[i] = 0
		}
	}
	return out, nil
}

// Intersects reports whether the two masks share at least one foreground
// pixel. Masks of different sizes are compared over their common extent.
func Intersects(a, b *Mask) bool {
	w := min(a.width, b.width)
	h := min(a.height, b.height)
	for y := 0; y < h; y++ {
		ra := a.pix[y*a.width : y*a.width+w]
		rb := b.pix[y*b.width : y*b.width+w]
		for x := range ra {
			if ra[x] != 0 && rb[x] != 0 {
				return true
			}
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
