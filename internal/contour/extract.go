package contour

import (
	"image"
	"iter"
	"math"

	"github.com/ironsheep/annotate-mcp/internal/raster"
)

// DefaultAreaThreshold is the minimum enclosed area, in square pixels, that a
// traced contour must exceed to be kept. Smaller contours are noise.
const DefaultAreaThreshold = 10.0

// Polygon is a closed outline in pixel coordinates. The last vertex connects
// back to the first.
type Polygon []image.Point

// Area returns the absolute enclosed area of p using the shoelace formula.
// Polygons with fewer than three vertices have zero area.
func Area(p Polygon) float64 {
	if len(p) < 3 {
		return 0
	}
	var sum int64
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		sum += int64(a.X)*int64(b.Y) - int64(b.X)*int64(a.Y)
	}
	return math.Abs(float64(sum)) / 2
}

// Bounds returns the smallest rectangle containing every vertex of p. Max is
// exclusive, matching image.Rectangle.
func (p Polygon) Bounds() image.Rectangle {
	if len(p) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: p[0], Max: p[0].Add(image.Pt(1, 1))}
	for _, v := range p[1:] {
		r = r.Union(image.Rectangle{Min: v, Max: v.Add(image.Pt(1, 1))})
	}
	return r
}

// Extract returns the external boundaries of the foreground regions of mask
// whose area is strictly greater than areaThreshold.
//
// The sequence is lazy and restartable. Regions are yielded in the order their
// first pixel is met by a top-to-bottom, left-to-right scan; this order depends
// on the mask contents and is not stable across different masks.
func Extract(mask *raster.Mask, areaThreshold float64) iter.Seq[Polygon] {
	return func(yield func(Polygon) bool) {
		t := newTracer(mask)
		for y := 1; y <= mask.Height(); y++ {
			for x := 1; x <= mask.Width(); x++ {
				i := t.idx(x, y)
				if t.fg[i] == 0 || t.seen[i] {
					continue
				}
				// The pixel above a region's first pixel is always exterior to
				// that region; if it is not connected to the border the region
				// lives inside another region's hole.
				external := t.outside[i-t.stride]
				var poly Polygon
				if external {
					poly = compress(t.follow(x, y))
				}
				t.markRegion(x, y)
				if !external || Area(poly) <= areaThreshold {
					continue
				}
				if !yield(poly) {
					return
				}
			}
		}
	}
}

// Collect materializes a sequence of polygons.
func Collect(seq iter.Seq[Polygon]) []Polygon {
	var out []Polygon
	for p := range seq {
		out = append(out, p)
	}
	return out
}

// Neighbor offsets, counterclockwise on screen starting east.
var (
	dirX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	dirY = [8]int{0, -1, -1, -1, 0, 1, 1, 1}
)

// tracer holds a one-pixel padded copy of the mask so neighbor lookups never
// need bounds checks.
type tracer struct {
	stride  int
	fg      []uint8
	seen    []bool
	outside []bool
}

func newTracer(m *raster.Mask) *tracer {
	w, h := m.Width(), m.Height()
	stride := w + 2
	t := &tracer{
		stride:  stride,
		fg:      make([]uint8, stride*(h+2)),
		seen:    make([]bool, stride*(h+2)),
		outside: make([]bool, stride*(h+2)),
	}
	pix := m.Pix()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if pix[y*w+x] != 0 {
				t.fg[(y+1)*stride+x+1] = 1
			}
		}
	}
	t.floodOutside(h + 2)
	return t
}

func (t *tracer) idx(x, y int) int { return y*t.stride + x }

// floodOutside marks background connected to the padding frame.
func (t *tracer) floodOutside(rows int) {
	stack := []int{0}
	t.outside[0] = true
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%t.stride, i/t.stride
		for _, d := range [4]int{0, 2, 4, 6} {
			nx, ny := x+dirX[d], y+dirY[d]
			if nx < 0 || ny < 0 || nx >= t.stride || ny >= rows {
				continue
			}
			j := t.idx(nx, ny)
			if t.fg[j] != 0 || t.outside[j] {
				continue
			}
			t.outside[j] = true
			stack = append(stack, j)
		}
	}
}

// markRegion flood-fills the 8-connected region containing (x, y).
func (t *tracer) markRegion(x, y int) {
	start := t.idx(x, y)
	t.seen[start] = true
	stack := []int{start}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cx, cy := i%t.stride, i/t.stride
		for d := 0; d < 8; d++ {
			j := t.idx(cx+dirX[d], cy+dirY[d])
			if t.fg[j] == 0 || t.seen[j] {
				continue
			}
			t.seen[j] = true
			stack = append(stack, j)
		}
	}
}

// follow traces the outer border starting at (x, y), whose west neighbor is
// background. Returned points are in unpadded mask coordinates.
func (t *tracer) follow(x, y int) []image.Point {
	start := image.Pt(x, y)
	pt := func(p image.Point) image.Point { return p.Sub(image.Pt(1, 1)) }

	// Search clockwise from the west neighbor for the first foreground pixel.
	first, ok := t.scan(start, 4, -1)
	if !ok {
		return []image.Point{pt(start)}
	}

	chain := []image.Point{}
	prev, cur := first, start
	for {
		// Search counterclockwise, starting just past the pixel we came from.
		next, _ := t.scan(cur, dirTo(cur, prev)+1, 1)
		chain = append(chain, pt(cur))
		if next == start && cur == first {
			return chain
		}
		prev, cur = cur, next
	}
}

// scan walks the 8 neighbors of c beginning at direction from, stepping by
// step (+1 counterclockwise, -1 clockwise), and returns the first foreground
// neighbor.
func (t *tracer) scan(c image.Point, from, step int) (image.Point, bool) {
	for k := 0; k < 8; k++ {
		d := ((from+step*k)%8 + 8) % 8
		n := image.Pt(c.X+dirX[d], c.Y+dirY[d])
		if t.fg[t.idx(n.X, n.Y)] != 0 {
			return n, true
		}
	}
	return image.Point{}, false
}

// dirTo returns the direction index from a to its neighbor b.
func dirTo(a, b image.Point) int {
	dx, dy := b.X-a.X, b.Y-a.Y
	for d := 0; d < 8; d++ {
		if dirX[d] == dx && dirY[d] == dy {
			return d
		}
	}
	return 0
}

// compress keeps the first point and every point where the chain changes
// direction.
func compress(chain []image.Point) Polygon {
	n := len(chain)
	if n <= 2 {
		return Polygon(chain)
	}
	out := Polygon{chain[0]}
	for i := 1; i < n; i++ {
		in := chain[i].Sub(chain[i-1])
		next := chain[(i+1)%n].Sub(chain[i])
		if in != next {
			out = append(out, chain[i])
		}
	}
	return out
}
