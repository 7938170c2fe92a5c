package raster

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/segment"
)

// Foreground is the value written by brush and eraser strokes.
const Foreground uint8 = 255

var (
	// ErrInvalidSize is returned when a mask is requested with non-positive
	// dimensions, which happens when no image has been loaded yet.
	ErrInvalidSize = errors.New("raster: mask dimensions must be positive")

	// ErrSizeMismatch is returned when two masks of different sizes are combined.
	ErrSizeMismatch = errors.New("raster: mask sizes differ")
)

// Mask is a dense 2D grid of single-byte intensity values.
//
// The zero value is not usable; create masks with New.
type Mask struct {
	width  int
	height int
	pix    []uint8
}

// New allocates a zero-filled mask sized to the active image.
//
// Returns ErrInvalidSize if width or height is not positive. A stroke that
// arrives before an image is loaded must be rejected rather than written into
// an undefined-size buffer.
func New(width, height int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &Mask{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height),
	}, nil
}

// FromImage binarizes an image into a mask. Pixels whose luminance is at or
// above level become foreground.
func FromImage(img image.Image, level uint8) *Mask {
	gray := segment.Threshold(img, level)
	b := gray.Bounds()
	m := &Mask{width: b.Dx(), height: b.Dy(), pix: make([]uint8, b.Dx()*b.Dy())}
	for y := 0; y < m.height; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+m.width]
		for x, v := range row {
			if v != 0 {
				m.pix[y*m.width+x] = Foreground
			}
		}
	}
	return m
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// Bounds returns the mask extent as an image.Rectangle anchored at (0,0).
func (m *Mask) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

// Pix exposes the row-major pixel buffer. Callers must not retain it across
// mutations.
func (m *Mask) Pix() []uint8 { return m.pix }

// At returns the value at (x, y), or 0 outside the mask.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0
	}
	return m.pix[y*m.width+x]
}

// Set writes value at (x, y). Coordinates outside the mask are ignored.
func (m *Mask) Set(x, y int, value uint8) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.pix[y*m.width+x] = value
}

// StampDisc writes a filled circle of the given value centered at center.
//
// The disc covers every pixel with dx²+dy² <= radius², clipped to the mask.
// A negative radius is treated as zero, which writes the center pixel only.
// Centers outside the mask are clipped silently; nothing is written if the
// disc does not overlap the mask.
func (m *Mask) StampDisc(center image.Point, radius int, value uint8) {
	if radius < 0 {
		radius = 0
	}
	r2 := radius * radius
	y0 := max(center.Y-radius, 0)
	y1 := min(center.Y+radius, m.height-1)
	for y := y0; y <= y1; y++ {
		dy := y - center.Y
		// half-width of the chord at this row
		span := int(math.Sqrt(float64(r2 - dy*dy)))
		x0 := max(center.X-span, 0)
		x1 := min(center.X+span, m.width-1)
		if x0 > x1 {
			continue
		}
		row := m.pix[y*m.width : (y+1)*m.width]
		for x := x0; x <= x1; x++ {
			row[x] = value
		}
	}
}

// StampDiscF is StampDisc for sub-pixel pointer positions. The center is
// rounded to the nearest pixel.
func (m *Mask) StampDiscF(x, y float64, radius int, value uint8) {
	m.StampDisc(image.Pt(int(math.Round(x)), int(math.Round(y))), radius, value)
}

// StampStroke stamps a disc at every point in arrival order.
//
// When interpolate is true, consecutive points further apart than half the
// radius are joined by additional discs along the segment so a fast pointer
// drag leaves a continuous stroke.
func (m *Mask) StampStroke(points []image.Point, radius int, value uint8, interpolate bool) {
	step := math.Max(1, float64(radius)/2)
	for i, p := range points {
		if interpolate && i > 0 {
			prev := points[i-1]
			dx := float64(p.X - prev.X)
			dy := float64(p.Y - prev.Y)
			dist := math.Hypot(dx, dy)
			if n := int(math.Ceil(dist / step)); n > 1 {
				for k := 1; k < n; k++ {
					t := float64(k) / float64(n)
					m.StampDiscF(float64(prev.X)+dx*t, float64(prev.Y)+dy*t, radius, value)
				}
			}
		}
		m.StampDisc(p, radius, value)
	}
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Empty reports whether the mask has no foreground pixels.
func (m *Mask) Empty() bool {
	for _, v := range m.pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// ForegroundBounds returns the smallest rectangle containing every
// foreground pixel, or an empty rectangle if there are none.
func (m *Mask) ForegroundBounds() image.Rectangle {
	minX, minY := m.width, m.height
	maxX, maxY := -1, -1
	for y := 0; y < m.height; y++ {
		row := m.pix[y*m.width : (y+1)*m.width]
		for x, v := range row {
			if v == 0 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	pix := make([]uint8, len(m.pix))
	copy(pix, m.pix)
	return &Mask{width: m.width, height: m.height, pix: pix}
}

// Equal reports whether two masks have the same size and the same
// foreground pixels. Foreground values are compared as booleans.
func (m *Mask) Equal(o *Mask) bool {
	if m.width != o.width || m.height != o.height {
		return false
	}
	for i, v := range m.pix {
		if (v != 0) != (o.pix[i] != 0) {
			return false
		}
	}
	return true
}

// Gray returns the mask as a grayscale image sharing no memory with m.
func (m *Mask) Gray() *image.Gray {
	img := image.NewGray(m.Bounds())
	copy(img.Pix, m.pix)
	return img
}
