package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/anthonynsimon/bild/blend"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/raster"
)

// DefaultFillOpacity is the weight of class colour over the image inside
// annotations.
const DefaultFillOpacity = 0.3

// OverlayOptions controls RenderOverlay.
type OverlayOptions struct {
	// FillOpacity in [0,1]; values outside are clamped.
	FillOpacity float64

	// PaintClassID picks the colour of pending brush strokes.
	PaintClassID int

	// ShowNumbers labels split fragments with their number.
	ShowNumbers bool

	// Scale resizes the result; 0 or 1 keeps the image size.
	Scale float64
}

// OverlayResult is a rendered overlay as base64 PNG.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Annotations int    `json:"annotations"`
}

// Pending carries uncommitted stroke buffers to draw. Either may be nil.
type Pending struct {
	Paint *raster.Mask
	Erase *raster.Mask
}

// RenderOverlay draws every annotation in store over img.
//
// Annotation interiors are tinted with their class colour at FillOpacity and
// outlined at full strength. Pending brush strokes use the colour of
// PaintClassID and pending eraser strokes are grey, so the reviewer sees
// what a commit would do.
//
// Masks that do not match the image size are skipped.
func RenderOverlay(img image.Image, store *annotation.Store, pending Pending, opts OverlayOptions) (*OverlayResult, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image")
	}
	opacity := min(max(opts.FillOpacity, 0), 1)

	base := imaging.Clone(img)
	tint := imaging.Clone(img)

	type outline struct {
		mask *raster.Mask
		c    color.RGBA
	}
	type label struct {
		at   image.Point
		text string
	}
	var outlines []outline
	var labels []label
	count := 0

	for _, list := range store.All() {
		for _, a := range list {
			m, err := a.Rasterize(w, h)
			if err != nil {
				return nil, fmt.Errorf("rasterize %s: %w", a.ID, err)
			}
			c := rgba(ClassColor(a.CategoryID))
			fillMask(tint, m, c)
			outlines = append(outlines, outline{m, c})
			if opts.ShowNumbers && a.Number != nil {
				labels = append(labels, label{a.Bounds().Min, strconv.Itoa(*a.Number)})
			}
			count++
		}
	}
	if fits(pending.Paint, w, h) {
		fillMask(tint, pending.Paint, rgba(ClassColor(opts.PaintClassID)))
	}
	if fits(pending.Erase, w, h) {
		fillMask(tint, pending.Erase, PendingEraseColor)
	}

	out := blend.Opacity(base, tint, opacity)
	for _, o := range outlines {
		drawOutline(out, o.mask, o.c)
	}
	for _, l := range labels {
		drawText(out, l.at, l.text)
	}

	var result image.Image = out
	if opts.Scale > 0 && opts.Scale != 1 {
		nw := max(int(float64(w)*opts.Scale), 1)
		nh := max(int(float64(h)*opts.Scale), 1)
		result = imaging.Resize(out, nw, nh, imaging.Lanczos)
	}

	encoded, err := encodePNG(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}
	return &OverlayResult{
		Width:       result.Bounds().Dx(),
		Height:      result.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
		Annotations: count,
	}, nil
}

func fits(m *raster.Mask, w, h int) bool {
	return m != nil && m.Width() == w && m.Height() == h
}

// fillMask overwrites every foreground pixel of m in dst with c. dst must
// have its origin at (0,0), as imaging.Clone guarantees.
func fillMask(dst *image.NRGBA, m *raster.Mask, c color.RGBA) {
	nc := color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.At(x, y) != 0 {
				dst.SetNRGBA(x, y, nc)
			}
		}
	}
}

// drawOutline paints the foreground pixels of m that have a 4-neighbour in
// the background.
func drawOutline(dst *image.RGBA, m *raster.Mask, c color.RGBA) {
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.At(x, y) == 0 {
				continue
			}
			if m.At(x-1, y) == 0 || m.At(x+1, y) == 0 || m.At(x, y-1) == 0 || m.At(x, y+1) == 0 {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}

// drawText writes text with its top-left corner at p, white on a one-pixel
// black shadow.
func drawText(dst *image.RGBA, p image.Point, text string) {
	face := basicfont.Face7x13
	baseline := p.Y + face.Ascent
	shadow := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(p.X+1, baseline+1),
	}
	shadow.DrawString(text)
	fg := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(p.X, baseline),
	}
	fg.DrawString(text)
}

// MaskResult is a mask rendered as a grayscale PNG.
type MaskResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Pixels      int    `json:"pixels"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeMask renders m as an 8-bit grayscale PNG: foreground 255, background 0.
func EncodeMask(m *raster.Mask) (*MaskResult, error) {
	encoded, err := encodePNG(m.Gray())
	if err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}
	return &MaskResult{
		Width:       m.Width(),
		Height:      m.Height(),
		Pixels:      m.Count(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
