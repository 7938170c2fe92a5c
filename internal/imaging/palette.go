package imaging

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spaces consecutive hues so neighbouring category ids get
// clearly different colours.
const goldenAngle = 137.50776405003785

// ClassColor returns the display colour for a category id. The mapping is
// stable across runs.
func ClassColor(categoryID int) colorful.Color {
	hue := math.Mod(float64(categoryID)*goldenAngle, 360)
	if hue < 0 {
		hue += 360
	}
	return colorful.Hsv(hue, 0.65, 0.95)
}

// ClassHex returns ClassColor as "#rrggbb".
func ClassHex(categoryID int) string {
	return ClassColor(categoryID).Hex()
}

// PendingEraseColor marks uncommitted eraser strokes in overlays.
var PendingEraseColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}

func rgba(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
