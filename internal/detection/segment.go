package detection

import (
	"image"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/contour"
	"github.com/ironsheep/annotate-mcp/internal/raster"
)

// SegmentOptions controls SuggestSegments.
type SegmentOptions struct {
	// Level is the luminance cut. Pixels at or above it are foreground.
	Level uint8

	// Invert makes dark pixels the foreground, for dark objects on a light
	// background.
	Invert bool

	// MinArea drops regions whose contour area is at or below it. Zero uses
	// contour.DefaultAreaThreshold.
	MinArea float64

	// Class is the category name given to every suggestion.
	Class string
}

// SuggestSegments thresholds img and proposes one polygon per connected
// foreground region. Regions inside another region's hole are not
// reported, matching what a brush commit would produce.
func SuggestSegments(img image.Image, opts SegmentOptions) []annotation.Suggestion {
	src := img
	if opts.Invert {
		src = effect.Invert(img)
	}
	mask := raster.FromImage(src, opts.Level)

	threshold := opts.MinArea
	if threshold <= 0 {
		threshold = contour.DefaultAreaThreshold
	}
	total := float64(mask.Width() * mask.Height())

	var out []annotation.Suggestion
	for poly := range contour.Extract(mask, threshold) {
		score := min(contour.Area(poly)/total, 1)
		out = append(out, annotation.NewPolygonSuggestion(poly, opts.Class, score, annotation.SourceSegment))
	}
	return out
}
