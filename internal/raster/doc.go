// Package raster provides the single-channel mask buffers that back brush and
// eraser strokes, plus the compositing operations used when strokes are turned
// into polygon annotations.
//
// # Coordinate System
//
// Masks use image pixel coordinates with the origin at the top-left corner.
// A pixel (x, y) is treated as a sample at the integer lattice point (x, y),
// which is the convention shared with the contour package: polygon vertices
// returned by contour tracing are pixel centers, and Rasterize fills every
// pixel whose center lies inside or on the polygon.
//
// # Values
//
// A pixel is foreground when its value is nonzero. Strokes write 255 by
// default. Writes set values, they never accumulate, so stamping the same disc
// twice leaves the mask unchanged.
//
// # Thread Safety
//
// Masks are not safe for concurrent mutation. The editing session that owns
// them is single-writer; callers serialize access.
package raster
