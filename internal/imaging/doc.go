// Package imaging loads images and renders annotation views of them.
//
// Images are read through ImageCache, which decodes each file once and keeps
// the result keyed by path and slice. Animated GIFs expose their frames as
// slices; every other format has exactly one slice, slice 0.
//
// # Rendering
//
// RenderOverlay draws a Store over its image: class-coloured fills at a
// configurable opacity, full-strength outlines, optional fragment numbers,
// and the pending brush and eraser buffers so a reviewer sees what a commit
// would do. EncodeMask turns a single mask into a grayscale PNG, and Crop and
// CropAround cut regions for close inspection.
//
// All rendered output is returned as base64 PNG so it can travel inside a
// JSON tool result unchanged.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X increases rightward
//   - Y increases downward
//   - Rectangles include Min and exclude Max, as image.Rectangle does
//
// # Colours
//
// Class colours come from ClassColor, which spaces hues by the golden angle
// so adjacent category ids stay distinguishable. The mapping depends only on
// the category id, so the same class looks the same in every render.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Rendering functions are stateless
// and do not modify their inputs.
package imaging
