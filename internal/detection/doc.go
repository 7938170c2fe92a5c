// Package detection proposes annotations by analysing image content.
//
// Detectors never write to an annotation store. They return
// annotation.Suggestion values that a reviewer accepts or rejects, so a
// false positive costs one click instead of an eraser pass.
//
// # Detectors
//
//   - Rectangles: gradient edges grouped into connected rings, scored by how
//     closely the ring length matches the perimeter of its bounding box.
//   - Circles: a Hough vote over the same edges for each radius in range.
//   - Segments: a luminance threshold turned into polygons with the same
//     contour tracer the brush uses, so accepted segments behave exactly like
//     painted ones under the eraser.
//
// # Scores
//
// Suggestion.Score is in [0, 1]. For shapes it is the detector confidence;
// for segments it is the fraction of the image the region covers.
//
// These detectors work best on clean, high-contrast images. Noisy
// photographs produce many low-score candidates.
package detection
