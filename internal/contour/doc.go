// Package contour converts binary masks into closed polygon outlines.
//
// Extract traces the external boundary of every 8-connected foreground region
// of a raster.Mask and yields one polygon per region, in the raster-scan order
// of each region's first pixel. Regions that sit inside a hole of another
// region are not reported; only outermost boundaries are traced.
//
// # Algorithm
//
//  1. Background reachable from the image border is flood-filled with
//     4-connectivity (the dual of 8-connected foreground).
//  2. The mask is scanned top-to-bottom, left-to-right. The first unvisited
//     foreground pixel of a region starts a Suzuki–Abe border following pass,
//     which records the boundary pixels in order.
//  3. The region is flood-filled so none of its pixels start a second trace.
//  4. The chain is compressed: runs of steps in the same direction collapse to
//     their endpoints, so straight and diagonal runs keep only their corners.
//  5. Polygons whose shoelace area is not strictly greater than the area
//     threshold are dropped.
//
// Vertices are pixel centers, so a filled disc of N pixels yields a polygon
// whose area is N minus roughly half its boundary length.
//
// # Laziness
//
// The returned iter.Seq does no work until ranged over, and every range starts
// a fresh scan, so the sequence can be consumed any number of times.
package contour
