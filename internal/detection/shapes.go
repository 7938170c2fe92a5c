package detection

import (
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
)

// edgeThreshold is the minimum grayscale step between neighbours that counts
// as an edge.
const edgeThreshold = 30

// minEdgeGroup drops edge groups smaller than this many pixels as noise.
const minEdgeGroup = 10

// circleSides is the vertex count of polygons approximating detected circles.
const circleSides = 32

// Rectangle is an axis-aligned box found in an image.
type Rectangle struct {
	// Bounds encloses the edge ring. Max is exclusive.
	Bounds image.Rectangle

	// Confidence is 1 - |ring length - perimeter| / perimeter, in [0, 1].
	Confidence float64
}

// Circle is a circle found by the Hough vote.
type Circle struct {
	Center     image.Point
	Radius     int
	Confidence float64
}

// DetectRectangles finds rectangular edge rings in img.
//
// Parameters:
//   - minArea: smallest bounding-box area kept, in square pixels.
//   - tolerance: smallest rectangularity kept, 0.0 to 1.0. Typical: 0.8-0.95.
//
// Results are sorted by area, largest first.
//
// # Limitations
//
//   - Only axis-aligned rectangles are found.
//   - Outlined (not filled) rectangles produce a double ring and score low.
func DetectRectangles(img image.Image, minArea int, tolerance float64) []Rectangle {
	b := img.Bounds()
	edges := detectEdges(img)

	var found []Rectangle
	for _, group := range groupEdges(edges) {
		if len(group) < 4 {
			continue
		}
		r := image.Rectangle{Min: group[0], Max: group[0]}
		for _, p := range group[1:] {
			r.Min.X = min(r.Min.X, p.X)
			r.Min.Y = min(r.Min.Y, p.Y)
			r.Max.X = max(r.Max.X, p.X)
			r.Max.Y = max(r.Max.Y, p.Y)
		}
		r.Max = r.Max.Add(image.Pt(1, 1))
		w, h := r.Dx(), r.Dy()
		if w*h < minArea || w == 0 || h == 0 {
			continue
		}
		perimeter := float64(2 * (w + h))
		score := 1 - math.Abs(float64(len(group))-perimeter)/perimeter
		if score < tolerance {
			continue
		}
		found = append(found, Rectangle{
			Bounds:     r.Add(b.Min),
			Confidence: max(score, 0),
		})
	}

	sort.SliceStable(found, func(i, j int) bool {
		ai := found[i].Bounds.Dx() * found[i].Bounds.Dy()
		aj := found[j].Bounds.Dx() * found[j].Bounds.Dy()
		return ai > aj
	})
	return found
}

// SuggestRectangles runs DetectRectangles and wraps each hit as a box
// suggestion of class.
func SuggestRectangles(img image.Image, minArea int, tolerance float64, class string) []annotation.Suggestion {
	rects := DetectRectangles(img, minArea, tolerance)
	out := make([]annotation.Suggestion, 0, len(rects))
	for _, r := range rects {
		box := annotation.BBox{X: r.Bounds.Min.X, Y: r.Bounds.Min.Y, Width: r.Bounds.Dx(), Height: r.Bounds.Dy()}
		out = append(out, annotation.NewBoxSuggestion(box, class, r.Confidence, annotation.SourceShapes))
	}
	return out
}

// DetectCircles finds circles with radius in [minRadius, maxRadius] using a
// Hough vote over edge pixels.
//
// Each edge pixel votes every 10° around itself for each radius. A centre
// needs votes from about 60% of its circumference and must be the local
// maximum within 5 pixels. Confidence is votes / (2 × radius), capped at 1.
// Results are sorted by confidence, highest first.
//
// Cost grows with width × height × (maxRadius - minRadius); keep the radius
// range tight on large images.
func DetectCircles(img image.Image, minRadius, maxRadius int) []Circle {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	edges := detectEdges(img)
	minRadius = max(minRadius, 1)

	var circles []Circle
	acc := make([]int, width*height)
	for radius := minRadius; radius <= maxRadius; radius++ {
		clear(acc)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if !edges[y][x] {
					continue
				}
				for angle := 0; angle < 360; angle += 10 {
					rad := float64(angle) * math.Pi / 180
					cx := x - int(float64(radius)*math.Cos(rad))
					cy := y - int(float64(radius)*math.Sin(rad))
					if cx >= 0 && cx < width && cy >= 0 && cy < height {
						acc[cy*width+cx]++
					}
				}
			}
		}

		threshold := int(float64(2*radius) * 0.6)
		for y := radius; y < height-radius; y++ {
			for x := radius; x < width-radius; x++ {
				votes := acc[y*width+x]
				if votes < threshold || !localMax(acc, width, height, x, y, 5) {
					continue
				}
				circles = append(circles, Circle{
					Center:     image.Pt(x, y).Add(b.Min),
					Radius:     radius,
					Confidence: math.Min(float64(votes)/float64(2*radius), 1),
				})
			}
		}
	}

	circles = filterDuplicateCircles(circles)
	sort.SliceStable(circles, func(i, j int) bool {
		return circles[i].Confidence > circles[j].Confidence
	})
	return circles
}

// SuggestCircles runs DetectCircles and wraps each hit as a polygon
// suggestion of class, clipped to the image.
func SuggestCircles(img image.Image, minRadius, maxRadius int, class string) []annotation.Suggestion {
	circles := DetectCircles(img, minRadius, maxRadius)
	out := make([]annotation.Suggestion, 0, len(circles))
	for _, c := range circles {
		out = append(out, circleSuggestion(c, img.Bounds(), class))
	}
	return out
}

func circleSuggestion(c Circle, bounds image.Rectangle, class string) annotation.Suggestion {
	pts := make([]image.Point, 0, circleSides)
	for i := 0; i < circleSides; i++ {
		a := 2 * math.Pi * float64(i) / circleSides
		x := c.Center.X + int(math.Round(float64(c.Radius)*math.Cos(a)))
		y := c.Center.Y + int(math.Round(float64(c.Radius)*math.Sin(a)))
		x = min(max(x, bounds.Min.X), bounds.Max.X-1)
		y = min(max(y, bounds.Min.Y), bounds.Max.Y-1)
		pts = append(pts, image.Pt(x, y))
	}
	return annotation.NewPolygonSuggestion(pts, class, c.Confidence, annotation.SourceShapes)
}

func localMax(acc []int, width, height, x, y, r int) bool {
	v := acc[y*width+x]
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			nx, ny := x+dx, y+dy
			if (dx == 0 && dy == 0) || nx < 0 || nx >= width || ny < 0 || ny >= height {
				continue
			}
			if acc[ny*width+nx] > v {
				return false
			}
		}
	}
	return true
}

// detectEdges marks pixels whose grayscale value differs from the right or
// lower neighbour by more than edgeThreshold. Border pixels are never edges.
// Coordinates are relative to img.Bounds().Min.
func detectEdges(img image.Image) [][]bool {
	gray := effect.Grayscale(img)
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	at := func(x, y int) int { return int(gray.Pix[y*gray.Stride+x]) }

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		if y == 0 || y == height-1 {
			continue
		}
		for x := 1; x < width-1; x++ {
			c := at(x, y)
			if abs(c-at(x+1, y)) > edgeThreshold || abs(c-at(x, y+1)) > edgeThreshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// groupEdges splits edge pixels into 8-connected groups, dropping groups
// smaller than minEdgeGroup.
func groupEdges(edges [][]bool) [][]image.Point {
	height := len(edges)
	if height == 0 {
		return nil
	}
	width := len(edges[0])
	visited := make([][]bool, height)
	for y := range visited {
		visited[y] = make([]bool, width)
	}

	var groups [][]image.Point
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !edges[y][x] || visited[y][x] {
				continue
			}
			group := floodFill(edges, visited, image.Pt(x, y))
			if len(group) >= minEdgeGroup {
				groups = append(groups, group)
			}
		}
	}
	return groups
}

// floodFill collects the 8-connected edge pixels reachable from start,
// marking them visited. It uses an explicit stack.
func floodFill(edges, visited [][]bool, start image.Point) []image.Point {
	height, width := len(edges), len(edges[0])
	var group []image.Point
	stack := []image.Point{start}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !edges[p.Y][p.X] {
			continue
		}
		visited[p.Y][p.X] = true
		group = append(group, p)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx != 0 || dy != 0 {
					stack = append(stack, image.Pt(p.X+dx, p.Y+dy))
				}
			}
		}
	}
	return group
}

// filterDuplicateCircles keeps the first of any circles whose centres are
// closer than the mean of their radii.
func filterDuplicateCircles(circles []Circle) []Circle {
	var kept []Circle
	for _, c := range circles {
		dup := false
		for _, k := range kept {
			dx := float64(c.Center.X - k.Center.X)
			dy := float64(c.Center.Y - k.Center.Y)
			if math.Hypot(dx, dy) < float64(c.Radius+k.Radius)/2 {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, c)
		}
	}
	return kept
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
