//go:build gocv

package contour

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ironsheep/annotate-mcp/internal/raster"
)

// ExtractOpenCV traces external contours with OpenCV (RETR_EXTERNAL,
// CHAIN_APPROX_SIMPLE) and applies the same strict area filter as Extract.
//
// It is only built with the gocv tag, which requires OpenCV 4 to be installed.
// OpenCV reports regions in its own order, so compare results as sets.
func ExtractOpenCV(mask *raster.Mask, areaThreshold float64) ([]Polygon, error) {
	mat, err := gocv.NewMatFromBytes(mask.Height(), mask.Width(), gocv.MatTypeCV8U, mask.Pix())
	if err != nil {
		return nil, fmt.Errorf("failed to wrap mask: %w", err)
	}
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	out := make([]Polygon, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		pv := contours.At(i)
		if gocv.ContourArea(pv) > areaThreshold {
			out = append(out, Polygon(pv.ToPoints()))
		}
	}
	return out, nil
}
