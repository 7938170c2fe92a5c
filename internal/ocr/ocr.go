package ocr

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
)

// DefaultLanguage is used when no language is given.
const DefaultLanguage = "eng"

// DefaultClass names text suggestions when the caller gives no class.
const DefaultClass = "text"

// ErrUnavailable is returned when the binary was built without Tesseract.
var ErrUnavailable = errors.New("ocr: tesseract support not compiled in (requires cgo)")

// Word is one recognized word with its box in image coordinates.
type Word struct {
	Text string `json:"text"`

	// Confidence is in [0, 1].
	Confidence float64 `json:"confidence"`

	Bounds image.Rectangle `json:"bounds"`
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
	Error     string `json:"error,omitempty"`
}

// SuggestText recognizes words in the image at imagePath and proposes one
// rectangle suggestion per word whose confidence is at least minConfidence.
func SuggestText(imagePath, language string, minConfidence float64, class string) ([]annotation.Suggestion, error) {
	words, err := recognize(imagePath, languageOrDefault(language))
	if err != nil {
		return nil, err
	}
	return toSuggestions(words, minConfidence, class), nil
}

// SuggestTextInRegion runs recognition on region of img only. Boxes are
// reported in the coordinates of img. The region is clamped to the image.
func SuggestTextInRegion(img image.Image, region image.Rectangle, language string, minConfidence float64, class string) ([]annotation.Suggestion, error) {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("region does not overlap the image")
	}

	tmp, err := os.CreateTemp("", "ocr-region-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmp, imaging.Crop(img, region)); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to encode temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write temp image: %w", err)
	}

	words, err := recognize(tmpPath, languageOrDefault(language))
	if err != nil {
		return nil, err
	}
	for i := range words {
		words[i].Bounds = words[i].Bounds.Add(region.Min)
	}
	return toSuggestions(words, minConfidence, class), nil
}

func languageOrDefault(language string) string {
	if strings.TrimSpace(language) == "" {
		return DefaultLanguage
	}
	return language
}

// toSuggestions keeps non-blank words at or above minConfidence as box
// suggestions. An empty class becomes DefaultClass.
func toSuggestions(words []Word, minConfidence float64, class string) []annotation.Suggestion {
	if class == "" {
		class = DefaultClass
	}
	out := make([]annotation.Suggestion, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" || w.Confidence < minConfidence || w.Bounds.Empty() {
			continue
		}
		box := annotation.BBox{X: w.Bounds.Min.X, Y: w.Bounds.Min.Y, Width: w.Bounds.Dx(), Height: w.Bounds.Dy()}
		out = append(out, annotation.NewBoxSuggestion(box, class, w.Confidence, annotation.SourceOCR))
	}
	return out
}
