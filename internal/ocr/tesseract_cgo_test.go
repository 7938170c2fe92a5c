//go:build cgo

package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// createImageWithText renders text with basicfont and scales it up by
// scale so Tesseract has enough pixels per glyph.
func createImageWithText(t *testing.T, text string, scale int) (string, image.Image) {
	t.Helper()
	w, h := len(text)*7+40, 40
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(20, 25),
	}
	d.DrawString(text)

	img := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h*scale; y++ {
		for x := 0; x < w*scale; x++ {
			img.Set(x, y, small.At(x/scale, y/scale))
		}
	}

	path := filepath.Join(t.TempDir(), "text.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path, img
}

func TestSuggestText_RealText(t *testing.T) {
	path, img := createImageWithText(t, "HELLO WORLD", 4)

	got, err := SuggestText(path, "eng", 0, "word")
	if err != nil {
		t.Skipf("Tesseract not usable here: %v", err)
	}
	t.Logf("found %d word boxes", len(got))
	for _, s := range got {
		if !s.BBox.Rect().In(img.Bounds()) {
			t.Errorf("box %+v outside image", s.BBox)
		}
		if s.CategoryName != "word" {
			t.Errorf("class = %q", s.CategoryName)
		}
	}
}

func TestSuggestTextInRegion_Offset(t *testing.T) {
	_, img := createImageWithText(t, "HELLO", 4)
	region := image.Rect(40, 20, img.Bounds().Dx(), img.Bounds().Dy())

	got, err := SuggestTextInRegion(img, region, "", 0, "")
	if err != nil {
		t.Skipf("Tesseract not usable here: %v", err)
	}
	for _, s := range got {
		if !s.BBox.Rect().In(region) {
			t.Errorf("box %+v not inside region %v", s.BBox, region)
		}
	}
}

func TestSuggestText_NonExistentFile(t *testing.T) {
	if _, err := SuggestText("/nonexistent/image.png", "eng", 0, "t"); err == nil {
		t.Error("expected error for non-existent file")
	}
}
