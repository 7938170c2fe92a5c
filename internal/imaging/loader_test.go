package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a solid-colour PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "test-image.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// createTestGIF writes an animated GIF whose frame i has a filled square
// at x = 10*i.
func createTestGIF(t *testing.T, frames int) string {
	t.Helper()
	anim := &gif.GIF{}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 64, 32), palette.Plan9)
		for y := 0; y < 8; y++ {
			for x := 10 * i; x < 10*i+8; x++ {
				frame.Set(x, y, color.White)
			}
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 10)
	}
	path := filepath.Join(t.TempDir(), "stack.gif")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, anim); err != nil {
		t.Fatalf("failed to encode gif: %v", err)
	}
	return path
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 80, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img1.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x80", b.Dx(), b.Dy())
	}

	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
}

func TestImageCache_Load_Errors(t *testing.T) {
	cache := NewImageCache()
	if _, err := cache.Load("/nonexistent/path/to/image.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(bad); err == nil {
		t.Error("Load should fail for invalid image data")
	}
}

func TestImageCache_LoadSlice_SingleFrame(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 10, 10, color.Black)
	for _, slice := range []int{-1, 1} {
		if _, err := cache.LoadSlice(imgPath, slice); !errors.Is(err, ErrNoSuchSlice) {
			t.Errorf("LoadSlice(%d) error = %v, want ErrNoSuchSlice", slice, err)
		}
	}
}

func TestImageCache_LoadSlice_GIF(t *testing.T) {
	cache := NewImageCache()
	path := createTestGIF(t, 3)

	for slice := 0; slice < 3; slice++ {
		img, err := cache.LoadSlice(path, slice)
		if err != nil {
			t.Fatalf("LoadSlice(%d) error = %v", slice, err)
		}
		if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
			t.Errorf("slice %d bounds = %v", slice, b)
		}
		r, _, _, _ := img.At(10*slice+2, 2).RGBA()
		if r>>8 != 255 {
			t.Errorf("slice %d: expected its square at x=%d", slice, 10*slice)
		}
	}
	if _, err := cache.LoadSlice(path, 3); !errors.Is(err, ErrNoSuchSlice) {
		t.Errorf("LoadSlice(3) error = %v, want ErrNoSuchSlice", err)
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	a := createTestImage(t, 20, 20, color.Black)
	g := createTestGIF(t, 2)

	cache.Load(a)
	cache.LoadSlice(g, 0)
	cache.LoadSlice(g, 1)

	cache.Evict(g)
	cache.mu.RLock()
	n := len(cache.images)
	cache.mu.RUnlock()
	if n != 1 {
		t.Errorf("after Evict: %d cached, want 1", n)
	}

	cache.Evict("/nonexistent/path")
	cache.Clear()
	cache.mu.RLock()
	n = len(cache.images)
	cache.mu.RUnlock()
	if n != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", n)
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	tests := []struct {
		name       string
		path       func(t *testing.T) string
		wantW      int
		wantH      int
		wantFormat string
		wantSlices int
	}{
		{"png", func(t *testing.T) string { return createTestImage(t, 200, 150, color.White) }, 200, 150, "png", 1},
		{"gif", func(t *testing.T) string { return createTestGIF(t, 4) }, 64, 32, "gif", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := LoadImageInfo(tt.path(t))
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.Width != tt.wantW || info.Height != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", info.Width, info.Height, tt.wantW, tt.wantH)
			}
			if info.Format != tt.wantFormat || info.Slices != tt.wantSlices {
				t.Errorf("format/slices = %s/%d, want %s/%d", info.Format, info.Slices, tt.wantFormat, tt.wantSlices)
			}
			if info.FileSizeBytes <= 0 {
				t.Error("FileSizeBytes should be positive")
			}
		})
	}
}

func TestLoadImageInfo_NonExistent(t *testing.T) {
	if _, err := LoadImageInfo("/nonexistent/image.png"); err == nil {
		t.Error("LoadImageInfo should fail for non-existent file")
	}
}

func writeEncoded(t *testing.T, name string, img image.Image, encode func(io.Writer, image.Image) error) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", name, err)
	}
	return path
}

func TestLoadImageInfo_BitDepth(t *testing.T) {
	rect := image.Rect(0, 0, 8, 8)
	encodeJPEG := func(w io.Writer, img image.Image) error { return jpeg.Encode(w, img, nil) }

	translucent := image.NewNRGBA(rect)
	translucent.Set(1, 1, color.NRGBA{R: 200, A: 100})

	tests := []struct {
		name      string
		path      func(t *testing.T) string
		wantBits  int
		wantAlpha bool
	}{
		{"gray png", func(t *testing.T) string { return writeEncoded(t, "g.png", image.NewGray(rect), png.Encode) }, 8, false},
		{"gray16 png", func(t *testing.T) string { return writeEncoded(t, "g16.png", image.NewGray16(rect), png.Encode) }, 16, false},
		{"rgba png", func(t *testing.T) string { return writeEncoded(t, "a.png", translucent, png.Encode) }, 32, true},
		{"two-colour png", func(t *testing.T) string {
			return writeEncoded(t, "p.png", image.NewPaletted(rect, color.Palette{color.Black, color.White}), png.Encode)
		}, 1, false},
		{"jpeg", func(t *testing.T) string { return writeEncoded(t, "c.jpg", image.NewRGBA(rect), encodeJPEG) }, 24, false},
		{"gif", func(t *testing.T) string { return createTestGIF(t, 2) }, 8, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := LoadImageInfo(tt.path(t))
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.BitDepth != tt.wantBits || info.HasAlpha != tt.wantAlpha {
				t.Errorf("bit depth/alpha = %d/%v, want %d/%v", info.BitDepth, info.HasAlpha, tt.wantBits, tt.wantAlpha)
			}
		})
	}
}

func TestBitDepth_Palette(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		clear     bool
		wantBits  int
		wantAlpha bool
	}{
		{"two", 2, false, 1, false},
		{"four", 4, false, 2, false},
		{"sixteen", 16, false, 4, false},
		{"seventeen", 17, false, 8, false},
		{"transparent entry", 16, true, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := make(color.Palette, tt.size)
			for i := range p {
				p[i] = color.Gray{Y: uint8(i)}
			}
			if tt.clear {
				p[0] = color.Transparent
			}
			bits, alpha := BitDepth(p)
			if bits != tt.wantBits || alpha != tt.wantAlpha {
				t.Errorf("BitDepth = %d/%v, want %d/%v", bits, alpha, tt.wantBits, tt.wantAlpha)
			}
		})
	}
}
