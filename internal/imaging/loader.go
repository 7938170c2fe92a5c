package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrNoSuchSlice is returned when a slice index is outside the frames of an
// image.
var ErrNoSuchSlice = errors.New("no such slice")

// ImageCache keeps decoded image slices keyed by path and slice index so
// overlays, crops and detectors do not decode the same file repeatedly.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// Cached images stay in memory until Evict or Clear is called. The server
// evicts nothing on its own; images are small compared with the annotation
// workflow's lifetime.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

func sliceKey(path string, slice int) string {
	return fmt.Sprintf("%s#%d", path, slice)
}

// Load returns slice 0 of the image at path.
func (c *ImageCache) Load(path string) (image.Image, error) {
	return c.LoadSlice(path, 0)
}

// LoadSlice returns one slice of the image at path, decoding it on first use.
//
// Single-frame formats (PNG, JPEG, BMP, TIFF, WebP) have exactly one slice.
// Animated GIFs expose each frame as a slice; frame n is composed over the
// frames before it at the full canvas size, so every slice has the same
// dimensions.
//
// # Errors
//
//   - the file cannot be opened or decoded
//   - ErrNoSuchSlice when slice is negative or beyond the last frame
func (c *ImageCache) LoadSlice(path string, slice int) (image.Image, error) {
	key := sliceKey(path, slice)
	c.mu.RLock()
	if img, ok := c.images[key]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	if slice < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchSlice, slice)
	}

	var img image.Image
	var err error
	if isGIF(path) {
		img, err = decodeGIFFrame(path, slice)
	} else if slice == 0 {
		img, err = decodeFile(path)
	} else {
		err = fmt.Errorf("%w: %d (%s has a single slice)", ErrNoSuchSlice, slice, filepath.Base(path))
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes all cached slices of path.
func (c *ImageCache) Evict(path string) {
	prefix := path + "#"
	c.mu.Lock()
	for key := range c.images {
		if strings.HasPrefix(key, prefix) {
			delete(c.images, key)
		}
	}
	c.mu.Unlock()
}

func isGIF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gif")
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func decodeGIF(path string) (*gif.GIF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return g, nil
}

func decodeGIFFrame(path string, slice int) (image.Image, error) {
	g, err := decodeGIF(path)
	if err != nil {
		return nil, err
	}
	if slice >= len(g.Image) {
		return nil, fmt.Errorf("%w: %d (%s has %d)", ErrNoSuchSlice, slice, filepath.Base(path), len(g.Image))
	}
	canvas := image.NewRGBA(image.Rect(0, 0, g.Config.Width, g.Config.Height))
	for _, frame := range g.Image[:slice+1] {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
	}
	return canvas, nil
}

// ImageInfo describes an image file.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder name reported by image.DecodeConfig, e.g. "png".
	Format string `json:"format"`

	// Slices is the number of editable planes: frame count for GIFs, 1 otherwise.
	Slices int `json:"slices"`

	// BitDepth is the bits per pixel of the stored colour model, e.g. 8 for
	// grayscale, 24 for JPEG, 32 for RGBA.
	BitDepth int `json:"bit_depth"`

	// HasAlpha reports whether the colour model carries transparency.
	HasAlpha bool `json:"has_alpha"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo reads dimensions, format and slice count without decoding
// pixel data for single-frame formats.
//
// Returns an error if the file cannot be opened or its header is not a known
// image format.
func LoadImageInfo(path string) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := &ImageInfo{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        format,
		Slices:        1,
		FileSizeBytes: stat.Size(),
	}
	info.BitDepth, info.HasAlpha = BitDepth(cfg.ColorModel)
	if format == "gif" {
		g, err := decodeGIF(path)
		if err != nil {
			return nil, err
		}
		info.Slices = len(g.Image)
		// Files without a global colour table carry one palette per frame.
		if p, _ := cfg.ColorModel.(color.Palette); len(p) == 0 && len(g.Image) > 0 {
			info.BitDepth, info.HasAlpha = BitDepth(g.Image[0].Palette)
		}
	}
	return info, nil
}

// BitDepth returns the bits per pixel and alpha presence of a decoder's
// colour model. Paletted models report the index width needed for the
// palette: 1, 2, 4 or 8 bits. Unknown models report 32 bits with alpha.
//
// The PNG decoder reports truecolour files without an alpha channel as RGBA,
// so those read as 32 bits.
func BitDepth(m color.Model) (bits int, alpha bool) {
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				alpha = true
				break
			}
		}
		switch {
		case len(p) <= 2:
			return 1, alpha
		case len(p) <= 4:
			return 2, alpha
		case len(p) <= 16:
			return 4, alpha
		default:
			return 8, alpha
		}
	}
	switch m {
	case color.GrayModel:
		return 8, false
	case color.Gray16Model:
		return 16, false
	case color.AlphaModel:
		return 8, true
	case color.Alpha16Model:
		return 16, true
	case color.YCbCrModel:
		return 24, false
	case color.NYCbCrAModel:
		return 32, true
	case color.CMYKModel:
		return 32, false
	case color.RGBAModel, color.NRGBAModel:
		return 32, true
	case color.RGBA64Model, color.NRGBA64Model:
		return 64, true
	}
	return 32, true
}
