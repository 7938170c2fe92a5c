package raster

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func mustNew(t *testing.T, w, h int) *Mask {
	t.Helper()
	m, err := New(w, h)
	if err != nil {
		t.Fatalf("New(%d, %d) failed: %v", w, h, err)
	}
	return m
}

func TestNew(t *testing.T) {
	m := mustNew(t, 4, 3)
	if m.Width() != 4 || m.Height() != 3 {
		t.Errorf("size: got %dx%d, want 4x3", m.Width(), m.Height())
	}
	if m.Count() != 0 {
		t.Errorf("new mask should be empty, got %d pixels", m.Count())
	}
}

func TestNew_InvalidSize(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 10},
		{"zero height", 10, 0},
		{"negative", -1, 5},
		{"no image", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.w, tt.h)
			if !errors.Is(err, ErrInvalidSize) {
				t.Errorf("got %v, want ErrInvalidSize", err)
			}
		})
	}
}

func TestStampDisc_Area(t *testing.T) {
	m := mustNew(t, 256, 256)
	m.StampDisc(image.Pt(100, 100), 20, Foreground)

	got := float64(m.Count())
	want := math.Pi * 20 * 20
	if math.Abs(got-want)/want > 0.02 {
		t.Errorf("disc pixel count: got %v, want about %v", got, want)
	}
	if m.At(100, 100) != Foreground || m.At(120, 100) != Foreground || m.At(100, 80) != Foreground {
		t.Error("center and cardinal extremes should be set")
	}
	if m.At(115, 115) != 0 {
		t.Error("(115,115) lies outside a radius-20 disc")
	}
}

func TestStampDisc_Idempotent(t *testing.T) {
	m := mustNew(t, 64, 64)
	m.StampDisc(image.Pt(30, 30), 8, Foreground)
	before := m.Clone()
	m.StampDisc(image.Pt(30, 30), 8, Foreground)

	if !m.Equal(before) {
		t.Error("stamping the same disc twice changed the mask")
	}
	for _, v := range m.Pix() {
		if v != 0 && v != Foreground {
			t.Fatalf("pixel value %d: writes must set, not accumulate", v)
		}
	}
}

func TestStampDisc_Clipping(t *testing.T) {
	tests := []struct {
		name      string
		center    image.Point
		wantEmpty bool
	}{
		{"corner", image.Pt(0, 0), false},
		{"partially outside", image.Pt(-3, 10), false},
		{"far outside", image.Pt(500, 500), true},
		{"negative far outside", image.Pt(-100, -100), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustNew(t, 32, 32)
			m.StampDisc(tt.center, 5, Foreground)
			if m.Empty() != tt.wantEmpty {
				t.Errorf("Empty(): got %v, want %v", m.Empty(), tt.wantEmpty)
			}
		})
	}
}

func TestStampDisc_NegativeRadius(t *testing.T) {
	m := mustNew(t, 8, 8)
	m.StampDisc(image.Pt(3, 3), -4, Foreground)
	if m.Count() != 1 || m.At(3, 3) == 0 {
		t.Errorf("negative radius should write the center pixel only, got %d pixels", m.Count())
	}
}

func TestStampDiscF_Rounds(t *testing.T) {
	m := mustNew(t, 16, 16)
	m.StampDiscF(4.6, 7.4, 0, Foreground)
	if m.At(5, 7) == 0 {
		t.Error("center (4.6, 7.4) should round to (5, 7)")
	}
}

func TestStampStroke_LastWriteWins(t *testing.T) {
	m := mustNew(t, 32, 32)
	m.StampStroke([]image.Point{{10, 10}}, 3, Foreground, false)
	m.StampStroke([]image.Point{{10, 10}}, 1, 7, false)

	if m.At(10, 10) != 7 {
		t.Errorf("center: got %d, want 7", m.At(10, 10))
	}
	if m.At(13, 10) != Foreground {
		t.Errorf("rim: got %d, want %d", m.At(13, 10), Foreground)
	}
}

func TestStampStroke_Interpolation(t *testing.T) {
	pts := []image.Point{{5, 16}, {55, 16}}

	sparse := mustNew(t, 64, 32)
	sparse.StampStroke(pts, 3, Foreground, false)
	if sparse.At(30, 16) != 0 {
		t.Fatal("without interpolation the midpoint should stay empty")
	}

	joined := mustNew(t, 64, 32)
	joined.StampStroke(pts, 3, Foreground, true)
	for x := 5; x <= 55; x++ {
		if joined.At(x, 16) == 0 {
			t.Fatalf("interpolated stroke has a gap at x=%d", x)
		}
	}
}

func TestForegroundBounds(t *testing.T) {
	m := mustNew(t, 40, 40)
	if !m.ForegroundBounds().Empty() {
		t.Error("empty mask should have empty bounds")
	}
	m.Set(5, 7, Foreground)
	m.Set(20, 30, Foreground)

	got := m.ForegroundBounds()
	want := image.Rect(5, 7, 21, 31)
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x >= 5 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}

	m := FromImage(img, 128)
	if m.Width() != 10 || m.Height() != 10 {
		t.Fatalf("size: got %dx%d, want 10x10", m.Width(), m.Height())
	}
	if m.Count() != 50 {
		t.Errorf("foreground: got %d, want 50", m.Count())
	}
	if m.At(7, 3) != Foreground || m.At(2, 3) != 0 {
		t.Error("threshold split is on the wrong side")
	}
}

func TestGray(t *testing.T) {
	m := mustNew(t, 3, 2)
	m.Set(1, 1, Foreground)
	g := m.Gray()
	if g.GrayAt(1, 1).Y != Foreground {
		t.Error("Gray() lost a foreground pixel")
	}
	g.SetGray(0, 0, color.Gray{Y: 9})
	if m.At(0, 0) != 0 {
		t.Error("Gray() must not share memory with the mask")
	}
}
