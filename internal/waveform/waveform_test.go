package waveform

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestPeaks_ConstantSignal(t *testing.T) {
	samples := make([]float64, 800)
	for i := range samples {
		samples[i] = 0.5
	}

	peaks := Peaks(samples, 2, 10)
	if len(peaks) != 10 {
		t.Fatalf("got %d buckets, want 10", len(peaks))
	}
	for i, p := range peaks {
		if math.Abs(p-0.5) > 1e-9 {
			t.Errorf("bucket %d = %v, want 0.5", i, p)
		}
	}
}

func TestPeaks_LocalizedBurst(t *testing.T) {
	// Silence everywhere except a burst in the second half.
	samples := make([]float64, 1000)
	for i := 500; i < 1000; i++ {
		samples[i] = 1.0
	}

	peaks := Peaks(samples, 1, 4)
	if peaks[0] != 0 || peaks[1] != 0 {
		t.Errorf("first half should be silent: %v", peaks)
	}
	if peaks[2] != 1 || peaks[3] != 1 {
		t.Errorf("second half should be full scale: %v", peaks)
	}
}

func TestPeaks_ShortInput(t *testing.T) {
	peaks := Peaks([]float64{0.1, 0.2, 0.3}, 1, 100)
	if len(peaks) != 3 {
		t.Errorf("3 frames should yield 3 buckets, got %d", len(peaks))
	}
}

func TestPeaks_Empty(t *testing.T) {
	if peaks := Peaks(nil, 2, 10); peaks != nil {
		t.Errorf("empty input should yield nil, got %v", peaks)
	}
}

func TestRenderPNG(t *testing.T) {
	peaks := []float64{0, 0.25, 0.5, 0.75, 1.0}
	path := filepath.Join(t.TempDir(), "wave.png")

	if err := RenderPNG(peaks, 200, 60, path); err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 200 || bounds.Dy() != 60 {
		t.Errorf("image size = %dx%d, want 200x60", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderPNG_NoPeaks(t *testing.T) {
	if err := RenderPNG(nil, 100, 40, filepath.Join(t.TempDir(), "w.png")); err == nil {
		t.Error("rendering no peaks should fail")
	}
}
