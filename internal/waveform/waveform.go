// Package waveform turns rendered audio into peak data and overview
// images for timeline display.
package waveform

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"
)

// Peaks reduces interleaved samples to per-bucket amplitudes in [0,1].
//
// Each bucket holds the mean absolute sample value of its slice of the
// signal, which reads better at overview zoom than raw maxima. buckets
// caps the result length; short inputs yield fewer buckets rather than
// padded zeros.
func Peaks(samples []float64, channels, buckets int) []float64 {
	if channels < 1 {
		channels = 1
	}
	frames := len(samples) / channels
	if frames == 0 || buckets < 1 {
		return nil
	}
	if buckets > frames {
		buckets = frames
	}

	peaks := make([]float64, buckets)
	for b := 0; b < buckets; b++ {
		lo := b * frames / buckets
		hi := (b + 1) * frames / buckets
		if hi == lo {
			hi = lo + 1
		}

		var sum float64
		for f := lo; f < hi; f++ {
			for c := 0; c < channels; c++ {
				sum += math.Abs(samples[f*channels+c])
			}
		}
		mean := sum / float64((hi-lo)*channels)
		if mean > 1 {
			mean = 1
		}
		peaks[b] = mean
	}
	return peaks
}

// RenderPNG draws peaks as a symmetric bar waveform and writes a PNG of
// the requested size.
//
// The waveform is drawn one column per peak and then resampled to the
// target width, so any peak count maps cleanly onto any image size.
func RenderPNG(peaks []float64, width, height int, path string) error {
	if len(peaks) == 0 {
		return fmt.Errorf("no peaks to render")
	}
	if width < 1 || height < 1 {
		return fmt.Errorf("invalid image size %dx%d", width, height)
	}

	src := image.NewRGBA(image.Rect(0, 0, len(peaks), height))
	background := color.RGBA{R: 0x1e, G: 0x1e, B: 0x2a, A: 0xff}
	bar := color.RGBA{R: 0x4f, G: 0xc3, B: 0xf7, A: 0xff}
	mid := height / 2

	for x := 0; x < len(peaks); x++ {
		half := int(peaks[x] * float64(mid))
		for y := 0; y < height; y++ {
			if y >= mid-half && y <= mid+half {
				src.Set(x, y, bar)
			} else {
				src.Set(x, y, background)
			}
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create waveform image: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, dst); err != nil {
		return fmt.Errorf("encode waveform image: %w", err)
	}
	return nil
}
