package mix

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/SunguochaoYeepay/sound-Edit/internal/codec"
)

// Buffer is rendered PCM: interleaved float64 samples in [-1, 1].
type Buffer struct {
	Data     []float64
	Rate     int
	Channels int
}

// NewSilence allocates an all-zero buffer spanning the given duration.
func NewSilence(duration float64, rate, channels int) *Buffer {
	frames := int(math.Round(duration * float64(rate)))
	if frames < 0 {
		frames = 0
	}
	return &Buffer{
		Data:     make([]float64, frames*channels),
		Rate:     rate,
		Channels: channels,
	}
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.Rate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.Rate)
}

// SegmentResult records what happened to one planned segment during a
// render. A skipped segment never fails the render; the reason is
// surfaced as a warning.
type SegmentResult struct {
	ClipID  string
	Source  string
	Skipped bool
	Reason  string
}

// Engine renders planned segments into a PCM buffer through a decode
// collaborator. It holds no per-render state; one Engine serves any
// number of concurrent renders.
type Engine struct {
	decoder codec.Decoder

	// Parallelism bounds concurrent segment decodes. Zero means one
	// decode per CPU.
	Parallelism int
}

// NewEngine returns an engine decoding through dec.
func NewEngine(dec codec.Decoder) *Engine {
	return &Engine{decoder: dec}
}

// Render decodes every segment, applies its gain envelope, and sums the
// results into a buffer spanning exactly [0, outputDuration).
//
// The mixing law is direct summation: out[i] = Σ seg[i-offset] × gain(i).
// Samples that exceed full scale after summation are hard-clamped, not
// normalized. Segments whose assets cannot be decoded are skipped and
// reported in the result list; zero segments yield pure silence.
//
// Decodes run in parallel into per-segment buffers; summation into the
// shared output is serialized afterwards, so no locking is needed.
func (e *Engine) Render(ctx context.Context, segments []Segment, rate, channels int, outputDuration float64) (*Buffer, []SegmentResult, error) {
	if rate <= 0 || channels <= 0 {
		return nil, nil, fmt.Errorf("invalid output format: %d Hz, %d channels", rate, channels)
	}

	out := NewSilence(outputDuration, rate, channels)
	results := make([]SegmentResult, len(segments))
	parts := make([][]float64, len(segments))

	limit := e.Parallelism
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			results[i] = SegmentResult{ClipID: seg.ClipID, Source: seg.Source}
			data, err := e.renderSegment(gctx, seg, rate, channels)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				// A single bad reference must not fail the whole render.
				results[i].Skipped = true
				results[i].Reason = err.Error()
				return nil
			}
			parts[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, results, fmt.Errorf("render cancelled: %w", err)
	}

	for i, seg := range segments {
		if parts[i] == nil {
			continue
		}
		offset := int(math.Round(seg.OutputOffset*float64(rate))) * channels
		sumInto(out.Data, parts[i], offset)
	}

	for i, s := range out.Data {
		if s > 1 {
			out.Data[i] = 1
		} else if s < -1 {
			out.Data[i] = -1
		}
	}
	return out, results, nil
}

// renderSegment decodes one segment's source sub-range and applies its
// gain envelope. The returned slice is segment-local: sample 0 is the
// segment's own start.
func (e *Engine) renderSegment(ctx context.Context, seg Segment, rate, channels int) ([]float64, error) {
	wantFrames := int(math.Round(seg.Duration * float64(rate)))
	if wantFrames <= 0 {
		return nil, fmt.Errorf("segment %s has no output duration", seg.ClipID)
	}

	decoded, err := e.decoder.Decode(ctx, seg.Source, seg.SourceStart, seg.SourceDuration, rate, channels)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", seg.Source, err)
	}
	got := len(decoded) / channels
	if got == 0 {
		return nil, fmt.Errorf("decode %s: no audio in range [%.3fs, %.3fs)",
			seg.Source, seg.SourceStart, seg.SourceStart+seg.SourceDuration)
	}

	// Fit decoded source frames onto the segment's output timeline. With
	// PlaybackRate == 1 and a fully available source this is the
	// identity; otherwise the resample stretches (rate != 1) or keeps a
	// short read short (source ran out).
	expected := int(math.Round(seg.SourceDuration * float64(rate)))
	avail := wantFrames
	if expected > 0 && got < expected {
		avail = int(math.Round(float64(got) * float64(wantFrames) / float64(expected)))
	}
	data := codec.Resample(decoded, channels, avail)

	if seg.Loop && avail > 0 && avail < wantFrames {
		tiled := make([]float64, wantFrames*channels)
		for off := 0; off < len(tiled); off += len(data) {
			copy(tiled[off:], data)
		}
		data = tiled
	} else if avail > wantFrames {
		data = data[:wantFrames*channels]
	}

	for f := 0; f < len(data)/channels; f++ {
		gain := seg.Gain.At(float64(f) / float64(rate))
		if gain == 1 {
			continue
		}
		for ch := 0; ch < channels; ch++ {
			data[f*channels+ch] *= gain
		}
	}
	return data, nil
}

// sumInto adds part into dst starting at offset, truncating whatever
// falls outside the output buffer.
func sumInto(dst, part []float64, offset int) {
	if offset < 0 {
		part = part[-offset:]
		offset = 0
	}
	for i, s := range part {
		j := offset + i
		if j >= len(dst) {
			break
		}
		dst[j] += s
	}
}
