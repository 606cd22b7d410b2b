package codec

import (
	"context"
	"errors"
)

// ErrAssetNotFound reports a source reference that cannot be resolved to
// decodable audio. The engine treats it as per-segment skippable, not as
// a render failure.
var ErrAssetNotFound = errors.New("audio asset not found")

// IsAssetNotFound reports whether err marks an unresolvable asset.
func IsAssetNotFound(err error) bool {
	return errors.Is(err, ErrAssetNotFound)
}

// AssetInfo describes a resolved source asset.
type AssetInfo struct {
	Path       string  `json:"path"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth"`
	Duration   float64 `json:"duration"`
}

// Resolver looks up a source reference and returns its technical
// properties without decoding any audio.
type Resolver interface {
	Resolve(ctx context.Context, source string) (AssetInfo, error)
}

// Decoder reads a sub-range of a source asset and returns interleaved
// float64 samples at the requested rate and channel count.
//
// The returned slice may cover less than durSec when the range runs past
// the end of the asset; callers decide whether to pad, loop, or truncate.
type Decoder interface {
	Decode(ctx context.Context, source string, startSec, durSec float64, rate, channels int) ([]float64, error)
}

// Encoder writes interleaved float64 samples to a container file.
type Encoder interface {
	Encode(ctx context.Context, samples []float64, rate, channels, bitDepth int, format, outPath string) error
}

// Resample converts interleaved samples from srcFrames to dstFrames using
// per-channel linear interpolation. It serves two jobs: sample rate
// conversion inside the WAV decoder, and playback-rate stretching in the
// render engine. Returns the input unchanged when no conversion is needed.
func Resample(samples []float64, channels, dstFrames int) []float64 {
	if channels <= 0 || dstFrames < 0 {
		return nil
	}
	srcFrames := len(samples) / channels
	if srcFrames == dstFrames {
		return samples
	}
	out := make([]float64, dstFrames*channels)
	if srcFrames == 0 || dstFrames == 0 {
		return out
	}
	if srcFrames == 1 {
		for f := 0; f < dstFrames; f++ {
			copy(out[f*channels:(f+1)*channels], samples[:channels])
		}
		return out
	}

	step := float64(srcFrames-1) / float64(dstFrames-1)
	if dstFrames == 1 {
		step = 0
	}
	for f := 0; f < dstFrames; f++ {
		pos := float64(f) * step
		i := int(pos)
		if i >= srcFrames-1 {
			i = srcFrames - 2
		}
		frac := pos - float64(i)
		for ch := 0; ch < channels; ch++ {
			a := samples[i*channels+ch]
			b := samples[(i+1)*channels+ch]
			out[f*channels+ch] = a + (b-a)*frac
		}
	}
	return out
}

// MapChannels converts interleaved samples between channel layouts.
// Mono to stereo duplicates, stereo (or more) down to mono averages, and
// wider targets repeat the last source channel.
func MapChannels(samples []float64, srcCh, dstCh int) []float64 {
	if srcCh == dstCh || srcCh <= 0 || dstCh <= 0 {
		return samples
	}
	frames := len(samples) / srcCh
	out := make([]float64, frames*dstCh)
	for f := 0; f < frames; f++ {
		src := samples[f*srcCh : (f+1)*srcCh]
		dst := out[f*dstCh : (f+1)*dstCh]
		if dstCh == 1 {
			var sum float64
			for _, s := range src {
				sum += s
			}
			dst[0] = sum / float64(srcCh)
			continue
		}
		for ch := 0; ch < dstCh; ch++ {
			if ch < srcCh {
				dst[ch] = src[ch]
			} else {
				dst[ch] = src[srcCh-1]
			}
		}
	}
	return out
}
