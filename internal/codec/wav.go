package codec

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// WAVCodec resolves, decodes, and encodes RIFF/WAVE files. It understands
// PCM (8/16/24/32-bit) and 32-bit float data chunks.
type WAVCodec struct{}

// NewWAVCodec returns the built-in WAV collaborator.
func NewWAVCodec() *WAVCodec {
	return &WAVCodec{}
}

const (
	waveFormatPCM   = 1
	waveFormatFloat = 3
)

type wavHeader struct {
	audioFormat   uint16
	channels      int
	sampleRate    int
	bitsPerSample int
	dataOffset    int64
	dataSize      int64
}

func (h wavHeader) blockAlign() int64 {
	return int64(h.channels * h.bitsPerSample / 8)
}

func (h wavHeader) frames() int64 {
	ba := h.blockAlign()
	if ba == 0 {
		return 0
	}
	return h.dataSize / ba
}

func parseWAVHeader(r io.ReadSeeker) (wavHeader, error) {
	var h wavHeader

	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return h, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return h, fmt.Errorf("not a RIFF/WAVE file")
	}

	var haveFmt, haveData bool
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return h, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			var fmtBuf [16]byte
			if _, err := io.ReadFull(r, fmtBuf[:]); err != nil {
				return h, fmt.Errorf("read fmt chunk: %w", err)
			}
			h.audioFormat = binary.LittleEndian.Uint16(fmtBuf[0:2])
			h.channels = int(binary.LittleEndian.Uint16(fmtBuf[2:4]))
			h.sampleRate = int(binary.LittleEndian.Uint32(fmtBuf[4:8]))
			h.bitsPerSample = int(binary.LittleEndian.Uint16(fmtBuf[14:16]))
			haveFmt = true
			if size > 16 {
				if _, err := r.Seek(size-16+(size&1), io.SeekCurrent); err != nil {
					return h, err
				}
			}
		case "data":
			off, err := r.Seek(0, io.SeekCurrent)
			if err != nil {
				return h, err
			}
			h.dataOffset = off
			h.dataSize = size
			haveData = true
			if _, err := r.Seek(size+(size&1), io.SeekCurrent); err != nil {
				// Truncated data chunk; keep what the header claims is
				// there bounded by the real file size below.
				break
			}
		default:
			if _, err := r.Seek(size+(size&1), io.SeekCurrent); err != nil {
				return h, err
			}
		}
		if haveFmt && haveData {
			break
		}
	}

	if !haveFmt || !haveData {
		return h, fmt.Errorf("missing fmt or data chunk")
	}
	if h.channels <= 0 || h.sampleRate <= 0 {
		return h, fmt.Errorf("invalid fmt chunk: %d channels at %d Hz", h.channels, h.sampleRate)
	}
	switch h.audioFormat {
	case waveFormatPCM:
		switch h.bitsPerSample {
		case 8, 16, 24, 32:
		default:
			return h, fmt.Errorf("unsupported PCM bit depth %d", h.bitsPerSample)
		}
	case waveFormatFloat:
		if h.bitsPerSample != 32 {
			return h, fmt.Errorf("unsupported float bit depth %d", h.bitsPerSample)
		}
	default:
		return h, fmt.Errorf("unsupported WAVE format tag %d", h.audioFormat)
	}
	return h, nil
}

// Resolve opens a WAV file and reports its technical properties.
func (w *WAVCodec) Resolve(ctx context.Context, source string) (AssetInfo, error) {
	f, err := os.Open(source)
	if err != nil {
		if os.IsNotExist(err) {
			return AssetInfo{}, fmt.Errorf("%w: %s", ErrAssetNotFound, source)
		}
		return AssetInfo{}, err
	}
	defer f.Close()

	h, err := parseWAVHeader(f)
	if err != nil {
		return AssetInfo{}, fmt.Errorf("%w: %s: %v", ErrAssetNotFound, source, err)
	}

	return AssetInfo{
		Path:       source,
		SampleRate: h.sampleRate,
		Channels:   h.channels,
		BitDepth:   h.bitsPerSample,
		Duration:   float64(h.frames()) / float64(h.sampleRate),
	}, nil
}

// Decode reads [startSec, startSec+durSec) of a WAV file, converts it to
// the requested channel layout, and resamples it to the requested rate.
// A range past the end of the file yields fewer samples, not an error.
func (w *WAVCodec) Decode(ctx context.Context, source string, startSec, durSec float64, rate, channels int) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, source)
		}
		return nil, err
	}
	defer f.Close()

	h, err := parseWAVHeader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetNotFound, source, err)
	}

	totalFrames := h.frames()
	startFrame := int64(math.Round(startSec * float64(h.sampleRate)))
	if startFrame >= totalFrames || durSec <= 0 {
		return nil, nil
	}
	wantFrames := int64(math.Round(durSec * float64(h.sampleRate)))
	n := totalFrames - startFrame
	if wantFrames < n {
		n = wantFrames
	}

	if _, err := f.Seek(h.dataOffset+startFrame*h.blockAlign(), io.SeekStart); err != nil {
		return nil, err
	}
	raw := make([]byte, n*h.blockAlign())
	read, err := io.ReadFull(f, raw)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		// Header claimed more data than the file holds; use what exists.
		raw = raw[:read-read%int(h.blockAlign())]
		err = nil
	}
	if err != nil {
		return nil, err
	}

	samples := bytesToFloat64(raw, h)
	samples = MapChannels(samples, h.channels, channels)

	gotFrames := len(samples) / channels
	dstFrames := int(math.Round(float64(gotFrames) * float64(rate) / float64(h.sampleRate)))
	return Resample(samples, channels, dstFrames), nil
}

func bytesToFloat64(raw []byte, h wavHeader) []float64 {
	bytesPer := h.bitsPerSample / 8
	count := len(raw) / bytesPer
	out := make([]float64, count)

	switch {
	case h.audioFormat == waveFormatFloat:
		for i := 0; i < count; i++ {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			out[i] = float64(math.Float32frombits(bits))
		}
	case h.bitsPerSample == 8:
		for i := 0; i < count; i++ {
			out[i] = (float64(raw[i]) - 128) / 128
		}
	case h.bitsPerSample == 16:
		for i := 0; i < count; i++ {
			v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
			out[i] = float64(v) / 32768
		}
	case h.bitsPerSample == 24:
		for i := 0; i < count; i++ {
			b := raw[i*3 : i*3+3]
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if v&0x800000 != 0 {
				v |= ^int32(0xFFFFFF)
			}
			out[i] = float64(v) / 8388608
		}
	case h.bitsPerSample == 32:
		for i := 0; i < count; i++ {
			v := int32(binary.LittleEndian.Uint32(raw[i*4:]))
			out[i] = float64(v) / 2147483648
		}
	}
	return out
}

// Encode writes interleaved samples as a PCM WAV file. Only 16 and 24-bit
// output is supported; samples outside [-1, 1] hard-clip.
func (w *WAVCodec) Encode(ctx context.Context, samples []float64, rate, channels, bitDepth int, format, outPath string) error {
	if format != "wav" {
		return fmt.Errorf("wav encoder cannot produce %q", format)
	}
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("unsupported output bit depth %d", bitDepth)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	bytesPer := bitDepth / 8
	dataSize := len(samples) * bytesPer

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataSize))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], waveFormatPCM)
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(rate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(rate*channels*bytesPer))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(channels*bytesPer))
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(bitDepth))
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataSize))
	if _, err := f.Write(hdr[:]); err != nil {
		return err
	}

	buf := make([]byte, dataSize)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		switch bitDepth {
		case 16:
			v := int16(math.Round(s * 32767))
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
		case 24:
			v := int32(math.Round(s * 8388607))
			buf[i*3] = byte(v)
			buf[i*3+1] = byte(v >> 8)
			buf[i*3+2] = byte(v >> 16)
		}
	}
	if _, err := f.Write(buf); err != nil {
		return err
	}
	return f.Close()
}
