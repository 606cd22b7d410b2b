package codec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// FFmpegEncoder produces compressed export formats (mp3, flac, ogg, …) by
// encoding a temporary WAV file and converting it with the ffmpeg binary.
// The conversion is a fixed, structured argument list; no filter graphs
// are ever constructed.
type FFmpegEncoder struct {
	// Path to the ffmpeg executable. Empty means look it up at encode time.
	Path string

	wav *WAVCodec
}

// NewFFmpegEncoder returns an encoder using the given ffmpeg binary, or
// one found on PATH / in common install locations when path is empty.
func NewFFmpegEncoder(path string) *FFmpegEncoder {
	return &FFmpegEncoder{Path: path, wav: NewWAVCodec()}
}

// FindFFmpeg locates an ffmpeg executable.
func FindFFmpeg() (string, error) {
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return p, nil
	}
	for _, p := range []string{
		"/usr/local/bin/ffmpeg",
		"/opt/homebrew/bin/ffmpeg",
		"/usr/bin/ffmpeg",
	} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("ffmpeg executable not found")
}

// Encode writes samples to outPath in the requested format. WAV output is
// written natively; other formats go through ffmpeg.
func (e *FFmpegEncoder) Encode(ctx context.Context, samples []float64, rate, channels, bitDepth int, format, outPath string) error {
	if format == "wav" {
		return e.wav.Encode(ctx, samples, rate, channels, bitDepth, format, outPath)
	}

	ffmpeg := e.Path
	if ffmpeg == "" {
		var err error
		ffmpeg, err = FindFFmpeg()
		if err != nil {
			return fmt.Errorf("encode %s: %w", format, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), "encode-*.wav")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := e.wav.Encode(ctx, samples, rate, channels, bitDepth, "wav", tmpName); err != nil {
		return err
	}

	args := []string{
		"-i", tmpName,
		"-ar", strconv.Itoa(rate),
		"-ac", strconv.Itoa(channels),
		"-y",
		outPath,
	}
	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg conversion to %s failed: %v: %s", format, err, stderr.String())
	}
	return nil
}
