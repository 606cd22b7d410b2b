// Package codec defines the media collaborator contracts the render
// pipeline consumes — asset resolution, sub-range decoding, and encoding —
// together with the built-in WAV implementation and an ffmpeg-backed
// encoder for compressed output formats.
//
// The render engine never reads bytes itself: it asks a Decoder for an
// asset's samples in a given range, already converted to the target sample
// rate and channel count. Samples are interleaved float64 in [-1, 1].
package codec
