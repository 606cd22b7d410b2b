// Package mix turns a project's track list into rendered audio.
//
// It has two halves. The planner resolves mute/solo state and window
// overlap into a flat list of Segments, each carrying the source
// sub-range, the offset into the output buffer, and a piecewise-linear
// gain envelope. The engine decodes those segments through a codec
// collaborator, applies the envelopes, and sums everything into a single
// PCM buffer.
//
// Both halves are pure functions of their inputs: no shared state, safe
// to run many renders concurrently.
package mix
