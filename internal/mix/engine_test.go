package mix

import (
	"context"
	"math"
	"testing"

	"github.com/SunguochaoYeepay/sound-Edit/internal/codec"
)

// fakeDecoder serves constant-valued mono-compatible sources of fixed
// length, keyed by name.
type fakeDecoder struct {
	sources map[string]fakeSource
}

type fakeSource struct {
	value    float64
	duration float64
}

func (d *fakeDecoder) Decode(ctx context.Context, source string, startSec, durSec float64, rate, channels int) ([]float64, error) {
	src, ok := d.sources[source]
	if !ok {
		return nil, codec.ErrAssetNotFound
	}
	remaining := src.duration - startSec
	if remaining <= 0 || durSec <= 0 {
		return nil, nil
	}
	if durSec < remaining {
		remaining = durSec
	}
	frames := int(math.Round(remaining * float64(rate)))
	out := make([]float64, frames*channels)
	for i := range out {
		out[i] = src.value
	}
	return out, nil
}

func newTestEngine(sources map[string]fakeSource) *Engine {
	return NewEngine(&fakeDecoder{sources: sources})
}

func constSegment(source string, offset, duration, gain float64) Segment {
	return Segment{
		Source:         source,
		SourceStart:    0,
		SourceDuration: duration,
		OutputOffset:   offset,
		Duration:       duration,
		PlaybackRate:   1.0,
		Gain:           Envelope{Flat: gain, ClipDuration: duration},
		ClipID:         source,
	}
}

const testRate = 1000

func TestEngine_SilenceOnZeroSegments(t *testing.T) {
	eng := newTestEngine(nil)

	buf, results, err := eng.Render(context.Background(), nil, testRate, 2, 1.5)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want empty", results)
	}
	if buf.Frames() != 1500 {
		t.Errorf("Frames = %d, want 1500", buf.Frames())
	}
	for i, s := range buf.Data {
		if s != 0 {
			t.Fatalf("sample %d = %v, want 0", i, s)
		}
	}
}

func TestEngine_SumsOverlappingSegments(t *testing.T) {
	eng := newTestEngine(map[string]fakeSource{
		"a": {value: 0.2, duration: 10},
		"b": {value: 0.3, duration: 10},
	})
	segments := []Segment{
		constSegment("a", 0, 2, 1), // covers [0, 2)
		constSegment("b", 1, 2, 1), // covers [1, 3)
	}

	buf, _, err := eng.Render(context.Background(), segments, testRate, 1, 3)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	at := func(sec float64) float64 { return buf.Data[int(sec*testRate)] }
	if got := at(0.5); math.Abs(got-0.2) > 1e-9 {
		t.Errorf("sample at 0.5s = %v, want 0.2 (only a)", got)
	}
	if got := at(1.5); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("sample at 1.5s = %v, want 0.5 (a+b summed)", got)
	}
	if got := at(2.5); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("sample at 2.5s = %v, want 0.3 (only b)", got)
	}
}

func TestEngine_MixingIsOrderIndependent(t *testing.T) {
	sources := map[string]fakeSource{
		"a": {value: 0.11, duration: 5},
		"b": {value: 0.23, duration: 5},
		"c": {value: 0.31, duration: 5},
	}
	abc := []Segment{
		constSegment("a", 0, 3, 1),
		constSegment("b", 0.5, 2, 0.7),
		constSegment("c", 1, 1.5, 0.4),
	}
	cab := []Segment{abc[2], abc[0], abc[1]}

	eng := newTestEngine(sources)
	buf1, _, err := eng.Render(context.Background(), abc, testRate, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	buf2, _, err := eng.Render(context.Background(), cab, testRate, 2, 3)
	if err != nil {
		t.Fatal(err)
	}

	if len(buf1.Data) != len(buf2.Data) {
		t.Fatalf("buffer lengths differ: %d vs %d", len(buf1.Data), len(buf2.Data))
	}
	for i := range buf1.Data {
		if math.Abs(buf1.Data[i]-buf2.Data[i]) > 1e-9 {
			t.Fatalf("sample %d differs: %v vs %v", i, buf1.Data[i], buf2.Data[i])
		}
	}
}

func TestEngine_SkipsMissingAssets(t *testing.T) {
	eng := newTestEngine(map[string]fakeSource{
		"good1": {value: 0.1, duration: 5},
		"good2": {value: 0.2, duration: 5},
	})
	segments := []Segment{
		constSegment("good1", 0, 1, 1),
		constSegment("ghost", 0, 1, 1),
		constSegment("good2", 0, 1, 1),
	}

	buf, results, err := eng.Render(context.Background(), segments, testRate, 1, 1)
	if err != nil {
		t.Fatalf("a single bad reference must not fail the render: %v", err)
	}

	var skipped int
	for _, r := range results {
		if r.Skipped {
			skipped++
			if r.Source != "ghost" {
				t.Errorf("skipped wrong segment: %+v", r)
			}
			if r.Reason == "" {
				t.Error("skip reason must be populated")
			}
		}
	}
	if skipped != 1 {
		t.Fatalf("skipped %d segments, want 1", skipped)
	}

	// The two good segments still sum correctly.
	if got := buf.Data[500]; math.Abs(got-0.3) > 1e-9 {
		t.Errorf("sample = %v, want 0.1+0.2", got)
	}
}

func TestEngine_ClampsInsteadOfNormalizing(t *testing.T) {
	eng := newTestEngine(map[string]fakeSource{
		"hot": {value: 0.8, duration: 5},
	})
	segments := []Segment{
		constSegment("hot", 0, 1, 1),
		constSegment("hot", 0, 1, 1),
	}

	buf, _, err := eng.Render(context.Background(), segments, testRate, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := buf.Data[100]; got != 1.0 {
		t.Errorf("sample = %v, want hard clamp at 1.0 (0.8+0.8 overdrives)", got)
	}
}

func TestEngine_AppliesFadeEnvelope(t *testing.T) {
	eng := newTestEngine(map[string]fakeSource{
		"v": {value: 1.0, duration: 5},
	})
	seg := constSegment("v", 0, 2, 1)
	seg.Gain.FadeIn = 1

	buf, _, err := eng.Render(context.Background(), []Segment{seg}, testRate, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := buf.Data[0]; got != 0 {
		t.Errorf("first sample = %v, want 0 at fade-in start", got)
	}
	if got := buf.Data[500]; math.Abs(got-0.5) > 1e-3 {
		t.Errorf("ramp midpoint = %v, want ~0.5", got)
	}
	if got := buf.Data[1500]; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("flat region = %v, want 1.0", got)
	}
}

func TestEngine_LoopTilesShortSource(t *testing.T) {
	eng := newTestEngine(map[string]fakeSource{
		"beat": {value: 0.4, duration: 1}, // 1s of source under a 3s clip
	})
	seg := constSegment("beat", 0, 3, 1)
	seg.SourceDuration = 3
	seg.Loop = true

	buf, results, err := eng.Render(context.Background(), []Segment{seg}, testRate, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Skipped {
		t.Fatalf("looped segment skipped: %s", results[0].Reason)
	}
	if got := buf.Data[2500]; math.Abs(got-0.4) > 1e-9 {
		t.Errorf("sample at 2.5s = %v, want 0.4 (loop keeps playing)", got)
	}
}

func TestEngine_ShortSourceWithoutLoopLeavesSilentTail(t *testing.T) {
	eng := newTestEngine(map[string]fakeSource{
		"short": {value: 0.4, duration: 1},
	})
	seg := constSegment("short", 0, 3, 1)
	seg.SourceDuration = 3

	buf, _, err := eng.Render(context.Background(), []Segment{seg}, testRate, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := buf.Data[500]; math.Abs(got-0.4) > 1e-9 {
		t.Errorf("sample at 0.5s = %v, want 0.4", got)
	}
	if got := buf.Data[2500]; got != 0 {
		t.Errorf("sample at 2.5s = %v, want silence after source runs out", got)
	}
}

func TestEngine_TruncatesToOutputDuration(t *testing.T) {
	eng := newTestEngine(map[string]fakeSource{
		"long": {value: 0.5, duration: 10},
	})
	// Segment reaches past the output buffer end.
	seg := constSegment("long", 1, 5, 1)

	buf, _, err := eng.Render(context.Background(), []Segment{seg}, testRate, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Frames() != 2000 {
		t.Errorf("Frames = %d, want exactly 2000 regardless of segment spill", buf.Frames())
	}
}

func TestEngine_ExactClipScenario(t *testing.T) {
	// The end-to-end timing fixture: dialogue [0, 3.5) at 1.0 and
	// environment [1, 6) at 0.6 must produce a 6s buffer.
	eng := newTestEngine(map[string]fakeSource{
		"dlg": {value: 0.5, duration: 10},
		"env": {value: 0.5, duration: 10},
	})
	segments := []Segment{
		constSegment("dlg", 0, 3.5, 1.0),
		constSegment("env", 1, 5, 0.6),
	}

	buf, _, err := eng.Render(context.Background(), segments, testRate, 2, 6)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(buf.Duration()-6.0) > 1e-9 {
		t.Errorf("Duration = %v, want 6.0", buf.Duration())
	}
	// At 2s both clips play: 0.5*1.0 + 0.5*0.6.
	if got := buf.Data[2*testRate*2]; math.Abs(got-0.8) > 1e-9 {
		t.Errorf("sample at 2s = %v, want 0.8", got)
	}
	// At 4s only the environment clip remains.
	if got := buf.Data[4*testRate*2]; math.Abs(got-0.3) > 1e-9 {
		t.Errorf("sample at 4s = %v, want 0.3", got)
	}
}
