package timeline

import (
	"testing"
	"time"

	"github.com/cbegin/abcscore-go/internal/abc"
	"github.com/cbegin/abcscore-go/internal/interp"
	"github.com/cbegin/abcscore-go/internal/score"
	"github.com/cbegin/abcscore-go/internal/semantic"
)

func build(t *testing.T, src string) *Timeline {
	t.Helper()
	f := abc.NewParser(abc.DefaultParserConfig()).Parse(src)
	res := interp.New(interp.DefaultConfig()).Interpret(f, semantic.Analyze(f).Data, src)
	if len(res.Tunes) == 0 {
		t.Fatalf("expected a tune")
	}
	return Build(res.Tunes[0], DefaultOptions())
}

func TestBuildSingleVoice(t *testing.T) {
	tl := build(t, "X:1\nL:1/4\nK:C\nCDEz|\n")
	if len(tl.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(tl.Tracks))
	}
	evs := tl.Tracks[0].Events
	if len(evs) != 4 {
		t.Fatalf("expected 4 events, got %d", len(evs))
	}
	for i, ev := range evs {
		if ev.Tick != i*480 || ev.Duration != 480 {
			t.Fatalf("event %d: unexpected timing %+v", i, ev)
		}
	}
	if evs[0].Notes[0] != 60 || !evs[3].Rest {
		t.Fatalf("unexpected events %+v", evs)
	}
	if tl.EndTick != 1920 {
		t.Fatalf("expected end tick 1920, got %d", tl.EndTick)
	}
	if d := tl.Duration(); d != 2*time.Second {
		t.Fatalf("expected 2s at 120bpm, got %v", d)
	}
}

func TestTiesMerge(t *testing.T) {
	tl := build(t, "X:1\nL:1/4\nK:C\nC-C D2|\n")
	evs := tl.Tracks[0].Events
	if len(evs) != 2 || evs[0].Duration != 960 || evs[1].Tick != 960 {
		t.Fatalf("expected tied notes merged, got %+v", evs)
	}
}

func TestTempoFromTune(t *testing.T) {
	tl := build(t, "X:1\nL:1/4\nQ:1/2=60\nK:C\nCDEF|\n")
	if tl.BPM != 120 {
		t.Fatalf("expected 120 quarter bpm, got %v", tl.BPM)
	}
	tl = build(t, "X:1\nL:1/4\nQ:3/8=40\nK:C\nCDEF|\n")
	if tl.BPM != 60 {
		t.Fatalf("expected 60 quarter bpm, got %v", tl.BPM)
	}
}

func TestTracksFollowVoicesAcrossSystems(t *testing.T) {
	tl := build(t, "X:1\nL:1/4\nK:C\nV:1\nCD|\nV:2\nE2|\nV:1\nFG|\n")
	if len(tl.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tl.Tracks))
	}
	v1 := tl.Tracks[0]
	if v1.Staff != 0 || len(v1.Events) != 4 || v1.Events[3].Tick != 1440 {
		t.Fatalf("unexpected voice 1 track %+v", v1)
	}
	if tl.EndTick != 1920 {
		t.Fatalf("expected end tick 1920, got %d", tl.EndTick)
	}
}

func TestGraceNotesTakeNoTime(t *testing.T) {
	tl := Build(&score.Tune{Systems: []*score.System{{
		Kind: score.SystemMusic,
		Staffs: []*score.Staff{{Voices: []score.Lane{{
			{Kind: score.KindNote, Duration: 0.25, Pitches: []score.Pitch{{MIDI: 60}},
				GraceNotes: []score.GraceNote{{Pitch: score.Pitch{MIDI: 62}, Duration: 0.125}}},
		}}}},
	}}}, Options{})
	if tl.EndTick != 480 {
		t.Fatalf("expected 480 ticks, got %d", tl.EndTick)
	}
}
