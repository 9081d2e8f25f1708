package interp

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/cbegin/abcscore-go/internal/abc"
	"github.com/cbegin/abcscore-go/internal/rational"
	"github.com/cbegin/abcscore-go/internal/score"
	"github.com/cbegin/abcscore-go/internal/semantic"
)

func interpret(t *testing.T, src string) *Result {
	t.Helper()
	f := abc.NewParser(abc.DefaultParserConfig()).Parse(src)
	data := semantic.Analyze(f)
	return New(DefaultConfig()).Interpret(f, data.Data, src)
}

func firstTune(t *testing.T, src string) *score.Tune {
	t.Helper()
	res := interpret(t, src)
	if len(res.Tunes) == 0 {
		t.Fatalf("expected a tune")
	}
	return res.Tunes[0]
}

// notes returns the note elements of the first lane of the first system.
func notes(t *testing.T, tune *score.Tune) []*score.Element {
	t.Helper()
	var out []*score.Element
	for _, el := range firstLane(t, tune) {
		if el.Kind == score.KindNote {
			out = append(out, el)
		}
	}
	return out
}

func firstLane(t *testing.T, tune *score.Tune) score.Lane {
	t.Helper()
	for _, sys := range tune.Systems {
		if sys.Kind == score.SystemMusic && len(sys.Staffs) > 0 && len(sys.Staffs[0].Voices) > 0 {
			return sys.Staffs[0].Voices[0]
		}
	}
	t.Fatalf("no music system")
	return nil
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMinimalTune(t *testing.T) {
	res := interpret(t, "X:1\nK:C\nCDEF|\n")
	if len(res.Tunes) != 1 {
		t.Fatalf("expected 1 tune, got %d", len(res.Tunes))
	}
	tune := res.Tunes[0]
	if len(tune.Systems) != 1 || len(tune.Systems[0].Staffs) != 1 {
		t.Fatalf("expected one system with one staff, got %+v", tune.Systems)
	}
	st := tune.Systems[0].Staffs[0]
	if len(st.Voices) != 1 {
		t.Fatalf("expected one lane, got %d", len(st.Voices))
	}
	lane := st.Voices[0]
	if len(lane) != 5 {
		t.Fatalf("expected 5 elements, got %d", len(lane))
	}
	for i := 0; i < 4; i++ {
		if lane[i].Kind != score.KindNote || len(lane[i].Pitches) != 1 {
			t.Fatalf("element %d should be a note, got %+v", i, lane[i])
		}
	}
	if lane[4].Kind != score.KindBar || lane[4].Bar != "bar_thin" {
		t.Fatalf("expected thin bar, got %+v", lane[4])
	}
	if st.Key.Root != "C" || st.Key.Mode != "major" || len(st.Key.Accidentals) != 0 {
		t.Fatalf("expected C major, got %+v", st.Key)
	}
	if st.Meter == nil || st.Meter.Type != semantic.MeterCommonTime || !st.Meter.Value[0].Equal(rational.New(4, 4)) {
		t.Fatalf("expected common time, got %+v", st.Meter)
	}
	if st.Clef.Type != "treble" {
		t.Fatalf("expected treble clef, got %+v", st.Clef)
	}
	if tune.StaffCount != 1 || tune.VoiceCount != 1 || tune.LineCount != 1 {
		t.Fatalf("unexpected counts staff=%d voice=%d line=%d", tune.StaffCount, tune.VoiceCount, tune.LineCount)
	}
	wantMIDI := []int{60, 62, 64, 65}
	for i, m := range wantMIDI {
		if lane[i].Pitches[0].MIDI != m || !near(lane[i].Duration, 0.125) {
			t.Fatalf("note %d: expected midi %d length 1/8, got %+v", i, m, lane[i])
		}
	}
	if lane[0].StartChar != 8 || lane[0].EndChar != 9 {
		t.Fatalf("expected absolute offsets 8..9, got %d..%d", lane[0].StartChar, lane[0].EndChar)
	}
}

func TestBrokenRhythmPairsSumToTwo(t *testing.T) {
	two := rational.New(2, 1)
	for _, sym := range []string{">", ">>", ">>>", "<", "<<", "<<<"} {
		own, next := brokenFactors(sym)
		if !own.Add(next).Equal(two) {
			t.Fatalf("%s: %v + %v != 2", sym, own, next)
		}
	}
	own, next := brokenFactors(">>")
	if !own.Equal(rational.New(7, 4)) || !next.Equal(rational.New(1, 4)) {
		t.Fatalf("expected 7/4 and 1/4, got %v %v", own, next)
	}

	ns := notes(t, firstTune(t, "X:1\nK:C\nA>B c<d|\n"))
	want := []float64{0.1875, 0.0625, 0.0625, 0.1875}
	for i, w := range want {
		if !near(ns[i].Duration, w) {
			t.Fatalf("note %d: expected %v, got %v", i, w, ns[i].Duration)
		}
	}
}

func TestBrokenRhythmStopsAtBar(t *testing.T) {
	ns := notes(t, firstTune(t, "X:1\nK:C\nA>|B|\n"))
	if !near(ns[1].Duration, 0.125) {
		t.Fatalf("carry should not cross the bar, got %v", ns[1].Duration)
	}
}

func TestTieClosing(t *testing.T) {
	t.Run("same pitch", func(t *testing.T) {
		ns := notes(t, firstTune(t, "X:1\nK:C\nC-C|\n"))
		if !ns[0].Pitches[0].StartTie || !ns[1].Pitches[0].EndTie {
			t.Fatalf("expected tie from first to second note: %+v %+v", ns[0].Pitches, ns[1].Pitches)
		}
	})
	t.Run("matching chord pitch", func(t *testing.T) {
		ns := notes(t, firstTune(t, "X:1\nK:C\nC-[EC]|\n"))
		if ns[1].Pitches[0].EndTie || !ns[1].Pitches[1].EndTie {
			t.Fatalf("expected tie to end on C, got %+v", ns[1].Pitches)
		}
	})
	t.Run("forced onto first pitch", func(t *testing.T) {
		ns := notes(t, firstTune(t, "X:1\nK:C\nC-[EG]|\n"))
		if !ns[1].Pitches[0].EndTie || ns[1].Pitches[1].EndTie {
			t.Fatalf("expected tie forced onto E, got %+v", ns[1].Pitches)
		}
	})
	t.Run("rest clears", func(t *testing.T) {
		ns := notes(t, firstTune(t, "X:1\nK:C\nC- z C|\n"))
		if ns[2].Pitches[0].EndTie {
			t.Fatalf("tie should not survive a rest")
		}
	})
}

func TestBeamGrouping(t *testing.T) {
	ns := notes(t, firstTune(t, "X:1\nK:C\nCDE2F G A|\n"))
	type flags struct{ start, end bool }
	want := []flags{{true, false}, {false, true}, {}, {}, {}, {}}
	for i, w := range want {
		if ns[i].StartBeam != w.start || ns[i].EndBeam != w.end {
			t.Fatalf("note %d: expected %+v, got start=%v end=%v", i, w, ns[i].StartBeam, ns[i].EndBeam)
		}
	}

	ns = notes(t, firstTune(t, "X:1\nK:C\nCDzEF|\n"))
	if !ns[0].StartBeam || !ns[1].EndBeam || ns[2].StartBeam || !ns[3].StartBeam || !ns[4].EndBeam {
		t.Fatalf("rest should split the group")
	}
}

func TestVoiceRoundTrip(t *testing.T) {
	tune := firstTune(t, "X:1\nK:C\nV:1\nC|\nV:2\nD|\nV:1\nE|\n")
	got := map[int][]string{}
	tune.Lanes(func(sys, staff, voice int, lane score.Lane) {
		for _, el := range lane {
			if el.Kind == score.KindNote {
				got[staff] = append(got[staff], el.Pitches[0].Name)
			}
		}
	})
	if len(got[0]) != 2 || got[0][0] != "C" || got[0][1] != "E" {
		t.Fatalf("voice 1 should hold C then E, got %v", got[0])
	}
	if len(got[1]) != 1 || got[1][0] != "D" {
		t.Fatalf("voice 2 should hold D, got %v", got[1])
	}
	if len(tune.Systems) != 2 {
		t.Fatalf("expected 2 systems, got %d", len(tune.Systems))
	}
	if tune.VoiceCount != 2 || tune.StaffCount != 2 {
		t.Fatalf("expected 2 voices on 2 staffs, got %d/%d", tune.VoiceCount, tune.StaffCount)
	}
}

func TestInlineVoiceSwitchSharesSystem(t *testing.T) {
	tune := firstTune(t, "X:1\nK:C\n[V:1]CD|[V:2]EF|\n[V:1]GA|[V:2]Bc|\n")
	if len(tune.Systems) != 2 {
		t.Fatalf("expected 2 systems, got %d", len(tune.Systems))
	}
	for i, sys := range tune.Systems {
		if len(sys.Staffs) != 2 {
			t.Fatalf("system %d: expected 2 staffs, got %d", i, len(sys.Staffs))
		}
		for s, st := range sys.Staffs {
			if len(st.Voices[0]) != 3 {
				t.Fatalf("system %d staff %d: expected 3 elements, got %d", i, s, len(st.Voices[0]))
			}
		}
	}
}

func TestScoreLayout(t *testing.T) {
	tune := firstTune(t, "X:1\n%%score (S A) T\nV:S\nV:A\nV:T clef=bass\nK:C\n[V:T]C,|\n[V:S]c|\n[V:A]G|\n")
	if len(tune.Systems) != 1 {
		t.Fatalf("expected 1 system, got %d", len(tune.Systems))
	}
	sys := tune.Systems[0]
	if len(sys.Staffs) != 2 || len(sys.Staffs[0].Voices) != 2 {
		t.Fatalf("expected S and A sharing the first staff, got %+v", sys.Staffs)
	}
	if sys.Staffs[1].Clef.Type != "bass" {
		t.Fatalf("expected bass clef on T, got %+v", sys.Staffs[1].Clef)
	}
	if n := sys.Staffs[0].Voices[1][0]; n.Pitches[0].Name != "G" {
		t.Fatalf("expected A voice in lane 1, got %+v", n)
	}
}

func TestMeasureCounting(t *testing.T) {
	tune := firstTune(t, "X:1\nK:C\nC|D|E|\n")
	if tune.Measures != 4 {
		t.Fatalf("expected 4, got %d", tune.Measures)
	}
	var bars []int
	for _, el := range firstLane(t, tune) {
		if el.Kind == score.KindBar {
			bars = append(bars, el.Measure)
		}
	}
	if len(bars) != 3 || bars[0] != 2 || bars[2] != 4 {
		t.Fatalf("unexpected bar numbers %v", bars)
	}
}

func TestRestTypes(t *testing.T) {
	cases := []struct {
		src   string
		want  score.RestType
		count int
		dur   float64
	}{
		{"X:1\nM:6/8\nK:C\nz2|\n", score.RestNormal, 0, 0.25},
		{"X:1\nM:4/4\nL:1/4\nK:C\nz4|\n", score.RestWhole, 0, 1},
		{"X:1\nM:3/2\nL:1/4\nK:C\nz4|\n", score.RestNormal, 0, 1},
		{"X:1\nK:C\nx|\n", score.RestInvisible, 0, 0.125},
		{"X:1\nM:3/4\nK:C\nZ4|\n", score.RestMultimeasure, 4, 3},
		{"X:1\nK:C\nX|\n", score.RestInvisibleMultimeasure, 1, 1},
	}
	for _, tc := range cases {
		ns := notes(t, firstTune(t, tc.src))
		r := ns[0].Rest
		if r == nil || r.Type != tc.want || r.Count != tc.count || !near(ns[0].Duration, tc.dur) {
			t.Fatalf("%q: expected %s x%d (%v), got %+v (%v)", tc.src, tc.want, tc.count, tc.dur, r, ns[0].Duration)
		}
	}
}

func TestDefaultNoteLengthFromMeter(t *testing.T) {
	ns := notes(t, firstTune(t, "X:1\nM:2/4\nK:C\nC[M:4/4]D|\n"))
	if !near(ns[0].Duration, 0.0625) || !near(ns[1].Duration, 0.0625) {
		t.Fatalf("expected 1/16 for both notes, got %v %v", ns[0].Duration, ns[1].Duration)
	}
}

func TestAccidentals(t *testing.T) {
	ns := notes(t, firstTune(t, "X:1\nK:G\nF^C C|C =F _B,|\n"))
	want := []int{66, 61, 61, 60, 65, 58}
	for i, m := range want {
		if ns[i].Pitches[0].MIDI != m {
			t.Fatalf("note %d: expected midi %d, got %d", i, m, ns[i].Pitches[0].MIDI)
		}
	}
	if ns[1].Pitches[0].Accidental != "sharp" || ns[5].Pitches[0].Accidental != "flat" {
		t.Fatalf("unexpected accidentals %+v %+v", ns[1].Pitches[0], ns[5].Pitches[0])
	}
	if ns[5].Pitches[0].Pitch != -1 {
		t.Fatalf("B, should be pitch -1, got %d", ns[5].Pitches[0].Pitch)
	}
}

func TestInlineKeyChange(t *testing.T) {
	lane := firstLane(t, firstTune(t, "X:1\nK:C\nF[K:D]F|\n"))
	if lane[1].Kind != score.KindKey || lane[1].Key.Root != "D" {
		t.Fatalf("expected key element, got %+v", lane[1])
	}
	if lane[0].Pitches[0].MIDI != 65 || lane[2].Pitches[0].MIDI != 66 {
		t.Fatalf("key change should apply to later notes")
	}
}

func TestSlurs(t *testing.T) {
	ns := notes(t, firstTune(t, "X:1\nK:C\n(CD) .(EF)|\n"))
	if len(ns[0].Pitches[0].StartSlur) != 1 || ns[0].Pitches[0].StartSlur[0].Label != 1 {
		t.Fatalf("expected slur 1 to start on C, got %+v", ns[0].Pitches[0])
	}
	if len(ns[1].Pitches[0].EndSlur) != 1 || ns[1].Pitches[0].EndSlur[0] != 1 {
		t.Fatalf("expected slur 1 to end on D, got %+v", ns[1].Pitches[0])
	}
	if s := ns[2].Pitches[0].StartSlur; len(s) != 1 || s[0].Style != "dotted" || s[0].Label != 2 {
		t.Fatalf("expected dotted slur 2 on E, got %+v", s)
	}
}

func TestSlurLabelsArePerVoice(t *testing.T) {
	tune := firstTune(t, "X:1\nK:C\nV:1\n(CD) (EF)|\nV:2\n(GA)|\n")
	var labels [][]int
	tune.Lanes(func(_, _, _ int, lane score.Lane) {
		var ls []int
		for _, el := range lane {
			if el.Kind == score.KindNote {
				for _, s := range el.Pitches[0].StartSlur {
					ls = append(ls, s.Label)
				}
			}
		}
		labels = append(labels, ls)
	})
	if len(labels) != 2 || len(labels[0]) != 2 || labels[0][1] != 2 || len(labels[1]) != 1 || labels[1][0] != 1 {
		t.Fatalf("expected labels [1 2] and [1], got %v", labels)
	}
}

func TestUnbalancedSlurCloseIsDropped(t *testing.T) {
	ns := notes(t, firstTune(t, "X:1\nK:C\n)C D|\n"))
	if len(ns[0].Pitches[0].EndSlur) != 0 || len(ns[0].Pitches[0].StartSlur) != 0 {
		t.Fatalf("stray close should be ignored, got %+v", ns[0].Pitches[0])
	}
}

func TestTuplet(t *testing.T) {
	ns := notes(t, firstTune(t, "X:1\nK:C\n(3CDE F|\n"))
	if ns[0].StartTriplet != 3 || ns[0].TripletR != 3 || !near(ns[0].TripletMultiplier, 2.0/3) {
		t.Fatalf("unexpected tuplet start %+v", ns[0])
	}
	if !ns[2].EndTriplet || ns[1].EndTriplet {
		t.Fatalf("tuplet should end on the third note")
	}
	if !near(ns[0].Duration, 1.0/12) || !near(ns[3].Duration, 0.125) {
		t.Fatalf("unexpected durations %v %v", ns[0].Duration, ns[3].Duration)
	}
}

func TestTupletDefaults(t *testing.T) {
	cases := []struct {
		tuplet string
		p, q   int
		end    int
	}{
		{"(2", 2, 3, 1},
		{"(4", 4, 3, 3},
		{"(5", 5, 2, 4},
		{"(8", 8, 3, 7},
		{"(10", 10, 2, 9},
		{"(3:2:4", 3, 2, 3},
	}
	for _, tc := range cases {
		t.Run(tc.tuplet, func(t *testing.T) {
			ns := notes(t, firstTune(t, "X:1\nK:C\n"+tc.tuplet+"CDEFGABcdefg|\n"))
			first := ns[0]
			if first.StartTriplet != tc.p || !near(first.TripletMultiplier, float64(tc.q)/float64(tc.p)) {
				t.Fatalf("unexpected tuplet start %+v", first)
			}
			for i, n := range ns {
				if n.EndTriplet != (i == tc.end) {
					t.Fatalf("expected the tuplet to end on note %d, note %d has EndTriplet=%v", tc.end, i, n.EndTriplet)
				}
				want := 0.125
				if i <= tc.end {
					want *= float64(tc.q) / float64(tc.p)
				}
				if !near(n.Duration, want) {
					t.Fatalf("note %d: expected duration %v, got %v", i, want, n.Duration)
				}
			}
			if first.TripletR != tc.end+1 {
				t.Fatalf("expected r=%d, got %d", tc.end+1, first.TripletR)
			}
		})
	}
}

func TestDecorationsAndAnnotations(t *testing.T) {
	tune := firstTune(t, "X:1\nU:W=!wedge!\nK:C\n\"Am\"\"^up\"!trill!.WC D!nostem!|\n")
	ns := notes(t, tune)
	c := ns[0]
	if len(c.Chord) != 2 || c.Chord[0].Position != "default" || c.Chord[1] != (score.ChordSymbol{Name: "up", Position: "above"}) {
		t.Fatalf("unexpected chord symbols %+v", c.Chord)
	}
	want := []string{"trill", "staccato", "wedge"}
	if len(c.Decorations) != len(want) {
		t.Fatalf("expected %v, got %v", want, c.Decorations)
	}
	for i := range want {
		if c.Decorations[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, c.Decorations)
		}
	}
	if !ns[1].NoStem || ns[0].NoStem {
		t.Fatalf("nostem should mark the preceding note only")
	}
}

func TestGraceNotes(t *testing.T) {
	ns := notes(t, firstTune(t, "X:1\nK:C\n{/ag}B|\n"))
	g := ns[0].GraceNotes
	if len(g) != 2 || !g[0].Acciaccatura || g[0].Name != "a" {
		t.Fatalf("unexpected grace notes %+v", g)
	}
}

func TestEndings(t *testing.T) {
	var bars []*score.Element
	for _, el := range firstLane(t, firstTune(t, "X:1\nK:C\nC|1 D:|2 E|]\n")) {
		if el.Kind == score.KindBar {
			bars = append(bars, el)
		}
	}
	if bars[0].StartEnding != "1" || bars[1].StartEnding != "2" || !bars[1].EndEnding || !bars[2].EndEnding {
		t.Fatalf("unexpected endings %+v %+v %+v", bars[0], bars[1], bars[2])
	}
	if bars[1].Bar != "bar_right_repeat" || bars[2].Bar != "bar_thin_thick" {
		t.Fatalf("unexpected bar types %s %s", bars[1].Bar, bars[2].Bar)
	}
}

func TestLyrics(t *testing.T) {
	ns := notes(t, firstTune(t, "X:1\nK:C\nCDE|F\nw:a-b c d\nw:x\n"))
	want := []score.Lyric{
		{Syllable: "a", Divider: "-"},
		{Syllable: "b", Divider: " "},
		{Syllable: "c", Divider: " "},
		{Syllable: "d", Divider: " "},
	}
	for i, w := range want {
		if len(ns[i].Lyric) == 0 || ns[i].Lyric[0] != w {
			t.Fatalf("note %d: expected %+v, got %+v", i, w, ns[i].Lyric)
		}
	}
	if len(ns[0].Lyric) != 2 || ns[0].Lyric[1].Syllable != "x" {
		t.Fatalf("expected second verse on C, got %+v", ns[0].Lyric)
	}
}

func TestSymbolLine(t *testing.T) {
	res := interpret(t, "X:1\nK:C\nCDE|FG|\ns:!trill! * \"^up\" | T Q\n")
	ns := notes(t, res.Tunes[0])
	if len(ns[0].Decorations) != 1 || ns[0].Decorations[0] != "trill" {
		t.Fatalf("expected trill on C, got %v", ns[0].Decorations)
	}
	if len(ns[1].Decorations) != 0 || len(ns[1].Chord) != 0 {
		t.Fatalf("expected D skipped, got %+v", ns[1])
	}
	if len(ns[2].Chord) != 1 || ns[2].Chord[0] != (score.ChordSymbol{Name: "up", Position: "above"}) {
		t.Fatalf("expected chord symbol on E, got %+v", ns[2].Chord)
	}
	if len(ns[3].Decorations) != 1 || ns[3].Decorations[0] != "trill" {
		t.Fatalf("expected T after the bar on F, got %v", ns[3].Decorations)
	}
	if len(ns[4].Decorations) != 0 {
		t.Fatalf("unknown symbol should not decorate G, got %v", ns[4].Decorations)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Message != "Unknown decoration symbol 'Q'" {
		t.Fatalf("expected one unknown symbol diagnostic, got %+v", res.Diagnostics)
	}
}

func TestLyricsBeforeMusicAreDropped(t *testing.T) {
	tune := firstTune(t, "X:1\nK:C\nw:la la\nCD|\n")
	for _, el := range notes(t, tune) {
		if len(el.Lyric) != 0 {
			t.Fatalf("lyrics should be dropped, got %+v", el.Lyric)
		}
	}
}

func TestFontSwitching(t *testing.T) {
	tune := firstTune(t, "X:1\n%%setfont-1 Times 18 bold\nK:C\n%%text Normal $1bold$0 normal\nC|\n")
	if len(tune.Systems) != 2 || tune.Systems[0].Kind != score.SystemText {
		t.Fatalf("expected text system then music, got %+v", tune.Systems)
	}
	segs := tune.Systems[0].Text
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %+v", segs)
	}
	if segs[0].Text != "Normal " || segs[0].Font != nil {
		t.Fatalf("unexpected first segment %+v", segs[0])
	}
	f := segs[1].Font
	if segs[1].Text != "bold" || f == nil || f.Face != "Times" || f.Size != 18 || f.Weight != "bold" {
		t.Fatalf("unexpected second segment %+v", segs[1])
	}
	if segs[2].Text != " normal" || segs[2].Font != nil {
		t.Fatalf("unexpected third segment %+v", segs[2])
	}
}

func TestFontSegmentsEdgeCases(t *testing.T) {
	fonts := map[int]semantic.Font{2: {Face: "Helvetica"}}
	cases := []struct {
		text string
		want []string
	}{
		{"cost $$5", []string{"cost $5"}},
		{"$3not set", []string{"$3not set"}},
		{"$2", nil},
		{"a$2b", []string{"a", "b"}},
	}
	for _, tc := range cases {
		segs := fontSegments(tc.text, fonts, "")
		if len(segs) != len(tc.want) {
			t.Fatalf("%q: expected %v, got %+v", tc.text, tc.want, segs)
		}
		for i := range segs {
			if segs[i].Text != tc.want[i] {
				t.Fatalf("%q: expected %v, got %+v", tc.text, tc.want, segs)
			}
		}
	}
}

func TestCenterAndBeginText(t *testing.T) {
	tune := firstTune(t, "X:1\nK:C\n%%center Title\n%%begintext\n%%one\n%%two\n%%endtext\nC|\n")
	if len(tune.Systems) != 4 {
		t.Fatalf("expected 3 text systems and 1 music system, got %d", len(tune.Systems))
	}
	if tune.Systems[0].Text[0].Align != "center" || tune.Systems[2].Text[0].Text != "two" {
		t.Fatalf("unexpected text systems %+v %+v", tune.Systems[0].Text, tune.Systems[2].Text)
	}
}

func TestFileDefaultsAreCopiedPerTune(t *testing.T) {
	res := interpret(t, "%%scale 0.8\nC:Trad\n\nX:1\n%%scale 0.5\nC:Someone\nK:C\nC|\n\nX:2\nK:C\nD|\n")
	if len(res.Tunes) != 2 {
		t.Fatalf("expected 2 tunes, got %d", len(res.Tunes))
	}
	if res.Tunes[0].Formatting["scale"] != 0.5 || res.Tunes[1].Formatting["scale"] != 0.8 {
		t.Fatalf("scale leaked between tunes: %v %v", res.Tunes[0].Formatting["scale"], res.Tunes[1].Formatting["scale"])
	}
	if res.Tunes[0].Metadata.Composer != "Trad\nSomeone" || res.Tunes[1].Metadata.Composer != "Trad" {
		t.Fatalf("composer leaked between tunes: %q %q", res.Tunes[0].Metadata.Composer, res.Tunes[1].Metadata.Composer)
	}
}

func TestMetadataAndTempo(t *testing.T) {
	tune := firstTune(t, "X:7\nT:Tune\nC:Me\nQ:\"Allegro\" 1/4=120\nK:C\nC|\n")
	m := tune.Metadata
	if m.Reference != 7 || m.Title != "Tune" || m.Composer != "Me" || m.TempoDescription != "Allegro" {
		t.Fatalf("unexpected metadata %+v", m)
	}
	if tune.Tempo == nil || tune.Tempo.BPM != 120 {
		t.Fatalf("unexpected tempo %+v", tune.Tempo)
	}
}

func TestFileHeaderRejectsTuneOnlyFields(t *testing.T) {
	res := interpret(t, "K:G\n%%text hello\n\nX:1\nK:C\nC|\n")
	if len(res.Diagnostics) != 2 {
		t.Fatalf("expected 2 diagnostics, got %v", res.Diagnostics)
	}
	if len(res.Tunes[0].Systems) != 1 {
		t.Fatalf("file header text should not produce output")
	}
}

func TestSystemBreaks(t *testing.T) {
	tune := firstTune(t, "X:1\nK:C\nCD$EF|\nGA\\\nBc|\n")
	if len(tune.Systems) != 3 {
		t.Fatalf("expected 3 systems, got %d", len(tune.Systems))
	}
	tune = firstTune(t, "X:1\n%%linebreak $\nK:C\nCD|\nEF|$GA|\n")
	if len(tune.Systems) != 2 {
		t.Fatalf("expected 2 systems with $ breaks only, got %d", len(tune.Systems))
	}
}

func TestOffsetsWithoutSource(t *testing.T) {
	src := "X:1\nK:C\nCD|\n"
	f := abc.NewParser(abc.DefaultParserConfig()).Parse(src)
	res := New(Config{}).Interpret(f, semantic.Analyze(f).Data, "")
	el := res.Tunes[0].Systems[0].Staffs[0].Voices[0][1]
	if el.StartChar != 1 {
		t.Fatalf("expected in-line offset 1, got %d", el.StartChar)
	}
}

func TestExtremeRhythmsStayFinite(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"many slashes", "X:1\nK:C\nC" + strings.Repeat("/", 64) + " D|\n"},
		{"63 slashes", "X:1\nK:C\nC" + strings.Repeat("/", 63) + " D|\n"},
		{"huge denominator", "X:1\nK:C\nC/4611686018427387904 D|\n"},
		{"huge unit length", "X:1\nL:1/4611686018427387904\nK:C\nC/1024 (3:1000:3CDE|\n"},
		{"huge meter", "X:1\nM:4611686018427387904/4611686018427387904+1/4611686018427387904\nK:C\nZ2|\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tune := firstTune(t, tc.src)
			ns := notes(t, tune)
			if len(ns) == 0 {
				t.Fatalf("expected notes")
			}
			for _, n := range ns {
				if math.IsNaN(n.Duration) || math.IsInf(n.Duration, 0) || n.Duration <= 0 {
					t.Fatalf("unexpected duration %v", n.Duration)
				}
			}
			if _, err := json.Marshal(tune); err != nil {
				t.Fatalf("marshal: %v", err)
			}
		})
	}
	ns := notes(t, firstTune(t, "X:1\nK:C\nC"+strings.Repeat("/", 64)+" D|\n"))
	if !near(ns[0].Duration, 1.0/8/64) || !near(ns[1].Duration, 0.125) {
		t.Fatalf("unexpected durations %v %v", ns[0].Duration, ns[1].Duration)
	}
}
