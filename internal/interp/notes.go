package interp

import (
	"strings"

	"github.com/cbegin/abcscore-go/internal/ast"
	"github.com/cbegin/abcscore-go/internal/rational"
	"github.com/cbegin/abcscore-go/internal/score"
)

var quarter = rational.New(1, 4)

// letterSemitones is indexed by diatonic step, C through B.
var letterSemitones = [7]int{0, 2, 4, 5, 7, 9, 11}

var accidentalNames = map[string]string{
	"^":  "sharp",
	"^^": "dblsharp",
	"_":  "flat",
	"__": "dblflat",
	"=":  "natural",
}

// tupletQ is the default q for "(p" when q is not written.
var tupletQ = map[int]int{2: 3, 3: 2, 4: 3, 5: 2, 6: 2, 7: 2, 8: 3, 9: 2}

var symbolDecorations = map[string]string{
	".": "staccato",
	"~": "irishroll",
	"H": "fermata",
	"L": "accent",
	"M": "lowermordent",
	"O": "coda",
	"P": "uppermordent",
	"S": "segno",
	"T": "trill",
	"u": "upbow",
	"v": "downbow",
}

var annotationPositions = map[byte]string{
	'^': "above",
	'_': "below",
	'<': "left",
	'>': "right",
	'@': "relative",
}

// pitchNumber is the diatonic staff position: C is 0, c is 7, and each
// octave mark moves by 7.
func pitchNumber(letter byte, octave int) int {
	step := strings.IndexByte("CDEFGAB", letter&^0x20)
	if letter >= 'a' && letter <= 'z' {
		step += 7
	}
	return step + 7*octave
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && (a < 0) {
		q--
	}
	return q
}

// brokenFactors returns the multipliers for the note carrying the broken
// rhythm and for the note after it. n marks give a long note of
// (2*2^n-1)/2^n and a short note of 1/2^n.
func brokenFactors(sym string) (own, next rational.Rational) {
	n := len(sym)
	if n == 0 {
		return rational.One, rational.One
	}
	pow := 1 << n
	long := rational.New(2*pow-1, pow)
	short := rational.New(1, pow)
	if sym[0] == '<' {
		return short, long
	}
	return long, short
}

// rhythmFraction is the written length multiplier, 1 when absent.
func rhythmFraction(r *ast.Rhythm) rational.Rational {
	if r == nil {
		return rational.One
	}
	num, den := 1, 1
	if r.Numerator > 0 {
		num = r.Numerator
	}
	if r.Denominator > 0 {
		den = r.Denominator
	} else if r.Slashes > 0 && r.Slashes < 31 {
		den = 1 << r.Slashes
	}
	return rational.New(num, den)
}

// scale multiplies d by f, leaving d unchanged when the product overflows.
func scale(d, f rational.Rational) rational.Rational {
	if m, ok := d.MulChecked(f); ok {
		return m
	}
	return d
}

// duration applies the note length, the written rhythm, broken rhythm
// carried from the previous note and the active tuplet. It records the
// carry for the next note.
func (ts *tuneState) duration(v *voiceState, r *ast.Rhythm) rational.Rational {
	d := scale(ts.noteLength(), rhythmFraction(r))
	if v.hasCarry {
		d = scale(d, v.carry)
		v.hasCarry = false
	}
	if r != nil && r.Broken != "" {
		own, next := brokenFactors(r.Broken)
		d = scale(d, own)
		v.carry, v.hasCarry = next, true
	}
	if v.tuplet.remaining > 0 {
		d = scale(d, rational.New(v.tuplet.q, v.tuplet.p))
	}
	return d
}

func (ts *tuneState) pitch(v *voiceState, n *ast.Note) score.Pitch {
	p := score.Pitch{
		Pitch:      pitchNumber(n.Letter, n.Octave),
		Name:       noteName(n),
		Accidental: accidentalNames[n.Accidental],
	}
	var alter int
	if n.Accidental != "" {
		alter = accidentalSemitones(n.Accidental)
		v.measureAcc[p.Pitch] = alter
	} else if a, ok := v.measureAcc[p.Pitch]; ok {
		alter = a
	} else {
		alter = v.key.Alteration(n.Letter)
	}
	step := ((p.Pitch % 7) + 7) % 7
	p.MIDI = 60 + 12*floorDiv(p.Pitch, 7) + letterSemitones[step] + alter +
		v.clef.Transpose + 12*v.clef.Octave
	return p
}

func accidentalSemitones(acc string) int {
	switch acc {
	case "^":
		return 1
	case "^^":
		return 2
	case "_":
		return -1
	case "__":
		return -2
	}
	return 0
}

func noteName(n *ast.Note) string {
	var b strings.Builder
	b.WriteString(n.Accidental)
	b.WriteByte(n.Letter)
	if n.Octave > 0 {
		b.WriteString(strings.Repeat("'", n.Octave))
	} else if n.Octave < 0 {
		b.WriteString(strings.Repeat(",", -n.Octave))
	}
	return b.String()
}

func (ts *tuneState) newElement(kind score.ElementKind, n ast.Node) *score.Element {
	rg := n.Range()
	return &score.Element{
		Kind:      kind,
		StartChar: ts.r.offset(rg.Start),
		EndChar:   ts.r.offset(rg.End),
	}
}

func (ts *tuneState) note(n *ast.Note, inBeam bool) {
	v := ts.currentVoice()
	el := ts.newElement(score.KindNote, n)
	d := ts.duration(v, n.Rhythm)
	el.Duration = d.Float64()
	el.Pitches = []score.Pitch{ts.pitch(v, n)}
	ts.emitNote(v, el, d, []bool{n.Tie}, inBeam)
}

func (ts *tuneState) chord(n *ast.Chord, inBeam bool) {
	v := ts.currentVoice()
	el := ts.newElement(score.KindNote, n)
	r := n.Rhythm
	if r == nil && len(n.Notes) > 0 {
		r = n.Notes[0].Rhythm
	}
	d := ts.duration(v, r)
	el.Duration = d.Float64()
	ties := make([]bool, len(n.Notes))
	for i, note := range n.Notes {
		el.Pitches = append(el.Pitches, ts.pitch(v, note))
		ties[i] = n.Tie || note.Tie
	}
	if len(el.Pitches) == 0 {
		el.Rest = &score.Rest{Type: score.RestInvisible}
	}
	ts.emitNote(v, el, d, ties, inBeam)
}

func (ts *tuneState) rest(n *ast.Rest, inBeam bool) {
	v := ts.currentVoice()
	el := ts.newElement(score.KindNote, n)
	var d rational.Rational
	switch n.Symbol {
	case 'Z', 'X':
		count := 1
		if n.Rhythm != nil && n.Rhythm.Numerator > 0 {
			count = n.Rhythm.Numerator
		}
		total := v.meter.Total()
		if total.IsZero() {
			total = rational.One
		}
		d = scale(total, rational.New(count, 1))
		el.Rest = &score.Rest{Type: score.RestMultimeasure, Count: count}
		if n.Symbol == 'X' {
			el.Rest.Type = score.RestInvisibleMultimeasure
		}
		v.hasCarry = false
	default:
		d = ts.duration(v, n.Rhythm)
		el.Rest = &score.Rest{Type: score.RestNormal}
		if n.Symbol == 'x' {
			el.Rest.Type = score.RestInvisible
		} else if d.Equal(rational.One) && !rational.One.Less(v.meter.Total()) {
			el.Rest.Type = score.RestWhole
		}
	}
	el.Duration = d.Float64()
	ts.emitNote(v, el, d, nil, inBeam)
}

// emitNote attaches the pending chord symbols, grace notes, decorations,
// tuplet marks, beaming, slurs and ties to el, in that order, and writes
// it.
func (ts *tuneState) emitNote(v *voiceState, el *score.Element, d rational.Rational, ties []bool, inBeam bool) {
	isRest := el.Rest != nil

	el.Chord, v.chords = v.chords, nil
	el.GraceNotes, v.graces = v.graces, nil
	el.Decorations, v.decorations = v.decorations, nil

	if t := &v.tuplet; t.remaining > 0 {
		if t.remaining == t.r {
			el.StartTriplet = t.p
			el.TripletMultiplier = float64(t.q) / float64(t.p)
			el.TripletR = t.r
		}
		t.remaining--
		if t.remaining == 0 {
			el.EndTriplet = true
		}
	}

	if !inBeam {
		v.closeBeam()
	}
	if isRest || !d.Less(quarter) {
		v.closeBeam()
	} else {
		v.beam = append(v.beam, el)
	}
	if !inBeam {
		v.closeBeam()
	}

	if !isRest {
		if len(v.startSlurs) > 0 {
			el.Pitches[0].StartSlur = v.startSlurs
			for _, s := range v.startSlurs {
				v.openSlurs = append(v.openSlurs, s.Label)
			}
			v.startSlurs = nil
		}
		ts.resolveTies(v, el, ties)
		v.lastNote = el
	} else {
		clear(v.ties)
	}
	ts.push(el)
}

// resolveTies closes pending ties on matching pitches first and forces any
// left over onto the first pitch, then starts new ties.
func (ts *tuneState) resolveTies(v *voiceState, el *score.Element, ties []bool) {
	if len(v.ties) > 0 {
		for i := range el.Pitches {
			if v.ties[el.Pitches[i].Pitch] {
				el.Pitches[i].EndTie = true
				delete(v.ties, el.Pitches[i].Pitch)
			}
		}
		if len(v.ties) > 0 {
			el.Pitches[0].EndTie = true
			clear(v.ties)
		}
	}
	for i, tied := range ties {
		if tied && i < len(el.Pitches) {
			el.Pitches[i].StartTie = true
			v.ties[el.Pitches[i].Pitch] = true
		}
	}
}

func (ts *tuneState) graceGroup(n *ast.GraceGroup) {
	v := ts.currentVoice()
	for _, gn := range n.Notes {
		d := scale(ts.noteLength(), rhythmFraction(gn.Rhythm))
		v.graces = append(v.graces, score.GraceNote{
			Pitch:        ts.pitch(v, gn),
			Duration:     d.Float64(),
			Acciaccatura: n.Acciaccatura,
		})
	}
}

func (ts *tuneState) tuplet(n *ast.Tuplet) {
	v := ts.currentVoice()
	if n.P <= 0 {
		return
	}
	t := tupletState{p: n.P, q: n.Q, r: n.R}
	if t.q <= 0 {
		t.q = tupletQ[n.P]
		if t.q == 0 {
			t.q = 2
		}
	}
	if t.r <= 0 {
		t.r = n.P
	}
	t.remaining = t.r
	v.tuplet = t
}

func (ts *tuneState) slur(n *ast.Slur) {
	v := ts.currentVoice()
	if n.Open {
		v.slurLabel++
		s := score.Slur{Label: v.slurLabel}
		if n.Dotted {
			s.Style = "dotted"
		}
		v.startSlurs = append(v.startSlurs, s)
		return
	}
	if len(v.openSlurs) == 0 || v.lastNote == nil {
		if len(v.startSlurs) > 0 {
			v.startSlurs = v.startSlurs[:len(v.startSlurs)-1]
		}
		return
	}
	label := v.openSlurs[len(v.openSlurs)-1]
	v.openSlurs = v.openSlurs[:len(v.openSlurs)-1]
	p := &v.lastNote.Pitches[0]
	p.EndSlur = append(p.EndSlur, label)
}

func (ts *tuneState) decoration(n *ast.Decoration) {
	v := ts.currentVoice()
	name, ok := ts.decorationName(n.Text, n.Symbol)
	if !ok {
		ts.r.diags.Warn(n, "Unknown decoration symbol '%s'", n.Text)
		return
	}
	if name == "nostem" {
		if last := ts.lastElement(); last != nil && last.Kind == score.KindNote {
			last.NoStem = true
		}
		return
	}
	v.decorations = append(v.decorations, name)
}

// decorationName resolves a decoration. Shorthand symbols are looked up in
// the U: definitions first.
func (ts *tuneState) decorationName(text string, symbol bool) (string, bool) {
	if !symbol {
		return text, true
	}
	if deco, ok := ts.defs.userSymbols[text]; ok {
		return deco, true
	}
	deco, ok := symbolDecorations[text]
	return deco, ok
}

func (ts *tuneState) annotation(n *ast.Annotation) {
	v := ts.currentVoice()
	v.chords = append(v.chords, chordSymbol(n.Text))
}

// chordSymbol reads a leading ^ _ < > or @ as the placement.
func chordSymbol(text string) score.ChordSymbol {
	if text != "" {
		if pos, ok := annotationPositions[text[0]]; ok {
			return score.ChordSymbol{Name: text[1:], Position: pos}
		}
	}
	return score.ChordSymbol{Name: text, Position: "default"}
}

var barTypes = map[string]string{
	"|":    "bar_thin",
	"||":   "bar_thin_thin",
	"|]":   "bar_thin_thick",
	"[|":   "bar_thick_thin",
	"|:":   "bar_left_repeat",
	":|":   "bar_right_repeat",
	"::":   "bar_dbl_repeat",
	":|:":  "bar_dbl_repeat",
	":||:": "bar_dbl_repeat",
}

func classifyBar(text string) string {
	if t, ok := barTypes[text]; ok {
		return t
	}
	starts, ends := strings.HasPrefix(text, ":"), strings.HasSuffix(text, ":")
	switch {
	case starts && ends:
		return "bar_dbl_repeat"
	case starts:
		return "bar_right_repeat"
	case ends:
		return "bar_left_repeat"
	}
	return "bar_thin"
}

func (ts *tuneState) bar(n *ast.BarLine) {
	v := ts.currentVoice()
	v.closeBeam()
	v.hasCarry = false
	if n.Text == "" {
		if last := ts.lastElement(); last != nil && last.Kind == score.KindBar && n.Ending != "" {
			last.StartEnding = n.Ending
			v.inEnding = true
		}
		return
	}
	el := ts.newElement(score.KindBar, n)
	el.Bar = classifyBar(n.Text)
	el.Chord, v.chords = v.chords, nil
	el.Decorations, v.decorations = v.decorations, nil
	if v.inEnding && (el.Bar != "bar_thin" || n.Ending != "") {
		el.EndEnding = true
		v.inEnding = false
	}
	if n.Ending != "" {
		el.StartEnding = n.Ending
		v.inEnding = true
	}
	ts.measure++
	el.Measure = ts.measure
	for _, other := range ts.voices {
		clear(other.measureAcc)
	}
	ts.push(el)
}

func (ts *tuneState) musicItems(items []ast.Node, inBeam bool) {
	for _, it := range items {
		switch n := it.(type) {
		case *ast.Beam:
			ts.currentVoice().closeBeam()
			ts.musicItems(n.Items, true)
			ts.currentVoice().closeBeam()
		case *ast.Note:
			ts.note(n, inBeam)
		case *ast.Chord:
			ts.chord(n, inBeam)
		case *ast.Rest:
			ts.rest(n, inBeam)
		case *ast.GraceGroup:
			ts.graceGroup(n)
		case *ast.Tuplet:
			ts.tuplet(n)
		case *ast.Slur:
			ts.slur(n)
		case *ast.Decoration:
			ts.decoration(n)
		case *ast.Annotation:
			ts.annotation(n)
		case *ast.BarLine:
			ts.bar(n)
		case *ast.InlineField:
			ts.r.item(tuneHeaderContext{ts: ts, body: true}, n)
		case *ast.SystemBreak:
			if ts.breaks("$") {
				ts.endLine()
			}
		}
	}
}

func (ts *tuneState) musicLine(ml *ast.MusicLine) {
	ts.lineNo++
	ts.musicItems(ml.Items, false)
	if !ml.Continued && ts.breaks("<EOL>") {
		ts.endLine()
	}
}
