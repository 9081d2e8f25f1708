package interp

import (
	"maps"
	"slices"

	"github.com/cbegin/abcscore-go/internal/rational"
	"github.com/cbegin/abcscore-go/internal/score"
	"github.com/cbegin/abcscore-go/internal/semantic"
)

// tuneDefaults are the key, clef, meter, note length and tempo in effect
// before a voice overrides them. New voices start from these.
type tuneDefaults struct {
	key        semantic.KeySignature
	clef       semantic.Clef
	meter      semantic.Meter
	noteLength *rational.Rational
	tempo      *semantic.Tempo
}

// fileDefaults is everything a file header can set. Each tune works on its
// own deep copy.
type fileDefaults struct {
	tune         tuneDefaults
	metadata     score.Metadata
	formatting   map[string]any
	parserConfig map[string]any
	midi         []semantic.MIDI
	fonts        map[int]semantic.Font
	userSymbols  map[string]string
	layout       *semantic.ScoreLayout
	linebreak    *semantic.Linebreak
}

func newFileDefaults(cfg Config) *fileDefaults {
	return &fileDefaults{
		tune: tuneDefaults{
			key:   cfg.DefaultKey,
			clef:  cfg.DefaultClef,
			meter: cfg.DefaultMeter,
		},
		formatting:   map[string]any{},
		parserConfig: map[string]any{},
		fonts:        map[int]semantic.Font{},
		userSymbols:  map[string]string{},
	}
}

func (fd *fileDefaults) clone() *fileDefaults {
	c := *fd
	c.tune.key = cloneKey(fd.tune.key)
	c.tune.meter.Value = slices.Clone(fd.tune.meter.Value)
	if fd.tune.noteLength != nil {
		v := *fd.tune.noteLength
		c.tune.noteLength = &v
	}
	if fd.tune.tempo != nil {
		t := *fd.tune.tempo
		t.Duration = slices.Clone(t.Duration)
		c.tune.tempo = &t
	}
	c.formatting = maps.Clone(fd.formatting)
	c.parserConfig = maps.Clone(fd.parserConfig)
	c.midi = slices.Clone(fd.midi)
	c.fonts = maps.Clone(fd.fonts)
	c.userSymbols = maps.Clone(fd.userSymbols)
	if fd.layout != nil {
		l := semantic.ScoreLayout{Staves: make([]semantic.StaffDecl, len(fd.layout.Staves))}
		for i, s := range fd.layout.Staves {
			s.Voices = slices.Clone(s.Voices)
			l.Staves[i] = s
		}
		c.layout = &l
	}
	if fd.linebreak != nil {
		lb := semantic.Linebreak{Markers: slices.Clone(fd.linebreak.Markers)}
		c.linebreak = &lb
	}
	return &c
}

func cloneKey(k semantic.KeySignature) semantic.KeySignature {
	k.Accidentals = slices.Clone(k.Accidentals)
	return k
}

// headerContext is where a header item takes effect: the file defaults
// while reading the file header, or a tune's state afterwards.
type headerContext interface {
	defaults() *fileDefaults
	isHeaderContext()
}

type fileHeaderContext struct {
	fd *fileDefaults
}

func (c fileHeaderContext) defaults() *fileDefaults { return c.fd }
func (fileHeaderContext) isHeaderContext()          {}

// tuneHeaderContext covers both the tune header and info fields inside the
// body; body is set for the latter.
type tuneHeaderContext struct {
	ts   *tuneState
	body bool
}

func (c tuneHeaderContext) defaults() *fileDefaults { return c.ts.defs }
func (tuneHeaderContext) isHeaderContext()          {}

type tupletState struct {
	p, q, r   int
	remaining int
}

type voiceState struct {
	id    string
	props semantic.VoiceProperties
	key   semantic.KeySignature
	clef  semantic.Clef
	meter semantic.Meter

	tuplet      tupletState
	graces      []score.GraceNote
	decorations []string
	chords      []score.ChordSymbol
	startSlurs  []score.Slur
	openSlurs   []int
	slurLabel   int
	ties        map[int]bool
	carry       rational.Rational
	hasCarry    bool
	beam        []*score.Element
	measureAcc  map[int]int
	inEnding    bool
	lastNote    *score.Element

	// closedSystem is the last system this voice finished a line in. A
	// voice never writes into a system it has closed.
	closedSystem int
	lastSystem   int
	dirty        bool

	lineNo    int
	lineElems []*score.Element
	verse     int
}

func newVoiceState(id string, d tuneDefaults) *voiceState {
	return &voiceState{
		id:           id,
		key:          cloneKey(d.key),
		clef:         d.clef,
		meter:        d.meter,
		ties:         map[int]bool{},
		measureAcc:   map[int]int{},
		closedSystem: -1,
		lastSystem:   -1,
		lineNo:       -1,
	}
}

func (v *voiceState) closeBeam() {
	if len(v.beam) >= 2 {
		v.beam[0].StartBeam = true
		v.beam[len(v.beam)-1].EndBeam = true
	}
	v.beam = nil
}

type staffEntry struct {
	NumVoices       int
	Bracket         string
	Brace           string
	ConnectBarLines bool
}

type voiceAssignment struct {
	StaffNum int
	Index    int
}

type cursor struct {
	system int
	staff  int
	lane   int
}

type tuneState struct {
	r    *run
	cfg  Config
	defs *fileDefaults
	tune *score.Tune

	voices     map[string]*voiceState
	voiceOrder []string
	current    *voiceState

	staffs     []staffEntry
	assign     map[string]voiceAssignment
	cursor     *cursor
	firstMusic int

	measure int
	lineNo  int
}

func newTuneState(r *run, fd *fileDefaults) *tuneState {
	return &tuneState{
		r:          r,
		cfg:        r.cfg,
		defs:       fd.clone(),
		tune:       &score.Tune{},
		voices:     map[string]*voiceState{},
		assign:     map[string]voiceAssignment{},
		firstMusic: -1,
		measure:    1,
	}
}

// registerVoice creates the voice from the tune defaults, or merges props
// into an existing voice without touching its accumulated key and clef.
func (ts *tuneState) registerVoice(id string, props semantic.VoiceProperties) *voiceState {
	v, ok := ts.voices[id]
	if !ok {
		v = newVoiceState(id, ts.defs.tune)
		ts.voices[id] = v
		ts.voiceOrder = append(ts.voiceOrder, id)
	}
	v.props = v.props.Overlay(props)
	v.clef = v.clef.Apply(props.ClefProperties)
	if props.Perc && props.Clef == "" {
		v.clef.Type = "perc"
	}
	return v
}

// voice returns the runtime state for id, registering a default voice the
// first time an undeclared id is used.
func (ts *tuneState) voice(id string) *voiceState {
	if v, ok := ts.voices[id]; ok {
		return v
	}
	return ts.registerVoice(id, semantic.VoiceProperties{})
}

// currentVoice is the voice body content is written to. Tunes without V:
// use the first declared voice, or the configured default.
func (ts *tuneState) currentVoice() *voiceState {
	if ts.current == nil {
		id := ts.cfg.DefaultVoice
		if len(ts.voiceOrder) > 0 {
			id = ts.voiceOrder[0]
		}
		ts.current = ts.voice(id)
	}
	return ts.current
}

func (ts *tuneState) assignVoiceToStaffLayout(id string) voiceAssignment {
	if a, ok := ts.assign[id]; ok {
		return a
	}
	ts.staffs = append(ts.staffs, staffEntry{NumVoices: 1})
	a := voiceAssignment{StaffNum: len(ts.staffs) - 1}
	ts.assign[id] = a
	return a
}

// applyScoreLayout replaces the staff layout and every voice assignment.
// Voices not named in the layout get a staff of their own when they are
// next used.
func (ts *tuneState) applyScoreLayout(layout semantic.ScoreLayout) {
	ts.staffs = ts.staffs[:0]
	ts.assign = map[string]voiceAssignment{}
	for i, decl := range layout.Staves {
		ts.staffs = append(ts.staffs, staffEntry{
			NumVoices:       len(decl.Voices),
			Bracket:         decl.Bracket,
			Brace:           decl.Brace,
			ConnectBarLines: decl.ConnectBarLines,
		})
		for j, id := range decl.Voices {
			ts.assign[id] = voiceAssignment{StaffNum: i, Index: j}
		}
	}
	ts.cursor = nil
}

// noteLength is the L: value, fixed from the meter at the start of the body
// when the header did not give one.
func (ts *tuneState) noteLength() rational.Rational {
	d := &ts.defs.tune
	if d.noteLength == nil {
		l := rational.New(1, 8)
		total := d.meter.Total()
		if !total.IsZero() && total.Less(rational.New(3, 4)) {
			l = rational.New(1, 16)
		}
		d.noteLength = &l
	}
	return *d.noteLength
}
