package semantic

import (
	"github.com/cbegin/abcscore-go/internal/diag"
	"github.com/cbegin/abcscore-go/internal/rational"
)

type Kind int

const (
	KindKey Kind = iota + 1
	KindMeter
	KindVoice
	KindTempo
	KindNoteLength
	KindTitle
	KindComposer
	KindOrigin
	KindClef
	KindReferenceNumber
	KindRhythm
	KindBook
	KindSource
	KindDiscography
	KindNotes
	KindTranscription
	KindHistory
	KindAuthor
	KindWords
	KindUserSymbol
	KindLyrics
	KindABCVersion
	KindCopyright
	KindCreator
	KindEditedBy
	KindCharset
	KindHeader
	KindFooter
	KindScore
	KindSetFont
	KindFont
	KindText
	KindCenter
	KindBeginText
	KindMIDI
	KindMeasurement
	KindNumber
	KindBoolean
	KindString
	KindPosition
	KindLinebreak
	KindNewPage
	KindSymbolLine
)

var kindNames = map[Kind]string{
	KindKey:             "key",
	KindMeter:           "meter",
	KindVoice:           "voice",
	KindTempo:           "tempo",
	KindNoteLength:      "note_length",
	KindTitle:           "title",
	KindComposer:        "composer",
	KindOrigin:          "origin",
	KindClef:            "clef",
	KindReferenceNumber: "reference_number",
	KindRhythm:          "rhythm",
	KindBook:            "book",
	KindSource:          "source",
	KindDiscography:     "discography",
	KindNotes:           "notes",
	KindTranscription:   "transcription",
	KindHistory:         "history",
	KindAuthor:          "author",
	KindWords:           "words",
	KindUserSymbol:      "user_symbol",
	KindLyrics:          "lyrics",
	KindABCVersion:      "abc-version",
	KindCopyright:       "abc-copyright",
	KindCreator:         "abc-creator",
	KindEditedBy:        "abc-edited-by",
	KindCharset:         "abc-charset",
	KindHeader:          "header",
	KindFooter:          "footer",
	KindScore:           "score",
	KindSetFont:         "setfont",
	KindFont:            "font",
	KindText:            "text",
	KindCenter:          "center",
	KindBeginText:       "begintext",
	KindMIDI:            "midi",
	KindMeasurement:     "measurement",
	KindNumber:          "number",
	KindBoolean:         "boolean",
	KindString:          "string",
	KindPosition:        "position",
	KindLinebreak:       "linebreak",
	KindNewPage:         "newpage",
	KindSymbolLine:      "symbol_line",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Data is the classification of one info line, inline field or directive.
type Data interface {
	Kind() Kind
}

// Result maps AST node IDs to their classification.
type Result struct {
	Data        map[int]Data
	Diagnostics []diag.Diagnostic
}

type KeyAccidental struct {
	Note string `json:"note"`
	Acc  string `json:"acc"`
}

type KeySignature struct {
	Root        string          `json:"root"`
	Acc         string          `json:"acc"`
	Mode        string          `json:"mode"`
	Accidentals []KeyAccidental `json:"accidentals"`
}

// Alteration returns the semitone shift the signature applies to letter.
func (k KeySignature) Alteration(letter byte) int {
	up := upper(letter)
	for _, a := range k.Accidentals {
		if a.Note[0] == up {
			return accidentalSemitones[a.Acc]
		}
	}
	return 0
}

var accidentalSemitones = map[string]int{
	"sharp": 1, "flat": -1, "natural": 0, "dblsharp": 2, "dblflat": -2,
}

// AccidentalSemitones converts an accidental name such as "sharp" to its
// semitone shift.
func AccidentalSemitones(acc string) int { return accidentalSemitones[acc] }

// ClefProperties are the clef related settings shared by K: and V: lines.
// Nil pointers and empty strings mean "not given".
type ClefProperties struct {
	Clef       string `json:"clef,omitempty"`
	Middle     string `json:"middle,omitempty"`
	StaffLines *int   `json:"stafflines,omitempty"`
	Transpose  *int   `json:"transpose,omitempty"`
	Octave     *int   `json:"octave,omitempty"`
}

func (c ClefProperties) Empty() bool {
	return c.Clef == "" && c.Middle == "" && c.StaffLines == nil && c.Transpose == nil && c.Octave == nil
}

type Clef struct {
	Type       string `json:"type"`
	Middle     string `json:"middle,omitempty"`
	StaffLines int    `json:"stafflines"`
	Transpose  int    `json:"transpose,omitempty"`
	Octave     int    `json:"octave,omitempty"`
}

func DefaultClef() Clef { return Clef{Type: "treble", StaffLines: 5} }

// Apply returns c with every property given in p overridden.
func (c Clef) Apply(p ClefProperties) Clef {
	if p.Clef != "" {
		c.Type = p.Clef
	}
	if p.Middle != "" {
		c.Middle = p.Middle
	}
	if p.StaffLines != nil {
		c.StaffLines = *p.StaffLines
	}
	if p.Transpose != nil {
		c.Transpose = *p.Transpose
	}
	if p.Octave != nil {
		c.Octave = *p.Octave
	}
	return c
}

type Key struct {
	Signature KeySignature    `json:"signature"`
	Clef      *ClefProperties `json:"clef,omitempty"`
}

func (Key) Kind() Kind { return KindKey }

type MeterType string

const (
	MeterSpecified  MeterType = "specified"
	MeterCommonTime MeterType = "common_time"
	MeterCutTime    MeterType = "cut_time"
	MeterNone       MeterType = "none"
)

type Meter struct {
	Type  MeterType           `json:"type"`
	Value []rational.Rational `json:"value,omitempty"`
}

func (Meter) Kind() Kind { return KindMeter }

// Total is the length of one measure in whole notes. It is zero for free
// meter.
func (m Meter) Total() rational.Rational {
	total := rational.Zero
	for _, v := range m.Value {
		next, ok := total.AddChecked(v)
		if !ok {
			break
		}
		total = next
	}
	return total
}

type VoiceProperties struct {
	Name    string `json:"name,omitempty"`
	Subname string `json:"subname,omitempty"`
	ClefProperties
	StaffScale *float64 `json:"staffscale,omitempty"`
	Perc       bool     `json:"perc,omitempty"`
	Instrument *int     `json:"instrument,omitempty"`
	Merge      bool     `json:"merge,omitempty"`
	Stems      string   `json:"stems,omitempty"`
	GChord     string   `json:"gchord,omitempty"`
	Space      *float64 `json:"space,omitempty"`
	Bracket    string   `json:"bracket,omitempty"`
	Brace      string   `json:"brace,omitempty"`
}

// Overlay returns p with the properties given in o written over it.
func (p VoiceProperties) Overlay(o VoiceProperties) VoiceProperties {
	if o.Name != "" {
		p.Name = o.Name
	}
	if o.Subname != "" {
		p.Subname = o.Subname
	}
	if o.Clef != "" {
		p.Clef = o.Clef
	}
	if o.Middle != "" {
		p.Middle = o.Middle
	}
	if o.StaffLines != nil {
		p.StaffLines = o.StaffLines
	}
	if o.Transpose != nil {
		p.Transpose = o.Transpose
	}
	if o.Octave != nil {
		p.Octave = o.Octave
	}
	if o.StaffScale != nil {
		p.StaffScale = o.StaffScale
	}
	if o.Instrument != nil {
		p.Instrument = o.Instrument
	}
	if o.Space != nil {
		p.Space = o.Space
	}
	if o.Stems != "" {
		p.Stems = o.Stems
	}
	if o.GChord != "" {
		p.GChord = o.GChord
	}
	if o.Bracket != "" {
		p.Bracket = o.Bracket
	}
	if o.Brace != "" {
		p.Brace = o.Brace
	}
	p.Perc = p.Perc || o.Perc
	p.Merge = p.Merge || o.Merge
	return p
}

type Voice struct {
	ID         string          `json:"id"`
	Properties VoiceProperties `json:"properties"`
}

func (Voice) Kind() Kind { return KindVoice }

type Tempo struct {
	Duration   []rational.Rational `json:"duration,omitempty"`
	BPM        int                 `json:"bpm,omitempty"`
	PreString  string              `json:"preString,omitempty"`
	PostString string              `json:"postString,omitempty"`
}

func (Tempo) Kind() Kind { return KindTempo }

// Beat is the summed beat duration, or zero when the tempo gave none.
func (t Tempo) Beat() rational.Rational {
	total := rational.Zero
	for _, d := range t.Duration {
		next, ok := total.AddChecked(d)
		if !ok {
			break
		}
		total = next
	}
	return total
}

type NoteLength struct {
	Value rational.Rational `json:"value"`
}

func (NoteLength) Kind() Kind { return KindNoteLength }

// TextField is a plain text info line such as T: or C:, or a text valued
// directive such as %%abc-copyright.
type TextField struct {
	Field Kind   `json:"field"`
	Text  string `json:"text"`
}

func (t TextField) Kind() Kind { return t.Field }

type ReferenceNumber struct {
	Number int `json:"number"`
}

func (ReferenceNumber) Kind() Kind { return KindReferenceNumber }

// UserSymbol binds a single character to a decoration, from "U: T = !trill!".
type UserSymbol struct {
	Symbol     string `json:"symbol"`
	Decoration string `json:"decoration"`
}

func (UserSymbol) Kind() Kind { return KindUserSymbol }

type LyricItemKind string

const (
	LyricSyllable LyricItemKind = "syllable"
	LyricSkip     LyricItemKind = "skip"
	LyricHold     LyricItemKind = "hold"
	LyricBar      LyricItemKind = "bar"
)

type LyricItem struct {
	Kind    LyricItemKind `json:"kind"`
	Text    string        `json:"text,omitempty"`
	Divider string        `json:"divider,omitempty"`
}

type Lyrics struct {
	Items []LyricItem `json:"items"`
}

func (Lyrics) Kind() Kind { return KindLyrics }

type SymbolItemKind string

const (
	SymbolDecoration SymbolItemKind = "decoration"
	SymbolAnnotation SymbolItemKind = "annotation"
	SymbolSkip       SymbolItemKind = "skip"
	SymbolBar        SymbolItemKind = "bar"
)

// SymbolItem is one entry of an s: line. Symbol is set for a bare
// decoration shorthand such as "T" that still has to be looked up.
type SymbolItem struct {
	Kind   SymbolItemKind `json:"kind"`
	Text   string         `json:"text,omitempty"`
	Symbol bool           `json:"symbol,omitempty"`
}

// SymbolLine places decorations and chord symbols on the notes of the
// preceding music line, like lyrics do with syllables.
type SymbolLine struct {
	Items []SymbolItem `json:"items"`
}

func (SymbolLine) Kind() Kind { return KindSymbolLine }

type ABCVersion struct {
	Version string `json:"version"`
}

func (ABCVersion) Kind() Kind { return KindABCVersion }

type Charset struct {
	Name string `json:"name"`
}

func (Charset) Kind() Kind { return KindCharset }

type HeaderFooter struct {
	Field  Kind   `json:"field"`
	Left   string `json:"left,omitempty"`
	Center string `json:"center,omitempty"`
	Right  string `json:"right,omitempty"`
}

func (h HeaderFooter) Kind() Kind { return h.Field }

// StaffDecl is one staff of a %%score or %%staves layout. Bracket and Brace
// are "start", "continue", "end" or empty.
type StaffDecl struct {
	Voices          []string `json:"voices"`
	Bracket         string   `json:"bracket,omitempty"`
	Brace           string   `json:"brace,omitempty"`
	ConnectBarLines bool     `json:"connectBarLines,omitempty"`
}

type ScoreLayout struct {
	Staves []StaffDecl `json:"staves"`
}

func (ScoreLayout) Kind() Kind { return KindScore }

type Font struct {
	Face       string  `json:"face,omitempty"`
	Size       float64 `json:"size,omitempty"`
	Weight     string  `json:"weight"`
	Style      string  `json:"style"`
	Decoration string  `json:"decoration"`
	Box        bool    `json:"box,omitempty"`
}

type SetFont struct {
	Number int  `json:"number"`
	Font   Font `json:"font"`
}

func (SetFont) Kind() Kind { return KindSetFont }

// FontDirective is one of the named font settings such as %%titlefont.
type FontDirective struct {
	Name string `json:"name"`
	Font Font   `json:"font"`
}

func (FontDirective) Kind() Kind { return KindFont }

// TextLine is the payload of %%text, %%center and %%begintext.
type TextLine struct {
	Field Kind   `json:"field"`
	Text  string `json:"text"`
}

func (t TextLine) Kind() Kind { return t.Field }

type MIDI struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

func (MIDI) Kind() Kind { return KindMIDI }

type Measurement struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

func (Measurement) Kind() Kind { return KindMeasurement }

// Points converts the measurement to PostScript points.
func (m Measurement) Points() float64 {
	switch m.Unit {
	case "cm":
		return m.Value * 72 / 2.54
	case "in":
		return m.Value * 72
	}
	return m.Value
}

type Number struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func (Number) Kind() Kind { return KindNumber }

type Boolean struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

func (Boolean) Kind() Kind { return KindBoolean }

type String struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (String) Kind() Kind { return KindString }

type Position struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (Position) Kind() Kind { return KindPosition }

// Linebreak lists the markers that end a system: "<EOL>", "$", "!" or
// "<none>".
type Linebreak struct {
	Markers []string `json:"markers"`
}

func (Linebreak) Kind() Kind { return KindLinebreak }

// Breaks reports whether marker ends a system under this setting.
func (l Linebreak) Breaks(marker string) bool {
	for _, m := range l.Markers {
		if m == marker {
			return true
		}
	}
	return false
}

type NewPage struct {
	Page int `json:"page,omitempty"`
}

func (NewPage) Kind() Kind { return KindNewPage }

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 32
	}
	return b
}

// ClefChange is a K: field that names only clef properties, such as
// "[K:clef=bass]". It changes the clef and keeps the current key.
type ClefChange struct {
	ClefProperties
}

func (ClefChange) Kind() Kind { return KindClef }
