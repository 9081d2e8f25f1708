package score

import (
	"github.com/cbegin/abcscore-go/internal/semantic"
)

type ElementKind string

const (
	KindNote  ElementKind = "note"
	KindBar   ElementKind = "bar"
	KindKey   ElementKind = "key"
	KindClef  ElementKind = "clef"
	KindMeter ElementKind = "meter"
	KindText  ElementKind = "text"
)

type Slur struct {
	Label int    `json:"label"`
	Style string `json:"style,omitempty"`
}

// Pitch is one notehead. Pitch is the diatonic step number (C is 0, c is
// 7) and MIDI is the sounding chromatic pitch.
type Pitch struct {
	Pitch      int    `json:"pitch"`
	Name       string `json:"name"`
	Accidental string `json:"accidental,omitempty"`
	MIDI       int    `json:"midi"`
	StartTie   bool   `json:"startTie,omitempty"`
	EndTie     bool   `json:"endTie,omitempty"`
	StartSlur  []Slur `json:"startSlur,omitempty"`
	EndSlur    []int  `json:"endSlur,omitempty"`
}

type RestType string

const (
	RestNormal                RestType = "rest"
	RestWhole                 RestType = "whole"
	RestInvisible             RestType = "invisible"
	RestMultimeasure          RestType = "multimeasure"
	RestInvisibleMultimeasure RestType = "invisible-multimeasure"
)

type Rest struct {
	Type  RestType `json:"type"`
	Count int      `json:"count,omitempty"`
}

type ChordSymbol struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

type Lyric struct {
	Syllable string `json:"syllable"`
	Divider  string `json:"divider"`
}

type GraceNote struct {
	Pitch
	Duration     float64 `json:"duration"`
	Acciaccatura bool    `json:"acciaccatura,omitempty"`
}

// Element is one entry of a voice lane. StartChar and EndChar are absolute
// offsets into the source text.
type Element struct {
	Kind      ElementKind `json:"el_type"`
	StartChar int         `json:"startChar"`
	EndChar   int         `json:"endChar"`
	Duration  float64     `json:"duration,omitempty"`

	Pitches           []Pitch       `json:"pitches,omitempty"`
	Rest              *Rest         `json:"rest,omitempty"`
	Chord             []ChordSymbol `json:"chord,omitempty"`
	Decorations       []string      `json:"decoration,omitempty"`
	GraceNotes        []GraceNote   `json:"gracenotes,omitempty"`
	StartBeam         bool          `json:"startBeam,omitempty"`
	EndBeam           bool          `json:"endBeam,omitempty"`
	StartTriplet      int           `json:"startTriplet,omitempty"`
	TripletMultiplier float64       `json:"tripletMultiplier,omitempty"`
	TripletR          int           `json:"tripletR,omitempty"`
	EndTriplet        bool          `json:"endTriplet,omitempty"`
	Lyric             []Lyric       `json:"lyric,omitempty"`
	NoStem            bool          `json:"noStem,omitempty"`

	Bar         string `json:"type,omitempty"`
	StartEnding string `json:"startEnding,omitempty"`
	EndEnding   bool   `json:"endEnding,omitempty"`
	Measure     int    `json:"barNumber,omitempty"`

	Key   *semantic.KeySignature `json:"key,omitempty"`
	Clef  *semantic.Clef         `json:"clef,omitempty"`
	Meter *semantic.Meter        `json:"meter,omitempty"`

	Text string `json:"text,omitempty"`
}

// Lane is the element sequence of one voice on one staff of one system.
type Lane []*Element

func (l *Lane) Append(e *Element) { *l = append(*l, e) }

// Last returns the most recent element, or nil. Retroactive changes such as
// closing a slur or attaching an ending only ever touch this element.
func (l Lane) Last() *Element {
	if len(l) == 0 {
		return nil
	}
	return l[len(l)-1]
}

type Staff struct {
	Clef            semantic.Clef         `json:"clef"`
	Key             semantic.KeySignature `json:"key"`
	Meter           *semantic.Meter       `json:"meter,omitempty"`
	Voices          []Lane                `json:"voices"`
	Bracket         string                `json:"bracket,omitempty"`
	Brace           string                `json:"brace,omitempty"`
	ConnectBarLines bool                  `json:"connectBarLines,omitempty"`
}

type SystemKind string

const (
	SystemMusic SystemKind = "music"
	SystemText  SystemKind = "text"
)

type TextSegment struct {
	Text  string         `json:"text"`
	Font  *semantic.Font `json:"font,omitempty"`
	Align string         `json:"align,omitempty"`
}

// System is either a music system holding staffs or a line of text.
type System struct {
	Kind   SystemKind    `json:"kind"`
	Staffs []*Staff      `json:"staff,omitempty"`
	Text   []TextSegment `json:"text,omitempty"`
}

type Metadata struct {
	Reference        int    `json:"reference,omitempty"`
	Title            string `json:"title,omitempty"`
	Composer         string `json:"composer,omitempty"`
	Origin           string `json:"origin,omitempty"`
	Rhythm           string `json:"rhythm,omitempty"`
	Book             string `json:"book,omitempty"`
	Source           string `json:"source,omitempty"`
	Discography      string `json:"discography,omitempty"`
	Notes            string `json:"notes,omitempty"`
	Transcription    string `json:"transcription,omitempty"`
	History          string `json:"history,omitempty"`
	Author           string `json:"author,omitempty"`
	Words            string `json:"unalignedWords,omitempty"`
	TempoDescription string `json:"tempoDescription,omitempty"`
	Version          string `json:"abcVersion,omitempty"`
	Copyright        string `json:"copyright,omitempty"`
	Creator          string `json:"creator,omitempty"`
	EditedBy         string `json:"editedBy,omitempty"`
}

type Tune struct {
	Metadata     Metadata        `json:"metadata"`
	Tempo        *semantic.Tempo `json:"tempo,omitempty"`
	Formatting   map[string]any  `json:"formatting"`
	ParserConfig map[string]any  `json:"-"`
	Systems      []*System       `json:"lines"`
	StaffCount   int             `json:"staffNum"`
	VoiceCount   int             `json:"voiceNum"`
	LineCount    int             `json:"lineNum"`
	Measures     int             `json:"measures"`
}

// Lanes calls fn for every lane of every music system in order.
func (t *Tune) Lanes(fn func(sys, staff, voice int, lane Lane)) {
	for si, sys := range t.Systems {
		if sys.Kind != SystemMusic {
			continue
		}
		for sti, st := range sys.Staffs {
			for vi, lane := range st.Voices {
				fn(si, sti, vi, lane)
			}
		}
	}
}
