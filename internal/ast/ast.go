package ast

// Position is a zero-based line and byte offset within that line.
type Position struct {
	Line int `json:"line"`
	Char int `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Node is implemented by every AST node type in this package. The set is
// closed: consumers dispatch with a type switch and ignore kinds they do
// not care about.
type Node interface {
	ID() int
	Range() Range
	base() *Base
}

// Base carries the identity and source range shared by all nodes.
type Base struct {
	NodeID int
	Span   Range
}

func (b *Base) ID() int      { return b.NodeID }
func (b *Base) Range() Range { return b.Span }
func (b *Base) base() *Base  { return b }

type File struct {
	Base
	Header   *FileHeader
	Tunes    []*Tune
	FreeText []*FreeText
}

// FileHeader holds info lines, directives and comments that precede the
// first tune and apply to every tune in the file.
type FileHeader struct {
	Base
	Items []Node
}

type Tune struct {
	Base
	Header *TuneHeader
	Body   *TuneBody
}

type TuneHeader struct {
	Base
	Items []Node
}

// TuneBody items are MusicLine, InfoLine, Directive and Comment nodes in
// document order.
type TuneBody struct {
	Base
	Items []Node
}

// MusicLine is one line of music. Continued is set when the line ends with
// a backslash, so it does not end the current system.
type MusicLine struct {
	Base
	Items     []Node
	Continued bool
}

// InfoLine is a "K:G" style field. Key is the field letter, or "+" for a
// continuation line that the parser could not merge.
type InfoLine struct {
	Base
	Key        string
	Value      string
	ValueStart Position
}

// InlineField is an info field embedded in music, written [K:G].
type InlineField struct {
	Base
	Key   string
	Value string
}

// Directive is a "%%name value" line. begintext blocks are folded into a
// single Directive named "begintext" whose Value holds the block lines.
type Directive struct {
	Base
	Name  string
	Value string
}

type Comment struct {
	Base
	Text string
}

type FreeText struct {
	Base
	Text string
}

// Rhythm is the length suffix of a note, rest or chord. Zero Numerator or
// Denominator means the part was not written.
type Rhythm struct {
	Numerator   int
	Slashes     int
	Denominator int
	Broken      string
}

type Note struct {
	Base
	Accidental string
	Letter     byte
	Octave     int
	Rhythm     *Rhythm
	Tie        bool
}

type Rest struct {
	Base
	Symbol byte
	Rhythm *Rhythm
}

type Chord struct {
	Base
	Notes  []*Note
	Rhythm *Rhythm
	Tie    bool
}

type GraceGroup struct {
	Base
	Acciaccatura bool
	Notes        []*Note
}

// Tuplet is "(p:q:r". Zero Q or R means the value was omitted.
type Tuplet struct {
	Base
	P int
	Q int
	R int
}

type Slur struct {
	Base
	Open   bool
	Dotted bool
}

// Decoration is either "!name!" / "+name+" (Symbol false, Text is the name)
// or a single symbol character such as "~" or "T" (Symbol true).
type Decoration struct {
	Base
	Text   string
	Symbol bool
}

// Annotation is a quoted string attached to the following note: a chord
// symbol, or a text annotation when it starts with one of ^_<>@.
type Annotation struct {
	Base
	Text string
}

type BarLine struct {
	Base
	Text   string
	Ending string
}

// Beam groups a whitespace-free run holding at least two notes or chords.
type Beam struct {
	Base
	Items []Node
}

type VoiceOverlay struct{ Base }

type Spacer struct {
	Base
	Rhythm *Rhythm
}

type SystemBreak struct{ Base }

// ErrorNode marks text the parser could not understand.
type ErrorNode struct {
	Base
	Text string
}

// Walk visits n and its descendants depth first in document order. When fn
// returns false the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch t := n.(type) {
	case *File:
		if t.Header != nil {
			Walk(t.Header, fn)
		}
		for _, tune := range t.Tunes {
			Walk(tune, fn)
		}
		for _, ft := range t.FreeText {
			Walk(ft, fn)
		}
	case *FileHeader:
		walkAll(t.Items, fn)
	case *Tune:
		if t.Header != nil {
			Walk(t.Header, fn)
		}
		if t.Body != nil {
			Walk(t.Body, fn)
		}
	case *TuneHeader:
		walkAll(t.Items, fn)
	case *TuneBody:
		walkAll(t.Items, fn)
	case *MusicLine:
		walkAll(t.Items, fn)
	case *Beam:
		walkAll(t.Items, fn)
	case *Chord:
		for _, nt := range t.Notes {
			Walk(nt, fn)
		}
	case *GraceGroup:
		for _, nt := range t.Notes {
			Walk(nt, fn)
		}
	}
}

func walkAll(items []Node, fn func(Node) bool) {
	for _, it := range items {
		Walk(it, fn)
	}
}

// Number assigns sequential IDs to root and its descendants in walk order,
// starting at first. It returns the next unused ID.
func Number(root Node, first int) int {
	next := first
	Walk(root, func(n Node) bool {
		n.base().NodeID = next
		next++
		return true
	})
	return next
}
