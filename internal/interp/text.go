package interp

import (
	"strings"

	"github.com/cbegin/abcscore-go/internal/ast"
	"github.com/cbegin/abcscore-go/internal/score"
	"github.com/cbegin/abcscore-go/internal/semantic"
)

func (ts *tuneState) textLine(t semantic.TextLine) {
	align := ""
	if t.Field == semantic.KindCenter {
		align = "center"
	}
	if t.Field == semantic.KindBeginText {
		for _, line := range strings.Split(t.Text, "\n") {
			ts.appendText(fontSegments(line, ts.defs.fonts, align))
		}
		return
	}
	ts.appendText(fontSegments(t.Text, ts.defs.fonts, align))
}

// fontSegments splits text at $N font switches. $0 returns to the default
// font and $$ is a literal dollar sign. $N for a font that was never set
// stays in the text.
func fontSegments(text string, fonts map[int]semantic.Font, align string) []score.TextSegment {
	var out []score.TextSegment
	var cur *semantic.Font
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			out = append(out, score.TextSegment{Text: buf.String(), Font: cur, Align: align})
		}
		buf.Reset()
	}
	for i := 0; i < len(text); i++ {
		if text[i] == '$' && i+1 < len(text) {
			c := text[i+1]
			switch {
			case c == '$':
				buf.WriteByte('$')
				i++
				continue
			case c == '0':
				flush()
				cur = nil
				i++
				continue
			case c >= '1' && c <= '9':
				if f, ok := fonts[int(c-'0')]; ok {
					flush()
					cur = &f
					i++
					continue
				}
			}
		}
		buf.WriteByte(text[i])
	}
	flush()
	return out
}

// lineAligner walks the elements a voice wrote on its latest music line,
// handing out one note at a time.
type lineAligner struct {
	elems []*score.Element
	i     int
}

// next returns the next note that is not a rest, or nil at the end of the
// line.
func (a *lineAligner) next() *score.Element {
	for a.i < len(a.elems) && (a.elems[a.i].Kind != score.KindNote || a.elems[a.i].Rest != nil) {
		a.i++
	}
	if a.i >= len(a.elems) {
		return nil
	}
	el := a.elems[a.i]
	a.i++
	return el
}

// nextBar moves past the next bar line.
func (a *lineAligner) nextBar() {
	for a.i < len(a.elems) && a.elems[a.i].Kind != score.KindBar {
		a.i++
	}
	a.i++
}

// lyrics aligns a w: line with the notes of the current voice's latest
// line. Each further w: line for the same music line is another verse.
func (ts *tuneState) lyrics(l semantic.Lyrics) {
	v := ts.current
	if v == nil || len(v.lineElems) == 0 {
		return
	}
	a := &lineAligner{elems: v.lineElems}
	verse := v.verse
	v.verse++
	for _, item := range l.Items {
		switch item.Kind {
		case semantic.LyricSyllable:
			el := a.next()
			if el == nil {
				return
			}
			for len(el.Lyric) < verse {
				el.Lyric = append(el.Lyric, score.Lyric{})
			}
			el.Lyric = append(el.Lyric, score.Lyric{Syllable: item.Text, Divider: item.Divider})
		case semantic.LyricSkip, semantic.LyricHold:
			if a.next() == nil {
				return
			}
		case semantic.LyricBar:
			a.nextBar()
		}
	}
}

// symbols aligns an s: line with the notes of the current voice's latest
// line, adding a decoration or chord symbol to each.
func (ts *tuneState) symbols(l semantic.SymbolLine, n ast.Node) {
	v := ts.current
	if v == nil || len(v.lineElems) == 0 {
		return
	}
	a := &lineAligner{elems: v.lineElems}
	for _, item := range l.Items {
		switch item.Kind {
		case semantic.SymbolDecoration:
			el := a.next()
			if el == nil {
				return
			}
			name, ok := ts.decorationName(item.Text, item.Symbol)
			if !ok {
				ts.r.diags.Warn(n, "Unknown decoration symbol '%s'", item.Text)
				continue
			}
			if name == "nostem" {
				el.NoStem = true
				continue
			}
			el.Decorations = append(el.Decorations, name)
		case semantic.SymbolAnnotation:
			el := a.next()
			if el == nil {
				return
			}
			el.Chord = append(el.Chord, chordSymbol(item.Text))
		case semantic.SymbolSkip:
			if a.next() == nil {
				return
			}
		case semantic.SymbolBar:
			a.nextBar()
		}
	}
}
