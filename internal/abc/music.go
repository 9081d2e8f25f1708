package abc

import (
	"strconv"
	"strings"

	"github.com/cbegin/abcscore-go/internal/ast"
)

type lineScanner struct {
	cfg    ParserConfig
	s      string
	ln     int
	i      int
	items  []ast.Node
	spaced []bool
}

func (p *Parser) parseMusicLine(line string, ln int) *ast.MusicLine {
	ml := &ast.MusicLine{Base: lineBase(line, ln)}
	sc := &lineScanner{cfg: p.cfg, s: line, ln: ln}
	space := false
	for sc.i < len(sc.s) {
		ch := sc.s[sc.i]
		if isSpace(ch) {
			space = true
			sc.i++
			continue
		}
		if ch == '`' {
			sc.i++
			continue
		}
		if ch == '\\' {
			rest := strings.TrimSpace(sc.s[sc.i+1:])
			if rest == "" || strings.HasPrefix(rest, "%") {
				ml.Continued = true
				sc.i++
				continue
			}
		}
		if n := sc.element(); n != nil {
			sc.items = append(sc.items, n)
			sc.spaced = append(sc.spaced, space)
		}
		space = false
	}
	if p.cfg.GroupBeams {
		ml.Items = groupBeams(sc.items, sc.spaced)
	} else {
		ml.Items = sc.items
	}
	return ml
}

// element scans one item starting at sc.i. It returns nil when the text
// only modified the previous item (a detached tie or broken rhythm).
func (sc *lineScanner) element() ast.Node {
	s, start := sc.s, sc.i
	ch := s[start]
	next := byte(0)
	if start+1 < len(s) {
		next = s[start+1]
	}
	switch {
	case ch == '%':
		sc.i = len(s)
		return &ast.Comment{Base: sc.base(start), Text: s[start+1:]}
	case ch == '|' || ch == ':' || (ch == '[' && next == '|'):
		return sc.bar()
	case ch == '[' && isAlpha(next) && start+2 < len(s) && s[start+2] == ':':
		return sc.inlineField()
	case ch == '[' && isDigit(next):
		sc.i++
		ending := sc.ending()
		if prev, ok := sc.lastItem().(*ast.BarLine); ok && prev.Ending == "" {
			prev.Ending = ending
			prev.Span.End = sc.pos()
			return nil
		}
		return &ast.BarLine{Base: sc.base(start), Ending: ending}
	case ch == '[':
		if c := sc.chord(); c != nil {
			return c
		}
	case ch == '{':
		if g := sc.grace(); g != nil {
			return g
		}
	case ch == '(' && isDigit(next):
		return sc.tuplet()
	case ch == '(':
		sc.i++
		return &ast.Slur{Base: sc.base(start), Open: true}
	case ch == '.' && next == '(':
		sc.i += 2
		return &ast.Slur{Base: sc.base(start), Open: true, Dotted: true}
	case ch == ')':
		sc.i++
		return &ast.Slur{Base: sc.base(start)}
	case ch == '!' || ch == '+':
		if end := strings.IndexByte(s[start+1:], ch); end >= 0 {
			sc.i = start + 1 + end + 1
			return &ast.Decoration{Base: sc.base(start), Text: s[start+1 : start+1+end]}
		}
	case ch == '"':
		if end := strings.IndexByte(s[start+1:], '"'); end >= 0 {
			sc.i = start + 1 + end + 1
			return &ast.Annotation{Base: sc.base(start), Text: s[start+1 : start+1+end]}
		}
		sc.i = len(s)
		return &ast.ErrorNode{Base: sc.base(start), Text: s[start:]}
	case isNoteStart(ch):
		if n := sc.note(); n != nil {
			return n
		}
	case ch == 'z' || ch == 'x' || ch == 'Z' || ch == 'X':
		sc.i++
		return &ast.Rest{Base: sc.base(start), Symbol: ch, Rhythm: sc.rhythm()}
	case ch == 'y':
		sc.i++
		return &ast.Spacer{Base: sc.base(start), Rhythm: sc.rhythm()}
	case isSymbolDecoration(ch):
		sc.i++
		return &ast.Decoration{Base: sc.base(start), Text: string(ch), Symbol: true}
	case ch == '&':
		sc.i++
		return &ast.VoiceOverlay{Base: sc.base(start)}
	case ch == '$':
		sc.i++
		return &ast.SystemBreak{Base: sc.base(start)}
	case ch == '-':
		if sc.attachTie() {
			sc.i++
			return nil
		}
	case ch == '>' || ch == '<':
		if r := sc.lastRhythm(); r != nil {
			r.Broken = sc.broken()
			sc.extendLast()
			return nil
		}
	}
	sc.i = start + 1
	if ch == '/' || isDigit(ch) {
		for sc.i < len(s) && (s[sc.i] == '/' || isDigit(s[sc.i])) {
			sc.i++
		}
	}
	return &ast.ErrorNode{Base: sc.base(start), Text: s[start:sc.i]}
}

func (sc *lineScanner) pos() ast.Position { return ast.Position{Line: sc.ln, Char: sc.i} }

func (sc *lineScanner) base(start int) ast.Base {
	return ast.Base{Span: ast.Range{
		Start: ast.Position{Line: sc.ln, Char: start},
		End:   sc.pos(),
	}}
}

func (sc *lineScanner) lastItem() ast.Node {
	if len(sc.items) == 0 {
		return nil
	}
	return sc.items[len(sc.items)-1]
}

func (sc *lineScanner) bar() *ast.BarLine {
	s, start := sc.s, sc.i
	if s[sc.i] == '[' {
		sc.i++
	}
	for sc.i < len(s) && (s[sc.i] == '|' || s[sc.i] == ':') {
		sc.i++
	}
	if sc.i < len(s) && s[sc.i] == ']' && s[sc.i-1] == '|' {
		sc.i++
	}
	b := &ast.BarLine{Text: s[start:sc.i]}
	if sc.i < len(s) && isDigit(s[sc.i]) && strings.HasSuffix(b.Text, "|") {
		b.Ending = sc.ending()
	} else if sc.i+1 < len(s) && s[sc.i] == '[' && isDigit(s[sc.i+1]) {
		sc.i++
		b.Ending = sc.ending()
	}
	b.Base = sc.base(start)
	return b
}

// ending scans "1", "1,3" or "1-3".
func (sc *lineScanner) ending() string {
	s, start := sc.s, sc.i
	for sc.i < len(s) {
		ch := s[sc.i]
		if isDigit(ch) || ((ch == ',' || ch == '-') && sc.i+1 < len(s) && isDigit(s[sc.i+1])) {
			sc.i++
			continue
		}
		break
	}
	return s[start:sc.i]
}

func (sc *lineScanner) inlineField() ast.Node {
	s, start := sc.s, sc.i
	end := strings.IndexByte(s[start:], ']')
	if end < 0 {
		sc.i = len(s)
		return &ast.ErrorNode{Base: sc.base(start), Text: s[start:]}
	}
	sc.i = start + end + 1
	return &ast.InlineField{
		Base:  sc.base(start),
		Key:   s[start+1 : start+2],
		Value: strings.TrimSpace(s[start+3 : start+end]),
	}
}

// chord returns nil when the brackets do not enclose at least one note, so
// the caller reports the '[' alone.
func (sc *lineScanner) chord() ast.Node {
	s, start := sc.s, sc.i
	sc.i++
	c := &ast.Chord{}
	for sc.i < len(s) && s[sc.i] != ']' {
		ch := s[sc.i]
		switch {
		case isSpace(ch):
			sc.i++
		case ch == '!' || ch == '+':
			end := strings.IndexByte(s[sc.i+1:], ch)
			if end < 0 {
				sc.i = start
				return nil
			}
			sc.i += end + 2
		case ch == '"':
			end := strings.IndexByte(s[sc.i+1:], '"')
			if end < 0 {
				sc.i = start
				return nil
			}
			sc.i += end + 2
		default:
			n := sc.note()
			if n == nil {
				sc.i = start
				return nil
			}
			c.Notes = append(c.Notes, n)
		}
	}
	if sc.i >= len(s) || len(c.Notes) == 0 {
		sc.i = start
		return nil
	}
	sc.i++
	c.Rhythm = sc.rhythm()
	if sc.i < len(s) && s[sc.i] == '-' {
		c.Tie = true
		sc.i++
	}
	c.Base = sc.base(start)
	return c
}

func (sc *lineScanner) grace() ast.Node {
	s, start := sc.s, sc.i
	sc.i++
	g := &ast.GraceGroup{}
	if sc.i < len(s) && s[sc.i] == '/' {
		g.Acciaccatura = true
		sc.i++
	}
	for sc.i < len(s) && s[sc.i] != '}' {
		if isSpace(s[sc.i]) || s[sc.i] == '`' {
			sc.i++
			continue
		}
		n := sc.note()
		if n == nil {
			sc.i = start
			return nil
		}
		g.Notes = append(g.Notes, n)
	}
	if sc.i >= len(s) {
		sc.i = start
		return nil
	}
	sc.i++
	g.Base = sc.base(start)
	return g
}

func (sc *lineScanner) tuplet() ast.Node {
	start := sc.i
	sc.i++
	t := &ast.Tuplet{}
	t.P = sc.number()
	if sc.i < len(sc.s) && sc.s[sc.i] == ':' {
		sc.i++
		t.Q = sc.number()
		if sc.i < len(sc.s) && sc.s[sc.i] == ':' {
			sc.i++
			t.R = sc.number()
		}
	}
	t.Base = sc.base(start)
	return t
}

// note scans accidental, letter, octave marks, rhythm and tie. It restores
// the position and returns nil when no note letter is found.
func (sc *lineScanner) note() *ast.Note {
	s, start := sc.s, sc.i
	n := &ast.Note{}
	switch {
	case strings.HasPrefix(s[sc.i:], "^^"), strings.HasPrefix(s[sc.i:], "__"):
		n.Accidental = s[sc.i : sc.i+2]
		sc.i += 2
	case s[sc.i] == '^' || s[sc.i] == '_' || s[sc.i] == '=':
		n.Accidental = s[sc.i : sc.i+1]
		sc.i++
	}
	if sc.i >= len(s) || !isNoteLetter(s[sc.i]) {
		sc.i = start
		return nil
	}
	n.Letter = s[sc.i]
	sc.i++
	for sc.i < len(s) {
		if s[sc.i] == '\'' {
			n.Octave++
		} else if s[sc.i] == ',' {
			n.Octave--
		} else {
			break
		}
		sc.i++
	}
	n.Rhythm = sc.rhythm()
	if sc.i < len(s) && s[sc.i] == '-' {
		n.Tie = true
		sc.i++
	}
	n.Base = sc.base(start)
	return n
}

// rhythm returns nil when no length or broken rhythm follows.
func (sc *lineScanner) rhythm() *ast.Rhythm {
	start := sc.i
	r := &ast.Rhythm{}
	r.Numerator = sc.rhythmValue()
	for sc.i < len(sc.s) && sc.s[sc.i] == '/' && r.Slashes < sc.cfg.MaxRhythmSlashes {
		r.Slashes++
		sc.i++
	}
	if r.Slashes > 0 {
		r.Denominator = sc.rhythmValue()
	}
	if sc.i < len(sc.s) && (sc.s[sc.i] == '>' || sc.s[sc.i] == '<') {
		r.Broken = sc.broken()
	}
	if sc.i == start {
		return nil
	}
	return r
}

func (sc *lineScanner) broken() string {
	ch, start := sc.s[sc.i], sc.i
	for sc.i < len(sc.s) && sc.s[sc.i] == ch {
		sc.i++
	}
	n := clampInt(sc.i-start, 1, sc.cfg.MaxBrokenRhythm)
	return strings.Repeat(string(ch), n)
}

// rhythmValue reads a length number. A number above MaxRhythmValue is not
// consumed.
func (sc *lineScanner) rhythmValue() int {
	start := sc.i
	for sc.i < len(sc.s) && isDigit(sc.s[sc.i]) {
		sc.i++
	}
	if start == sc.i {
		return 0
	}
	v, err := strconv.Atoi(sc.s[start:sc.i])
	if err != nil || v > sc.cfg.MaxRhythmValue {
		sc.i = start
		return 0
	}
	return v
}

// number returns 0 when no digits follow.
func (sc *lineScanner) number() int {
	start := sc.i
	for sc.i < len(sc.s) && isDigit(sc.s[sc.i]) {
		sc.i++
	}
	if start == sc.i {
		return 0
	}
	v, err := strconv.Atoi(sc.s[start:sc.i])
	if err != nil {
		return 0
	}
	return v
}

func (sc *lineScanner) attachTie() bool {
	switch n := sc.lastItem().(type) {
	case *ast.Note:
		n.Tie = true
	case *ast.Chord:
		n.Tie = true
	default:
		return false
	}
	return true
}

func (sc *lineScanner) lastRhythm() *ast.Rhythm {
	var slot **ast.Rhythm
	switch n := sc.lastItem().(type) {
	case *ast.Note:
		slot = &n.Rhythm
	case *ast.Chord:
		slot = &n.Rhythm
	case *ast.Rest:
		slot = &n.Rhythm
	default:
		return nil
	}
	if *slot == nil {
		*slot = &ast.Rhythm{}
	}
	return *slot
}

func (sc *lineScanner) extendLast() {
	if n := sc.lastItem(); n != nil {
		switch t := n.(type) {
		case *ast.Note:
			t.Span.End = sc.pos()
		case *ast.Chord:
			t.Span.End = sc.pos()
		case *ast.Rest:
			t.Span.End = sc.pos()
		}
	}
}

// groupBeams wraps each whitespace-free run holding at least two notes or
// chords in an ast.Beam.
func groupBeams(items []ast.Node, spaced []bool) []ast.Node {
	out := make([]ast.Node, 0, len(items))
	var run []ast.Node
	flush := func() {
		if countBeamable(run) >= 2 {
			out = append(out, &ast.Beam{
				Base: ast.Base{Span: ast.Range{
					Start: run[0].Range().Start,
					End:   run[len(run)-1].Range().End,
				}},
				Items: run,
			})
		} else {
			out = append(out, run...)
		}
		run = nil
	}
	for i, it := range items {
		if spaced[i] {
			flush()
		}
		if breaksBeam(it) {
			flush()
			out = append(out, it)
			continue
		}
		run = append(run, it)
	}
	flush()
	return out
}

func countBeamable(items []ast.Node) int {
	n := 0
	for _, it := range items {
		switch it.(type) {
		case *ast.Note, *ast.Chord:
			n++
		}
	}
	return n
}

func breaksBeam(n ast.Node) bool {
	switch n.(type) {
	case *ast.BarLine, *ast.InlineField, *ast.VoiceOverlay, *ast.SystemBreak, *ast.Comment, *ast.ErrorNode:
		return true
	}
	return false
}

func isNoteLetter(b byte) bool {
	return (b >= 'A' && b <= 'G') || (b >= 'a' && b <= 'g')
}

func isNoteStart(b byte) bool {
	return isNoteLetter(b) || b == '^' || b == '_' || b == '='
}

// isSymbolDecoration reports the single-character decorations: '.', '~'
// and the letters H-W / h-w that are free for U: redefinition.
func isSymbolDecoration(b byte) bool {
	return b == '.' || b == '~' || (b >= 'H' && b <= 'W') || (b >= 'h' && b <= 'w')
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
