package abc

import (
	"strings"

	"github.com/cbegin/abcscore-go/internal/ast"
)

type Parser struct{ cfg ParserConfig }

func NewParser(cfg ParserConfig) *Parser {
	def := DefaultParserConfig()
	if cfg.MaxBrokenRhythm <= 0 {
		cfg.MaxBrokenRhythm = def.MaxBrokenRhythm
	}
	if cfg.MaxRhythmSlashes <= 0 {
		cfg.MaxRhythmSlashes = def.MaxRhythmSlashes
	}
	if cfg.MaxRhythmValue <= 0 {
		cfg.MaxRhythmValue = def.MaxRhythmValue
	}
	if cfg.BodyInfoKeys == "" {
		cfg.BodyInfoKeys = def.BodyInfoKeys
	}
	return &Parser{cfg: cfg}
}

// Parse builds the syntax tree for input. It never fails: anything that
// cannot be understood is kept as an ast.ErrorNode so later stages can
// skip it.
func (p *Parser) Parse(input string) *ast.File {
	lines := splitLines(input)
	f := &ast.File{}
	for i, sec := range splitSections(lines) {
		switch {
		case sec.isTune(lines):
			f.Tunes = append(f.Tunes, p.parseTune(lines, sec))
		case i == 0:
			f.Header = p.parseFileHeader(lines, sec)
		default:
			f.FreeText = append(f.FreeText, &ast.FreeText{
				Base: ast.Base{Span: sec.span(lines)},
				Text: strings.Join(lines[sec.start:sec.end], "\n"),
			})
		}
	}
	if len(lines) > 0 {
		last := len(lines) - 1
		f.Span = ast.Range{End: ast.Position{Line: last, Char: len(lines[last])}}
	}
	ast.Number(f, 1)
	return f
}

type section struct{ start, end int }

func (s section) span(lines []string) ast.Range {
	return ast.Range{
		Start: ast.Position{Line: s.start},
		End:   ast.Position{Line: s.end - 1, Char: len(lines[s.end-1])},
	}
}

func (s section) isTune(lines []string) bool {
	for _, l := range lines[s.start:s.end] {
		if strings.HasPrefix(l, "%") {
			continue
		}
		return strings.HasPrefix(l, "X:")
	}
	return false
}

func splitLines(input string) []string {
	if input == "" {
		return nil
	}
	lines := strings.Split(input, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// splitSections groups lines into blank-line separated sections. Blank lines
// inside a %%begintext block do not end the section.
func splitSections(lines []string) []section {
	var out []section
	start := -1
	inText := false
	for i, l := range lines {
		t := strings.TrimSpace(l)
		switch {
		case inText:
			if strings.HasPrefix(t, "%%endtext") {
				inText = false
			}
			continue
		case strings.HasPrefix(t, "%%begintext"):
			inText = true
		case t == "":
			if start >= 0 {
				out = append(out, section{start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, section{start: start, end: len(lines)})
	}
	return out
}

type lineKind int

const (
	lineMusic lineKind = iota
	lineInfo
	lineDirective
	lineComment
)

// classify decides what a line is. infoKeys restricts which field letters
// count as info lines; an empty string accepts any letter.
func classify(line string, infoKeys string) lineKind {
	switch {
	case strings.HasPrefix(line, "%%"):
		return lineDirective
	case strings.HasPrefix(line, "%"):
		return lineComment
	case len(line) >= 2 && line[1] == ':' && (isAlpha(line[0]) || line[0] == '+'):
		if infoKeys == "" || strings.IndexByte(infoKeys, line[0]) >= 0 {
			return lineInfo
		}
	}
	return lineMusic
}

func (p *Parser) parseFileHeader(lines []string, sec section) *ast.FileHeader {
	h := &ast.FileHeader{Base: ast.Base{Span: sec.span(lines)}}
	for i := sec.start; i < sec.end; {
		var n ast.Node
		n, i = p.headerLine(lines, i, sec.end, "")
		h.Items = appendItem(h.Items, n)
	}
	return h
}

func (p *Parser) parseTune(lines []string, sec section) *ast.Tune {
	t := &ast.Tune{Base: ast.Base{Span: sec.span(lines)}}
	hdr := &ast.TuneHeader{}
	i := sec.start
	for i < sec.end {
		if classify(lines[i], "") == lineMusic {
			break
		}
		var n ast.Node
		n, i = p.headerLine(lines, i, sec.end, "")
		hdr.Items = appendItem(hdr.Items, n)
		if info, ok := n.(*ast.InfoLine); ok && info.Key == "K" {
			break
		}
	}
	hdr.Span = itemsSpan(hdr.Items, ast.Position{Line: sec.start})
	t.Header = hdr

	body := &ast.TuneBody{}
	for i < sec.end {
		var n ast.Node
		if classify(lines[i], p.cfg.BodyInfoKeys) == lineMusic {
			n = p.parseMusicLine(lines[i], i)
			i++
		} else {
			n, i = p.headerLine(lines, i, sec.end, p.cfg.BodyInfoKeys)
		}
		body.Items = appendItem(body.Items, n)
	}
	body.Span = itemsSpan(body.Items, hdr.Span.End)
	t.Body = body
	return t
}

// headerLine parses the non-music line at index i and returns the node and
// the index of the next unread line.
func (p *Parser) headerLine(lines []string, i, end int, infoKeys string) (ast.Node, int) {
	line := lines[i]
	switch classify(line, infoKeys) {
	case lineDirective:
		if strings.HasPrefix(strings.TrimSpace(line[2:]), "begintext") {
			return textBlock(lines, i, end)
		}
		return directive(line, i), i + 1
	case lineComment:
		return &ast.Comment{Base: lineBase(line, i), Text: line[1:]}, i + 1
	case lineInfo:
		return infoLine(line, i), i + 1
	}
	return p.parseMusicLine(line, i), i + 1
}

func lineBase(line string, ln int) ast.Base {
	return ast.Base{Span: ast.Range{
		Start: ast.Position{Line: ln},
		End:   ast.Position{Line: ln, Char: len(line)},
	}}
}

func infoLine(line string, ln int) *ast.InfoLine {
	raw := stripComment(line[2:])
	lead := len(raw) - len(strings.TrimLeft(raw, " \t"))
	return &ast.InfoLine{
		Base:       lineBase(line, ln),
		Key:        line[:1],
		Value:      strings.TrimSpace(raw),
		ValueStart: ast.Position{Line: ln, Char: 2 + lead},
	}
}

func directive(line string, ln int) *ast.Directive {
	body := strings.TrimSpace(line[2:])
	name, value := body, ""
	if idx := strings.IndexAny(body, " \t"); idx >= 0 {
		name, value = body[:idx], strings.TrimSpace(body[idx+1:])
	}
	return &ast.Directive{Base: lineBase(line, ln), Name: name, Value: value}
}

// textBlock folds %%begintext ... %%endtext into one directive. Content
// lines may carry a leading "%%", which is removed.
func textBlock(lines []string, i, end int) (ast.Node, int) {
	d := &ast.Directive{Base: lineBase(lines[i], i), Name: "begintext"}
	var body []string
	j := i + 1
	for ; j < end; j++ {
		t := strings.TrimSpace(lines[j])
		if strings.HasPrefix(t, "%%endtext") {
			d.Span.End = ast.Position{Line: j, Char: len(lines[j])}
			j++
			break
		}
		body = append(body, strings.TrimPrefix(lines[j], "%%"))
		d.Span.End = ast.Position{Line: j, Char: len(lines[j])}
	}
	d.Value = strings.Join(body, "\n")
	return d, j
}

// appendItem merges "+:" continuation lines into the preceding info line.
func appendItem(items []ast.Node, n ast.Node) []ast.Node {
	info, ok := n.(*ast.InfoLine)
	if !ok || info.Key != "+" || len(items) == 0 {
		return append(items, n)
	}
	prev, ok := items[len(items)-1].(*ast.InfoLine)
	if !ok {
		return append(items, n)
	}
	if prev.Value == "" {
		prev.Value = info.Value
	} else if info.Value != "" {
		prev.Value += " " + info.Value
	}
	prev.Span.End = info.Span.End
	return items
}

func itemsSpan(items []ast.Node, empty ast.Position) ast.Range {
	if len(items) == 0 {
		return ast.Range{Start: empty, End: empty}
	}
	return ast.Range{Start: items[0].Range().Start, End: items[len(items)-1].Range().End}
}

// stripComment removes a trailing % comment. "\%" is an escaped percent.
func stripComment(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && (i == 0 || s[i-1] != '\\') {
			return s[:i]
		}
	}
	return s
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isSpace(b byte) bool { return b == ' ' || b == '\t' }
