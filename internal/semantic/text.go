package semantic

import (
	"fmt"
	"strconv"
	"strings"
)

// parseLyrics splits a w: line into syllables. A hyphen breaks a word
// into syllables, "_" holds the previous syllable for one more note, "*"
// skips a note, "~" joins words under one note, "\-" is a literal hyphen
// and "|" advances to the next bar.
func parseLyrics(value string) Lyrics {
	l := Lyrics{Items: []LyricItem{}}
	var buf strings.Builder
	pending := false
	flush := func(divider string) {
		if buf.Len() > 0 || pending {
			l.Items = append(l.Items, LyricItem{Kind: LyricSyllable, Text: buf.String(), Divider: divider})
		}
		buf.Reset()
		pending = false
	}
	lastHyphen := false
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch ch {
		case ' ', '\t':
			flush(" ")
			lastHyphen = false
			continue
		case '-':
			if buf.Len() == 0 && lastHyphen {
				l.Items = append(l.Items, LyricItem{Kind: LyricSkip, Divider: "-"})
			} else {
				flush("-")
			}
			lastHyphen = true
			continue
		case '_':
			flush(" ")
			l.Items = append(l.Items, LyricItem{Kind: LyricHold})
		case '*':
			flush(" ")
			l.Items = append(l.Items, LyricItem{Kind: LyricSkip})
		case '|':
			flush(" ")
			l.Items = append(l.Items, LyricItem{Kind: LyricBar})
		case '~':
			buf.WriteByte(' ')
			pending = true
		case '\\':
			if i+1 < len(value) {
				i++
				buf.WriteByte(value[i])
			}
		default:
			buf.WriteByte(ch)
		}
		lastHyphen = false
	}
	flush(" ")
	return l
}

// parseUserSymbol parses "T = !trill!" and "T=+trill+".
func parseUserSymbol(value string) (UserSymbol, error) {
	sym, deco, ok := strings.Cut(value, "=")
	sym, deco = strings.TrimSpace(sym), strings.TrimSpace(deco)
	if !ok || len(sym) != 1 || deco == "" {
		return UserSymbol{}, fmt.Errorf("bad user symbol %q", value)
	}
	if len(deco) >= 2 && (deco[0] == '!' || deco[0] == '+') && deco[len(deco)-1] == deco[0] {
		deco = deco[1 : len(deco)-1]
	}
	return UserSymbol{Symbol: sym, Decoration: deco}, nil
}

// parseFont reads "Times-Roman 12 bold italic". The face may be quoted or
// "*" to keep the current face; the size may be omitted.
func parseFont(value string) (Font, error) {
	f := Font{Weight: "normal", Style: "normal", Decoration: "none"}
	tokens := tokenize(value)
	if len(tokens) == 0 {
		return Font{}, fmt.Errorf("empty font")
	}
	for i, tok := range tokens {
		switch low := strings.ToLower(tok); {
		case low == "bold":
			f.Weight = "bold"
		case low == "italic":
			f.Style = "italic"
		case low == "underline":
			f.Decoration = "underline"
		case low == "box":
			f.Box = true
		case i == 0 && tok != "*":
			if size, err := strconv.ParseFloat(tok, 64); err == nil {
				f.Size = size
				continue
			}
			f.Face = unquote(tok)
		case i == 0:
		default:
			size, err := strconv.ParseFloat(tok, 64)
			if err != nil || size <= 0 {
				return Font{}, fmt.Errorf("bad font size %q", tok)
			}
			f.Size = size
		}
	}
	return f, nil
}

// parseHeaderFooter splits on tabs: one field is centered, two are left and
// center, three are left, center and right.
// parseSymbolLine splits an s: line. Items are !decorations!, +decorations+,
// "chord symbols" and bare decoration shorthands; "*" skips a note and
// "|" advances to the next bar.
func parseSymbolLine(value string) (SymbolLine, error) {
	l := SymbolLine{Items: []SymbolItem{}}
	for i := 0; i < len(value); {
		switch ch := value[i]; ch {
		case ' ', '\t':
			i++
		case '%':
			return l, nil
		case '*':
			l.Items = append(l.Items, SymbolItem{Kind: SymbolSkip})
			i++
		case '|':
			l.Items = append(l.Items, SymbolItem{Kind: SymbolBar})
			i++
		case '!', '+', '"':
			end := strings.IndexByte(value[i+1:], ch)
			if end < 0 {
				return SymbolLine{}, fmt.Errorf("symbol line: unterminated %q", value[i:])
			}
			text := value[i+1 : i+1+end]
			kind := SymbolDecoration
			if ch == '"' {
				kind = SymbolAnnotation
			}
			l.Items = append(l.Items, SymbolItem{Kind: kind, Text: text})
			i += end + 2
		default:
			start := i
			for i < len(value) && !strings.ContainsRune(" \t*|%!+\"", rune(value[i])) {
				i++
			}
			l.Items = append(l.Items, SymbolItem{Kind: SymbolDecoration, Text: value[start:i], Symbol: true})
		}
	}
	return l, nil
}

func parseHeaderFooter(field Kind, value string) HeaderFooter {
	h := HeaderFooter{Field: field}
	parts := strings.Split(unquote(value), "\t")
	switch len(parts) {
	case 1:
		h.Center = parts[0]
	case 2:
		h.Left, h.Center = parts[0], parts[1]
	default:
		h.Left, h.Center, h.Right = parts[0], parts[1], parts[2]
	}
	return h
}

func parseMeasurement(name, value string) (Measurement, error) {
	v := strings.TrimSpace(value)
	unit := "pt"
	for _, u := range []string{"cm", "in", "pt"} {
		if strings.HasSuffix(v, u) {
			unit = u
			v = strings.TrimSpace(strings.TrimSuffix(v, u))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Measurement{}, fmt.Errorf("%s: bad measurement %q", name, value)
	}
	return Measurement{Name: name, Value: f, Unit: unit}, nil
}

func parseBoolean(name, value string) (Boolean, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "1", "true", "yes", "on":
		return Boolean{Name: name, Value: true}, nil
	case "0", "false", "no", "off":
		return Boolean{Name: name, Value: false}, nil
	}
	return Boolean{}, fmt.Errorf("%s: bad boolean %q", name, value)
}

func parseLinebreak(value string) (Linebreak, error) {
	l := Linebreak{}
	for _, tok := range strings.Fields(value) {
		switch tok {
		case "<EOL>", "<none>", "$", "!":
			l.Markers = append(l.Markers, tok)
		default:
			return Linebreak{}, fmt.Errorf("linebreak: unknown marker %q", tok)
		}
	}
	if len(l.Markers) == 0 {
		return Linebreak{}, fmt.Errorf("linebreak: no markers")
	}
	return l, nil
}
