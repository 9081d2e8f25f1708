package semantic

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var tonicFifths = map[byte]int{
	'C': 0, 'G': 1, 'D': 2, 'A': 3, 'E': 4, 'B': 5, 'F': -1,
}

type modeInfo struct {
	name   string
	offset int
}

// modes is keyed by the first three letters of the mode name, lowercased.
var modes = map[string]modeInfo{
	"":    {"major", 0},
	"maj": {"major", 0},
	"ion": {"major", 0},
	"m":   {"minor", -3},
	"min": {"minor", -3},
	"aeo": {"minor", -3},
	"dor": {"dorian", -2},
	"phr": {"phrygian", -4},
	"lyd": {"lydian", 1},
	"mix": {"mixolydian", -1},
	"loc": {"locrian", -5},
}

const (
	sharpOrder = "FCGDAEB"
	flatOrder  = "BEADGCF"
)

var clefNames = map[string]bool{
	"treble": true, "bass": true, "alto": true, "tenor": true, "baritone": true,
	"mezzosoprano": true, "soprano": true, "perc": true, "none": true,
	"bass3": true, "alto1": true, "alto2": true, "treble1": true,
}

// isClefName accepts the clef names with an optional +8/-8 suffix.
func isClefName(s string) bool {
	s = strings.TrimSuffix(strings.TrimSuffix(s, "+8"), "-8")
	return clefNames[s]
}

// parseKey parses a K: value such as "Gm", "F# dor", "D exp ^f ^c" or
// "clef=bass". When only clef properties are present it returns a
// ClefChange.
func parseKey(value string) (Data, error) {
	tokens := tokenize(value)
	key := Key{}
	var clef ClefProperties
	rest := tokens
	hasTonic := false

	if len(tokens) > 0 {
		switch first := tokens[0]; {
		case first == "none":
			key.Signature = KeySignature{Root: "none", Mode: ""}
			hasTonic = true
			rest = tokens[1:]
		case first == "HP":
			key.Signature = KeySignature{Root: "HP"}
			hasTonic = true
			rest = tokens[1:]
		case first == "Hp":
			key.Signature = KeySignature{Root: "Hp", Accidentals: []KeyAccidental{
				{Note: "F", Acc: "sharp"}, {Note: "C", Acc: "sharp"}, {Note: "G", Acc: "natural"},
			}}
			hasTonic = true
			rest = tokens[1:]
		case len(first) > 0 && first[0] >= 'A' && first[0] <= 'G' && !strings.Contains(first, "="):
			sig, consumed, err := parseTonic(tokens)
			if err != nil {
				return nil, err
			}
			key.Signature = sig
			hasTonic = true
			rest = tokens[consumed:]
		}
	}
	if !hasTonic {
		key.Signature = signature("C", "", "major", 0)
	}

	explicit := false
	var extra []KeyAccidental
	for _, tok := range rest {
		switch {
		case tok == "exp":
			explicit = true
		case isExplicitAccidental(tok):
			extra = append(extra, explicitAccidental(tok))
		default:
			handled, err := applyClefToken(&clef, tok)
			if err != nil {
				return nil, err
			}
			if !handled {
				return nil, fmt.Errorf("unknown key property %q", tok)
			}
		}
	}
	if explicit {
		key.Signature.Accidentals = nil
	}
	for _, acc := range extra {
		key.Signature.Accidentals = setAccidental(key.Signature.Accidentals, acc)
	}

	if !hasTonic && len(extra) == 0 && !explicit {
		if clef.Empty() {
			return key, nil
		}
		return ClefChange{ClefProperties: clef}, nil
	}
	if !clef.Empty() {
		key.Clef = &clef
	}
	return key, nil
}

// parseTonic reads the tonic and the optional mode, which may be glued to
// the tonic ("Gmix") or be the next token ("G mix").
func parseTonic(tokens []string) (KeySignature, int, error) {
	first := tokens[0]
	root := first[:1]
	acc := ""
	i := 1
	if i < len(first) && (first[i] == '#' || first[i] == 'b') {
		acc = first[i : i+1]
		i++
	}
	consumed := 1
	modeText := first[i:]
	if modeText == "" && len(tokens) > 1 {
		if _, ok := lookupMode(tokens[1]); ok {
			modeText = tokens[1]
			consumed = 2
		}
	}
	m, ok := lookupMode(modeText)
	if !ok {
		return KeySignature{}, 0, fmt.Errorf("unknown key mode %q", modeText)
	}
	fifths := tonicFifths[root[0]] + m.offset
	switch acc {
	case "#":
		fifths += 7
	case "b":
		fifths -= 7
	}
	return signature(root, acc, m.name, fifths), consumed, nil
}

func lookupMode(s string) (modeInfo, bool) {
	if s == "m" || s == "M" {
		return modes["m"], true
	}
	low := cases.Lower(language.Und).String(s)
	if !isAlphaString(low) {
		return modeInfo{}, false
	}
	if len(low) > 3 {
		low = low[:3]
	}
	m, ok := modes[low]
	return m, ok
}

func signature(root, acc, mode string, fifths int) KeySignature {
	sig := KeySignature{Root: root, Acc: acc, Mode: mode, Accidentals: []KeyAccidental{}}
	for i := 0; i < fifths; i++ {
		name := "sharp"
		if i >= 7 {
			name = "dblsharp"
		}
		sig.Accidentals = setAccidental(sig.Accidentals, KeyAccidental{Note: sharpOrder[i%7 : i%7+1], Acc: name})
	}
	for i := 0; i < -fifths; i++ {
		name := "flat"
		if i >= 7 {
			name = "dblflat"
		}
		sig.Accidentals = setAccidental(sig.Accidentals, KeyAccidental{Note: flatOrder[i%7 : i%7+1], Acc: name})
	}
	return sig
}

func setAccidental(list []KeyAccidental, acc KeyAccidental) []KeyAccidental {
	for i, a := range list {
		if a.Note == acc.Note {
			list[i] = acc
			return list
		}
	}
	return append(list, acc)
}

func isExplicitAccidental(tok string) bool {
	body := strings.TrimLeft(tok, "^_=")
	return len(body) == 1 && body != tok && len(tok)-len(body) <= 2 &&
		((body[0] >= 'a' && body[0] <= 'g') || (body[0] >= 'A' && body[0] <= 'G'))
}

func explicitAccidental(tok string) KeyAccidental {
	body := strings.TrimLeft(tok, "^_=")
	name := map[string]string{"^": "sharp", "_": "flat", "=": "natural", "^^": "dblsharp", "__": "dblflat"}[tok[:len(tok)-1]]
	return KeyAccidental{Note: string(upper(body[0])), Acc: name}
}

// applyClefToken handles clef=, middle=, transpose=, octave=, stafflines=
// and bare clef names. It reports false for tokens it does not know.
func applyClefToken(c *ClefProperties, tok string) (bool, error) {
	name, value, hasValue := strings.Cut(tok, "=")
	if !hasValue {
		if isClefName(tok) {
			c.Clef = tok
			return true, nil
		}
		return false, nil
	}
	value = unquote(value)
	switch name {
	case "clef":
		if !isClefName(value) {
			return true, fmt.Errorf("unknown clef %q", value)
		}
		c.Clef = value
	case "middle", "m":
		c.Middle = value
	case "transpose", "t":
		n, err := strconv.Atoi(value)
		if err != nil {
			return true, fmt.Errorf("bad transpose %q: %w", value, err)
		}
		c.Transpose = &n
	case "octave":
		n, err := strconv.Atoi(value)
		if err != nil {
			return true, fmt.Errorf("bad octave %q: %w", value, err)
		}
		c.Octave = &n
	case "stafflines":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return true, fmt.Errorf("bad stafflines %q", value)
		}
		c.StaffLines = &n
	default:
		return false, nil
	}
	return true, nil
}

// tokenize splits on whitespace, keeping double-quoted runs together.
func tokenize(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '"':
			inQuote = !inQuote
			cur.WriteByte(ch)
		case (ch == ' ' || ch == '\t') && !inQuote:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(ch)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func isAlphaString(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

// CMajor is the key in effect when a tune gives no K: value.
func CMajor() KeySignature { return signature("C", "", "major", 0) }
