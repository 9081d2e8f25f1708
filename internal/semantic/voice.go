package semantic

import (
	"fmt"
	"strconv"
	"strings"
)

// parseVoice parses "1 name=\"Soprano\" clef=treble transpose=-2" and the
// like. The first token is the voice ID.
func parseVoice(value string) (Voice, []string, error) {
	tokens := tokenize(value)
	if len(tokens) == 0 {
		return Voice{}, nil, fmt.Errorf("voice without an ID")
	}
	v := Voice{ID: tokens[0]}
	var unknown []string
	for _, tok := range tokens[1:] {
		handled, err := applyClefToken(&v.Properties.ClefProperties, tok)
		if err != nil {
			return Voice{}, nil, fmt.Errorf("voice %s: %w", v.ID, err)
		}
		if handled {
			if tok == "perc" {
				v.Properties.Perc = true
			}
			continue
		}
		name, val, hasValue := strings.Cut(tok, "=")
		val = unquote(val)
		p := &v.Properties
		switch {
		case name == "perc" && !hasValue:
			p.Perc = true
		case name == "merge" && !hasValue:
			p.Merge = true
		case !hasValue:
			unknown = append(unknown, tok)
		case name == "name" || name == "nm":
			p.Name = val
		case name == "subname" || name == "snm" || name == "sname":
			p.Subname = val
		case name == "staffscale":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return Voice{}, nil, fmt.Errorf("voice %s: bad staffscale %q", v.ID, val)
			}
			p.StaffScale = &f
		case name == "instrument":
			n, err := strconv.Atoi(val)
			if err != nil {
				return Voice{}, nil, fmt.Errorf("voice %s: bad instrument %q", v.ID, val)
			}
			p.Instrument = &n
		case name == "stems" || name == "stem":
			if val != "up" && val != "down" && val != "auto" {
				return Voice{}, nil, fmt.Errorf("voice %s: bad stems %q", v.ID, val)
			}
			p.Stems = val
		case name == "gchord":
			p.GChord = val
		case name == "space" || name == "spc":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return Voice{}, nil, fmt.Errorf("voice %s: bad space %q", v.ID, val)
			}
			p.Space = &f
		case name == "bracket" || name == "brk":
			p.Bracket = val
		case name == "brace" || name == "brc":
			p.Brace = val
		default:
			unknown = append(unknown, tok)
		}
	}
	return v, unknown, nil
}

// parseScore parses the voice grouping of %%score and %%staves:
// parentheses put voices on one staff, brackets and braces group staves
// and '|' connects bar lines to the next staff.
func parseScore(value string) (ScoreLayout, error) {
	var layout ScoreLayout
	var paren *StaffDecl
	bracketStart, braceStart := -1, -1
	closeGroup := func(start int, set func(*StaffDecl, string)) {
		end := len(layout.Staves) - 1
		for i := start; i <= end; i++ {
			switch {
			case i == start:
				set(&layout.Staves[i], "start")
			case i == end:
				set(&layout.Staves[i], "end")
			default:
				set(&layout.Staves[i], "continue")
			}
		}
	}
	for i := 0; i < len(value); {
		ch := value[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '*':
			i++
		case ch == '(':
			if paren != nil {
				return ScoreLayout{}, fmt.Errorf("nested '(' in score")
			}
			paren = &StaffDecl{}
			i++
		case ch == ')':
			if paren == nil {
				return ScoreLayout{}, fmt.Errorf("unbalanced ')' in score")
			}
			if len(paren.Voices) > 0 {
				layout.Staves = append(layout.Staves, *paren)
			}
			paren = nil
			i++
		case ch == '[':
			bracketStart = len(layout.Staves)
			i++
		case ch == ']':
			if bracketStart < 0 || bracketStart >= len(layout.Staves) {
				return ScoreLayout{}, fmt.Errorf("unbalanced ']' in score")
			}
			closeGroup(bracketStart, func(s *StaffDecl, v string) { s.Bracket = v })
			bracketStart = -1
			i++
		case ch == '{':
			braceStart = len(layout.Staves)
			i++
		case ch == '}':
			if braceStart < 0 || braceStart >= len(layout.Staves) {
				return ScoreLayout{}, fmt.Errorf("unbalanced '}' in score")
			}
			closeGroup(braceStart, func(s *StaffDecl, v string) { s.Brace = v })
			braceStart = -1
			i++
		case ch == '|':
			if len(layout.Staves) > 0 {
				layout.Staves[len(layout.Staves)-1].ConnectBarLines = true
			}
			i++
		default:
			j := i
			for j < len(value) && !strings.ContainsRune(" \t()[]{}|*", rune(value[j])) {
				j++
			}
			id := value[i:j]
			if paren != nil {
				paren.Voices = append(paren.Voices, id)
			} else {
				layout.Staves = append(layout.Staves, StaffDecl{Voices: []string{id}})
			}
			i = j
		}
	}
	if paren != nil || bracketStart >= 0 || braceStart >= 0 {
		return ScoreLayout{}, fmt.Errorf("unclosed group in score")
	}
	if len(layout.Staves) == 0 {
		return ScoreLayout{}, fmt.Errorf("empty score")
	}
	return layout, nil
}
