package semantic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cbegin/abcscore-go/internal/rational"
)

// parseMeter accepts "C", "C|", "none", "6/8", "(2+3)/8", "2+3/8" and
// space separated compound meters such as "3/4 2/4".
func parseMeter(value string) (Meter, error) {
	v := strings.TrimSpace(value)
	switch v {
	case "C":
		return Meter{Type: MeterCommonTime, Value: []rational.Rational{rational.New(4, 4)}}, nil
	case "C|":
		return Meter{Type: MeterCutTime, Value: []rational.Rational{rational.New(2, 2)}}, nil
	case "none", "":
		return Meter{Type: MeterNone}, nil
	}
	m := Meter{Type: MeterSpecified}
	for _, term := range strings.Fields(v) {
		r, err := parseMeterTerm(term)
		if err != nil {
			return Meter{}, err
		}
		m.Value = append(m.Value, r)
	}
	return m, nil
}

func parseMeterTerm(term string) (rational.Rational, error) {
	num, den, ok := strings.Cut(term, "/")
	if !ok {
		return rational.Rational{}, fmt.Errorf("meter %q has no denominator", term)
	}
	num = strings.TrimSuffix(strings.TrimPrefix(num, "("), ")")
	total := 0
	for _, part := range strings.Split(num, "+") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return rational.Rational{}, fmt.Errorf("bad meter numerator %q", part)
		}
		total += n
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil || d <= 0 {
		return rational.Rational{}, fmt.Errorf("bad meter denominator %q", den)
	}
	return rational.New(total, d), nil
}

// parseFraction parses "n/d" or a bare integer.
func parseFraction(s string) (rational.Rational, error) {
	s = strings.TrimSpace(s)
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || n <= 0 {
		return rational.Rational{}, fmt.Errorf("bad fraction %q", s)
	}
	if !ok {
		return rational.New(n, 1), nil
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil || d <= 0 {
		return rational.Rational{}, fmt.Errorf("bad fraction %q", s)
	}
	return rational.New(n, d), nil
}

func parseNoteLength(value string) (NoteLength, error) {
	r, err := parseFraction(value)
	if err != nil {
		return NoteLength{}, fmt.Errorf("note length: %w", err)
	}
	return NoteLength{Value: r}, nil
}

// parseTempo accepts `"Allegro" 1/4=120 "post"`, `1/8 3/8=40`, a bare
// BPM and a text-only tempo.
func parseTempo(value string) (Tempo, error) {
	t := Tempo{}
	seenNumber := false
	for _, tok := range tokenize(value) {
		if strings.HasPrefix(tok, "\"") {
			text := unquote(tok)
			if !seenNumber && t.PreString == "" {
				t.PreString = text
			} else {
				t.PostString = text
			}
			continue
		}
		seenNumber = true
		beats, bpm, hasBPM := strings.Cut(tok, "=")
		if !hasBPM {
			if !strings.Contains(tok, "/") {
				n, err := strconv.Atoi(tok)
				if err != nil || n <= 0 {
					return Tempo{}, fmt.Errorf("bad tempo %q", tok)
				}
				t.BPM = n
				continue
			}
			d, err := parseFraction(tok)
			if err != nil {
				return Tempo{}, fmt.Errorf("tempo: %w", err)
			}
			t.Duration = append(t.Duration, d)
			continue
		}
		if beats != "" {
			d, err := parseFraction(beats)
			if err != nil {
				return Tempo{}, fmt.Errorf("tempo: %w", err)
			}
			t.Duration = append(t.Duration, d)
		}
		if bpm == "" {
			continue
		}
		n, err := strconv.Atoi(bpm)
		if err != nil || n <= 0 {
			return Tempo{}, fmt.Errorf("bad tempo %q", bpm)
		}
		t.BPM = n
	}
	return t, nil
}
