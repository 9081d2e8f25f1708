package semantic

import (
	"errors"
	"strconv"
	"strings"

	"github.com/cbegin/abcscore-go/internal/ast"
	"github.com/cbegin/abcscore-go/internal/diag"
)

var textFieldKinds = map[string]Kind{
	"T": KindTitle,
	"C": KindComposer,
	"O": KindOrigin,
	"R": KindRhythm,
	"B": KindBook,
	"S": KindSource,
	"D": KindDiscography,
	"N": KindNotes,
	"Z": KindTranscription,
	"H": KindHistory,
	"A": KindAuthor,
	"W": KindWords,
}

// ignoredKeys are accepted info fields that carry nothing the interpreter
// uses.
var ignoredKeys = map[string]bool{
	"m": true, "P": true, "G": true, "F": true, "r": true,
}

type analyzer struct {
	data  map[int]Data
	diags diag.Collector
}

// Analyze classifies every info line, inline field and directive in f.
// Problems are reported as diagnostics; the affected node gets no data.
func Analyze(f *ast.File) *Result {
	a := &analyzer{data: map[int]Data{}}
	ast.Walk(f, func(n ast.Node) bool {
		switch t := n.(type) {
		case *ast.InfoLine:
			a.info(t, t.Key, t.Value)
		case *ast.InlineField:
			a.info(t, t.Key, t.Value)
		case *ast.Directive:
			d, err := parseDirective(t.Name, t.Value)
			a.record(t, d, err)
		}
		return true
	})
	return &Result{Data: a.data, Diagnostics: a.diags.Items()}
}

func (a *analyzer) info(n ast.Node, key, value string) {
	if key == "V" {
		v, unknown, err := parseVoice(value)
		for _, u := range unknown {
			a.diags.Warn(n, "Unknown voice property '%s'", u)
		}
		a.record(n, v, err)
		return
	}
	d, err := analyzeInfo(key, value)
	a.record(n, d, err)
}

func (a *analyzer) record(n ast.Node, d Data, err error) {
	if err != nil {
		var unknown unknownError
		if errors.As(err, &unknown) {
			a.diags.Warn(n, "%s", err.Error())
		} else {
			a.diags.Error(n, "%s", err.Error())
		}
		return
	}
	if d != nil {
		a.data[n.ID()] = d
	}
}

func analyzeInfo(key, value string) (Data, error) {
	if k, ok := textFieldKinds[key]; ok {
		return TextField{Field: k, Text: value}, nil
	}
	switch key {
	case "K":
		return parseKey(value)
	case "M":
		return parseMeter(value)
	case "L":
		return parseNoteLength(value)
	case "Q":
		return parseTempo(value)
	case "X":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, errors.New("bad reference number " + strconv.Quote(value))
		}
		return ReferenceNumber{Number: n}, nil
	case "U":
		return parseUserSymbol(value)
	case "w":
		return parseLyrics(value), nil
	case "s":
		return parseSymbolLine(value)
	case "I":
		name, rest, _ := strings.Cut(strings.TrimSpace(value), " ")
		if name == "" {
			return nil, errors.New("empty instruction")
		}
		return parseDirective(name, strings.TrimSpace(rest))
	case "+":
		return nil, errors.New("continuation line without a field to continue")
	}
	if ignoredKeys[key] {
		return nil, nil
	}
	return nil, unknownError("Unknown info line key '" + key + "'")
}
