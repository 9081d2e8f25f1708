package semantic

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/f1monkey/spellchecker"
	"golang.org/x/text/cases"
)

var measurementDirectives = []string{
	"pagewidth", "pageheight", "topmargin", "botmargin", "leftmargin", "rightmargin",
	"indent", "staffsep", "sysstaffsep", "musicspace", "titlespace", "subtitlespace",
	"composerspace", "wordsspace", "textspace", "partsspace", "vocalspace", "infospace",
	"staffwidth", "vskip", "topspace", "headerspace", "footerspace",
}

var numberDirectives = []string{
	"scale", "barsperstaff", "measurenb", "barnumbers", "maxshrink", "fontboxpadding",
	"lineskipfac", "parskipfac", "notespacingfactor", "stretchlast", "setbarnb",
}

var booleanDirectives = []string{
	"landscape", "titlecaps", "titleleft", "continueall", "flatbeams", "graceslurs",
	"infoline", "musiconly", "oneperpage", "printtempo", "stretchstaff", "timewarn",
	"bstemdown", "partsbox", "freegchord", "titletrim", "measurebox", "nobarcheck",
	"splittune", "straightflags", "squarebreve",
}

var stringDirectives = []string{
	"papersize", "writefields", "map", "percmap", "deco", "partsfont-box", "sep",
}

var positionDirectives = []string{
	"vocal", "dynamic", "gchord", "ornament", "volume",
}

var fontDirectives = []string{
	"titlefont", "subtitlefont", "composerfont", "partsfont", "tempofont", "gchordfont",
	"annotationfont", "footerfont", "headerfont", "historyfont", "infofont", "measurefont",
	"repeatfont", "textfont", "vocalfont", "wordsfont", "voicefont", "tablabelfont",
	"tabnumberfont", "tabgracefont",
}

var otherDirectives = []string{
	"abc-version", "abc-copyright", "abc-creator", "abc-edited-by", "abc-charset",
	"header", "footer", "score", "staves", "text", "center", "begintext", "midi",
	"linebreak", "newpage", "setfont-1", "setfont-2", "setfont-3", "setfont-4",
	"setfont-5", "setfont-6", "setfont-7", "setfont-8", "setfont-9",
}

type directiveClass int

const (
	classMeasurement directiveClass = iota + 1
	classNumber
	classBoolean
	classString
	classPosition
	classFont
)

var directiveClasses = func() map[string]directiveClass {
	m := map[string]directiveClass{}
	for class, names := range map[directiveClass][]string{
		classMeasurement: measurementDirectives,
		classNumber:      numberDirectives,
		classBoolean:     booleanDirectives,
		classString:      stringDirectives,
		classPosition:    positionDirectives,
		classFont:        fontDirectives,
	} {
		for _, n := range names {
			m[n] = class
		}
	}
	return m
}()

// TuneOnlyDirectives produce output of their own and are rejected in the
// file header.
var TuneOnlyDirectives = map[string]bool{
	"text": true, "center": true, "begintext": true,
}

var (
	suggestOnce sync.Once
	suggestMu   sync.Mutex
	suggester   *spellchecker.Spellchecker
)

func loadSuggester() {
	sc, err := spellchecker.New("abcdefghijklmnopqrstuvwxyz0123456789-", spellchecker.WithMaxErrors(2))
	if err != nil {
		return
	}
	sc.Add(KnownDirectives()...)
	suggester = sc
}

// suggestDirective returns the closest known directive name, or "".
func suggestDirective(name string) string {
	suggestOnce.Do(loadSuggester)
	if suggester == nil {
		return ""
	}
	suggestMu.Lock()
	defer suggestMu.Unlock()
	words, err := suggester.Suggest(name, 1)
	if err != nil || len(words) == 0 {
		return ""
	}
	return words[0]
}

// NormalizeDirectiveName case-folds a directive name so "MIDI" and "midi"
// are the same directive.
func NormalizeDirectiveName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// parseDirective classifies a %% directive. Directives that are recognised
// but carry no data return nil, nil.
func parseDirective(rawName, value string) (Data, error) {
	name := NormalizeDirectiveName(rawName)
	switch name {
	case "abc-version":
		if value == "" {
			return nil, fmt.Errorf("abc-version: missing version")
		}
		return ABCVersion{Version: value}, nil
	case "abc-copyright":
		return TextField{Field: KindCopyright, Text: value}, nil
	case "abc-creator":
		return TextField{Field: KindCreator, Text: value}, nil
	case "abc-edited-by":
		return TextField{Field: KindEditedBy, Text: value}, nil
	case "abc-charset":
		if value == "" {
			return nil, fmt.Errorf("abc-charset: missing charset")
		}
		return Charset{Name: strings.ToLower(value)}, nil
	case "header":
		return parseHeaderFooter(KindHeader, value), nil
	case "footer":
		return parseHeaderFooter(KindFooter, value), nil
	case "score", "staves":
		layout, err := parseScore(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return layout, nil
	case "text":
		return TextLine{Field: KindText, Text: value}, nil
	case "center":
		return TextLine{Field: KindCenter, Text: value}, nil
	case "begintext":
		return TextLine{Field: KindBeginText, Text: value}, nil
	case "midi":
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return nil, fmt.Errorf("midi: missing command")
		}
		return MIDI{Command: fields[0], Args: fields[1:]}, nil
	case "linebreak":
		return parseLinebreak(value)
	case "newpage":
		if value == "" {
			return NewPage{}, nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("newpage: bad page %q", value)
		}
		return NewPage{Page: n}, nil
	}
	if num, ok := strings.CutPrefix(name, "setfont-"); ok {
		n, err := strconv.Atoi(num)
		if err != nil || n < 1 || n > 9 {
			return nil, fmt.Errorf("setfont: bad font number %q", num)
		}
		font, err := parseFont(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return SetFont{Number: n, Font: font}, nil
	}
	switch directiveClasses[name] {
	case classMeasurement:
		return parseMeasurement(name, value)
	case classNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad number %q", name, value)
		}
		return Number{Name: name, Value: f}, nil
	case classBoolean:
		return parseBoolean(name, value)
	case classString:
		return String{Name: name, Value: value}, nil
	case classPosition:
		switch v := strings.ToLower(strings.TrimSpace(value)); v {
		case "auto", "above", "below", "hidden":
			return Position{Name: name, Value: v}, nil
		}
		return nil, fmt.Errorf("%s: bad position %q", name, value)
	case classFont:
		font, err := parseFont(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return FontDirective{Name: name, Font: font}, nil
	}
	msg := fmt.Sprintf("Unknown directive '%s'", rawName)
	if s := suggestDirective(name); s != "" && s != name {
		msg += fmt.Sprintf(", did you mean '%s'?", s)
	}
	return nil, unknownError(msg)
}

// unknownError marks unknown names so the analyzer reports them as
// warnings rather than errors.
type unknownError string

func (e unknownError) Error() string { return string(e) }

// KnownDirectives lists every directive name the analyzer classifies.
func KnownDirectives() []string {
	var out []string
	for _, group := range [][]string{measurementDirectives, numberDirectives, booleanDirectives,
		stringDirectives, positionDirectives, fontDirectives, otherDirectives} {
		out = append(out, group...)
	}
	sort.Strings(out)
	return out
}
