package interp

import (
	"strings"

	"github.com/cbegin/abcscore-go/internal/ast"
	"github.com/cbegin/abcscore-go/internal/score"
	"github.com/cbegin/abcscore-go/internal/semantic"
)

// item applies one info line, inline field or directive. Nodes the
// analyzer gave no data are skipped.
func (r *run) item(ctx headerContext, n ast.Node) {
	switch n.(type) {
	case *ast.InfoLine, *ast.InlineField, *ast.Directive:
	default:
		return
	}
	d, ok := r.data[n.ID()]
	if !ok {
		return
	}
	fd := ctx.defaults()
	var ts *tuneState
	var body bool
	switch c := ctx.(type) {
	case fileHeaderContext:
	case tuneHeaderContext:
		ts, body = c.ts, c.body
	}

	switch t := d.(type) {
	case semantic.Key:
		if ts == nil {
			r.diags.Warn(n, "K: in the file header is ignored")
			return
		}
		ts.applyKey(&t.Signature, t.Clef, n, body)
	case semantic.ClefChange:
		if ts == nil {
			r.diags.Warn(n, "K: in the file header is ignored")
			return
		}
		ts.applyKey(nil, &t.ClefProperties, n, body)
	case semantic.Meter:
		if ts == nil {
			fd.tune.meter = t
			return
		}
		ts.applyMeter(t, n, body)
	case semantic.NoteLength:
		v := t.Value
		fd.tune.noteLength = &v
	case semantic.Tempo:
		if body && fd.tune.tempo != nil {
			return
		}
		tempo := t
		fd.tune.tempo = &tempo
		if t.PreString != "" {
			fd.metadata.TempoDescription = t.PreString
		}
	case semantic.Voice:
		if ts == nil {
			r.diags.Warn(n, "V: in the file header is ignored")
			return
		}
		ts.registerVoice(t.ID, t.Properties)
		if body {
			ts.switchToVoice(t.ID)
		}
	case semantic.UserSymbol:
		fd.userSymbols[t.Symbol] = t.Decoration
	case semantic.ReferenceNumber:
		fd.metadata.Reference = t.Number
	case semantic.TextField:
		if t.Field == semantic.KindTitle && body {
			ts.appendText([]score.TextSegment{{Text: t.Text}})
			return
		}
		setMetadata(&fd.metadata, t)
	case semantic.Lyrics:
		if ts != nil && body {
			ts.lyrics(t)
		}
	case semantic.SymbolLine:
		if ts != nil && body {
			ts.symbols(t, n)
		}
	case semantic.TextLine:
		if ts == nil {
			r.diags.Warn(n, "%%%%%s is only allowed inside a tune", t.Field)
			return
		}
		ts.textLine(t)
	case semantic.ScoreLayout:
		if ts == nil {
			layout := t
			fd.layout = &layout
			return
		}
		ts.applyScoreLayout(t)
	case semantic.SetFont:
		fd.fonts[t.Number] = t.Font
	case semantic.FontDirective:
		fd.formatting[t.Name] = t.Font
	case semantic.HeaderFooter:
		fd.formatting[t.Field.String()] = t
	case semantic.Measurement:
		fd.formatting[t.Name] = t
	case semantic.Number:
		fd.formatting[t.Name] = t.Value
	case semantic.Boolean:
		fd.formatting[t.Name] = t.Value
	case semantic.String:
		fd.formatting[t.Name] = t.Value
	case semantic.Position:
		fd.formatting[t.Name] = t.Value
	case semantic.MIDI:
		fd.midi = append(fd.midi, t)
	case semantic.NewPage:
		fd.formatting["newpage"] = t.Page
	case semantic.ABCVersion:
		fd.metadata.Version = t.Version
		fd.parserConfig["abc-version"] = t.Version
	case semantic.Charset:
		fd.parserConfig["abc-charset"] = t.Name
	case semantic.Linebreak:
		lb := t
		fd.linebreak = &lb
		fd.parserConfig["linebreak"] = t.Markers
	}
}

var metadataFields = map[semantic.Kind]func(*score.Metadata) *string{
	semantic.KindTitle:         func(m *score.Metadata) *string { return &m.Title },
	semantic.KindComposer:      func(m *score.Metadata) *string { return &m.Composer },
	semantic.KindOrigin:        func(m *score.Metadata) *string { return &m.Origin },
	semantic.KindRhythm:        func(m *score.Metadata) *string { return &m.Rhythm },
	semantic.KindBook:          func(m *score.Metadata) *string { return &m.Book },
	semantic.KindSource:        func(m *score.Metadata) *string { return &m.Source },
	semantic.KindDiscography:   func(m *score.Metadata) *string { return &m.Discography },
	semantic.KindNotes:         func(m *score.Metadata) *string { return &m.Notes },
	semantic.KindTranscription: func(m *score.Metadata) *string { return &m.Transcription },
	semantic.KindHistory:       func(m *score.Metadata) *string { return &m.History },
	semantic.KindAuthor:        func(m *score.Metadata) *string { return &m.Author },
	semantic.KindWords:         func(m *score.Metadata) *string { return &m.Words },
	semantic.KindCopyright:     func(m *score.Metadata) *string { return &m.Copyright },
	semantic.KindCreator:       func(m *score.Metadata) *string { return &m.Creator },
	semantic.KindEditedBy:      func(m *score.Metadata) *string { return &m.EditedBy },
}

// setMetadata stores a text field. Repeated fields are joined with
// newlines.
func setMetadata(m *score.Metadata, t semantic.TextField) {
	field, ok := metadataFields[t.Field]
	if !ok {
		return
	}
	p := field(m)
	if *p == "" {
		*p = t.Text
		return
	}
	*p = strings.Join([]string{*p, t.Text}, "\n")
}

// applyKey handles K: in a tune. In the header it changes the defaults and
// every declared voice; in the body it changes the current voice and emits
// a key element. A nil signature means only the clef changes.
func (ts *tuneState) applyKey(sig *semantic.KeySignature, clef *semantic.ClefProperties, n ast.Node, body bool) {
	hasKey := sig != nil
	d := &ts.defs.tune
	if hasKey {
		d.key = cloneKey(*sig)
	}
	if clef != nil {
		d.clef = d.clef.Apply(*clef)
	}
	if !body {
		for _, id := range ts.voiceOrder {
			v := ts.voices[id]
			if hasKey {
				v.key = cloneKey(*sig)
			}
			if clef != nil {
				v.clef = v.clef.Apply(*clef)
			}
		}
		return
	}
	v := ts.currentVoice()
	kind := score.KindKey
	if hasKey {
		v.key = cloneKey(*sig)
	} else {
		kind = score.KindClef
	}
	if clef != nil {
		v.clef = v.clef.Apply(*clef)
	}
	el := ts.newElement(kind, n)
	if hasKey {
		k := cloneKey(v.key)
		el.Key = &k
	}
	c := v.clef
	el.Clef = &c
	ts.push(el)
}

func (ts *tuneState) applyMeter(m semantic.Meter, n ast.Node, body bool) {
	d := &ts.defs.tune
	d.meter = m
	if !body {
		for _, id := range ts.voiceOrder {
			ts.voices[id].meter = m
		}
		return
	}
	v := ts.currentVoice()
	v.meter = m
	el := ts.newElement(score.KindMeter, n)
	mm := m
	el.Meter = &mm
	ts.push(el)
}
