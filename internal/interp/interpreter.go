package interp

import (
	"github.com/cbegin/abcscore-go/internal/ast"
	"github.com/cbegin/abcscore-go/internal/diag"
	"github.com/cbegin/abcscore-go/internal/score"
	"github.com/cbegin/abcscore-go/internal/semantic"
)

type Interpreter struct {
	cfg Config
}

func New(cfg Config) *Interpreter {
	def := DefaultConfig()
	if cfg.DefaultMeter.Type == "" {
		cfg.DefaultMeter = def.DefaultMeter
	}
	if cfg.DefaultKey.Accidentals == nil {
		cfg.DefaultKey = def.DefaultKey
	}
	if cfg.DefaultClef.Type == "" {
		cfg.DefaultClef = def.DefaultClef
	}
	if cfg.DefaultVoice == "" {
		cfg.DefaultVoice = def.DefaultVoice
	}
	return &Interpreter{cfg: cfg}
}

type Result struct {
	Tunes       []*score.Tune
	Diagnostics []diag.Diagnostic
}

// run is the state of one Interpret call.
type run struct {
	cfg        Config
	data       map[int]semantic.Data
	lineStarts []int
	diags      diag.Collector
}

// Interpret walks f and builds one score per tune. data is the analyzer's
// classification keyed by node ID. When source is not empty, element
// offsets are absolute byte offsets into it; otherwise they are offsets
// within the line.
func (in *Interpreter) Interpret(f *ast.File, data map[int]semantic.Data, source string) *Result {
	r := &run{cfg: in.cfg, data: data}
	if source != "" {
		r.lineStarts = LineStarts(source)
	}
	res := &Result{}
	if f == nil {
		return res
	}
	fd := newFileDefaults(in.cfg)
	if f.Header != nil {
		for _, it := range f.Header.Items {
			r.item(fileHeaderContext{fd: fd}, it)
		}
	}
	for _, t := range f.Tunes {
		res.Tunes = append(res.Tunes, r.tune(fd, t))
	}
	res.Diagnostics = r.diags.Items()
	return res
}

func (r *run) tune(fd *fileDefaults, t *ast.Tune) *score.Tune {
	ts := newTuneState(r, fd)
	if ts.defs.layout != nil {
		ts.applyScoreLayout(*ts.defs.layout)
	}
	if t.Header != nil {
		for _, it := range t.Header.Items {
			r.item(tuneHeaderContext{ts: ts}, it)
		}
	}
	ts.noteLength()
	if t.Body != nil {
		for _, it := range t.Body.Items {
			if ml, ok := it.(*ast.MusicLine); ok {
				ts.musicLine(ml)
				continue
			}
			r.item(tuneHeaderContext{ts: ts, body: true}, it)
		}
	}
	ts.endLine()
	return ts.finalize()
}

// LineStarts returns the byte offset at which each line of source begins.
func LineStarts(source string) []int {
	starts := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (r *run) offset(p ast.Position) int {
	if p.Line >= 0 && p.Line < len(r.lineStarts) {
		return r.lineStarts[p.Line] + p.Char
	}
	return p.Char
}
