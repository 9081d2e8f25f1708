package abcscore

import (
	"log"

	"github.com/cbegin/abcscore-go/internal/abc"
	"github.com/cbegin/abcscore-go/internal/ast"
	"github.com/cbegin/abcscore-go/internal/diag"
	"github.com/cbegin/abcscore-go/internal/interp"
	"github.com/cbegin/abcscore-go/internal/score"
	"github.com/cbegin/abcscore-go/internal/semantic"
	"github.com/cbegin/abcscore-go/internal/timeline"
)

// Config bundles the settings of every stage.
type Config struct {
	Parser      abc.ParserConfig
	Interpreter interp.Config
	Timeline    timeline.Options
	// Charset is assumed for input that is not valid UTF-8 and has no
	// %%abc-charset line.
	Charset string
}

func DefaultConfig() Config {
	return Config{
		Parser:      abc.DefaultParserConfig(),
		Interpreter: interp.DefaultConfig(),
		Timeline:    timeline.DefaultOptions(),
	}
}

type Option func(*compilerConfig)

type compilerConfig struct {
	Config
	logger *log.Logger
}

func WithConfig(cfg Config) Option {
	return func(c *compilerConfig) {
		c.Config = cfg
	}
}

// WithLogger logs every diagnostic once a file has been compiled.
func WithLogger(l *log.Logger) Option {
	return func(c *compilerConfig) {
		c.logger = l
	}
}

func WithCharset(name string) Option {
	return func(c *compilerConfig) {
		c.Charset = name
	}
}

// Result is everything produced from one ABC file. Diagnostics from all
// stages are sorted by position.
type Result struct {
	File        *ast.File
	Tunes       []*score.Tune
	Diagnostics []diag.Diagnostic
}

// Compiler turns ABC text into scores. It keeps no state between calls and
// is safe for concurrent use.
type Compiler struct {
	cfg    compilerConfig
	parser *abc.Parser
	interp *interp.Interpreter
}

func NewCompiler(opts ...Option) *Compiler {
	cfg := compilerConfig{Config: DefaultConfig()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Compiler{
		cfg:    cfg,
		parser: abc.NewParser(cfg.Parser),
		interp: interp.New(cfg.Interpreter),
	}
}

func Compile(text string, opts ...Option) *Result {
	return NewCompiler(opts...).Compile(text)
}

func CompileBytes(data []byte, opts ...Option) (*Result, error) {
	return NewCompiler(opts...).CompileBytes(data)
}

// Interpret runs the interpreter alone over a file parsed and analyzed
// elsewhere.
func Interpret(f *ast.File, analysis *semantic.Result, source string, opts ...Option) *Result {
	return NewCompiler(opts...).Interpret(f, analysis, source)
}

func (c *Compiler) Compile(text string) *Result {
	f := c.parser.Parse(text)
	return c.Interpret(f, semantic.Analyze(f), text)
}

// CompileBytes decodes data with DecodeSource and compiles it.
func (c *Compiler) CompileBytes(data []byte) (*Result, error) {
	text, err := DecodeSource(data, c.cfg.Charset)
	if err != nil {
		return nil, err
	}
	return c.Compile(text), nil
}

// Interpret builds scores from an already parsed and analyzed file. source
// may be empty, in which case element offsets are relative to their line.
func (c *Compiler) Interpret(f *ast.File, analysis *semantic.Result, source string) *Result {
	var data map[int]semantic.Data
	var diags []diag.Diagnostic
	if analysis != nil {
		data = analysis.Data
		diags = append(diags, analysis.Diagnostics...)
	}
	res := c.interp.Interpret(f, data, source)
	diags = append(diags, res.Diagnostics...)
	diag.Sort(diags)
	if c.cfg.logger != nil {
		for _, d := range diags {
			c.cfg.logger.Printf("abcscore: %s", d)
		}
	}
	return &Result{File: f, Tunes: res.Tunes, Diagnostics: diags}
}

// Timeline lays out the notes of tune on a tick grid.
func (c *Compiler) Timeline(tune *score.Tune) *timeline.Timeline {
	return timeline.Build(tune, c.cfg.Timeline)
}

// LineStarts returns the byte offset of each line of text.
func LineStarts(text string) []int { return interp.LineStarts(text) }

// Offset converts a position to a byte offset using lineStarts.
func Offset(lineStarts []int, p ast.Position) int {
	if p.Line >= 0 && p.Line < len(lineStarts) {
		return lineStarts[p.Line] + p.Char
	}
	return p.Char
}
