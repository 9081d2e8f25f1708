package abc

type ParserConfig struct {
	// GroupBeams wraps whitespace-free runs of two or more notes or chords
	// in ast.Beam nodes.
	GroupBeams bool
	// MaxBrokenRhythm is the longest accepted run of '>' or '<'. Longer
	// runs are truncated.
	MaxBrokenRhythm int
	// MaxRhythmSlashes and MaxRhythmValue bound a written note length.
	// Slashes or digits beyond them are left for an ast.ErrorNode.
	MaxRhythmSlashes int
	MaxRhythmValue   int
	// BodyInfoKeys lists the field letters recognised as info lines inside
	// a tune body. Any other "X:" line in the body is music.
	BodyInfoKeys string
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		GroupBeams:       true,
		MaxBrokenRhythm:  3,
		MaxRhythmSlashes: 6,
		MaxRhythmValue:   1024,
		BodyInfoKeys:     "IKLMmNPQRrsTUVWw+",
	}
}
