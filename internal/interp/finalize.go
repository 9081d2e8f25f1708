package interp

import (
	"github.com/cbegin/abcscore-go/internal/score"
)

// finalize copies the tune's header state into the score and fills in the
// counts derived from what was written.
func (ts *tuneState) finalize() *score.Tune {
	t := ts.tune
	d := ts.defs
	t.Metadata = d.metadata
	t.Tempo = d.tune.tempo
	t.Formatting = d.formatting
	if len(d.midi) > 0 {
		t.Formatting["midi"] = d.midi
	}
	t.ParserConfig = d.parserConfig

	for _, sys := range t.Systems {
		if sys.Kind == score.SystemMusic {
			t.StaffCount = max(t.StaffCount, len(sys.Staffs))
		}
	}
	t.VoiceCount = len(ts.voices)
	t.LineCount = len(t.Systems)
	t.Measures = ts.measure
	return t
}
