package abcscore

import (
	"github.com/cbegin/abcscore-go/internal/score"
	"github.com/cbegin/abcscore-go/internal/timeline"
)

// BuildTimeline lays out the notes of tune with the timeline settings from
// opts.
func BuildTimeline(tune *score.Tune, opts ...Option) *timeline.Timeline {
	return NewCompiler(opts...).Timeline(tune)
}
