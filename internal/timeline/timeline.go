package timeline

import (
	"math"
	"sort"
	"time"

	"github.com/cbegin/abcscore-go/internal/score"
)

type Options struct {
	// Resolution is the number of ticks in a whole note.
	Resolution int
	// DefaultBPM is the quarter note tempo used when the tune has no Q:.
	DefaultBPM float64
}

func DefaultOptions() Options {
	return Options{Resolution: 1920, DefaultBPM: 120}
}

type Event struct {
	Tick     int   `json:"tick"`
	Duration int   `json:"duration"`
	Notes    []int `json:"notes,omitempty"`
	Rest     bool  `json:"rest,omitempty"`
}

// Track is the timed content of one voice lane, following it across
// systems.
type Track struct {
	Staff  int     `json:"staff"`
	Lane   int     `json:"lane"`
	Events []Event `json:"events"`
}

type Timeline struct {
	Resolution int     `json:"resolution"`
	BPM        float64 `json:"bpm"`
	Tracks     []Track `json:"tracks"`
	EndTick    int     `json:"endTick"`
}

type laneKey struct{ staff, lane int }

type trackCursor struct {
	track *Track
	tick  int
}

// Build lays the notes of tune out on a tick grid. Tied notes are merged
// into one event and grace notes take no time.
func Build(tune *score.Tune, opts Options) *Timeline {
	def := DefaultOptions()
	if opts.Resolution <= 0 {
		opts.Resolution = def.Resolution
	}
	if opts.DefaultBPM <= 0 {
		opts.DefaultBPM = def.DefaultBPM
	}
	tl := &Timeline{Resolution: opts.Resolution, BPM: quarterBPM(tune, opts.DefaultBPM)}

	cursors := map[laneKey]*trackCursor{}
	var keys []laneKey
	tune.Lanes(func(_, staff, lane int, l score.Lane) {
		k := laneKey{staff, lane}
		tc, ok := cursors[k]
		if !ok {
			tc = &trackCursor{track: &Track{Staff: staff, Lane: lane}}
			cursors[k] = tc
			keys = append(keys, k)
		}
		for _, el := range l {
			if el.Kind != score.KindNote {
				continue
			}
			ticks := int(math.Round(el.Duration * float64(opts.Resolution)))
			tc.add(el, ticks)
		}
	})

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].staff != keys[j].staff {
			return keys[i].staff < keys[j].staff
		}
		return keys[i].lane < keys[j].lane
	})
	for _, k := range keys {
		tc := cursors[k]
		tl.Tracks = append(tl.Tracks, *tc.track)
		tl.EndTick = max(tl.EndTick, tc.tick)
	}
	return tl
}

func (tc *trackCursor) add(el *score.Element, ticks int) {
	evs := tc.track.Events
	if el.Rest == nil && len(evs) > 0 && !evs[len(evs)-1].Rest && allTiedIn(el) {
		evs[len(evs)-1].Duration += ticks
		tc.tick += ticks
		return
	}
	ev := Event{Tick: tc.tick, Duration: ticks, Rest: el.Rest != nil}
	for _, p := range el.Pitches {
		ev.Notes = append(ev.Notes, p.MIDI)
	}
	tc.track.Events = append(evs, ev)
	tc.tick += ticks
}

func allTiedIn(el *score.Element) bool {
	if len(el.Pitches) == 0 {
		return false
	}
	for _, p := range el.Pitches {
		if !p.EndTie {
			return false
		}
	}
	return true
}

// quarterBPM converts the tune's Q: field to quarter notes per minute.
func quarterBPM(tune *score.Tune, fallback float64) float64 {
	t := tune.Tempo
	if t == nil || t.BPM <= 0 {
		return fallback
	}
	beat := t.Beat()
	if beat.IsZero() {
		return float64(t.BPM)
	}
	return float64(t.BPM) * beat.Float64() * 4
}

// Duration is the playing time of the whole timeline.
func (tl *Timeline) Duration() time.Duration {
	return tl.TickDuration(tl.EndTick)
}

func (tl *Timeline) TickDuration(ticks int) time.Duration {
	if tl.Resolution <= 0 || tl.BPM <= 0 {
		return 0
	}
	wholes := float64(ticks) / float64(tl.Resolution)
	seconds := wholes * 240 / tl.BPM
	return time.Duration(seconds * float64(time.Second))
}
