package interp

import (
	"slices"

	"github.com/cbegin/abcscore-go/internal/score"
)

// switchToVoice points the cursor at the next writable lane for id. A new
// system is started when there is none, when the last one is text, or when
// the voice already finished a line in the last system.
func (ts *tuneState) switchToVoice(id string) {
	v := ts.voice(id)
	a := ts.assignVoiceToStaffLayout(id)
	ts.current = v

	last := len(ts.tune.Systems) - 1
	if last < 0 || ts.tune.Systems[last].Kind != score.SystemMusic || v.closedSystem == last {
		ts.tune.Systems = append(ts.tune.Systems, ts.newMusicSystem())
		last++
		if ts.firstMusic < 0 {
			ts.firstMusic = last
		}
	}
	sys := ts.tune.Systems[last]
	for len(sys.Staffs) <= a.StaffNum {
		sys.Staffs = append(sys.Staffs, ts.newStaff(len(sys.Staffs), last))
	}
	st := sys.Staffs[a.StaffNum]
	for len(st.Voices) <= a.Index {
		st.Voices = append(st.Voices, score.Lane{})
	}
	ts.cursor = &cursor{system: last, staff: a.StaffNum, lane: a.Index}
}

func (ts *tuneState) newMusicSystem() *score.System {
	sys := &score.System{Kind: score.SystemMusic}
	idx := len(ts.tune.Systems)
	for i := range ts.staffs {
		sys.Staffs = append(sys.Staffs, ts.newStaff(i, idx))
	}
	return sys
}

// newStaff builds staff i of system sysIdx, taking clef and key from the
// voice that owns its first lane.
func (ts *tuneState) newStaff(i, sysIdx int) *score.Staff {
	st := &score.Staff{
		Clef: ts.defs.tune.clef,
		Key:  cloneKey(ts.defs.tune.key),
	}
	lanes := 1
	if i < len(ts.staffs) {
		e := ts.staffs[i]
		st.Bracket, st.Brace, st.ConnectBarLines = e.Bracket, e.Brace, e.ConnectBarLines
		lanes = max(e.NumVoices, 1)
	}
	st.Voices = make([]score.Lane, lanes)
	if v := ts.staffOwner(i); v != nil {
		ts.refreshStaff(st, v, sysIdx)
	} else if ts.firstMusic < 0 || ts.firstMusic == sysIdx {
		m := ts.defs.tune.meter
		m.Value = slices.Clone(m.Value)
		st.Meter = &m
	}
	return st
}

func (ts *tuneState) staffOwner(i int) *voiceState {
	for _, id := range ts.voiceOrder {
		if a, ok := ts.assign[id]; ok && a.StaffNum == i && a.Index == 0 {
			return ts.voices[id]
		}
	}
	return nil
}

// refreshStaff copies the voice's clef and key onto the staff. Only the
// first music system shows the meter.
func (ts *tuneState) refreshStaff(st *score.Staff, v *voiceState, sysIdx int) {
	st.Clef = v.clef
	st.Key = cloneKey(v.key)
	st.Meter = nil
	if ts.firstMusic < 0 || ts.firstMusic == sysIdx {
		m := v.meter
		m.Value = slices.Clone(m.Value)
		st.Meter = &m
	}
}

// lane returns the lane under the cursor, or nil when nothing has been
// written yet.
func (ts *tuneState) lane() *score.Lane {
	c := ts.cursor
	if c == nil {
		return nil
	}
	return &ts.tune.Systems[c.system].Staffs[c.staff].Voices[c.lane]
}

// lastElement is the element most recently written to the current lane.
func (ts *tuneState) lastElement() *score.Element {
	if l := ts.lane(); l != nil {
		return l.Last()
	}
	return nil
}

// push appends el to the current voice's lane. It only resolves the lane
// when the cursor has been invalidated.
func (ts *tuneState) push(el *score.Element) {
	v := ts.currentVoice()
	if ts.cursor == nil {
		ts.switchToVoice(v.id)
	}
	c := ts.cursor
	st := ts.tune.Systems[c.system].Staffs[c.staff]
	lane := &st.Voices[c.lane]
	if c.lane == 0 && len(*lane) == 0 {
		ts.refreshStaff(st, v, c.system)
	}
	lane.Append(el)

	v.dirty = true
	v.lastSystem = c.system
	if v.lineNo != ts.lineNo {
		v.lineNo = ts.lineNo
		v.lineElems = nil
		v.verse = 0
	}
	v.lineElems = append(v.lineElems, el)
}

// endLine finishes the current line for every voice that wrote to it.
func (ts *tuneState) endLine() {
	for _, id := range ts.voiceOrder {
		v := ts.voices[id]
		v.closeBeam()
		if v.dirty {
			v.closedSystem = v.lastSystem
			v.dirty = false
		}
	}
	ts.cursor = nil
}

// breaks reports whether marker ends a system under the tune's %%linebreak
// setting. Without one, line ends and '$' both break.
func (ts *tuneState) breaks(marker string) bool {
	lb := ts.defs.linebreak
	if lb == nil {
		return marker == "<EOL>" || marker == "$"
	}
	return lb.Breaks(marker)
}

func (ts *tuneState) appendText(segments []score.TextSegment) {
	if len(segments) == 0 {
		return
	}
	ts.tune.Systems = append(ts.tune.Systems, &score.System{Kind: score.SystemText, Text: segments})
	ts.cursor = nil
}
