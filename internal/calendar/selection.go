package calendar

import (
	"fmt"

	"tourbook/internal/models"
)

// Phase tags which fields of a Selection are meaningful.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseStartOnly
	PhaseFullRange
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseStartOnly:
		return "start_only"
	case PhaseFullRange:
		return "full_range"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func parsePhase(s string) (Phase, error) {
	switch s {
	case "", "empty":
		return PhaseEmpty, nil
	case "start_only":
		return PhaseStartOnly, nil
	case "full_range":
		return PhaseFullRange, nil
	default:
		return PhaseEmpty, fmt.Errorf("unknown selection phase %q", s)
	}
}

// Selection is a date range in one of three shapes: nothing picked, a start
// day only, or an ordered start/end pair. Build it with Empty, StartOnly or
// FullRange.
type Selection struct {
	phase Phase
	start Date
	end   Date
}

func Empty() Selection { return Selection{} }

func StartOnly(d Date) Selection {
	return Selection{phase: PhaseStartOnly, start: d}
}

// FullRange orders its arguments, so FullRange(a, b) == FullRange(b, a).
func FullRange(a, b Date) Selection {
	return Selection{phase: PhaseFullRange, start: minDate(a, b), end: maxDate(a, b)}
}

func (s Selection) Phase() Phase { return s.phase }

func (s Selection) Start() (Date, bool) {
	return s.start, s.phase != PhaseEmpty
}

func (s Selection) End() (Date, bool) {
	return s.end, s.phase == PhaseFullRange
}

// Contains reports whether d lies inside a full range, bounds included.
func (s Selection) Contains(d Date) bool {
	if s.phase != PhaseFullRange {
		return false
	}
	return !d.Before(s.start) && !d.After(s.end)
}

// Days is the inclusive number of selected days.
func (s Selection) Days() int {
	switch s.phase {
	case PhaseStartOnly:
		return 1
	case PhaseFullRange:
		return s.start.DaysUntil(s.end) + 1
	default:
		return 0
	}
}

// State converts the selection into its persisted form.
func (s Selection) State(sessionID string) models.SelectionState {
	st := models.SelectionState{SessionID: sessionID, Phase: s.phase.String()}
	if start, ok := s.Start(); ok {
		st.Start = start.String()
	}
	if end, ok := s.End(); ok {
		st.End = end.String()
	}
	return st
}

// FromState rebuilds a selection, rejecting stored shapes that cannot occur.
func FromState(st *models.SelectionState) (Selection, error) {
	if st == nil {
		return Empty(), nil
	}
	phase, err := parsePhase(st.Phase)
	if err != nil {
		return Empty(), err
	}

	switch phase {
	case PhaseStartOnly:
		start, err := ParseDate(st.Start)
		if err != nil {
			return Empty(), err
		}
		return StartOnly(start), nil
	case PhaseFullRange:
		start, err := ParseDate(st.Start)
		if err != nil {
			return Empty(), err
		}
		end, err := ParseDate(st.End)
		if err != nil {
			return Empty(), err
		}
		return FullRange(start, end), nil
	default:
		return Empty(), nil
	}
}
