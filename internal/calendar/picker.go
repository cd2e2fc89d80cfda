package calendar

import (
	"fmt"
	"time"

	"tourbook/internal/models"
)

// OutcomeKind names the transition a click produced.
type OutcomeKind int

const (
	OutcomeIgnored OutcomeKind = iota
	OutcomeStarted
	OutcomeCommitted
	OutcomeRejected
	OutcomeRestarted
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeStarted:
		return "started"
	case OutcomeCommitted:
		return "committed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeRestarted:
		return "restarted"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of a click. Warning is set only for rejections.
type Outcome struct {
	Selection Selection
	Kind      OutcomeKind
	Warning   string
}

// Picker holds the selection rules. Now supplies the current time in the
// zone whose start of day decides which days are in the past.
type Picker struct {
	MaxSpanDays int
	Now         func() time.Time
}

func NewPicker(maxSpanDays int, now func() time.Time) Picker {
	if maxSpanDays <= 0 {
		maxSpanDays = models.DefaultMaxRangeDays
	}
	if now == nil {
		now = time.Now
	}
	return Picker{MaxSpanDays: maxSpanDays, Now: now}
}

func (p Picker) Today() Date {
	if p.Now == nil {
		return DateOf(time.Now())
	}
	return DateOf(p.Now())
}

// IsDateDisabled reports whether d is strictly before today.
func (p Picker) IsDateDisabled(d Date) bool {
	return d.Before(p.Today())
}

// SpanWarning is the message shown when a range exceeds the cap.
func (p Picker) SpanWarning() string {
	return fmt.Sprintf("You cannot select more than %d days!", p.maxSpan())
}

// Click applies one day click to sel.
//
// A second click commits min/max of the two days when their distance is
// below MaxSpanDays, i.e. at most MaxSpanDays days counted inclusively.
// Anything longer keeps the original start and drops the pending end.
func (p Picker) Click(sel Selection, d Date) Outcome {
	if p.IsDateDisabled(d) {
		return Outcome{Selection: sel, Kind: OutcomeIgnored}
	}

	switch sel.Phase() {
	case PhaseFullRange:
		return Outcome{Selection: StartOnly(d), Kind: OutcomeRestarted}
	case PhaseStartOnly:
		start, _ := sel.Start()
		lo, hi := minDate(start, d), maxDate(start, d)
		if lo.DaysUntil(hi) < p.maxSpan() {
			return Outcome{Selection: FullRange(lo, hi), Kind: OutcomeCommitted}
		}
		return Outcome{Selection: StartOnly(start), Kind: OutcomeRejected, Warning: p.SpanWarning()}
	default:
		return Outcome{Selection: StartOnly(d), Kind: OutcomeStarted}
	}
}

func (p Picker) maxSpan() int {
	if p.MaxSpanDays <= 0 {
		return models.DefaultMaxRangeDays
	}
	return p.MaxSpanDays
}
