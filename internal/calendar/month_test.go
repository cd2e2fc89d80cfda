package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMonth_Grid(t *testing.T) {
	p := fixedPicker()

	for m := time.January; m <= time.December; m++ {
		month := p.BuildMonth(NewDate(2026, m, 15), Empty())
		require.NotEmpty(t, month.Cells)
		assert.Zero(t, len(month.Cells)%7, m.String())
		assert.Equal(t, time.Sunday, month.Cells[0].Date.Weekday())
		assert.Equal(t, time.Saturday, month.Cells[len(month.Cells)-1].Date.Weekday())

		inMonth := 0
		for _, c := range month.Cells {
			if c.InMonth {
				inMonth++
			} else {
				assert.Equal(t, CellBlank, c.State)
			}
		}
		assert.Equal(t, NewDate(2026, m, 1).LastOfMonth().Day(), inMonth)
	}
}

func TestBuildMonth_October2026(t *testing.T) {
	p := fixedPicker()
	month := p.BuildMonth(NewDate(2026, 10, 3), Empty())

	assert.Equal(t, "October 2026", month.Title)
	assert.Equal(t, "2026-09-01", month.Prev.String())
	assert.Equal(t, "2026-11-01", month.Next.String())
	assert.Equal(t, []string{"S", "M", "T", "W", "T", "F", "S"}, month.Weekdays)
	// October 1st 2026 is a Thursday.
	assert.Equal(t, "2026-09-27", month.Cells[0].Date.String())
	assert.Len(t, month.Weeks(), 5)

	for _, c := range month.Cells {
		if !c.InMonth {
			continue
		}
		if c.Date.Day() < 17 {
			assert.Equal(t, CellDisabled, c.State, c.Date.String())
			assert.True(t, c.Disabled)
		} else {
			assert.Equal(t, CellIdle, c.State, c.Date.String())
		}
	}
}

func TestBuildMonth_Highlights(t *testing.T) {
	p := fixedPicker()

	full := FullRange(NewDate(2026, 11, 10), NewDate(2026, 11, 14))
	month := p.BuildMonth(NewDate(2026, 11, 1), full)
	for _, c := range month.Cells {
		if !c.InMonth {
			continue
		}
		if c.Date.Day() >= 10 && c.Date.Day() <= 14 {
			assert.Equal(t, CellInRange, c.State, c.Date.String())
		} else {
			assert.Equal(t, CellIdle, c.State, c.Date.String())
		}
	}

	startOnly := p.BuildMonth(NewDate(2026, 11, 1), StartOnly(NewDate(2026, 11, 20)))
	starts := 0
	for _, c := range startOnly.Cells {
		if c.State == CellStart {
			starts++
			assert.Equal(t, 20, c.Date.Day())
		}
	}
	assert.Equal(t, 1, starts)
}

func TestMonthNavigation_KeepsSelection(t *testing.T) {
	p := fixedPicker()
	sel := StartOnly(NewDate(2026, 11, 20))

	pivot := NewDate(2026, 11, 1)
	for i := 0; i < 3; i++ {
		pivot = NextMonth(pivot)
		p.BuildMonth(pivot, sel)
	}
	for i := 0; i < 3; i++ {
		pivot = PrevMonth(pivot)
	}
	assert.Equal(t, NewDate(2026, 11, 1), pivot)
	assert.Equal(t, StartOnly(NewDate(2026, 11, 20)), sel)

	assert.Equal(t, NewDate(2027, 1, 1), NextMonth(NewDate(2026, 12, 31)))
	assert.Equal(t, NewDate(2025, 12, 1), PrevMonth(NewDate(2026, 1, 31)))
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2026-02")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, 2, 1), m)

	_, err = ParseMonth("Feb 2026")
	assert.Error(t, err)
}

func TestCellJSON(t *testing.T) {
	raw, err := json.Marshal(Cell{Date: NewDate(2026, 11, 2), Label: "2", InMonth: true, State: CellInRange})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-11-02","label":"2","in_month":true,"disabled":false,"state":"in_range"}`, string(raw))
}

func TestMonthJSONRoundTrip(t *testing.T) {
	p := fixedPicker()
	month := p.BuildMonth(NewDate(2026, 10, 1), FullRange(NewDate(2026, 10, 20), NewDate(2026, 10, 22)))

	raw, err := json.Marshal(month)
	require.NoError(t, err)

	var decoded Month
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, month, decoded)

	states := map[CellState]bool{}
	for _, c := range decoded.Cells {
		states[c.State] = true
	}
	for _, s := range []CellState{CellBlank, CellDisabled, CellInRange, CellIdle} {
		assert.True(t, states[s], s.String())
	}
}

func TestCellStateUnmarshalText(t *testing.T) {
	for _, s := range []CellState{CellBlank, CellDisabled, CellInRange, CellStart, CellIdle} {
		raw, err := s.MarshalText()
		require.NoError(t, err)

		var got CellState
		require.NoError(t, got.UnmarshalText(raw))
		assert.Equal(t, s, got)
	}

	var s CellState
	assert.Error(t, s.UnmarshalText([]byte("end")))
}
