package calendar

import (
	"fmt"
	"time"
)

// Weekdays labels a Sunday-first grid.
var Weekdays = []string{"S", "M", "T", "W", "T", "F", "S"}

type CellState int

const (
	CellBlank CellState = iota
	CellDisabled
	CellInRange
	CellStart
	CellIdle
)

func (s CellState) String() string {
	switch s {
	case CellBlank:
		return "blank"
	case CellDisabled:
		return "disabled"
	case CellInRange:
		return "in_range"
	case CellStart:
		return "start"
	case CellIdle:
		return "idle"
	default:
		return fmt.Sprintf("cell(%d)", int(s))
	}
}

func (s CellState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *CellState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "blank":
		*s = CellBlank
	case "disabled":
		*s = CellDisabled
	case "in_range":
		*s = CellInRange
	case "start":
		*s = CellStart
	case "idle":
		*s = CellIdle
	default:
		return fmt.Errorf("unknown cell state %q", b)
	}
	return nil
}

type Cell struct {
	Date     Date      `json:"date"`
	Label    string    `json:"label"`
	InMonth  bool      `json:"in_month"`
	Disabled bool      `json:"disabled"`
	State    CellState `json:"state"`
}

// Month is the derived grid for one calendar month, padded to whole weeks.
type Month struct {
	Pivot    Date     `json:"month"`
	Title    string   `json:"title"`
	Prev     Date     `json:"prev"`
	Next     Date     `json:"next"`
	Weekdays []string `json:"weekdays"`
	Cells    []Cell   `json:"cells"`
}

// Weeks splits the cells into rows of seven.
func (m Month) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, len(m.Cells)/7)
	for i := 0; i+7 <= len(m.Cells); i += 7 {
		weeks = append(weeks, m.Cells[i:i+7])
	}
	return weeks
}

func NextMonth(m Date) Date {
	return NewDate(m.Year(), m.Month()+1, 1)
}

func PrevMonth(m Date) Date {
	return NewDate(m.Year(), m.Month()-1, 1)
}

// ParseMonth reads YYYY-MM.
func ParseMonth(s string) (Date, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid month %q; expected YYYY-MM", s)
	}
	return DateOf(t), nil
}

// BuildMonth lays out the month containing pivot with sel highlighted. It
// does not change sel; navigating months keeps the selection.
func (p Picker) BuildMonth(pivot Date, sel Selection) Month {
	first := pivot.FirstOfMonth()
	last := pivot.LastOfMonth()
	gridStart := first.AddDays(-int(first.Weekday()))
	gridEnd := last.AddDays(int(time.Saturday - last.Weekday()))

	today := p.Today()
	start, hasStart := sel.Start()

	n := gridStart.DaysUntil(gridEnd) + 1
	cells := make([]Cell, 0, n)
	for d := gridStart; !d.After(gridEnd); d = d.AddDays(1) {
		cell := Cell{
			Date:     d,
			Label:    fmt.Sprintf("%d", d.Day()),
			InMonth:  d.Month() == first.Month(),
			Disabled: d.Before(today),
		}
		switch {
		case !cell.InMonth:
			cell.State = CellBlank
		case cell.Disabled:
			cell.State = CellDisabled
		case sel.Contains(d):
			cell.State = CellInRange
		case hasStart && d.Equal(start):
			cell.State = CellStart
		default:
			cell.State = CellIdle
		}
		cells = append(cells, cell)
	}

	return Month{
		Pivot:    first,
		Title:    fmt.Sprintf("%s %d", first.Month(), first.Year()),
		Prev:     PrevMonth(first),
		Next:     NextMonth(first),
		Weekdays: Weekdays,
		Cells:    cells,
	}
}
