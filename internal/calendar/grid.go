// Package calendar builds the monthly payment calendar and the payment views
// derived from it.
//
// Months are 0-based throughout this package (0 = January, 11 = December).
package calendar

import (
	"fmt"
	"time"

	"subtrack/internal/core"
)

const (
	// GridSize is the number of cells in a month view: six weeks of seven days.
	GridSize    = 42
	daysPerWeek = 7
)

// Cell is one day of the month view.
type Cell struct {
	Key            string         `json:"key"`
	Day            int            `json:"day"`
	InCurrentMonth bool           `json:"isCurrentMonth"`
	IsToday        bool           `json:"isToday"`
	Payments       []core.Payment `json:"payments"`
}

// Grid is the 6x7 view of a month, always starting on a Sunday.
type Grid struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Cells [GridSize]Cell `json:"cells"`
}

// BuildGrid lays out the month (year, month) with its payments.
//
// The first cell is the Sunday on or before the 1st; when that falls in the
// previous month the start rolls back across the month (and year) boundary.
// The result depends only on the arguments: today is read in its own
// location and only sets the "today" flag. Cells are walked as calendar
// days, so a DST transition never repeats or drops a day.
func BuildGrid(year, month int, payments []core.Payment, today time.Time) (Grid, error) {
	if month < 0 || month > 11 {
		return Grid{}, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}
	byDate := groupByKey(payments)
	todayKey := core.ToKey(today)

	start := gridStart(year, month)
	g := Grid{Year: year, Month: month}
	for i := 0; i < GridSize; i++ {
		day := start.AddDate(0, 0, i)
		key := core.ToKey(day)
		ps := byDate[key]
		if ps == nil {
			ps = []core.Payment{}
		}
		g.Cells[i] = Cell{
			Key:            key,
			Day:            day.Day(),
			InCurrentMonth: int(day.Month())-1 == month && day.Year() == year,
			IsToday:        key == todayKey,
			Payments:       ps,
		}
	}
	return g, nil
}

// gridStart returns the first date shown for the month, as midnight UTC.
func gridStart(year, month int) time.Time {
	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	startDay := 1 - int(first.Weekday())
	if startDay >= 1 {
		return first
	}
	prevYear, prevMonth := PrevMonth(year, month)
	daysInPrev := core.DaysIn(prevYear, time.Month(prevMonth+1))
	return time.Date(prevYear, time.Month(prevMonth+1), daysInPrev+startDay, 0, 0, 0, 0, time.UTC)
}

// Weeks returns the grid as six rows of seven cells.
func (g Grid) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, GridSize/daysPerWeek)
	for i := 0; i < GridSize; i += daysPerWeek {
		weeks = append(weeks, g.Cells[i:i+daysPerWeek])
	}
	return weeks
}

// Total returns the KRW total of the payments shown in the displayed month.
func (g Grid) Total() float64 {
	var total float64
	for _, c := range g.Cells {
		if !c.InCurrentMonth {
			continue
		}
		for _, p := range c.Payments {
			total += p.KRWAmount
		}
	}
	return total
}

// PrevMonth returns the month before (year, month).
func PrevMonth(year, month int) (int, int) {
	if month == 0 {
		return year - 1, 11
	}
	return year, month - 1
}

// NextMonth returns the month after (year, month).
func NextMonth(year, month int) (int, int) {
	if month == 11 {
		return year + 1, 0
	}
	return year, month + 1
}

// YearOptions lists the selectable years around current.
func YearOptions(current int) []int {
	years := make([]int, 0, 11)
	for y := current - 5; y <= current+5; y++ {
		years = append(years, y)
	}
	return years
}

func groupByKey(payments []core.Payment) map[string][]core.Payment {
	out := make(map[string][]core.Payment)
	for _, p := range payments {
		out[p.DateString] = append(out[p.DateString], p)
	}
	return out
}
